package pipeline

import "testing"

func TestNewBurstSmootherValidation(t *testing.T) {
	for _, size := range []int{-1, 0, 2, 4, 10} {
		if _, err := NewBurstSmoother(size); err == nil {
			t.Errorf("NewBurstSmoother(%d) expected error, got nil", size)
		}
	}
	for _, size := range []int{1, 3, 5, 9} {
		if _, err := NewBurstSmoother(size); err != nil {
			t.Errorf("NewBurstSmoother(%d) unexpected error: %v", size, err)
		}
	}
}

func TestBurstSmootherMedian(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		samples []float64
		want    float64
	}{
		{
			name:    "sunny morning light burst",
			size:    5,
			samples: []float64{10, 12, 11, 13, 12},
			want:    12,
		},
		{
			name:    "outlier spike rejected",
			size:    5,
			samples: []float64{100, 100, 4095, 100, 100},
			want:    100,
		},
		{
			name:    "outlier dropout rejected",
			size:    5,
			samples: []float64{100, 0, 100, 100, 0},
			want:    100,
		},
		{
			name:    "single sample burst",
			size:    1,
			samples: []float64{42.5},
			want:    42.5,
		},
		{
			name:    "descending input",
			size:    3,
			samples: []float64{9, 5, 1},
			want:    5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewBurstSmoother(tt.size)
			if err != nil {
				t.Fatalf("NewBurstSmoother(%d): %v", tt.size, err)
			}

			for i, raw := range tt.samples {
				more := s.Accumulate(raw)
				wantMore := i < len(tt.samples)-1
				if more != wantMore {
					t.Fatalf("Accumulate sample %d: more = %v, want %v", i, more, wantMore)
				}
			}

			if got := s.ReadMedian(); got != tt.want {
				t.Errorf("ReadMedian() = %v, want %v", got, tt.want)
			}
			if s.Pending() != 0 {
				t.Errorf("Pending() = %d after ReadMedian, want 0", s.Pending())
			}
		})
	}
}

func TestBurstSmootherDiscard(t *testing.T) {
	s, err := NewBurstSmoother(5)
	if err != nil {
		t.Fatal(err)
	}

	s.Accumulate(7)
	s.Accumulate(8)
	if s.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", s.Pending())
	}

	s.Discard()
	if s.Pending() != 0 {
		t.Fatalf("Pending() = %d after Discard, want 0", s.Pending())
	}

	// A fresh burst after a discard must not see the stale samples.
	for _, v := range []float64{1, 2, 3, 4, 5} {
		s.Accumulate(v)
	}
	if got := s.ReadMedian(); got != 3 {
		t.Errorf("ReadMedian() after discard = %v, want 3", got)
	}
}
