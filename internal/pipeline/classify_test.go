package pipeline

import "testing"

func lightBuckets() []Bucket {
	return []Bucket{
		{Status: "dark", Below: 40},
		{Status: "twilight", Below: 800},
		{Status: "cloudy", Below: 2000},
		{Status: "clear", Below: 3500},
		{Status: "sunny"},
	}
}

func TestNewClassifierValidation(t *testing.T) {
	if _, err := NewClassifier(ModeValue, []Bucket{{Status: "only"}}, 0); err == nil {
		t.Error("single-bucket value classifier expected error")
	}
	if _, err := NewClassifier(ModeValue, []Bucket{
		{Status: "high", Below: 100},
		{Status: "low", Below: 50},
		{Status: "rest"},
	}, 0); err == nil {
		t.Error("descending bucket bounds expected error")
	}
	if _, err := NewClassifier(ModeTrend, nil, -1); err == nil {
		t.Error("negative trend margin expected error")
	}
	if _, err := NewClassifier("bogus", nil, 0); err == nil {
		t.Error("unknown mode expected error")
	}
}

func TestClassifierValueBuckets(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{v: 0, want: "dark"},
		{v: 40, want: "dark"},
		{v: 40.01, want: "twilight"},
		{v: 800, want: "twilight"},
		{v: 1500, want: "cloudy"},
		{v: 3500, want: "clear"},
		{v: 4095, want: "sunny"},
	}

	for _, tt := range tests {
		c, err := NewClassifier(ModeValue, lightBuckets(), 0)
		if err != nil {
			t.Fatal(err)
		}
		if got, _ := c.Update(tt.v, 0); got != tt.want {
			t.Errorf("Update(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestClassifierFirstAssignmentIsNotAChange(t *testing.T) {
	c, err := NewClassifier(ModeValue, lightBuckets(), 100)
	if err != nil {
		t.Fatal(err)
	}

	status, changed := c.Update(1500, 0)
	if status != "cloudy" {
		t.Fatalf("first Update status = %q, want cloudy", status)
	}
	if changed {
		t.Error("first assignment reported as a status change")
	}
}

func TestClassifierValueHysteresis(t *testing.T) {
	c, err := NewClassifier(ModeValue, lightBuckets(), 100)
	if err != nil {
		t.Fatal(err)
	}

	c.Update(780, 0) // twilight, anchors hysteresis at 780

	// Crosses the twilight/cloudy bound but by less than the margin.
	status, changed := c.Update(820, 0)
	if changed {
		t.Error("sub-margin crossing reported as a status change")
	}
	if status != "twilight" {
		t.Errorf("status = %q, want twilight held by hysteresis", status)
	}

	// Oscillation around the bound inside the margin stays quiet.
	for _, v := range []float64{790, 810, 795, 815} {
		if _, changed := c.Update(v, 0); changed {
			t.Errorf("Update(%v) inside hysteresis band reported a change", v)
		}
	}

	// A genuine move beyond the margin transitions exactly once.
	status, changed = c.Update(900, 0)
	if !changed || status != "cloudy" {
		t.Errorf("Update(900) = (%q, %v), want (cloudy, true)", status, changed)
	}
	if _, changed := c.Update(900, 0); changed {
		t.Error("repeated value after transition reported another change")
	}
}

func TestClassifierTrendMode(t *testing.T) {
	tests := []struct {
		trend float64
		want  string
	}{
		{trend: -2.0, want: StatusPumping},
		{trend: -0.5, want: StatusStable},
		{trend: 0, want: StatusStable},
		{trend: 1.5, want: StatusStable},
		{trend: 2.0, want: StatusFilling},
	}

	for _, tt := range tests {
		c, err := NewClassifier(ModeTrend, nil, 1.5)
		if err != nil {
			t.Fatal(err)
		}
		if got, _ := c.Update(0, tt.trend); got != tt.want {
			t.Errorf("Update(trend=%v) = %q, want %q", tt.trend, got, tt.want)
		}
	}
}

func TestClassifierTrendModeIsExclusive(t *testing.T) {
	c, err := NewClassifier(ModeTrend, nil, 1.5)
	if err != nil {
		t.Fatal(err)
	}

	// pumping -> stable -> filling, each transition reported exactly once
	steps := []struct {
		trend       float64
		want        string
		wantChanged bool
	}{
		{trend: -2.0, want: StatusPumping, wantChanged: false}, // first assignment
		{trend: -2.1, want: StatusPumping, wantChanged: false},
		{trend: -0.5, want: StatusStable, wantChanged: true},
		{trend: 0.2, want: StatusStable, wantChanged: false},
		{trend: 2.0, want: StatusFilling, wantChanged: true},
		{trend: 2.5, want: StatusFilling, wantChanged: false},
	}

	for i, step := range steps {
		got, changed := c.Update(0, step.trend)
		if got != step.want || changed != step.wantChanged {
			t.Errorf("step %d: Update(trend=%v) = (%q, %v), want (%q, %v)",
				i, step.trend, got, changed, step.want, step.wantChanged)
		}
	}
}
