package retained

import (
	"path/filepath"
	"testing"
	"time"
)

func TestOpenColdAndWarm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retained.db")

	s, cold, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cold {
		t.Error("first Open on a fresh path did not report a cold start")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, cold, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if cold {
		t.Error("second Open reported a cold start despite an existing database")
	}
}

func TestExtremaRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retained.db")
	s, _, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// A channel never seen before is unseeded.
	min, max, seeded, err := s.LoadExtrema("water")
	if err != nil {
		t.Fatal(err)
	}
	if seeded || min != 0 || max != 0 {
		t.Errorf("fresh channel = (%v, %v, %v), want (0, 0, false)", min, max, seeded)
	}

	if err := s.SaveExtrema("water", 4, 80, true); err != nil {
		t.Fatal(err)
	}
	min, max, seeded, err = s.LoadExtrema("water")
	if err != nil {
		t.Fatal(err)
	}
	if !seeded || min != 4 || max != 80 {
		t.Errorf("loaded extrema = (%v, %v, %v), want (4, 80, true)", min, max, seeded)
	}

	// Upsert overwrites in place.
	if err := s.SaveExtrema("water", 2, 85, true); err != nil {
		t.Fatal(err)
	}
	min, max, _, err = s.LoadExtrema("water")
	if err != nil {
		t.Fatal(err)
	}
	if min != 2 || max != 85 {
		t.Errorf("updated extrema = (%v, %v), want (2, 85)", min, max)
	}
}

func TestExtremaSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retained.db")

	s, _, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveExtrema("light", 30, 3200, true); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, _, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	min, max, seeded, err := s.LoadExtrema("light")
	if err != nil {
		t.Fatal(err)
	}
	if !seeded || min != 30 || max != 3200 {
		t.Errorf("extrema after reopen = (%v, %v, %v), want (30, 3200, true)", min, max, seeded)
	}
}

func TestExtremaResetPersistsUnseeded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retained.db")
	s, _, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.SaveExtrema("rain", 100, 900, true); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveExtrema("rain", 0, 0, false); err != nil {
		t.Fatal(err)
	}

	_, _, seeded, err := s.LoadExtrema("rain")
	if err != nil {
		t.Fatal(err)
	}
	if seeded {
		t.Error("channel still seeded after an unseeded save")
	}
}

func TestRecordBoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retained.db")
	s, _, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	t0 := time.Now()
	count, lastRun, err := s.RecordBoot(t0)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("first boot count = %d, want 1", count)
	}
	if lastRun != 0 {
		t.Errorf("first boot run period = %v, want 0", lastRun)
	}

	count, lastRun, err = s.RecordBoot(t0.Add(90 * time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("second boot count = %d, want 2", count)
	}
	// Boot times persist with second granularity.
	if lastRun < 89*time.Second || lastRun > 91*time.Second {
		t.Errorf("run period = %v, want roughly 90s", lastRun)
	}
}

func TestRecordBootSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retained.db")

	s, _, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.RecordBoot(time.Now()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, _, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	count, _, err := s.RecordBoot(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("boot count after reopen = %d, want 2", count)
	}
}
