package pipeline

import "fmt"

// ExtremaStore persists per-channel extrema so they survive a warm restart.
type ExtremaStore interface {
	LoadExtrema(channel string) (min, max float64, seeded bool, err error)
	SaveExtrema(channel string, min, max float64, seeded bool) error
}

// ExtremaTracker maintains the long-term minimum and maximum filtered value
// for one channel. The pair is written back to the store on every update.
type ExtremaTracker struct {
	channel string
	store   ExtremaStore

	min, max float64
	seeded   bool
}

// NewExtremaTracker creates a tracker, loading any previously persisted
// extrema for the channel. A record that claims to be seeded but carries an
// inverted pair (min > max) is treated as unseeded and re-armed; the next
// reading re-seeds both bounds.
func NewExtremaTracker(channel string, store ExtremaStore) (*ExtremaTracker, error) {
	t := &ExtremaTracker{channel: channel, store: store}

	min, max, seeded, err := store.LoadExtrema(channel)
	if err != nil {
		return nil, fmt.Errorf("loading extrema for channel %s: %w", channel, err)
	}
	if seeded && min <= max {
		t.min = min
		t.max = max
		t.seeded = true
	}
	return t, nil
}

// Update folds one filtered value into the extrema and persists the result.
// The first seeded reading initializes both bounds to that reading.
func (t *ExtremaTracker) Update(v float64) (min, max float64, err error) {
	if !t.seeded {
		t.min = v
		t.max = v
		t.seeded = true
	} else {
		if v < t.min {
			t.min = v
		}
		if v > t.max {
			t.max = v
		}
	}
	return t.min, t.max, t.store.SaveExtrema(t.channel, t.min, t.max, true)
}

// Reset re-arms the tracker to its pending state, starting a new long-term
// observation window. The next reading re-seeds both bounds.
func (t *ExtremaTracker) Reset() error {
	t.seeded = false
	t.min = 0
	t.max = 0
	return t.store.SaveExtrema(t.channel, 0, 0, false)
}

// Bounds returns the current extrema and whether they have been seeded.
func (t *ExtremaTracker) Bounds() (min, max float64, seeded bool) {
	return t.min, t.max, t.seeded
}
