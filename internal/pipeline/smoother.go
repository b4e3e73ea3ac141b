// Package pipeline implements the measurement pipeline: burst median
// smoothing, exponential filtering, trend estimation, hysteresis-based
// status classification, persisted extrema tracking, and the per-channel
// drivers and cooperative scheduler that tie them together.
package pipeline

import (
	"fmt"
	"sort"
)

// BurstSmoother collects a fixed-size burst of raw samples and reduces it
// to a single median value. Burst sizes must be odd so the median is the
// middle element of the sorted burst.
type BurstSmoother struct {
	size    int
	samples []float64
}

// NewBurstSmoother creates a smoother for bursts of the given odd size.
func NewBurstSmoother(size int) (*BurstSmoother, error) {
	if size < 1 || size%2 == 0 {
		return nil, fmt.Errorf("burst size must be a positive odd integer, got %d", size)
	}
	return &BurstSmoother{
		size:    size,
		samples: make([]float64, 0, size),
	}, nil
}

// Accumulate appends one raw sample to the current burst. It returns true
// while more samples are still needed and false exactly when the burst
// just became complete.
func (b *BurstSmoother) Accumulate(raw float64) bool {
	b.samples = append(b.samples, raw)
	return len(b.samples) < b.size
}

// ReadMedian returns the median of the completed burst and clears the
// accumulator for the next burst. It is valid to call only immediately
// after Accumulate returned false.
func (b *BurstSmoother) ReadMedian() float64 {
	sorted := append([]float64(nil), b.samples...)
	sort.Float64s(sorted)
	b.samples = b.samples[:0]
	return sorted[len(sorted)/2]
}

// Discard drops any partially accumulated burst. Used when raw sample
// acquisition fails mid-burst so the next burst starts clean.
func (b *BurstSmoother) Discard() {
	b.samples = b.samples[:0]
}

// Pending returns the number of samples accumulated toward the current burst.
func (b *BurstSmoother) Pending() int {
	return len(b.samples)
}
