package pipeline

import "fmt"

// ExponentialFilter is a per-channel continuous low-pass filter applied to
// successive smoothed values. Higher factors track the input faster with
// less smoothing.
type ExponentialFilter struct {
	factor float64
	state  float64
	seeded bool
}

// NewExponentialFilter creates a filter with the given smoothing factor in (0, 1].
func NewExponentialFilter(factor float64) (*ExponentialFilter, error) {
	if factor <= 0 || factor > 1 {
		return nil, fmt.Errorf("filter factor must be in (0, 1], got %v", factor)
	}
	return &ExponentialFilter{factor: factor}, nil
}

// Apply feeds one smoothed value through the filter and returns the new
// filtered state. The first invocation seeds the state to the input and
// returns it unchanged.
func (f *ExponentialFilter) Apply(v float64) float64 {
	if !f.seeded {
		f.state = v
		f.seeded = true
		return v
	}
	f.state = f.factor*v + (1-f.factor)*f.state
	return f.state
}

// Seeded reports whether the filter has processed at least one value.
func (f *ExponentialFilter) Seeded() bool {
	return f.seeded
}
