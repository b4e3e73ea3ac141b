package pipeline

// TrendEstimator computes a per-minute rate of change from two filtered
// values separated by a known elapsed time, sampled once every `every`
// measurement cycles.
type TrendEstimator struct {
	every     int
	count     int
	seeded    bool
	oldValue  float64
	oldMillis int64
}

// NewTrendEstimator creates an estimator that recomputes the trend every
// `every` calls to Update.
func NewTrendEstimator(every int) *TrendEstimator {
	if every < 1 {
		every = 1
	}
	return &TrendEstimator{every: every}
}

// Update feeds one filtered value with its monotonic timestamp in
// milliseconds. The returned bool is false until the cycle counter reaches
// the configured sample count; between recomputations callers keep their
// previous trend unchanged. The very first call only seeds the remembered
// value/timestamp pair, so the estimator never divides by zero elapsed time.
func (t *TrendEstimator) Update(v float64, nowMillis int64) (float64, bool) {
	if !t.seeded {
		t.oldValue = v
		t.oldMillis = nowMillis
		t.seeded = true
		return 0, false
	}

	t.count++
	if t.count < t.every {
		return 0, false
	}

	trend := 60000 * (v - t.oldValue) / float64(nowMillis-t.oldMillis)
	t.count = 0
	t.oldValue = v
	t.oldMillis = nowMillis
	return trend, true
}
