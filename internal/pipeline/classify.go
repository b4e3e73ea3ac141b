package pipeline

import (
	"fmt"
	"math"
)

// Mode selects how a channel's status is derived.
type Mode string

const (
	// ModeValue classifies the filtered value against an ordered bucket table.
	ModeValue Mode = "value"
	// ModeTrend classifies the trend against a symmetric margin.
	ModeTrend Mode = "trend"
	// ModeNone disables classification (and trend/extrema) for a channel.
	ModeNone Mode = "none"
)

// Trend-mode statuses for the water channel.
const (
	StatusStable  = "stable"
	StatusFilling = "filling"
	StatusPumping = "pumping"
)

// Bucket is one ordinal status with its ascending upper bound. The bound of
// the last bucket is ignored; it catches all values above the highest bound.
type Bucket struct {
	Status string
	Below  float64
}

// Classifier maps a filtered value or its trend into a small ordered set of
// categorical statuses, with hysteresis to suppress rapid flapping.
type Classifier struct {
	mode    Mode
	buckets []Bucket
	margin  float64 // value hysteresis (ModeValue) or trend margin (ModeTrend)

	status        string
	valueAtChange float64
	hasStatus     bool
}

// NewClassifier creates a classifier. For ModeValue the bucket bounds must
// be strictly ascending; for ModeTrend the margin partitions the trend into
// stable/filling/pumping.
func NewClassifier(mode Mode, buckets []Bucket, margin float64) (*Classifier, error) {
	switch mode {
	case ModeValue:
		if len(buckets) < 2 {
			return nil, fmt.Errorf("value classification needs at least two buckets, got %d", len(buckets))
		}
		for i := 1; i < len(buckets)-1; i++ {
			if buckets[i].Below <= buckets[i-1].Below {
				return nil, fmt.Errorf("bucket bounds must be ascending: %q (%v) after %q (%v)",
					buckets[i].Status, buckets[i].Below, buckets[i-1].Status, buckets[i-1].Below)
			}
		}
	case ModeTrend:
		if margin < 0 {
			return nil, fmt.Errorf("trend margin must be non-negative, got %v", margin)
		}
	case ModeNone:
	default:
		return nil, fmt.Errorf("unknown classification mode %q", mode)
	}
	return &Classifier{mode: mode, buckets: buckets, margin: margin}, nil
}

// Update classifies the current filtered value (ModeValue) or trend
// (ModeTrend). It returns the channel's status and whether this call
// produced a genuine status transition. For value channels a transition is
// genuine only when the underlying value has moved at least the hysteresis
// margin since the last transition.
func (c *Classifier) Update(filtered, trend float64) (string, bool) {
	switch c.mode {
	case ModeTrend:
		// Exactly one bucket applies per update.
		var next string
		switch {
		case trend > c.margin:
			next = StatusFilling
		case trend < -c.margin:
			next = StatusPumping
		default:
			next = StatusStable
		}
		return c.commit(next, filtered, true)
	case ModeValue:
		next := c.classifyValue(filtered)
		allowed := !c.hasStatus || math.Abs(filtered-c.valueAtChange) >= c.margin
		return c.commit(next, filtered, allowed)
	default:
		return "", false
	}
}

// Status returns the current status, or "" before the first classification.
func (c *Classifier) Status() string {
	return c.status
}

func (c *Classifier) classifyValue(v float64) string {
	for _, b := range c.buckets[:len(c.buckets)-1] {
		if v <= b.Below {
			return b.Status
		}
	}
	return c.buckets[len(c.buckets)-1].Status
}

func (c *Classifier) commit(next string, v float64, allowed bool) (string, bool) {
	if !c.hasStatus {
		c.hasStatus = true
		c.status = next
		c.valueAtChange = v
		return next, false
	}
	if next == c.status || !allowed {
		return c.status, false
	}
	c.status = next
	c.valueAtChange = v
	return next, true
}
