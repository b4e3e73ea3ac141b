package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tanksentry/tanksentry/internal/types"
	"go.uber.org/zap"
)

// RawSource returns one raw sample on demand. Implementations must be
// callable synchronously and bounded in time, well under the watchdog
// timeout, because the scheduler loop blocks on them.
type RawSource interface {
	Sample(ctx context.Context) (float64, error)
}

// ChannelDriver orchestrates one channel: it owns the cadence and the
// smoother → filter → extrema → trend → classifier chain, and exposes the
// latest computed snapshot. All methods are called from the scheduler
// goroutine only.
type ChannelDriver struct {
	spec       ChannelSpec
	source     RawSource
	smoother   *BurstSmoother
	filter     *ExponentialFilter
	trend      *TrendEstimator
	classifier *Classifier
	extrema    *ExtremaTracker
	lastRun    time.Time
	snap       types.Snapshot
	logger     *zap.SugaredLogger
}

// NewChannelDriver assembles the pipeline for one channel. Channels with
// ModeNone skip trend, extrema and classification entirely.
func NewChannelDriver(spec ChannelSpec, source RawSource, store ExtremaStore, logger *zap.SugaredLogger) (*ChannelDriver, error) {
	smoother, err := NewBurstSmoother(spec.BurstSize)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", spec.Name, err)
	}
	filter, err := NewExponentialFilter(spec.FilterFactor)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", spec.Name, err)
	}

	margin := spec.Hysteresis
	if spec.Mode == ModeTrend {
		margin = spec.TrendMargin
	}
	classifier, err := NewClassifier(spec.Mode, spec.Buckets, margin)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", spec.Name, err)
	}

	d := &ChannelDriver{
		spec:       spec,
		source:     source,
		smoother:   smoother,
		filter:     filter,
		trend:      NewTrendEstimator(spec.TrendEvery),
		classifier: classifier,
		snap:       types.Snapshot{Channel: spec.Name},
		logger:     logger,
	}

	if spec.Mode != ModeNone {
		d.extrema, err = NewExtremaTracker(spec.Name, store)
		if err != nil {
			return nil, err
		}
		// Surface extrema carried over a warm restart right away.
		if min, max, seeded := d.extrema.Bounds(); seeded {
			d.snap.Min = min
			d.snap.Max = max
		}
	}

	return d, nil
}

// Name returns the channel name this driver owns.
func (d *ChannelDriver) Name() string {
	return d.spec.Name
}

// Snapshot returns the latest computed snapshot.
func (d *ChannelDriver) Snapshot() types.Snapshot {
	return d.snap
}

// Tick runs one measurement cycle if the channel's cadence has elapsed (or
// this is the first tick). It returns the updated snapshot and true when a
// cycle ran to completion.
func (d *ChannelDriver) Tick(ctx context.Context, now time.Time) (types.Update, bool) {
	if !d.lastRun.IsZero() && now.Sub(d.lastRun) < d.spec.Cadence {
		return types.Update{}, false
	}
	d.lastRun = now

	// One full burst: exactly BurstSize raw samples, then the median.
	for {
		raw, err := d.source.Sample(ctx)
		if err != nil {
			d.logger.Errorf("channel %s: raw sample failed, discarding burst: %v", d.spec.Name, err)
			d.smoother.Discard()
			return types.Update{}, false
		}
		if !d.smoother.Accumulate(raw) {
			break
		}
	}
	filtered := d.filter.Apply(d.smoother.ReadMedian())

	d.snap.Timestamp = now
	d.snap.Seeded = true
	d.snap.Filtered = filtered

	upd := types.Update{}
	if d.spec.Mode != ModeNone {
		min, max, err := d.extrema.Update(filtered)
		if err != nil {
			d.logger.Errorf("channel %s: persisting extrema: %v", d.spec.Name, err)
		}
		d.snap.Min = min
		d.snap.Max = max

		tr, recomputed := d.trend.Update(filtered, now.UnixMilli())
		if recomputed {
			d.snap.Trend = tr
		}

		// Trend-driven channels reclassify only alongside a trend
		// recomputation; value channels reclassify every cycle.
		if d.spec.Mode == ModeValue || recomputed {
			prev := d.snap.Status
			status, changed := d.classifier.Update(filtered, d.snap.Trend)
			d.snap.Status = status
			if changed {
				upd.StatusChanged = true
				upd.PrevStatus = prev
			}
		}
	}

	upd.Snapshot = d.snap
	return upd, true
}

// ResetExtrema re-arms the channel's extrema tracker; the next completed
// cycle re-seeds both bounds.
func (d *ChannelDriver) ResetExtrema() error {
	if d.extrema == nil {
		return fmt.Errorf("channel %s does not track extrema", d.spec.Name)
	}
	if err := d.extrema.Reset(); err != nil {
		return err
	}
	d.snap.Min = 0
	d.snap.Max = 0
	return nil
}
