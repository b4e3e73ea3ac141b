package sensors

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/tanksentry/tanksentry/internal/pipeline"
	"github.com/tanksentry/tanksentry/internal/types"
	"go.uber.org/zap"
)

// SimulatorHead generates plausible noisy readings for development without
// hardware: a diel light curve, occasional rain episodes, a slowly draining
// tank, and a jittery RSSI.
type SimulatorHead struct {
	config  types.DeviceConfig
	rng     *rand.Rand
	started time.Time
	logger  *zap.SugaredLogger
}

// NewSimulatorHead creates a simulator seeded from the wall clock.
func NewSimulatorHead(cfg types.DeviceConfig, logger *zap.SugaredLogger) *SimulatorHead {
	if cfg.EmptyDistanceCM == 0 {
		cfg.EmptyDistanceCM = 89
	}
	if cfg.MaxDistanceCM == 0 {
		cfg.MaxDistanceCM = 95
	}
	logger.Info("using simulated sensor head")
	return &SimulatorHead{
		config:  cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		started: time.Now(),
		logger:  logger,
	}
}

// Source returns the simulated raw-sample source for one channel.
func (h *SimulatorHead) Source(channel string) pipeline.RawSource {
	return sourceFunc(func(ctx context.Context) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		switch channel {
		case types.ChannelLight:
			return h.light(), nil
		case types.ChannelRain:
			return h.rain(), nil
		case types.ChannelWater:
			return h.config.EmptyDistanceCM - h.distance(), nil
		case types.ChannelRSSI:
			return -55 + h.rng.Float64()*10 - 5, nil
		}
		return 0, nil
	})
}

// Close is a no-op for the simulator.
func (h *SimulatorHead) Close() error {
	return nil
}

func (h *SimulatorHead) light() float64 {
	// Full diel cycle compressed into an hour so trends show up quickly.
	phase := time.Since(h.started).Seconds() / 3600 * 2 * math.Pi
	base := 2048 + 2000*math.Sin(phase)
	return clamp(base+h.rng.Float64()*120-60, 0, 4095)
}

func (h *SimulatorHead) rain() float64 {
	return clamp(180+h.rng.Float64()*160-80, 0, 4095)
}

func (h *SimulatorHead) distance() float64 {
	// The tank drains slowly; the sensor reads a growing distance.
	drained := time.Since(h.started).Hours() * 0.5
	return clamp(40+drained+h.rng.Float64()*2-1, 2, h.config.MaxDistanceCM)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
