// Package sensors provides the raw-sample sources feeding the measurement
// pipeline: a serial-attached sensor head speaking a line-oriented
// request/response protocol, and a simulator for development and testing.
package sensors

import (
	"context"
	"fmt"

	"github.com/tanksentry/tanksentry/internal/pipeline"
	"github.com/tanksentry/tanksentry/internal/types"
	"go.uber.org/zap"
)

// Head is a multi-channel sensor frontend.
type Head interface {
	// Source returns the raw-sample source for one channel.
	Source(channel string) pipeline.RawSource
	Close() error
}

// NewHead creates the sensor head selected by the device configuration.
func NewHead(cfg types.DeviceConfig, logger *zap.SugaredLogger) (Head, error) {
	switch cfg.SensorSource {
	case "", "serial":
		return NewSerialHead(cfg, logger)
	case "simulator":
		return NewSimulatorHead(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown sensor source type: %s", cfg.SensorSource)
	}
}

// sourceFunc adapts a closure to pipeline.RawSource.
type sourceFunc func(ctx context.Context) (float64, error)

func (f sourceFunc) Sample(ctx context.Context) (float64, error) {
	return f(ctx)
}
