package sensors

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/tanksentry/tanksentry/internal/pipeline"
	"github.com/tanksentry/tanksentry/internal/types"
	serial "github.com/tarm/goserial"
	"go.uber.org/zap"
)

// SerialHead talks to the sensor board over a serial line. One sample is
// requested per "GET <channel>" command; the board answers with a single
// decimal line. The board always replies (it substitutes the configured
// maximum distance when the ultrasonic echo times out), so a sample is
// bounded by the board's own timeout; the watchdog is the backstop.
type SerialHead struct {
	config types.DeviceConfig
	rwc    io.ReadWriteCloser
	reader *bufio.Reader
	mu     sync.Mutex
	logger *zap.SugaredLogger
}

// NewSerialHead opens the configured serial device.
func NewSerialHead(cfg types.DeviceConfig, logger *zap.SugaredLogger) (*SerialHead, error) {
	if cfg.SerialDevice == "" {
		return nil, fmt.Errorf("serial sensor head requires a serial device")
	}
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	if cfg.EmptyDistanceCM == 0 {
		cfg.EmptyDistanceCM = 89
	}
	if cfg.MaxDistanceCM == 0 {
		cfg.MaxDistanceCM = 95
	}

	sc := &serial.Config{Name: cfg.SerialDevice, Baud: cfg.Baud}
	rwc, err := serial.OpenPort(sc)
	if err != nil {
		return nil, fmt.Errorf("could not open serial device %s: %w", cfg.SerialDevice, err)
	}

	logger.Infof("sensor head connected on %s at %d baud", cfg.SerialDevice, cfg.Baud)

	return &SerialHead{
		config: cfg,
		rwc:    rwc,
		reader: bufio.NewReader(rwc),
		logger: logger,
	}, nil
}

// Source returns the raw-sample source for one channel. The water channel
// is pre-inverted from distance to fill level against the configured empty
// reference distance.
func (h *SerialHead) Source(channel string) pipeline.RawSource {
	return sourceFunc(func(ctx context.Context) (float64, error) {
		v, err := h.sample(ctx, channel)
		if err != nil {
			return 0, err
		}
		if channel == types.ChannelWater {
			if v > h.config.MaxDistanceCM {
				v = h.config.MaxDistanceCM
			}
			return h.config.EmptyDistanceCM - v, nil
		}
		return v, nil
	})
}

// Close closes the serial connection.
func (h *SerialHead) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rwc.Close()
}

func (h *SerialHead) sample(ctx context.Context, channel string) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if _, err := fmt.Fprintf(h.rwc, "GET %s\r\n", channel); err != nil {
		return 0, fmt.Errorf("writing sample request for %s: %w", channel, err)
	}

	line, err := h.reader.ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("reading sample response for %s: %w", channel, err)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed sample response for %s: %q", channel, strings.TrimSpace(line))
	}
	return v, nil
}
