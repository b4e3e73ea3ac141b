package pipeline

import (
	"fmt"
	"time"

	"github.com/tanksentry/tanksentry/internal/types"
)

// ChannelSpec is the fully resolved per-channel tuning: deployment defaults
// overlaid with any overrides from the config file.
type ChannelSpec struct {
	Name         string
	Mode         Mode
	BurstSize    int
	Cadence      time.Duration
	FilterFactor float64
	TrendEvery   int
	Hysteresis   float64 // minimum value change for a genuine status transition (ModeValue)
	TrendMargin  float64 // symmetric stable band in units/minute (ModeTrend)
	Buckets      []Bucket
}

// DefaultChannelSpecs returns the built-in deployment tuning for the four
// channels. Light and rain classify their filtered ADC value; water
// classifies its fill-level trend; rssi is smoothed and filtered only.
func DefaultChannelSpecs() []ChannelSpec {
	return []ChannelSpec{
		{
			Name:         types.ChannelLight,
			Mode:         ModeValue,
			BurstSize:    5,
			Cadence:      2 * time.Second,
			FilterFactor: 0.3,
			TrendEvery:   10,
			Hysteresis:   100,
			Buckets: []Bucket{
				{Status: "dark", Below: 40},
				{Status: "twilight", Below: 800},
				{Status: "cloudy", Below: 2000},
				{Status: "clear", Below: 3500},
				{Status: "sunny"},
			},
		},
		{
			Name:         types.ChannelRain,
			Mode:         ModeValue,
			BurstSize:    5,
			Cadence:      5 * time.Second,
			FilterFactor: 0.4,
			TrendEvery:   6,
			Hysteresis:   120,
			Buckets: []Bucket{
				{Status: "dry", Below: 260},
				{Status: "dew", Below: 1500},
				{Status: "rain", Below: 2700},
				{Status: "shower"},
			},
		},
		{
			Name:         types.ChannelWater,
			Mode:         ModeTrend,
			BurstSize:    9,
			Cadence:      10 * time.Second,
			FilterFactor: 0.2,
			TrendEvery:   6,
			TrendMargin:  1.5,
		},
		{
			Name:         types.ChannelRSSI,
			Mode:         ModeNone,
			BurstSize:    3,
			Cadence:      15 * time.Second,
			FilterFactor: 0.5,
		},
	}
}

// BuildSpecs resolves the channel specs for this deployment: built-in
// defaults overlaid with config-file overrides, then validated.
func BuildSpecs(cfg *types.Config) ([]ChannelSpec, error) {
	specs := DefaultChannelSpecs()

	byName := make(map[string]*ChannelSpec, len(specs))
	for i := range specs {
		byName[specs[i].Name] = &specs[i]
	}

	for _, override := range cfg.Channels {
		spec, ok := byName[override.Name]
		if !ok {
			return nil, fmt.Errorf("unknown channel %q in configuration", override.Name)
		}
		if override.Mode != "" {
			spec.Mode = Mode(override.Mode)
		}
		if override.BurstSize != 0 {
			spec.BurstSize = override.BurstSize
		}
		if override.Cadence != "" {
			cadence, err := time.ParseDuration(override.Cadence)
			if err != nil {
				return nil, fmt.Errorf("channel %s: invalid cadence %q: %v", override.Name, override.Cadence, err)
			}
			spec.Cadence = cadence
		}
		if override.FilterFactor != 0 {
			spec.FilterFactor = override.FilterFactor
		}
		if override.TrendEvery != 0 {
			spec.TrendEvery = override.TrendEvery
		}
		if override.Hysteresis != 0 {
			spec.Hysteresis = override.Hysteresis
		}
		if override.TrendMargin != 0 {
			spec.TrendMargin = override.TrendMargin
		}
		if len(override.Buckets) != 0 {
			buckets := make([]Bucket, 0, len(override.Buckets))
			for _, b := range override.Buckets {
				buckets = append(buckets, Bucket{Status: b.Status, Below: b.Below})
			}
			spec.Buckets = buckets
		}
	}

	for _, spec := range specs {
		if err := validateSpec(spec); err != nil {
			return nil, err
		}
	}
	return specs, nil
}

func validateSpec(spec ChannelSpec) error {
	if spec.BurstSize < 1 || spec.BurstSize%2 == 0 {
		return fmt.Errorf("channel %s: burst size must be a positive odd integer, got %d", spec.Name, spec.BurstSize)
	}
	if spec.FilterFactor <= 0 || spec.FilterFactor > 1 {
		return fmt.Errorf("channel %s: filter factor must be in (0, 1], got %v", spec.Name, spec.FilterFactor)
	}
	if spec.Cadence <= 0 {
		return fmt.Errorf("channel %s: cadence must be non-zero", spec.Name)
	}
	if spec.Mode != ModeNone && spec.TrendEvery < 1 {
		return fmt.Errorf("channel %s: trend sample count must be at least 1, got %d", spec.Name, spec.TrendEvery)
	}
	return nil
}
