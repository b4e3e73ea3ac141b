// Package thingspeak uploads channel snapshots to the ThingSpeak HTTP API
// on a fixed interval.
package thingspeak

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tanksentry/tanksentry/internal/types"
	"go.uber.org/zap"
)

// Publisher batches the latest snapshot per channel and posts them to a
// ThingSpeak channel as numbered fields.
type Publisher struct {
	config types.ThingSpeakConfig
	logger *zap.SugaredLogger
}

// Field assignment on the ThingSpeak channel.
const (
	fieldLight      = "field1"
	fieldRain       = "field2"
	fieldWaterLevel = "field3"
	fieldWaterTrend = "field4"
	fieldRSSI       = "field5"
)

// New creates a ThingSpeak publisher.
func New(cfg types.ThingSpeakConfig, logger *zap.SugaredLogger) (*Publisher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ThingSpeak publisher requires an api-key")
	}
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = "https://api.thingspeak.com/update"
	}
	if cfg.UploadInterval == "" {
		cfg.UploadInterval = "60"
	}
	return &Publisher{config: cfg, logger: logger}, nil
}

// StartPublisher launches the upload goroutine and returns its intake channel.
func (p *Publisher) StartPublisher(ctx context.Context, wg *sync.WaitGroup) chan<- types.Update {
	updateChan := make(chan types.Update, 10)
	go p.processUpdates(ctx, wg, updateChan)
	return updateChan
}

func (p *Publisher) processUpdates(ctx context.Context, wg *sync.WaitGroup, updates <-chan types.Update) {
	wg.Add(1)
	defer wg.Done()

	interval, err := strconv.Atoi(p.config.UploadInterval)
	if err != nil || interval < 15 {
		// ThingSpeak rejects updates more frequent than every 15 seconds.
		interval = 60
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	latest := make(map[string]types.Update)
	for {
		select {
		case u := <-updates:
			latest[u.Channel] = u
		case <-ticker.C:
			if len(latest) == 0 {
				continue
			}
			if err := p.upload(ctx, latest); err != nil {
				p.logger.Errorf("ThingSpeak upload failed: %v", err)
			}
		case <-ctx.Done():
			p.logger.Info("cancellation request received, stopping ThingSpeak publisher")
			return
		}
	}
}

func (p *Publisher) upload(ctx context.Context, latest map[string]types.Update) error {
	v := url.Values{}
	v.Set("api_key", p.config.APIKey)

	setField := func(field, channel string, value func(types.Update) float64) {
		if u, ok := latest[channel]; ok && u.Seeded {
			v.Set(field, strconv.FormatFloat(value(u), 'f', 2, 64))
		}
	}
	setField(fieldLight, types.ChannelLight, func(u types.Update) float64 { return u.Filtered })
	setField(fieldRain, types.ChannelRain, func(u types.Update) float64 { return u.Filtered })
	setField(fieldWaterLevel, types.ChannelWater, func(u types.Update) float64 { return u.Filtered })
	setField(fieldWaterTrend, types.ChannelWater, func(u types.Update) float64 { return u.Trend })
	setField(fieldRSSI, types.ChannelRSSI, func(u types.Update) float64 { return u.Filtered })

	if w, ok := latest[types.ChannelWater]; ok && w.Status != "" {
		v.Set("status", w.Status)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.config.APIEndpoint, strings.NewReader(v.Encode()))
	if err != nil {
		return fmt.Errorf("error creating ThingSpeak request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{
		Timeout: 5 * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request to ThingSpeak: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading ThingSpeak response: %v", err)
	}

	p.logger.Debugf("ThingSpeak response status: %d, body: %s", resp.StatusCode, string(body))

	// The API answers with the new entry ID, or "0" when the update was rejected.
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) == "0" {
		return fmt.Errorf("ThingSpeak API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
