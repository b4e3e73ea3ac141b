// Package managers wires the configured publisher backends to the snapshot
// distributor.
package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/tanksentry/tanksentry/internal/publishers"
	"github.com/tanksentry/tanksentry/internal/publishers/mqtt"
	"github.com/tanksentry/tanksentry/internal/publishers/thingspeak"
	"github.com/tanksentry/tanksentry/internal/publishers/timescaledb"
	"github.com/tanksentry/tanksentry/internal/types"
	"go.uber.org/zap"
)

// PublisherManager holds our active publisher backends
type PublisherManager struct {
	Engines           []PublisherEngine
	UpdateDistributor chan types.Update
	logger            *zap.SugaredLogger
}

// PublisherEngine holds a backend publisher's interface as well as a
// channel for passing updates to the engine
type PublisherEngine struct {
	Engine publishers.Publisher
	C      chan<- types.Update
}

// NewPublisherManager creates a PublisherManager object, populated with all
// configured publisher backends
func NewPublisherManager(ctx context.Context, wg *sync.WaitGroup, c *types.Config, logger *zap.SugaredLogger) (*PublisherManager, error) {
	m := &PublisherManager{
		UpdateDistributor: make(chan types.Update, 20),
		logger:            logger,
	}

	// Start our update distributor to fan received updates out to the
	// publisher backends
	go m.startUpdateDistributor(ctx, wg)

	// Check the configuration for the supported publisher backends and
	// enable them if found

	if c.Publishers.ThingSpeak.APIKey != "" {
		engine, err := thingspeak.New(c.Publishers.ThingSpeak, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add ThingSpeak publisher backend: %v", err)
		}
		m.addEngine(ctx, wg, engine)
		logger.Info("ThingSpeak publisher enabled")
	}

	if c.Publishers.MQTT.BrokerAddr != "" {
		engine, err := mqtt.New(c.Publishers.MQTT, c.Notify, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add MQTT publisher backend: %v", err)
		}
		m.addEngine(ctx, wg, engine)
		logger.Info("MQTT publisher enabled")
	}

	if c.Publishers.TimescaleDB.ConnectionString != "" {
		engine, err := timescaledb.New(ctx, c.Publishers.TimescaleDB, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add TimescaleDB publisher backend: %v", err)
		}
		m.addEngine(ctx, wg, engine)
		logger.Info("TimescaleDB publisher enabled")
	}

	return m, nil
}

func (m *PublisherManager) addEngine(ctx context.Context, wg *sync.WaitGroup, engine publishers.Publisher) {
	e := PublisherEngine{Engine: engine}
	e.C = engine.StartPublisher(ctx, wg)
	m.Engines = append(m.Engines, e)
}

// startUpdateDistributor receives updates from the scheduler and fans them
// out to the various publisher backends
func (m *PublisherManager) startUpdateDistributor(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case u := <-m.UpdateDistributor:
			for _, e := range m.Engines {
				select {
				case e.C <- u:
				default:
					m.logger.Warnf("publisher backend busy, dropping %s update", u.Channel)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
