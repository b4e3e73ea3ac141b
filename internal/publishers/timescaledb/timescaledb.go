// Package timescaledb stores channel snapshot history in a TimescaleDB
// hypertable.
package timescaledb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tanksentry/tanksentry/internal/types"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createTableSQL = `
CREATE TABLE IF NOT EXISTS channel_readings (
	time     TIMESTAMPTZ NOT NULL,
	channel  TEXT NOT NULL,
	filtered DOUBLE PRECISION,
	trend    DOUBLE PRECISION,
	status   TEXT,
	min      DOUBLE PRECISION,
	max      DOUBLE PRECISION
);`

const createHypertableSQL = `SELECT create_hypertable('channel_readings', 'time', if_not_exists => TRUE);`

// ChannelReading is one stored snapshot row.
type ChannelReading struct {
	Time     time.Time `gorm:"column:time"`
	Channel  string    `gorm:"column:channel"`
	Filtered float64   `gorm:"column:filtered"`
	Trend    float64   `gorm:"column:trend"`
	Status   string    `gorm:"column:status"`
	Min      float64   `gorm:"column:min"`
	Max      float64   `gorm:"column:max"`
}

// TableName customizes the table name used by gorm.
func (ChannelReading) TableName() string {
	return "channel_readings"
}

// Publisher holds the configuration for a TimescaleDB history backend
type Publisher struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New connects to TimescaleDB and prepares the hypertable.
func New(ctx context.Context, cfg types.TimescaleDBConfig, logger *zap.SugaredLogger) (*Publisher, error) {
	logger.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(cfg.ConnectionString), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("unable to create a TimescaleDB connection: %w", err)
	}

	if err := db.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		return nil, fmt.Errorf("could not create TimescaleDB extension: %w", err)
	}
	if err := db.WithContext(ctx).Exec(createTableSQL).Error; err != nil {
		return nil, fmt.Errorf("could not create readings table: %w", err)
	}
	if err := db.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
		return nil, fmt.Errorf("could not create hypertable: %w", err)
	}

	return &Publisher{db: db, logger: logger}, nil
}

// StartPublisher creates a goroutine loop to receive updates and store them
func (p *Publisher) StartPublisher(ctx context.Context, wg *sync.WaitGroup) chan<- types.Update {
	p.logger.Info("starting TimescaleDB publisher...")
	updateChan := make(chan types.Update, 10)
	go p.processUpdates(ctx, wg, updateChan)
	return updateChan
}

func (p *Publisher) processUpdates(ctx context.Context, wg *sync.WaitGroup, updates <-chan types.Update) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case u := <-updates:
			if err := p.storeUpdate(u); err != nil {
				p.logger.Errorf("could not store reading: %v", err)
			}
		case <-ctx.Done():
			p.logger.Info("cancellation request received, stopping TimescaleDB publisher")
			return
		}
	}
}

func (p *Publisher) storeUpdate(u types.Update) error {
	row := ChannelReading{
		Time:     u.Timestamp,
		Channel:  u.Channel,
		Filtered: u.Filtered,
		Trend:    u.Trend,
		Status:   u.Status,
		Min:      u.Min,
		Max:      u.Max,
	}
	return p.db.Create(&row).Error
}
