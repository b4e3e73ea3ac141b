package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/tanksentry/tanksentry/internal/types"
	"go.uber.org/zap"
)

// Kicker receives a liveness signal once per scheduler iteration.
type Kicker interface {
	Kick()
}

// Scheduler is the single cooperative loop driving all channel drivers. On
// each iteration it ticks every driver once (drivers whose cadence has not
// elapsed do nothing), posts fresh snapshots to the board and the publisher
// distributor, services queued extrema-reset requests, and kicks the
// watchdog. All pipeline state is touched only by this goroutine.
type Scheduler struct {
	drivers     []*ChannelDriver
	board       *Board
	distributor chan<- types.Update
	kicker      Kicker
	interval    time.Duration
	resets      chan string
	logger      *zap.SugaredLogger
}

// NewScheduler creates a scheduler ticking at the given loop interval.
func NewScheduler(drivers []*ChannelDriver, board *Board, distributor chan<- types.Update, kicker Kicker, interval time.Duration, logger *zap.SugaredLogger) *Scheduler {
	s := &Scheduler{
		drivers:     drivers,
		board:       board,
		distributor: distributor,
		kicker:      kicker,
		interval:    interval,
		resets:      make(chan string, 4),
		logger:      logger,
	}
	// Register every channel on the board before the first cycle so
	// consumers see unseeded snapshots rather than missing channels.
	for _, d := range drivers {
		board.Post(d.Snapshot())
	}
	return s
}

// Run drives the loop until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()

	s.logger.Infof("scheduler started, driving %d channels", len(s.drivers))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cancellation request received, stopping scheduler")
			return
		case channel := <-s.resets:
			s.handleReset(channel)
		case now := <-ticker.C:
			for _, d := range s.drivers {
				upd, ok := d.Tick(ctx, now)
				if !ok {
					continue
				}
				s.board.Post(upd.Snapshot)
				select {
				case s.distributor <- upd:
				default:
					s.logger.Warnf("publisher distributor full, dropping %s update", upd.Channel)
				}
			}
			s.kicker.Kick()
		}
	}
}

// ResetExtrema requests a reset of the named channel's extrema, or of every
// channel when name is empty. The reset is applied by the scheduler
// goroutine between ticks, so pipeline state keeps a single owner.
func (s *Scheduler) ResetExtrema(channel string) {
	s.resets <- channel
}

func (s *Scheduler) handleReset(channel string) {
	for _, d := range s.drivers {
		if channel != "" && d.Name() != channel {
			continue
		}
		if d.extrema == nil {
			continue
		}
		if err := d.ResetExtrema(); err != nil {
			s.logger.Errorf("resetting extrema for channel %s: %v", d.Name(), err)
			continue
		}
		s.board.Post(d.Snapshot())
		s.logger.Infof("extrema reset for channel %s", d.Name())
	}
}
