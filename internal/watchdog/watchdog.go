// Package watchdog implements the agent's only failure-detection mechanism:
// the scheduler must kick the watchdog once per iteration, or the process is
// declared stuck and forcibly terminated. The process supervisor restarts
// it; retained state survives, transient pipeline state is reseeded.
package watchdog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Watchdog monitors liveness of the scheduler loop.
type Watchdog struct {
	timeout  time.Duration
	kicks    chan struct{}
	onExpire func()
	logger   *zap.SugaredLogger
}

// New creates a watchdog. onExpire is invoked once when no kick arrives
// within the timeout.
func New(timeout time.Duration, onExpire func(), logger *zap.SugaredLogger) *Watchdog {
	return &Watchdog{
		timeout:  timeout,
		kicks:    make(chan struct{}, 1),
		onExpire: onExpire,
		logger:   logger,
	}
}

// Kick signals liveness. Never blocks.
func (w *Watchdog) Kick() {
	select {
	case w.kicks <- struct{}{}:
	default:
	}
}

// Start launches the supervision goroutine.
func (w *Watchdog) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		timer := time.NewTimer(w.timeout)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.kicks:
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(w.timeout)
			case <-timer.C:
				w.logger.Errorf("watchdog expired: no liveness signal within %v", w.timeout)
				w.onExpire()
				return
			}
		}
	}()
}
