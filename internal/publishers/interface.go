// Package publishers defines the interface implemented by the telemetry
// publisher backends.
package publishers

import (
	"context"
	"sync"

	"github.com/tanksentry/tanksentry/internal/types"
)

// Publisher is an interface that provides a standardized method for the
// various publisher backends
type Publisher interface {
	StartPublisher(context.Context, *sync.WaitGroup) chan<- types.Update
}
