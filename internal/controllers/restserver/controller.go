// Package restserver exposes the latest channel snapshots and the
// reset-extrema control surface over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/tanksentry/tanksentry/internal/pipeline"
	"github.com/tanksentry/tanksentry/internal/types"
	"github.com/tanksentry/tanksentry/pkg/responseformat"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	config    types.RESTConfig
	Server    http.Server
	board     *pipeline.Board
	scheduler *pipeline.Scheduler
	system    types.SystemInfo
	formatter *responseformat.Formatter
	logger    *zap.SugaredLogger
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg types.RESTConfig, board *pipeline.Board, scheduler *pipeline.Scheduler, system types.SystemInfo, logger *zap.SugaredLogger) (*Controller, error) {
	if cfg.Port == 0 {
		return nil, fmt.Errorf("REST server requires a port")
	}

	ctrl := &Controller{
		ctx:       ctx,
		wg:        wg,
		config:    cfg,
		board:     board,
		scheduler: scheduler,
		system:    system,
		formatter: responseformat.NewFormatter(),
		logger:    logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/snapshots", ctrl.handleSnapshots).Methods(http.MethodGet)
	router.HandleFunc("/api/snapshots/{channel}", ctrl.handleSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/api/system", ctrl.handleSystem).Methods(http.MethodGet)
	router.HandleFunc("/api/extrema/reset", ctrl.handleResetExtrema).Methods(http.MethodPost)
	router.HandleFunc("/api/extrema/reset/{channel}", ctrl.handleResetExtrema).Methods(http.MethodPost)

	ctrl.Server = http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.ListenAddr, cfg.Port),
		Handler: router,
	}

	return ctrl, nil
}

// StartController starts the HTTP listener and the shutdown watcher
func (c *Controller) StartController() error {
	c.logger.Infof("starting REST server on %s", c.Server.Addr)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		var err error
		if c.config.Cert != "" && c.config.Key != "" {
			err = c.Server.ListenAndServeTLS(c.config.Cert, c.config.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}
