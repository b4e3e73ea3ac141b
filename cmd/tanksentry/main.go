package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/tanksentry/tanksentry/internal/controllers/restserver"
	"github.com/tanksentry/tanksentry/internal/log"
	"github.com/tanksentry/tanksentry/internal/managers"
	"github.com/tanksentry/tanksentry/internal/pipeline"
	"github.com/tanksentry/tanksentry/internal/retained"
	"github.com/tanksentry/tanksentry/internal/sensors"
	"github.com/tanksentry/tanksentry/internal/types"
	"github.com/tanksentry/tanksentry/internal/watchdog"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

const (
	defaultRetainedPath    = "tanksentry-retained.db"
	defaultWatchdogTimeout = 30 * time.Second
	schedulerInterval      = 250 * time.Millisecond
)

func main() {
	var wg sync.WaitGroup

	cfgFile := flag.String("config", "config.yaml", "Path to config file (default: ./config.yaml)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	// Set up our logger
	if err := log.Init(*debug); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger := log.GetSugaredLogger()

	// Read our agent configuration
	filename, _ := filepath.Abs(*cfgFile)
	cfg, err := types.NewConfig(filename)
	if err != nil {
		log.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open the retained store. It survives warm restarts; a missing file
	// means a cold start with fresh extrema and boot accounting.
	retainedPath := cfg.Retained.Path
	if retainedPath == "" {
		retainedPath = defaultRetainedPath
	}
	store, cold, err := retained.Open(retainedPath)
	if err != nil {
		log.Errorf("failed to open retained store: %v", err)
		os.Exit(1)
	}
	defer store.Close()
	if cold {
		log.Info("cold start: no retained state found")
	}

	now := time.Now()
	bootCount, lastRun, err := store.RecordBoot(now)
	if err != nil {
		log.Errorf("failed to record boot: %v", err)
		os.Exit(1)
	}
	log.Infof("tanksentry %s boot #%d (previous run lasted %v)", version, bootCount, lastRun)

	system := types.SystemInfo{
		BootCount:     bootCount,
		BootRunPeriod: int64(lastRun.Seconds()),
		StartedAt:     now,
		Version:       version,
	}

	// Connect the sensor head
	head, err := sensors.NewHead(cfg.Device, logger)
	if err != nil {
		log.Errorf("could not create sensor head: %v", err)
		os.Exit(1)
	}
	defer head.Close()

	// Resolve the per-channel tuning
	specs, err := pipeline.BuildSpecs(&cfg)
	if err != nil {
		log.Errorf("invalid channel configuration: %v", err)
		os.Exit(1)
	}

	// Initialize the publisher manager
	pm, err := managers.NewPublisherManager(ctx, &wg, &cfg, logger)
	if err != nil {
		log.Errorf("failed to create publisher manager: %v", err)
		os.Exit(1)
	}

	// Assemble the per-channel drivers
	var drivers []*pipeline.ChannelDriver
	for _, spec := range specs {
		driver, err := pipeline.NewChannelDriver(spec, head.Source(spec.Name), store, logger)
		if err != nil {
			log.Errorf("could not create channel driver: %v", err)
			os.Exit(1)
		}
		drivers = append(drivers, driver)
	}

	// The watchdog is the agent's only failure-detection mechanism: a
	// stalled scheduler loop terminates the process and the supervisor
	// restarts it with retained state intact.
	wdTimeout := defaultWatchdogTimeout
	if cfg.Device.WatchdogTimeout != "" {
		wdTimeout, err = time.ParseDuration(cfg.Device.WatchdogTimeout)
		if err != nil {
			log.Errorf("invalid watchdog timeout %q: %v", cfg.Device.WatchdogTimeout, err)
			os.Exit(1)
		}
	}
	wd := watchdog.New(wdTimeout, func() {
		log.Sync()
		os.Exit(1)
	}, logger)
	wd.Start(ctx, &wg)

	board := pipeline.NewBoard()
	scheduler := pipeline.NewScheduler(drivers, board, pm.UpdateDistributor, wd, schedulerInterval, logger)
	go scheduler.Run(ctx, &wg)

	// Start the REST server if configured
	if cfg.REST.Port != 0 {
		rest, err := restserver.NewController(ctx, &wg, cfg.REST, board, scheduler, system, logger)
		if err != nil {
			log.Errorf("could not create REST server: %v", err)
			os.Exit(1)
		}
		if err := rest.StartController(); err != nil {
			log.Errorf("could not start REST server: %v", err)
			os.Exit(1)
		}
	}

	if cfg.DebugPublish {
		go debugPublish(ctx, &wg, board)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for a shutdown signal before terminating
	<-sigs
	log.Info("shutdown signal received, initiating graceful shutdown...")
	cancel()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")
}

// debugPublish periodically logs the snapshot board, for bring-up on new
// installations.
func debugPublish(ctx context.Context, wg *sync.WaitGroup, board *pipeline.Board) {
	wg.Add(1)
	defer wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, snap := range board.Snapshots() {
				if !snap.Seeded {
					log.Infof("channel %s: unseeded", snap.Channel)
					continue
				}
				log.Infof("channel %s: filtered=%.2f trend=%.2f status=%s min=%.2f max=%.2f",
					snap.Channel, snap.Filtered, snap.Trend, snap.Status, snap.Min, snap.Max)
			}
		}
	}
}
