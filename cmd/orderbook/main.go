package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tickpipe/internal/book"
	"tickpipe/internal/obs"
	"tickpipe/internal/ops"
	"tickpipe/internal/shm"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	registry, err := cfg.Registry()
	if err != nil {
		log.Fatalf("registry build failed: %v", err)
	}

	// This process hosts the shared table and owns its teardown.
	table, err := shm.Create(cfg.RegionName, registry)
	if err != nil {
		log.Fatalf("shared table create failed: %v", err)
	}
	defer func() {
		if err := table.Destroy(); err != nil {
			log.Printf("shared table destroy failed: %v", err)
		}
	}()

	metrics := obs.NewMetrics()
	updater, err := book.NewUpdater(cfg, table, metrics)
	if err != nil {
		log.Fatalf("updater init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := updater.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("updater failed: %v", err)
	}

	snapshot := metrics.Snapshot()
	log.Printf("metrics: frames_in=%d frame_errors=%d reconnects=%d",
		snapshot.FramesIn, snapshot.FrameErrors, snapshot.Reconnects)
}
