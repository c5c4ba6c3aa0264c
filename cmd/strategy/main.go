package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tickpipe/internal/obs"
	"tickpipe/internal/ops"
	"tickpipe/internal/shm"
	"tickpipe/internal/strategy"
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

	// The table is created by the orderbook process; this one only
	// attaches.
	table, err := shm.Attach(cfg.RegionName)
	if err != nil {
		log.Fatalf("shared table attach failed: %v", err)
	}
	defer table.Detach()

	metrics := obs.NewMetrics()
	engine, err := strategy.NewEngine(cfg, registry, table, strategy.NewSentimentPolicy(), metrics)
	if err != nil {
		log.Fatalf("engine init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("engine failed: %v", err)
	}

	snapshot := metrics.Snapshot()
	log.Printf("metrics: frames_in=%d frames_out=%d frame_errors=%d reconnects=%d",
		snapshot.FramesIn, snapshot.FramesOut, snapshot.FrameErrors, snapshot.Reconnects)
}
