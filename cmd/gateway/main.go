package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tickpipe/internal/feed"
	"tickpipe/internal/obs"
	"tickpipe/internal/ops"
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

	metrics := obs.NewMetrics()
	publisher, err := feed.NewPublisher(cfg, registry, metrics)
	if err != nil {
		log.Fatalf("publisher init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := publisher.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("publisher failed: %v", err)
	}

	snapshot := metrics.Snapshot()
	log.Printf("metrics: frames_out=%d", snapshot.FramesOut)
}
