package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tickpipe/internal/obs"
	"tickpipe/internal/om"
	"tickpipe/internal/ops"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	metrics := obs.NewMetrics()
	sink, err := om.NewSink(cfg, metrics)
	if err != nil {
		log.Fatalf("sink init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sink.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("sink failed: %v", err)
	}

	snapshot := metrics.Snapshot()
	log.Printf("metrics: orders=%d frame_errors=%d drops=%d order_latency=%+v",
		snapshot.Orders, snapshot.FrameErrors, snapshot.QueueDrops, snapshot.OrderLatency)
}
