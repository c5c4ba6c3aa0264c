// The pipeline command hosts every role in a single process for demos
// and smoke runs. The roles still talk through the shared table and
// the framed TCP channels, exactly as they do across processes.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"tickpipe/internal/book"
	"tickpipe/internal/feed"
	"tickpipe/internal/obs"
	"tickpipe/internal/om"
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

	publisher, err := feed.NewPublisher(cfg, registry, metrics)
	if err != nil {
		log.Fatalf("publisher init failed: %v", err)
	}
	sink, err := om.NewSink(cfg, metrics)
	if err != nil {
		log.Fatalf("sink init failed: %v", err)
	}
	updater, err := book.NewUpdater(cfg, table, metrics)
	if err != nil {
		log.Fatalf("updater init failed: %v", err)
	}
	engine, err := strategy.NewEngine(cfg, registry, table, strategy.NewSentimentPolicy(), metrics)
	if err != nil {
		log.Fatalf("engine init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 4)
	var wg sync.WaitGroup
	for _, role := range []struct {
		name string
		run  func(context.Context) error
	}{
		{"sink", sink.Run},
		{"publisher", publisher.Run},
		{"updater", updater.Run},
		{"engine", engine.Run},
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := role.run(ctx); err != nil && ctx.Err() == nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Printf("role failed: %v", err)
		stop()
	}
	wg.Wait()

	snapshot := metrics.Snapshot()
	log.Printf("metrics: frames_in=%d frames_out=%d frame_errors=%d reconnects=%d orders=%d drops=%d order_latency=%+v",
		snapshot.FramesIn, snapshot.FramesOut, snapshot.FrameErrors,
		snapshot.Reconnects, snapshot.Orders, snapshot.QueueDrops, snapshot.OrderLatency)
}
