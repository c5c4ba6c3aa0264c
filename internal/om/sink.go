// Package om implements the order-manager role: a sink that accepts
// any number of signal engines, decodes their orders, and logs each
// execution with its decision-to-arrival latency.
package om

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"tickpipe/internal/bus"
	"tickpipe/internal/channel"
	"tickpipe/internal/obs"
	"tickpipe/internal/ops"
	"tickpipe/internal/schema"
)

// Sink accepts engine connections, one receive loop per connection.
// A corrupt frame is isolated to its own connection's loop; a client
// disconnect ends only that loop.
type Sink struct {
	srv     *channel.Server
	queue   *bus.Queue
	metrics *obs.Metrics

	listening bool
	wg        sync.WaitGroup
}

// NewSink wires a sink from the resolved config.
func NewSink(cfg ops.Config, metrics *obs.Metrics) (*Sink, error) {
	srv, err := channel.NewServer(cfg.OrderAddr)
	if err != nil {
		return nil, err
	}
	return &Sink{
		srv:     srv,
		queue:   bus.NewQueue(cfg.QueueSize),
		metrics: metrics,
	}, nil
}

// Addr returns the resolved listening address after Run has bound it.
func (s *Sink) Addr() string { return s.srv.Addr() }

// Listen binds the endpoint. Run calls it when needed; tests call it
// first to learn the resolved address.
func (s *Sink) Listen() error {
	if s.listening {
		return nil
	}
	if err := s.srv.Listen(); err != nil {
		return err
	}
	s.listening = true
	logs.Infof("order sink listening on %s", s.srv.Addr())
	return nil
}

// Run binds the endpoint and serves until the context ends.
func (s *Sink) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		s.srv.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.queue.Run(ctx, s.execute)
	}()

	for {
		ch, err := s.srv.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			logs.Warnf("accept failed, err: %v", err)
			continue
		}
		logs.Infof("accepted engine %s", ch.RemoteAddr())
		s.wg.Add(1)
		go s.serve(ctx, ch)
	}

	s.wg.Wait()
	s.queue.Close()
	<-done
	return nil
}

func (s *Sink) serve(ctx context.Context, ch *channel.Channel) {
	defer s.wg.Done()
	defer ch.Close()
	stop := context.AfterFunc(ctx, func() { ch.Close() })
	defer stop()

	remote := ch.RemoteAddr()
	for {
		msg, err := ch.Receive()
		if err != nil {
			if channel.IsFrameError(err) {
				s.metrics.IncFrameError()
				logs.Warnf("skipping corrupt frame from %s, err: %v", remote, err)
				continue
			}
			logs.Infof("engine %s disconnected, err: %v", remote, err)
			return
		}
		s.metrics.IncFrameIn()

		order, ok := msg.(schema.Order)
		if !ok {
			logs.Warnf("unexpected %s message from %s", msg.Kind(), remote)
			continue
		}
		err = s.queue.TryPublish(bus.Delivery{Order: order, Remote: remote, Recv: time.Now()})
		switch {
		case err == nil:
		case errors.Is(err, bus.ErrQueueFull):
			s.metrics.IncQueueDrop()
			logs.Warnf("order queue full, dropping order %d from %s", order.ID, remote)
		default:
			return
		}
	}
}

func (s *Sink) execute(d bus.Delivery) {
	latency := schema.Since(d.Recv, d.Order.Ts)
	s.metrics.ObserveOrder(latency)
	logs.Infof("executed order %d: %s %d %s @ %.2f (latency %s, from %s)",
		d.Order.ID, d.Order.Side, d.Order.Qty, d.Order.Symbol, d.Order.Price, latency, d.Remote)
}
