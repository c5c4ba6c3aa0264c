// Package book implements the order-book role: it consumes the price
// stream and keeps the shared price table current.
package book

import (
	"context"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"tickpipe/internal/channel"
	"tickpipe/internal/obs"
	"tickpipe/internal/ops"
	"tickpipe/internal/schema"
	"tickpipe/internal/shm"
	"tickpipe/pkg/exception"
)

// Updater consumes price ticks and writes them into the shared table.
// Connection loss feeds a fixed-backoff retry loop; only cancellation
// or a broken table ends Run.
type Updater struct {
	table   *shm.Table
	client  *channel.Client
	backoff time.Duration
	metrics *obs.Metrics
}

// NewUpdater wires an updater from the resolved config.
func NewUpdater(cfg ops.Config, table *shm.Table, metrics *obs.Metrics) (*Updater, error) {
	client, err := channel.NewClient(cfg.PriceAddr)
	if err != nil {
		return nil, err
	}
	return &Updater{
		table:   table,
		client:  client,
		backoff: cfg.Backoff,
		metrics: metrics,
	}, nil
}

// Run connects, consumes and reconnects until the context ends.
func (u *Updater) Run(ctx context.Context) error {
	for {
		ch, err := u.client.DialRetry(ctx, u.backoff, u.metrics.IncReconnect)
		if err != nil {
			return err
		}
		logs.Infof("connected to price stream at %s", u.client.Addr())

		stop := context.AfterFunc(ctx, func() { ch.Close() })
		consumeErr := u.consume(ctx, ch)
		stop()
		ch.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if consumeErr != nil {
			return consumeErr
		}
		u.metrics.IncReconnect()
		logs.Warnf("price stream lost, reconnecting in %s", u.backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(u.backoff):
		}
	}
}

// consume reads ticks until the connection dies (nil return, caller
// reconnects) or the table itself fails (error return, fatal).
func (u *Updater) consume(ctx context.Context, ch *channel.Channel) error {
	for {
		select {
		case <-sys.Shutdown():
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		msg, err := ch.Receive()
		if err != nil {
			if channel.IsFrameError(err) {
				u.metrics.IncFrameError()
				logs.Warnf("skipping corrupt price frame, err: %v", err)
				continue
			}
			logs.Infof("price stream closed, err: %v", err)
			return nil
		}
		u.metrics.IncFrameIn()

		tick, ok := msg.(schema.PriceTick)
		if !ok {
			logs.Warnf("unexpected %s message on price stream", msg.Kind())
			continue
		}
		if err := u.table.SetPrice(tick.Symbol, tick.Price); err != nil {
			if errors.Is(err, exception.ErrUnknownSymbol) {
				logs.Errorf("dropping tick for untracked symbol %s, err: %v", tick.Symbol, err)
				continue
			}
			return err
		}
	}
}
