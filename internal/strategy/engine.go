// Package strategy implements the signal engine: it consumes the news
// stream, reads live prices from the shared table, and emits orders to
// the order sink.
package strategy

import (
	"context"
	"time"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"tickpipe/internal/channel"
	"tickpipe/internal/obs"
	"tickpipe/internal/ops"
	"tickpipe/internal/schema"
	"tickpipe/internal/shm"
)

// Engine drives one policy. Its two outbound connections (news in,
// orders out) reconnect independently with the same fixed backoff.
type Engine struct {
	reg     *schema.Registry
	table   *shm.Table
	policy  Policy
	metrics *obs.Metrics

	newsClient  *channel.Client
	orderClient *channel.Client
	backoff     time.Duration

	orderCh *channel.Channel
}

// NewEngine wires an engine from the resolved config.
func NewEngine(cfg ops.Config, reg *schema.Registry, table *shm.Table, policy Policy, metrics *obs.Metrics) (*Engine, error) {
	newsClient, err := channel.NewClient(cfg.NewsAddr)
	if err != nil {
		return nil, err
	}
	orderClient, err := channel.NewClient(cfg.OrderAddr)
	if err != nil {
		return nil, err
	}
	return &Engine{
		reg:         reg,
		table:       table,
		policy:      policy,
		metrics:     metrics,
		newsClient:  newsClient,
		orderClient: orderClient,
		backoff:     cfg.Backoff,
	}, nil
}

// Run connects to the sink and the news stream and works until the
// context ends or the shared table becomes unusable.
func (e *Engine) Run(ctx context.Context) error {
	defer e.dropOrderChannel()

	// Reach the sink first, as the original ordering of the pipeline
	// expects a sink before signals can flow.
	if err := e.ensureOrderChannel(ctx); err != nil {
		return err
	}

	for {
		ch, err := e.newsClient.DialRetry(ctx, e.backoff, e.metrics.IncReconnect)
		if err != nil {
			return err
		}
		logs.Infof("connected to news stream at %s", e.newsClient.Addr())

		stop := context.AfterFunc(ctx, func() { ch.Close() })
		consumeErr := e.consume(ctx, ch)
		stop()
		ch.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if consumeErr != nil {
			return consumeErr
		}
		e.metrics.IncReconnect()
		logs.Warnf("news stream lost, reconnecting in %s", e.backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.backoff):
		}
	}
}

func (e *Engine) consume(ctx context.Context, ch *channel.Channel) error {
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
				e.metrics.IncFrameError()
				logs.Warnf("skipping corrupt news frame, err: %v", err)
				continue
			}
			logs.Infof("news stream closed, err: %v", err)
			return nil
		}
		e.metrics.IncFrameIn()

		news, ok := msg.(schema.NewsTick)
		if !ok {
			logs.Warnf("unexpected %s message on news stream", msg.Kind())
			continue
		}
		if err := e.handle(ctx, news); err != nil {
			return err
		}
	}
}

// handle evaluates one news tick. A sentinel price means no signal and
// no error; only table failures propagate.
func (e *Engine) handle(ctx context.Context, news schema.NewsTick) error {
	prices, err := e.table.Snapshot()
	if err != nil {
		return err
	}
	live := make(map[string]float64, len(prices))
	for symbol, price := range prices {
		if price != 0 {
			live[symbol] = price
		}
	}
	e.policy.Observe(live)

	symbol, ok := e.reg.FindIn(news.Headline)
	if !ok {
		return nil
	}
	price, ok := live[symbol]
	if !ok {
		// No quote for this symbol yet.
		return nil
	}
	order, ok := e.policy.Decide(news, symbol, price, time.Now())
	if !ok {
		return nil
	}
	e.sendOrder(ctx, order)
	return nil
}

// sendOrder delivers best-effort: a failed send drops the order with a
// visible error and forces a fresh sink connection for the next one.
func (e *Engine) sendOrder(ctx context.Context, order schema.Order) {
	if err := e.ensureOrderChannel(ctx); err != nil {
		logs.Errorf("order %d dropped, sink unreachable, err: %v", order.ID, err)
		return
	}
	if err := e.orderCh.Send(order); err != nil {
		logs.Errorf("order %d dropped, send failed, err: %v", order.ID, err)
		e.dropOrderChannel()
		return
	}
	e.metrics.IncFrameOut()
	logs.Infof("sent order %d: %s %d %s @ %.2f", order.ID, order.Side, order.Qty, order.Symbol, order.Price)
}

func (e *Engine) ensureOrderChannel(ctx context.Context) error {
	if e.orderCh != nil {
		return nil
	}
	ch, err := e.orderClient.DialRetry(ctx, e.backoff, e.metrics.IncReconnect)
	if err != nil {
		return err
	}
	logs.Infof("connected to order sink at %s", e.orderClient.Addr())
	e.orderCh = ch
	return nil
}

func (e *Engine) dropOrderChannel() {
	if e.orderCh != nil {
		e.orderCh.Close()
		e.orderCh = nil
	}
}
