// Package feed implements the gateway role: two independent listening
// endpoints streaming synthetic price ticks and news headlines to any
// number of connected consumers.
package feed

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"tickpipe/internal/channel"
	"tickpipe/internal/obs"
	"tickpipe/internal/ops"
	"tickpipe/internal/schema"
)

// Publisher serves the price and news streams. The two endpoints are
// fully independent: a disconnect or stall on one never affects the
// other. There is no backpressure beyond TCP flow control.
type Publisher struct {
	reg     *schema.Registry
	metrics *obs.Metrics

	priceSrv *channel.Server
	newsSrv  *channel.Server

	tickInterval time.Duration
	newsInterval time.Duration

	listening bool
	wg        sync.WaitGroup
}

// NewPublisher wires a publisher from the resolved config.
func NewPublisher(cfg ops.Config, reg *schema.Registry, metrics *obs.Metrics) (*Publisher, error) {
	priceSrv, err := channel.NewServer(cfg.PriceAddr)
	if err != nil {
		return nil, err
	}
	newsSrv, err := channel.NewServer(cfg.NewsAddr)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		reg:          reg,
		metrics:      metrics,
		priceSrv:     priceSrv,
		newsSrv:      newsSrv,
		tickInterval: cfg.TickInterval,
		newsInterval: cfg.NewsInterval,
	}, nil
}

// PriceAddr returns the resolved price endpoint after Run has bound it.
func (p *Publisher) PriceAddr() string { return p.priceSrv.Addr() }

// NewsAddr returns the resolved news endpoint after Run has bound it.
func (p *Publisher) NewsAddr() string { return p.newsSrv.Addr() }

// Listen binds both endpoints. Run calls it when needed; tests call it
// first to learn the resolved addresses.
func (p *Publisher) Listen() error {
	if p.listening {
		return nil
	}
	if err := p.priceSrv.Listen(); err != nil {
		return err
	}
	if err := p.newsSrv.Listen(); err != nil {
		p.priceSrv.Close()
		return err
	}
	p.listening = true
	logs.Infof("price stream listening on %s", p.priceSrv.Addr())
	logs.Infof("news stream listening on %s", p.newsSrv.Addr())
	return nil
}

// Run binds both endpoints and serves until the context ends.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.Listen(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		p.priceSrv.Close()
		p.newsSrv.Close()
	}()

	p.wg.Add(2)
	go p.acceptLoop(ctx, p.priceSrv, p.servePrice)
	go p.acceptLoop(ctx, p.newsSrv, p.serveNews)
	p.wg.Wait()
	return nil
}

func (p *Publisher) acceptLoop(ctx context.Context, srv *channel.Server, serve func(context.Context, *channel.Channel)) {
	defer p.wg.Done()
	for {
		ch, err := srv.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logs.Warnf("accept on %s failed, err: %v", srv.Addr(), err)
			continue
		}
		logs.Infof("accepted consumer %s on %s", ch.RemoteAddr(), srv.Addr())
		go serve(ctx, ch)
	}
}

// servePrice runs one consumer's tick loop. Each consumer gets its own
// walk so a slow peer cannot skew another's stream.
func (p *Publisher) servePrice(ctx context.Context, ch *channel.Channel) {
	defer ch.Close()
	gen, err := NewGenerator(p.reg, time.Now().UnixNano())
	if err != nil {
		logs.Errorf("price generator init failed, err: %v", err)
		return
	}
	ticker := time.NewTicker(p.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sys.Shutdown():
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := ch.Send(gen.Next(now)); err != nil {
				logs.Infof("price consumer %s disconnected, err: %v", ch.RemoteAddr(), err)
				return
			}
			p.metrics.IncFrameOut()
		}
	}
}

func (p *Publisher) serveNews(ctx context.Context, ch *channel.Channel) {
	defer ch.Close()
	gen, err := NewNewsGenerator(p.reg, time.Now().UnixNano())
	if err != nil {
		logs.Errorf("news generator init failed, err: %v", err)
		return
	}
	ticker := time.NewTicker(p.newsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sys.Shutdown():
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := ch.Send(gen.Next(now)); err != nil {
				logs.Infof("news consumer %s disconnected, err: %v", ch.RemoteAddr(), err)
				return
			}
			p.metrics.IncFrameOut()
		}
	}
}
