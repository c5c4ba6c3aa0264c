package channel

import (
	"context"
	"net"
	"time"

	"github.com/yanun0323/logs"

	"tickpipe/pkg/exception"
)

// Client dials framed-channel connections to a fixed address.
type Client struct {
	addr string
}

// NewClient creates a client for the provided address.
func NewClient(addr string) (*Client, error) {
	if addr == "" {
		return nil, exception.ErrEmptyAddress
	}
	return &Client{addr: addr}, nil
}

// Addr returns the configured address.
func (c *Client) Addr() string {
	if c == nil {
		return ""
	}
	return c.addr
}

// Dial opens one connection.
func (c *Client) Dial(ctx context.Context) (*Channel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// DialRetry dials until it succeeds or the context is canceled,
// sleeping a fixed backoff between attempts. There is no attempt cap;
// cancellation is the only way out, so the surrounding process can
// shut down mid-backoff. Each failed attempt invokes onRetry when set.
func (c *Client) DialRetry(ctx context.Context, backoff time.Duration, onRetry func()) (*Channel, error) {
	for {
		ch, err := c.Dial(ctx)
		if err == nil {
			return ch, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logs.Warnf("dial %s failed, retrying in %s, err: %v", c.addr, backoff, err)
		if onRetry != nil {
			onRetry()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
