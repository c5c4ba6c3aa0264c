package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickpipe/internal/schema"
)

func TestQueuePublishAndRun(t *testing.T) {
	q := NewQueue(4)
	want := Delivery{
		Order:  schema.Order{ID: 1, Symbol: "AAPL", Side: schema.SideBuy, Qty: 10, Price: 150},
		Remote: "127.0.0.1:50000",
		Recv:   time.Now(),
	}
	require.NoError(t, q.TryPublish(want))
	q.Close()

	got := make(chan Delivery, 1)
	q.Run(context.Background(), func(d Delivery) { got <- d })

	select {
	case d := <-got:
		assert.Equal(t, want, d)
	default:
		t.Fatal("delivery not handled")
	}
}

func TestQueueFullDoesNotBlock(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.TryPublish(Delivery{Order: schema.Order{ID: 1}}))
	assert.ErrorIs(t, q.TryPublish(Delivery{Order: schema.Order{ID: 2}}), ErrQueueFull)
}

func TestQueueClosed(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	q.Close()
	assert.ErrorIs(t, q.TryPublish(Delivery{}), ErrQueueClosed)
}

func TestQueueRunStopsOnContext(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		q.Run(ctx, func(Delivery) {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on canceled context")
	}
}
