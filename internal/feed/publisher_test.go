package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickpipe/internal/channel"
	"tickpipe/internal/obs"
	"tickpipe/internal/ops"
	"tickpipe/internal/schema"
)

func startPublisher(t *testing.T) *Publisher {
	t.Helper()
	cfg := ops.Config{
		PriceAddr:    "127.0.0.1:0",
		NewsAddr:     "127.0.0.1:0",
		TickInterval: time.Millisecond,
		NewsInterval: time.Millisecond,
	}
	pub, err := NewPublisher(cfg, testRegistry(t), obs.NewMetrics())
	require.NoError(t, err)
	require.NoError(t, pub.Listen())
	go pub.Run(t.Context())
	return pub
}

func receiveOne(t *testing.T, addr string) schema.Message {
	t.Helper()
	client, err := channel.NewClient(addr)
	require.NoError(t, err)
	ch, err := client.Dial(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { ch.Close() })

	type result struct {
		msg schema.Message
		err error
	}
	out := make(chan result, 1)
	go func() {
		msg, err := ch.Receive()
		out <- result{msg, err}
	}()
	select {
	case r := <-out:
		require.NoError(t, r.err)
		return r.msg
	case <-time.After(2 * time.Second):
		t.Fatal("no frame within deadline")
		return nil
	}
}

func TestPublisherStreamsPrices(t *testing.T) {
	pub := startPublisher(t)

	msg := receiveOne(t, pub.PriceAddr())
	tick, ok := msg.(schema.PriceTick)
	require.True(t, ok, "expected price tick, got %s", msg.Kind())
	assert.Contains(t, []string{"AAPL", "MSFT", "GOOGL"}, tick.Symbol)
	assert.Greater(t, tick.Price, 0.0)
}

func TestPublisherStreamsNews(t *testing.T) {
	pub := startPublisher(t)

	msg := receiveOne(t, pub.NewsAddr())
	tick, ok := msg.(schema.NewsTick)
	require.True(t, ok, "expected news tick, got %s", msg.Kind())
	assert.NotEmpty(t, tick.Headline)
	assert.NotEmpty(t, string(tick.Sentiment))
}

func TestPublisherIndependentStreams(t *testing.T) {
	pub := startPublisher(t)

	// Drop a price consumer mid-stream; the news endpoint keeps serving.
	client, err := channel.NewClient(pub.PriceAddr())
	require.NoError(t, err)
	ch, err := client.Dial(t.Context())
	require.NoError(t, err)
	ch.Close()

	msg := receiveOne(t, pub.NewsAddr())
	_, ok := msg.(schema.NewsTick)
	assert.True(t, ok)
}
