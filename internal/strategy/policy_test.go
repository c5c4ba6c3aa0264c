package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickpipe/internal/schema"
)

// observeTrend feeds enough history to make the short average sit
// above (rising) or below (falling) the long average.
func observeTrend(p *SentimentPolicy, symbol string, rising bool) {
	base := 100.0
	step := 1.0
	if !rising {
		step = -1.0
	}
	for i := 0; i < longWindow; i++ {
		p.Observe(map[string]float64{symbol: base + step*float64(i)})
	}
}

func bullish(symbol string) schema.NewsTick {
	return schema.NewsTick{
		Headline:  symbol + " beats quarterly expectations",
		Sentiment: schema.SentimentBullish,
		Ts:        schema.Timestamp(time.Now()),
	}
}

func bearish(symbol string) schema.NewsTick {
	return schema.NewsTick{
		Headline:  symbol + " faces regulatory scrutiny",
		Sentiment: schema.SentimentBearish,
		Ts:        schema.Timestamp(time.Now()),
	}
}

func TestDecideNeutralNeverTrades(t *testing.T) {
	p := NewSentimentPolicy()
	observeTrend(p, "AAPL", true)

	news := schema.NewsTick{Headline: "AAPL trades flat", Sentiment: schema.SentimentNeutral}
	_, ok := p.Decide(news, "AAPL", 120, time.Now())
	assert.False(t, ok)
}

func TestDecideRequiresHistory(t *testing.T) {
	p := NewSentimentPolicy()
	_, ok := p.Decide(bullish("AAPL"), "AAPL", 120, time.Now())
	assert.False(t, ok, "no trade before the long window fills")
}

func TestDecideSentimentAndTrendMustAgree(t *testing.T) {
	p := NewSentimentPolicy()
	observeTrend(p, "AAPL", false)

	_, ok := p.Decide(bullish("AAPL"), "AAPL", 120, time.Now())
	assert.False(t, ok, "bullish news against a falling trend")

	order, ok := p.Decide(bearish("AAPL"), "AAPL", 120, time.Now())
	require.True(t, ok)
	assert.Equal(t, schema.SideSell, order.Side)
	assert.Equal(t, "AAPL", order.Symbol)
	assert.EqualValues(t, orderQty, order.Qty)
	assert.Equal(t, 120.0, order.Price)
}

func TestDecideHoldsPosition(t *testing.T) {
	p := NewSentimentPolicy()
	observeTrend(p, "MSFT", true)

	first, ok := p.Decide(bullish("MSFT"), "MSFT", 250, time.Now())
	require.True(t, ok)
	assert.Equal(t, schema.SideBuy, first.Side)

	// Already long, same signal again is a no-op.
	_, ok = p.Decide(bullish("MSFT"), "MSFT", 251, time.Now())
	assert.False(t, ok)
}

func TestDecideFlipsPosition(t *testing.T) {
	p := NewSentimentPolicy()
	observeTrend(p, "MSFT", true)

	first, ok := p.Decide(bullish("MSFT"), "MSFT", 250, time.Now())
	require.True(t, ok)

	observeTrend(p, "MSFT", false)
	second, ok := p.Decide(bearish("MSFT"), "MSFT", 240, time.Now())
	require.True(t, ok)
	assert.Equal(t, schema.SideSell, second.Side)
	assert.Equal(t, first.ID+1, second.ID, "order ids are monotonic")
}

func TestObserveBoundsHistory(t *testing.T) {
	p := NewSentimentPolicy()
	for i := 0; i < maxHistory*3; i++ {
		p.Observe(map[string]float64{"GOOGL": float64(i)})
	}
	assert.Len(t, p.history["GOOGL"], maxHistory)
}
