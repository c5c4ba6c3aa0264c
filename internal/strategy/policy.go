package strategy

import (
	"time"

	"tickpipe/internal/schema"
)

const (
	shortWindow = 5
	longWindow  = 20
	maxHistory  = longWindow * 2

	orderQty = 10
)

// Position is the side the policy currently holds for a symbol.
type Position string

const (
	PositionNone  Position = "none"
	PositionLong  Position = "long"
	PositionShort Position = "short"
)

// Policy turns news ticks and live prices into orders. Implementations
// may keep internal state; the engine calls them from one goroutine.
type Policy interface {
	// Observe feeds the latest non-sentinel prices into the policy's
	// history.
	Observe(prices map[string]float64)
	// Decide evaluates a news tick against the live price of the
	// symbol it references. Returning false means no order.
	Decide(news schema.NewsTick, symbol string, price float64, now time.Time) (schema.Order, bool)
}

// SentimentPolicy emits an order only when the news sentiment and the
// moving-average trend agree, and flips the held position rather than
// re-sending the same side.
type SentimentPolicy struct {
	history  map[string][]float64
	position map[string]Position
	nextID   uint64
}

// NewSentimentPolicy creates the default policy with empty history.
func NewSentimentPolicy() *SentimentPolicy {
	return &SentimentPolicy{
		history:  make(map[string][]float64),
		position: make(map[string]Position),
	}
}

// Observe appends prices to the bounded per-symbol history.
func (p *SentimentPolicy) Observe(prices map[string]float64) {
	for symbol, price := range prices {
		h := append(p.history[symbol], price)
		if len(h) > maxHistory {
			h = h[len(h)-maxHistory:]
		}
		p.history[symbol] = h
	}
}

// Decide combines the sentiment signal with the MA-crossover signal.
func (p *SentimentPolicy) Decide(news schema.NewsTick, symbol string, price float64, now time.Time) (schema.Order, bool) {
	var newsSide schema.Side
	switch news.Sentiment {
	case schema.SentimentBullish:
		newsSide = schema.SideBuy
	case schema.SentimentBearish:
		newsSide = schema.SideSell
	default:
		return schema.Order{}, false
	}

	trendSide, ok := p.trend(symbol)
	if !ok || trendSide != newsSide {
		return schema.Order{}, false
	}

	target := PositionLong
	if newsSide == schema.SideSell {
		target = PositionShort
	}
	if p.position[symbol] == target {
		return schema.Order{}, false
	}
	p.position[symbol] = target

	p.nextID++
	return schema.Order{
		ID:     p.nextID,
		Symbol: symbol,
		Side:   newsSide,
		Qty:    orderQty,
		Price:  price,
		Ts:     schema.Timestamp(now),
	}, true
}

// trend compares the short and long moving averages. It reports false
// until enough history exists or while the averages are equal.
func (p *SentimentPolicy) trend(symbol string) (schema.Side, bool) {
	h := p.history[symbol]
	if len(h) < longWindow {
		return "", false
	}
	short := mean(h[len(h)-shortWindow:])
	long := mean(h[len(h)-longWindow:])
	switch {
	case short > long:
		return schema.SideBuy, true
	case short < long:
		return schema.SideSell, true
	default:
		return "", false
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
