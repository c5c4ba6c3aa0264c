package schema

import "time"

// Kind is the type tag carried by every wire message.
type Kind string

const (
	KindPriceTick Kind = "price_tick"
	KindNewsTick  Kind = "news_tick"
	KindOrder     Kind = "order"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Sentiment is the news tone carried on the wire.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// Message is one self-describing wire record. Messages carry no state
// across frames; each one decodes independently.
type Message interface {
	Kind() Kind
}

// PriceTick is a single quote for one symbol.
type PriceTick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Ts     float64 `json:"ts"`
}

func (PriceTick) Kind() Kind { return KindPriceTick }

// NewsTick is a scored headline. The referenced symbol is named inside
// the headline text, not in a dedicated field.
type NewsTick struct {
	Headline  string    `json:"headline"`
	Sentiment Sentiment `json:"sentiment"`
	Ts        float64   `json:"ts"`
}

func (NewsTick) Kind() Kind { return KindNewsTick }

// Order is a trade instruction. Ts is the decision timestamp, kept so
// the sink can measure decision-to-arrival latency.
type Order struct {
	ID     uint64  `json:"id"`
	Symbol string  `json:"symbol"`
	Side   Side    `json:"side"`
	Qty    int64   `json:"qty"`
	Price  float64 `json:"price"`
	Ts     float64 `json:"ts"`
}

func (Order) Kind() Kind { return KindOrder }

// Timestamp converts a time into the wire representation, fractional
// seconds since the Unix epoch.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Since returns the elapsed duration between a wire timestamp and now.
func Since(now time.Time, ts float64) time.Duration {
	return now.Sub(time.Unix(0, int64(ts*float64(time.Second))))
}
