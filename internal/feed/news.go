package feed

import (
	"fmt"
	"math/rand"
	"time"

	"tickpipe/internal/schema"
)

// Sentiment scores above bullishScore map to a bullish headline,
// below bearishScore to a bearish one, anything between to neutral.
const (
	bullishScore = 70
	bearishScore = 30
)

var headlines = map[schema.Sentiment][]string{
	schema.SentimentBullish: {
		"%s beats quarterly expectations",
		"%s raises full-year guidance",
	},
	schema.SentimentBearish: {
		"%s faces regulatory scrutiny",
		"%s misses revenue estimates",
	},
	schema.SentimentNeutral: {
		"%s trades flat ahead of earnings",
		"%s schedules annual shareholder meeting",
	},
}

// NewsGenerator produces scored headlines naming a random registered
// symbol.
type NewsGenerator struct {
	reg *schema.Registry
	rng *rand.Rand
}

// NewNewsGenerator creates a news generator over the registry symbols.
func NewNewsGenerator(reg *schema.Registry, seed int64) (*NewsGenerator, error) {
	if reg == nil || reg.Count() == 0 {
		return nil, fmt.Errorf("registry has no symbols")
	}
	return &NewsGenerator{reg: reg, rng: rand.New(rand.NewSource(seed))}, nil
}

// Next creates the next headline tick.
func (g *NewsGenerator) Next(now time.Time) schema.NewsTick {
	symbol, _ := g.reg.At(g.rng.Intn(g.reg.Count()))

	score := g.rng.Intn(101)
	sentiment := schema.SentimentNeutral
	switch {
	case score > bullishScore:
		sentiment = schema.SentimentBullish
	case score < bearishScore:
		sentiment = schema.SentimentBearish
	}

	pool := headlines[sentiment]
	return schema.NewsTick{
		Headline:  fmt.Sprintf(pool[g.rng.Intn(len(pool))], symbol),
		Sentiment: sentiment,
		Ts:        schema.Timestamp(now),
	}
}
