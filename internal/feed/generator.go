package feed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"tickpipe/internal/schema"
)

// Generator produces a synthetic price stream: symbols rotate
// round-robin and each price follows a bounded random walk, rounded to
// two decimals. Starting prices land in [100, 500).
type Generator struct {
	reg    *schema.Registry
	prices []decimal.Decimal
	rng    *rand.Rand
	index  int
}

// NewGenerator creates a generator over all registry symbols.
func NewGenerator(reg *schema.Registry, seed int64) (*Generator, error) {
	if reg == nil || reg.Count() == 0 {
		return nil, fmt.Errorf("registry has no symbols")
	}
	rng := rand.New(rand.NewSource(seed))
	prices := make([]decimal.Decimal, reg.Count())
	for i := range prices {
		prices[i] = decimal.NewFromFloat(100 + rng.Float64()*400).Round(2)
	}
	return &Generator{reg: reg, prices: prices, rng: rng}, nil
}

// Next creates the next tick in sequence. The walk moves each price by
// at most ±0.1% per tick.
func (g *Generator) Next(now time.Time) schema.PriceTick {
	symbol, _ := g.reg.At(g.index)
	change := (g.rng.Float64() - 0.5) * 0.002
	next := g.prices[g.index].Mul(decimal.NewFromFloat(1 + change)).Round(2)
	g.prices[g.index] = next

	tick := schema.PriceTick{
		Symbol: symbol,
		Price:  next.InexactFloat64(),
		Ts:     schema.Timestamp(now),
	}
	g.index = (g.index + 1) % g.reg.Count()
	return tick
}
