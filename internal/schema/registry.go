package schema

import (
	"fmt"
	"strings"
)

// MaxSymbolLen is the widest symbol the shared table can store.
const MaxSymbolLen = 16

// Registry holds the fixed, ordered symbol set tracked by the
// pipeline. The set never grows or shrinks after construction.
type Registry struct {
	symbols []string
	index   map[string]int
}

// NewRegistry builds a registry from an ordered list of distinct
// symbols.
func NewRegistry(symbols []string) (*Registry, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbol list is empty")
	}
	reg := &Registry{
		symbols: make([]string, 0, len(symbols)),
		index:   make(map[string]int, len(symbols)),
	}
	for _, symbol := range symbols {
		if symbol == "" {
			return nil, fmt.Errorf("symbol name is empty")
		}
		if len(symbol) > MaxSymbolLen {
			return nil, fmt.Errorf("symbol too long: %s", symbol)
		}
		if _, ok := reg.index[symbol]; ok {
			return nil, fmt.Errorf("symbol already exists: %s", symbol)
		}
		reg.index[symbol] = len(reg.symbols)
		reg.symbols = append(reg.symbols, symbol)
	}
	return reg, nil
}

// Count returns the number of symbols in the registry.
func (r *Registry) Count() int {
	return len(r.symbols)
}

// At returns the symbol by zero-based index.
func (r *Registry) At(index int) (string, bool) {
	if index < 0 || index >= len(r.symbols) {
		return "", false
	}
	return r.symbols[index], true
}

// Index returns the slot of a symbol.
func (r *Registry) Index(symbol string) (int, bool) {
	i, ok := r.index[symbol]
	return i, ok
}

// Symbols returns a copy of the ordered symbol list.
func (r *Registry) Symbols() []string {
	out := make([]string, len(r.symbols))
	copy(out, r.symbols)
	return out
}

// FindIn returns the first registered symbol named inside the text.
func (r *Registry) FindIn(text string) (string, bool) {
	for _, symbol := range r.symbols {
		if strings.Contains(text, symbol) {
			return symbol, true
		}
	}
	return "", false
}
