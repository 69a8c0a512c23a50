// Package domain contains the core domain types for the swap context.
package domain

import (
	"fmt"
	"strings"

	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
)

// Pair is an ordered tradable pair: sell Base, receive Quote.
type Pair struct {
	Base  *asset.Asset
	Quote *asset.Asset
}

// NewPair creates a pair. Both assets must live on the same chain.
func NewPair(base, quote *asset.Asset) (Pair, error) {
	if base == nil || quote == nil {
		return Pair{}, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithMessage("pair requires two assets"))
	}
	if base.ChainID() != quote.ChainID() {
		return Pair{}, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithMessage("pair assets live on different chains"))
	}
	if base.ID().Equals(quote.ID()) {
		return Pair{}, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithMessage("pair assets must differ"))
	}
	return Pair{Base: base, Quote: quote}, nil
}

// ParsePair resolves "ETH-USDC" against the registry.
func ParsePair(s string, chainID uint64, registry *asset.Registry) (Pair, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return Pair{}, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithMessage(fmt.Sprintf("malformed pair %q, want BASE-QUOTE", s)))
	}
	base, ok := registry.GetBySymbolAndChain(strings.ToUpper(parts[0]), chainID)
	if !ok {
		return Pair{}, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithMessage(fmt.Sprintf("unknown asset %q", parts[0])))
	}
	quote, ok := registry.GetBySymbolAndChain(strings.ToUpper(parts[1]), chainID)
	if !ok {
		return Pair{}, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithMessage(fmt.Sprintf("unknown asset %q", parts[1])))
	}
	return NewPair(base, quote)
}

// Flip returns the reversed pair.
func (p Pair) Flip() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

// String renders "ETH-USDC".
func (p Pair) String() string {
	return p.Base.Symbol() + "-" + p.Quote.Symbol()
}

// Whitelist is the set of pairs the client will trade.
type Whitelist struct {
	pairs []Pair
	index map[string]Pair
}

// NewWhitelist parses the configured pair strings.
func NewWhitelist(specs []string, chainID uint64, registry *asset.Registry) (*Whitelist, error) {
	w := &Whitelist{index: make(map[string]Pair, len(specs))}
	for _, s := range specs {
		p, err := ParsePair(s, chainID, registry)
		if err != nil {
			return nil, err
		}
		if _, dup := w.index[p.String()]; dup {
			continue
		}
		w.pairs = append(w.pairs, p)
		w.index[p.String()] = p
	}
	if len(w.pairs) == 0 {
		return nil, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithMessage("no tradable pairs configured"))
	}
	return w, nil
}

// Contains reports whether p is tradable.
func (w *Whitelist) Contains(p Pair) bool {
	_, ok := w.index[p.String()]
	return ok
}

// Pairs returns the whitelist in configured order.
func (w *Whitelist) Pairs() []Pair {
	out := make([]Pair, len(w.pairs))
	copy(out, w.pairs)
	return out
}

// Get resolves a pair by its "BASE-QUOTE" name.
func (w *Whitelist) Get(name string) (Pair, bool) {
	p, ok := w.index[name]
	return p, ok
}
