package asset

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe registry of known assets.
// It also carries the native-to-wrapped mapping used when quoting.
type Registry struct {
	byID     map[AssetID]*Asset
	bySymbol map[string][]*Asset // symbol -> assets (can repeat across chains)
	wrapped  map[AssetID]AssetID // native coin -> wrapped token
	mu       sync.RWMutex
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[AssetID]*Asset),
		bySymbol: make(map[string][]*Asset),
		wrapped:  make(map[AssetID]AssetID),
	}
}

// Register adds an asset to the registry.
// Panics if an asset with the same ID is already registered.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.ID()
	if _, exists := r.byID[id]; exists {
		panic(fmt.Sprintf("asset: %s already registered", id))
	}

	r.byID[id] = a
	r.bySymbol[a.Symbol()] = append(r.bySymbol[a.Symbol()], a)
}

// SetWrapped records the wrapped equivalent for a native coin.
// Both assets must already be registered.
func (r *Registry) SetWrapped(native, wrapped *Asset) {
	if native == nil || wrapped == nil {
		panic("asset: nil asset in wrapped mapping")
	}
	if !native.IsNative() {
		panic("asset: wrapped mapping source must be a native coin")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[native.ID()]; !ok {
		panic(fmt.Sprintf("asset: %s not registered", native.ID()))
	}
	if _, ok := r.byID[wrapped.ID()]; !ok {
		panic(fmt.Sprintf("asset: %s not registered", wrapped.ID()))
	}
	r.wrapped[native.ID()] = wrapped.ID()
}

// Wrapped resolves the wrapped equivalent of a native coin.
// For tokens it returns the asset itself. The second return is false when a
// native coin has no wrapped mapping configured.
func (r *Registry) Wrapped(a *Asset) (*Asset, bool) {
	if a == nil {
		return nil, false
	}
	if a.IsToken() {
		return a, true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	wid, ok := r.wrapped[a.ID()]
	if !ok {
		return nil, false
	}
	w, ok := r.byID[wid]
	return w, ok
}

// Get retrieves an asset by its ID.
func (r *Registry) Get(id AssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	return a, ok
}

// MustGet retrieves an asset by its ID, panics if not found.
func (r *Registry) MustGet(id AssetID) *Asset {
	a, ok := r.Get(id)
	if !ok {
		panic(fmt.Sprintf("asset: %s not found in registry", id))
	}
	return a
}

// GetBySymbolAndChain retrieves an asset by symbol and chain ID.
func (r *Registry) GetBySymbolAndChain(symbol string, chainID uint64) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.bySymbol[symbol] {
		if a.ChainID() == chainID {
			return a, true
		}
	}
	return nil, false
}

// GetNative retrieves the native coin for a chain.
func (r *Registry) GetNative(chainID uint64) (*Asset, bool) {
	return r.Get(NewNativeAssetID(chainID))
}

// GetToken retrieves a token by chain and address.
func (r *Registry) GetToken(chainID uint64, address common.Address) (*Asset, bool) {
	return r.Get(NewTokenAssetID(chainID, address))
}

// All returns all registered assets.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Asset, 0, len(r.byID))
	for _, a := range r.byID {
		result = append(result, a)
	}
	return result
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
