// Package domain contains the core domain types for the wallet context.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zk-web3/darknodedex-sub000/internal/asset"
)

// Account is a connected signing account.
type Account struct {
	Address common.Address
	ChainID uint64
}

// Balance is an account balance for one asset at a point in time.
type Balance struct {
	Account   common.Address
	Amount    asset.Amount
	FetchedAt time.Time
}

// NewBalance creates a Balance stamped with the current time.
func NewBalance(account common.Address, amount asset.Amount) Balance {
	return Balance{
		Account:   account,
		Amount:    amount,
		FetchedAt: time.Now(),
	}
}

// Covers reports whether the balance covers the given amount. Both must
// reference the same asset.
func (b Balance) Covers(amount asset.Amount) bool {
	cmp, err := b.Amount.Cmp(amount)
	if err != nil {
		return false
	}
	return cmp >= 0
}
