// Package app contains application services and port definitions for the wallet context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/zk-web3/darknodedex-sub000/business/wallet/domain"
)

// Wallet abstracts the signing account. Implementations may guard
// signing behind a confirmation step; a declined confirmation surfaces
// as a user-rejected error.
type Wallet interface {
	// Account returns the connected account.
	Account() domain.Account

	// Address returns the account address.
	Address() common.Address

	// ChainID returns the chain the wallet signs for.
	ChainID() uint64

	// TransactOpts returns fresh signing options for a contract write,
	// bound to ctx.
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)

	// SignAndSend signs tx and submits it to the network.
	SignAndSend(ctx context.Context, tx *types.Transaction) (common.Hash, error)

	// NativeBalance returns the account's native coin balance in wei.
	NativeBalance(ctx context.Context) (*big.Int, error)
}

// GasOracle provides gas price information.
type GasOracle interface {
	// GasPrice retrieves the current suggested gas price.
	GasPrice(ctx context.Context) (*domain.GasPrice, error)

	// EstimateGas estimates the gas needed for a call to `to` with `data`.
	EstimateGas(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (uint64, error)
}
