// Package app contains application services and port definitions for the swap context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
)

// Quoter quotes a single-hop exact-input swap on the DEX.
type Quoter interface {
	// QuoteExactInputSingle returns the output of selling amountIn of
	// tokenIn for tokenOut at one fee tier. A pool that cannot fill the
	// trade returns an insufficient-liquidity error.
	QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, feeTier int) (amountOut *big.Int, gasEstimate uint64, err error)
}

// AllowanceReader reads ERC-20 allowances.
type AllowanceReader interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// Approver submits ERC-20 approvals.
type Approver interface {
	// Approve submits an unlimited allowance of token to spender and
	// returns the transaction hash without waiting for it to mine.
	Approve(ctx context.Context, token, spender common.Address) (common.Hash, error)

	// WaitMined blocks until the approval mines and reports whether it
	// succeeded on chain.
	WaitMined(ctx context.Context, hash common.Hash) (succeeded bool, err error)
}

// SwapRouter submits the swap transaction.
type SwapRouter interface {
	// ExactInputSingle submits the swap and returns its hash without
	// waiting for it to mine.
	ExactInputSingle(ctx context.Context, intent domain.Intent) (common.Hash, error)

	// WaitMined blocks until the transaction mines and reports whether
	// it succeeded on chain.
	WaitMined(ctx context.Context, hash common.Hash) (succeeded bool, err error)

	// Address returns the router contract address, the spender for
	// approvals.
	Address() common.Address
}

// BalanceReader reads spendable balances for the pre-submission check.
type BalanceReader interface {
	// SpendableBalance returns the connected account's balance of the
	// pair's base asset, in raw units.
	SpendableBalance(ctx context.Context, pair domain.Pair) (*big.Int, error)
}

// ReferencePrices serves an advisory mid price for a pair. Zero and
// false mean no reference is available; quoting must still work.
type ReferencePrices interface {
	MidPrice(pair domain.Pair) (decimal.Decimal, bool)
}

// HistoryStore persists the local swap history for one wallet.
type HistoryStore interface {
	Append(ctx context.Context, wallet common.Address, record domain.Record) error
	List(ctx context.Context, wallet common.Address) ([]domain.Record, error)
}

// QuoteListener receives quote results as they resolve. Stale results
// are filtered before delivery.
type QuoteListener func(domain.QuoteResult)

// Event is one orchestrator state change pushed to the presentation.
type Event struct {
	Phase    domain.Phase
	Approval domain.TxStatus
	Swap     domain.TxStatus
	Failure  domain.FailureReason
	Message  string
}

// EventListener receives orchestrator events.
type EventListener func(Event)
