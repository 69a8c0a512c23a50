package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
)

// Intent is a fully specified swap ready for submission. TokenIn and
// TokenOut are the on-chain (wrapped) addresses; Value carries the native
// amount and is nonzero only when the sold asset is native.
type Intent struct {
	TokenIn          common.Address
	TokenOut         common.Address
	AmountIn         asset.Amount
	AmountOutMinimum asset.Amount
	Recipient        common.Address
	Deadline         *big.Int
	FeeTier          int
	Value            *big.Int
}

// BuildIntent derives the submission intent from a quote, the slippage
// tolerance and a fresh deadline window.
func BuildIntent(quote QuoteResult, slippageBps int64, deadlineWindow time.Duration, recipient common.Address, registry *asset.Registry, now time.Time) (Intent, error) {
	if quote.NoLiquidity {
		return Intent{}, apperror.New(apperror.CodeInsufficientLiquidity)
	}
	if !quote.Request.AmountIn.IsPositive() {
		return Intent{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithMessage("swap amount must be positive"))
	}

	sold := quote.Request.Pair.Base
	bought := quote.Request.Pair.Quote

	tokenIn, ok := registry.Wrapped(sold)
	if !ok {
		return Intent{}, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithMessage("no wrapped equivalent for "+sold.Symbol()))
	}
	tokenOut, ok := registry.Wrapped(bought)
	if !ok {
		return Intent{}, apperror.New(apperror.CodeUnsupportedPair,
			apperror.WithMessage("no wrapped equivalent for "+bought.Symbol()))
	}

	value := big.NewInt(0)
	if sold.IsNative() {
		value = quote.Request.AmountIn.Raw()
	}

	return Intent{
		TokenIn:          tokenIn.Address(),
		TokenOut:         tokenOut.Address(),
		AmountIn:         quote.Request.AmountIn,
		AmountOutMinimum: MinimumOut(quote.AmountOut, slippageBps),
		Recipient:        recipient,
		Deadline:         Deadline(now, deadlineWindow),
		FeeTier:          quote.FeeTier,
		Value:            value,
	}, nil
}

// Validate checks the submission invariants against the current time.
func (i Intent) Validate(now time.Time) error {
	if !i.AmountIn.IsPositive() {
		return apperror.New(apperror.CodeInvalidAmount,
			apperror.WithMessage("swap amount must be positive"))
	}
	if i.Deadline == nil || i.Deadline.Int64() <= now.Unix() {
		return apperror.New(apperror.CodeDeadlinePassed)
	}
	if i.Recipient == (common.Address{}) {
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage("recipient is not set"))
	}
	return nil
}

// IsNativeIn reports whether the swap spends the native coin.
func (i Intent) IsNativeIn() bool {
	return i.Value != nil && i.Value.Sign() > 0
}
