package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zk-web3/darknodedex-sub000/internal/asset"
)

// bpsDenominator is the basis point scale.
const bpsDenominator = 10000

// QuoteRequest asks for the output of selling AmountIn.
// Seq is a monotonically increasing generation counter: of all requests
// issued, only the result carrying the highest Seq may be applied.
type QuoteRequest struct {
	Pair     Pair
	AmountIn asset.Amount
	FeeTier  int
	Seq      uint64
}

// QuoteResult is the outcome of one quote request. NoLiquidity marks
// "no pool can fill this" and is distinct from a zero AmountOut for a
// zero AmountIn.
type QuoteResult struct {
	Request     QuoteRequest
	AmountOut   asset.Amount
	FeeTier     int
	GasEstimate uint64
	NoLiquidity bool
	FetchedAt   time.Time
}

// ZeroQuote is the result for a zero input: zero out, no provider call.
func ZeroQuote(req QuoteRequest) QuoteResult {
	return QuoteResult{
		Request:   req,
		AmountOut: asset.Zero(req.Pair.Quote),
		FeeTier:   req.FeeTier,
		FetchedAt: time.Now(),
	}
}

// NoLiquidityQuote marks the pair as unfillable for this size.
func NoLiquidityQuote(req QuoteRequest) QuoteResult {
	return QuoteResult{
		Request:     req,
		AmountOut:   asset.Zero(req.Pair.Quote),
		FeeTier:     req.FeeTier,
		NoLiquidity: true,
		FetchedAt:   time.Now(),
	}
}

// ExecutionPrice returns the all-in price (quote per base) implied by the
// quote, zero when either side is zero.
func (q QuoteResult) ExecutionPrice() decimal.Decimal {
	in := q.Request.AmountIn.ToDecimal()
	if in.IsZero() {
		return decimal.Zero
	}
	return q.AmountOut.ToDecimal().Div(in)
}

// PriceImpactBps compares the execution price against a reference mid
// price and returns the shortfall in basis points, negative when the
// execution price is better. Returns false when no comparison is possible.
func (q QuoteResult) PriceImpactBps(reference decimal.Decimal) (decimal.Decimal, bool) {
	if reference.IsZero() || q.NoLiquidity {
		return decimal.Zero, false
	}
	exec := q.ExecutionPrice()
	if exec.IsZero() {
		return decimal.Zero, false
	}
	diff := reference.Sub(exec).Div(reference)
	return diff.Mul(decimal.NewFromInt(bpsDenominator)), true
}

// MinimumOut applies the slippage tolerance to a quoted output:
// amountOut * (10000 - slippageBps) / 10000 with big.Int floor division.
func MinimumOut(amountOut asset.Amount, slippageBps int64) asset.Amount {
	if slippageBps <= 0 {
		return amountOut
	}
	if slippageBps >= bpsDenominator {
		return asset.Zero(amountOut.Asset())
	}
	min := new(big.Int).Mul(amountOut.Raw(), big.NewInt(bpsDenominator-slippageBps))
	min.Div(min, big.NewInt(bpsDenominator))
	return asset.NewAmount(amountOut.Asset(), min)
}

// Deadline returns the on-chain deadline for a submission happening now.
// Recomputed at every submission, never reused from the quote.
func Deadline(now time.Time, window time.Duration) *big.Int {
	return big.NewInt(now.Add(window).Unix())
}
