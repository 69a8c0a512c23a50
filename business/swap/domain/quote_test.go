package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/zk-web3/darknodedex-sub000/internal/asset"
)

func testPair(t *testing.T) Pair {
	t.Helper()
	registry := asset.DefaultRegistry()
	p, err := ParsePair("ETH-USDC", asset.ChainIDEthereum, registry)
	if err != nil {
		t.Fatalf("ParsePair: %v", err)
	}
	return p
}

func TestMinimumOut(t *testing.T) {
	pair := testPair(t)

	tests := []struct {
		name        string
		amountOut   string
		slippageBps int64
		want        string
	}{
		{"50bps on 3000 USDC", "3000000000", 50, "2985000000"},
		{"zero bps is identity", "3000000000", 0, "3000000000"},
		{"100bps", "1000000", 100, "990000"},
		{"floor division", "999", 50, "994"}, // 999*9950/10000 = 994.0050 -> 994
		{"full slippage", "3000000000", 10000, "0"},
		{"zero out stays zero", "0", 50, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, _ := new(big.Int).SetString(tt.amountOut, 10)
			out := asset.NewAmount(pair.Quote, raw)

			min := MinimumOut(out, tt.slippageBps)
			if min.Raw().String() != tt.want {
				t.Errorf("MinimumOut(%s, %d) = %s, want %s",
					tt.amountOut, tt.slippageBps, min.Raw().String(), tt.want)
			}

			cmp, err := min.Cmp(out)
			if err != nil {
				t.Fatalf("Cmp: %v", err)
			}
			if cmp > 0 {
				t.Error("minimum out exceeds quoted out")
			}
		})
	}
}

func TestDeadline(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	d := Deadline(now, 20*time.Minute)
	if got, want := d.Int64(), now.Unix()+1200; got != want {
		t.Errorf("Deadline = %d, want %d", got, want)
	}
}

func TestZeroQuote(t *testing.T) {
	pair := testPair(t)
	req := QuoteRequest{Pair: pair, AmountIn: asset.Zero(pair.Base), Seq: 1}

	q := ZeroQuote(req)
	if !q.AmountOut.IsZero() {
		t.Error("zero quote should have zero output")
	}
	if q.NoLiquidity {
		t.Error("zero quote must not be marked as no-liquidity")
	}
}

func TestNoLiquidityQuote_DistinctFromZero(t *testing.T) {
	pair := testPair(t)
	req := QuoteRequest{Pair: pair, AmountIn: mustParse(t, pair.Base, "1"), Seq: 1}

	q := NoLiquidityQuote(req)
	if !q.NoLiquidity {
		t.Error("expected NoLiquidity marker")
	}
	if !q.AmountOut.IsZero() {
		t.Error("no-liquidity quote has no output")
	}
}

func TestExecutionPrice(t *testing.T) {
	pair := testPair(t)
	req := QuoteRequest{Pair: pair, AmountIn: mustParse(t, pair.Base, "2"), Seq: 1}
	q := QuoteResult{
		Request:   req,
		AmountOut: mustParse(t, pair.Quote, "6000"),
	}

	if got := q.ExecutionPrice().String(); got != "3000" {
		t.Errorf("ExecutionPrice = %s, want 3000", got)
	}
}

func TestPriceImpactBps(t *testing.T) {
	pair := testPair(t)
	req := QuoteRequest{Pair: pair, AmountIn: mustParse(t, pair.Base, "1"), Seq: 1}
	q := QuoteResult{
		Request:   req,
		AmountOut: mustParse(t, pair.Quote, "2985"),
	}

	impact, ok := q.PriceImpactBps(mustParse(t, pair.Quote, "3000").ToDecimal())
	if !ok {
		t.Fatal("expected a price impact")
	}
	// (3000-2985)/3000 * 10000 = 50 bps
	if impact.String() != "50" {
		t.Errorf("impact = %s bps, want 50", impact.String())
	}

	if _, ok := q.PriceImpactBps(mustParse(t, pair.Quote, "0").ToDecimal()); ok {
		t.Error("zero reference must not produce an impact")
	}
}

func mustParse(t *testing.T, a *asset.Asset, s string) asset.Amount {
	t.Helper()
	amt, err := asset.ParseString(a, s)
	if err != nil {
		t.Fatalf("ParseString(%s): %v", s, err)
	}
	return amt
}
