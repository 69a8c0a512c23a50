package domain

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
)

func TestBuildIntent_NativeIn(t *testing.T) {
	registry := asset.DefaultRegistry()
	pair, err := ParsePair("ETH-USDC", asset.ChainIDEthereum, registry)
	if err != nil {
		t.Fatalf("ParsePair: %v", err)
	}

	amountIn := mustParse(t, pair.Base, "1")
	quote := QuoteResult{
		Request:   QuoteRequest{Pair: pair, AmountIn: amountIn, Seq: 1},
		AmountOut: mustParse(t, pair.Quote, "3000"),
		FeeTier:   3000,
	}

	now := time.Unix(1_700_000_000, 0)
	recipient := common.HexToAddress("0x1111111111111111111111111111111111111111")

	intent, err := BuildIntent(quote, 50, 20*time.Minute, recipient, registry, now)
	if err != nil {
		t.Fatalf("BuildIntent: %v", err)
	}

	weth, _ := registry.GetBySymbolAndChain("WETH", asset.ChainIDEthereum)
	if intent.TokenIn != weth.Address() {
		t.Errorf("TokenIn = %s, want WETH %s", intent.TokenIn.Hex(), weth.Address().Hex())
	}
	if !intent.IsNativeIn() {
		t.Error("ETH sell should carry native value")
	}
	if intent.Value.Cmp(amountIn.Raw()) != 0 {
		t.Errorf("Value = %s, want %s", intent.Value, amountIn.Raw())
	}
	if got := intent.AmountOutMinimum.Raw().String(); got != "2985000000" {
		t.Errorf("AmountOutMinimum = %s, want 2985000000", got)
	}
	if got, want := intent.Deadline.Int64(), now.Unix()+1200; got != want {
		t.Errorf("Deadline = %d, want %d", got, want)
	}
	if err := intent.Validate(now); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestBuildIntent_TokenIn(t *testing.T) {
	registry := asset.DefaultRegistry()
	pair, err := ParsePair("USDC-DAI", asset.ChainIDEthereum, registry)
	if err != nil {
		t.Fatalf("ParsePair: %v", err)
	}

	quote := QuoteResult{
		Request:   QuoteRequest{Pair: pair, AmountIn: mustParse(t, pair.Base, "100"), Seq: 1},
		AmountOut: mustParse(t, pair.Quote, "99.9"),
		FeeTier:   100,
	}

	intent, err := BuildIntent(quote, 50, 20*time.Minute,
		common.HexToAddress("0x2222222222222222222222222222222222222222"), registry, time.Now())
	if err != nil {
		t.Fatalf("BuildIntent: %v", err)
	}
	if intent.IsNativeIn() {
		t.Error("token sell must not carry native value")
	}
	if intent.TokenIn != pair.Base.Address() {
		t.Error("token in address should be the token itself")
	}
}

func TestBuildIntent_Rejections(t *testing.T) {
	registry := asset.DefaultRegistry()
	pair, _ := ParsePair("ETH-USDC", asset.ChainIDEthereum, registry)
	recipient := common.HexToAddress("0x1111111111111111111111111111111111111111")

	noLiq := NoLiquidityQuote(QuoteRequest{Pair: pair, AmountIn: mustParse(t, pair.Base, "1"), Seq: 1})
	if _, err := BuildIntent(noLiq, 50, time.Minute, recipient, registry, time.Now()); apperror.GetCode(err) != apperror.CodeInsufficientLiquidity {
		t.Errorf("no-liquidity quote: got %v", err)
	}

	zero := ZeroQuote(QuoteRequest{Pair: pair, AmountIn: asset.Zero(pair.Base), Seq: 2})
	if _, err := BuildIntent(zero, 50, time.Minute, recipient, registry, time.Now()); apperror.GetCode(err) != apperror.CodeInvalidAmount {
		t.Errorf("zero quote: got %v", err)
	}
}

func TestIntent_Validate_DeadlinePassed(t *testing.T) {
	registry := asset.DefaultRegistry()
	pair, _ := ParsePair("ETH-USDC", asset.ChainIDEthereum, registry)
	quote := QuoteResult{
		Request:   QuoteRequest{Pair: pair, AmountIn: mustParse(t, pair.Base, "1"), Seq: 1},
		AmountOut: mustParse(t, pair.Quote, "3000"),
	}

	now := time.Now()
	intent, err := BuildIntent(quote, 50, time.Minute,
		common.HexToAddress("0x1111111111111111111111111111111111111111"), registry, now)
	if err != nil {
		t.Fatalf("BuildIntent: %v", err)
	}

	if err := intent.Validate(now.Add(2 * time.Minute)); apperror.GetCode(err) != apperror.CodeDeadlinePassed {
		t.Errorf("expected deadline passed, got %v", err)
	}
}
