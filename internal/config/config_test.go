package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DEX_ETH_HTTP_URL", "http://localhost:8545")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Ethereum.ChainID != 1 {
		t.Errorf("ChainID = %d, want 1", cfg.Ethereum.ChainID)
	}
	if cfg.Swap.SlippageBps != 50 {
		t.Errorf("SlippageBps = %d, want 50", cfg.Swap.SlippageBps)
	}
	if cfg.Swap.DeadlineSeconds != 1200 {
		t.Errorf("DeadlineSeconds = %d, want 1200", cfg.Swap.DeadlineSeconds)
	}
	if cfg.Swap.QuoteDebounce != 400*time.Millisecond {
		t.Errorf("QuoteDebounce = %v, want 400ms", cfg.Swap.QuoteDebounce)
	}
	if cfg.Swap.HistoryCap != 200 {
		t.Errorf("HistoryCap = %d, want 200", cfg.Swap.HistoryCap)
	}
	if got := cfg.Uniswap.QuoterAddressHex().Hex(); got != "0x61fFE014bA17989E743c5F6cB21bF9697530B21e" {
		t.Errorf("QuoterAddress = %s", got)
	}
}

func TestLoad_MissingNodeURL(t *testing.T) {
	t.Setenv("DEX_ETH_HTTP_URL", "")

	if _, err := Load(""); err == nil {
		t.Fatal("Load() expected error for missing ethereum.http_url")
	}
}

func TestValidate_SlippageBounds(t *testing.T) {
	t.Setenv("DEX_ETH_HTTP_URL", "http://localhost:8545")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg.Swap.SlippageBps = 10001
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for slippage_bps > 10000")
	}

	cfg.Swap.SlippageBps = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for negative slippage_bps")
	}
}
