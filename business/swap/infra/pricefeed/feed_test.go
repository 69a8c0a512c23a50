package pricefeed

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
	"github.com/zk-web3/darknodedex-sub000/internal/config"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

func newTestFeed(t *testing.T, staleTimeout time.Duration) *Feed {
	t.Helper()
	feed, err := NewFeed(config.PriceFeedConfig{
		WebSocketURL: "ws://localhost:9",
		Symbols:      []string{"ETHUSDC", "ETHDAI"},
		StaleTimeout: staleTimeout,
	}, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("NewFeed: %v", err)
	}
	return feed
}

func pairOf(t *testing.T, s string) domain.Pair {
	t.Helper()
	pair, err := domain.ParsePair(s, asset.ChainIDEthereum, asset.DefaultRegistry())
	if err != nil {
		t.Fatalf("ParsePair: %v", err)
	}
	return pair
}

func TestFeed_MidPriceFromTicker(t *testing.T) {
	feed := newTestFeed(t, time.Minute)

	msg := []byte(`{"stream":"ethusdc@bookTicker","data":{"u":1,"s":"ETHUSDC","b":"2990.00","B":"1","a":"3010.00","A":"1"}}`)
	feed.handleMessage(context.Background(), msg)

	mid, ok := feed.MidPrice(pairOf(t, "ETH-USDC"))
	if !ok {
		t.Fatal("expected a price")
	}
	if mid.String() != "3000" {
		t.Errorf("mid = %s, want 3000", mid.String())
	}
	if feed.LastUpdate().IsZero() {
		t.Error("LastUpdate not set")
	}
}

func TestFeed_SymbolFromStreamName(t *testing.T) {
	feed := newTestFeed(t, time.Minute)

	// Partial payloads omit the symbol field.
	msg := []byte(`{"stream":"ethdai@bookTicker","data":{"u":2,"b":"2999","B":"1","a":"3001","A":"1"}}`)
	feed.handleMessage(context.Background(), msg)

	if _, ok := feed.MidPrice(pairOf(t, "ETH-DAI")); !ok {
		t.Fatal("expected a price keyed by stream name")
	}
}

func TestFeed_StalePriceUnavailable(t *testing.T) {
	feed := newTestFeed(t, time.Nanosecond)

	msg := []byte(`{"stream":"ethusdc@bookTicker","data":{"u":3,"s":"ETHUSDC","b":"2990","B":"1","a":"3010","A":"1"}}`)
	feed.handleMessage(context.Background(), msg)
	time.Sleep(time.Millisecond)

	if _, ok := feed.MidPrice(pairOf(t, "ETH-USDC")); ok {
		t.Fatal("stale price must not be served")
	}
}

func TestFeed_UnknownPairUnavailable(t *testing.T) {
	feed := newTestFeed(t, time.Minute)

	if _, ok := feed.MidPrice(pairOf(t, "WBTC-USDC")); ok {
		t.Fatal("unsubscribed pair must report no reference")
	}
}

func TestFeed_GarbageMessagesIgnored(t *testing.T) {
	feed := newTestFeed(t, time.Minute)

	feed.handleMessage(context.Background(), []byte(`not json`))
	feed.handleMessage(context.Background(), []byte(`{"stream":"","data":{}}`))
	feed.handleMessage(context.Background(), []byte(`{"stream":"ethusdc@bookTicker","data":{"b":"x","a":"y"}}`))

	if _, ok := feed.MidPrice(pairOf(t, "ETH-USDC")); ok {
		t.Fatal("garbage must not produce a price")
	}
}

func TestStreamURL(t *testing.T) {
	got := streamURL(config.PriceFeedConfig{
		WebSocketURL: "wss://stream.example.com/",
		Symbols:      []string{"ETHUSDC", "ETHDAI"},
	})
	want := "wss://stream.example.com/stream?streams=ethusdc@bookTicker/ethdai@bookTicker"
	if got != want {
		t.Errorf("streamURL = %s, want %s", got, want)
	}
}
