package app

import (
	"context"
	"io"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

type fakeQuoter struct {
	calls atomic.Int32

	mu    sync.Mutex
	quote func(amountIn *big.Int) (*big.Int, uint64, error)
}

func (f *fakeQuoter) QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, feeTier int) (*big.Int, uint64, error) {
	f.calls.Add(1)
	f.mu.Lock()
	fn := f.quote
	f.mu.Unlock()
	if fn != nil {
		return fn(amountIn)
	}
	// 1 base unit in -> 3000 quote units out, scaled
	out := new(big.Int).Mul(amountIn, big.NewInt(3000))
	return out, 150000, nil
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func newTestQuoteService(t *testing.T, quoter Quoter, debounce time.Duration) *QuoteService {
	t.Helper()
	cfg := DefaultQuoteServiceConfig()
	cfg.Debounce = debounce
	svc, err := NewQuoteService(quoter, asset.DefaultRegistry(), cfg, testLogger())
	if err != nil {
		t.Fatalf("NewQuoteService: %v", err)
	}
	return svc
}

func ethUsdcPair(t *testing.T) domain.Pair {
	t.Helper()
	pair, err := domain.ParsePair("ETH-USDC", asset.ChainIDEthereum, asset.DefaultRegistry())
	if err != nil {
		t.Fatalf("ParsePair: %v", err)
	}
	return pair
}

func TestQuoteService_ZeroAmountShortCircuits(t *testing.T) {
	quoter := &fakeQuoter{}
	svc := newTestQuoteService(t, quoter, time.Millisecond)
	pair := ethUsdcPair(t)

	var mu sync.Mutex
	var results []domain.QuoteResult
	svc.SetListener(func(r domain.QuoteResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})

	svc.Request(context.Background(), pair, asset.Zero(pair.Base))
	time.Sleep(20 * time.Millisecond)

	if got := quoter.calls.Load(); got != 0 {
		t.Errorf("provider called %d times for zero input, want 0", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !results[0].AmountOut.IsZero() || results[0].NoLiquidity {
		t.Errorf("zero input result = %+v", results[0])
	}
}

func TestQuoteService_DebounceCollapsesEdits(t *testing.T) {
	quoter := &fakeQuoter{}
	svc := newTestQuoteService(t, quoter, 50*time.Millisecond)
	pair := ethUsdcPair(t)

	var mu sync.Mutex
	var results []domain.QuoteResult
	svc.SetListener(func(r domain.QuoteResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})

	ctx := context.Background()
	for _, s := range []string{"1", "1.5", "1.55"} {
		amt, err := asset.ParseString(pair.Base, s)
		if err != nil {
			t.Fatalf("ParseString: %v", err)
		}
		svc.Request(ctx, pair, amt)
		time.Sleep(5 * time.Millisecond) // within the debounce window
	}

	time.Sleep(150 * time.Millisecond)

	if got := quoter.calls.Load(); got != 1 {
		t.Errorf("provider called %d times, want 1 (debounced)", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	want, _ := asset.ParseString(pair.Base, "1.55")
	if !results[0].Request.AmountIn.Equals(want) {
		t.Errorf("resolved amount = %s, want 1.55", results[0].Request.AmountIn.String())
	}
}

func TestQuoteService_LaterGenerationWins(t *testing.T) {
	pair := ethUsdcPair(t)

	release := make(chan struct{})
	quoter := &fakeQuoter{}
	quoter.quote = func(amountIn *big.Int) (*big.Int, uint64, error) {
		// First call blocks until released, second returns immediately.
		if quoter.calls.Load() == 1 {
			<-release
		}
		return new(big.Int).Mul(amountIn, big.NewInt(3000)), 150000, nil
	}

	svc := newTestQuoteService(t, quoter, time.Millisecond)

	var mu sync.Mutex
	var results []domain.QuoteResult
	svc.SetListener(func(r domain.QuoteResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})

	ctx := context.Background()
	one, _ := asset.ParseString(pair.Base, "1")
	two, _ := asset.ParseString(pair.Base, "2")

	svc.Request(ctx, pair, one)
	time.Sleep(20 * time.Millisecond) // first fetch is now blocked in-flight

	svc.Request(ctx, pair, two)
	time.Sleep(50 * time.Millisecond) // second fetch resolves first

	close(release) // stale first result arrives late
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (stale dropped)", len(results))
	}
	if !results[0].Request.AmountIn.Equals(two) {
		t.Errorf("applied amount = %s, want the newer request", results[0].Request.AmountIn.String())
	}
}

func TestQuoteService_StaleResultArrivingFirstIsDropped(t *testing.T) {
	pair := ethUsdcPair(t)

	// Both fetches block in flight; the older one is released first. Its
	// result must still lose to the outstanding newer generation, even
	// for an identical re-typed amount.
	started := make(chan struct{}, 2)
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})
	quoter := &fakeQuoter{}
	quoter.quote = func(amountIn *big.Int) (*big.Int, uint64, error) {
		call := quoter.calls.Load()
		started <- struct{}{}
		if call == 1 {
			<-releaseFirst
		} else {
			<-releaseSecond
		}
		return new(big.Int).Mul(amountIn, big.NewInt(3000)), 150000, nil
	}

	svc := newTestQuoteService(t, quoter, time.Millisecond)

	var mu sync.Mutex
	var results []domain.QuoteResult
	svc.SetListener(func(r domain.QuoteResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})

	ctx := context.Background()
	one, _ := asset.ParseString(pair.Base, "1")

	seq1 := svc.Request(ctx, pair, one)
	<-started // first fetch is in flight

	seq2 := svc.Request(ctx, pair, one)
	<-started // second fetch is in flight
	if seq2 <= seq1 {
		t.Fatalf("generations not increasing: %d then %d", seq1, seq2)
	}

	close(releaseFirst) // stale generation resolves before the newer one
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	if len(results) != 0 {
		mu.Unlock()
		t.Fatalf("stale generation %d delivered while %d was outstanding", seq1, seq2)
	}
	mu.Unlock()

	close(releaseSecond)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Request.Seq != seq2 {
		t.Errorf("applied seq = %d, want %d", results[0].Request.Seq, seq2)
	}
}

func TestQuoteService_ProviderFailureIsNoLiquidity(t *testing.T) {
	quoter := &fakeQuoter{}
	quoter.quote = func(*big.Int) (*big.Int, uint64, error) {
		return nil, 0, context.DeadlineExceeded
	}
	svc := newTestQuoteService(t, quoter, time.Millisecond)
	pair := ethUsdcPair(t)

	done := make(chan domain.QuoteResult, 1)
	svc.SetListener(func(r domain.QuoteResult) { done <- r })

	one, _ := asset.ParseString(pair.Base, "1")
	svc.Request(context.Background(), pair, one)

	select {
	case r := <-done:
		if !r.NoLiquidity {
			t.Errorf("expected NoLiquidity, got %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}
}

func TestQuoteService_CancelDropsPending(t *testing.T) {
	quoter := &fakeQuoter{}
	svc := newTestQuoteService(t, quoter, 30*time.Millisecond)
	pair := ethUsdcPair(t)

	svc.SetListener(func(r domain.QuoteResult) {
		t.Error("cancelled request still delivered")
	})

	one, _ := asset.ParseString(pair.Base, "1")
	svc.Request(context.Background(), pair, one)
	svc.Cancel()

	time.Sleep(100 * time.Millisecond)
	if got := quoter.calls.Load(); got != 0 {
		t.Errorf("provider called %d times after cancel", got)
	}
}
