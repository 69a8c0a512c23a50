package pricefeed

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zk-web3/darknodedex-sub000/business/swap/app"
	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/config"
	"github.com/zk-web3/darknodedex-sub000/internal/httpclient"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
	"github.com/zk-web3/darknodedex-sub000/internal/ratelimit"
	"github.com/zk-web3/darknodedex-sub000/internal/wsconn"
)

const meterName = "swap.pricefeed"

var _ app.ReferencePrices = (*Feed)(nil)

type feedMetrics struct {
	updates   metric.Int64Counter
	snapshots metric.Int64Counter
}

type pricePoint struct {
	mid decimal.Decimal
	at  time.Time
}

// Feed keeps a mid price per symbol, streamed over WebSocket with a
// rate-limited REST snapshot when the stream goes quiet. A dead feed
// degrades to "no reference available", never to an error.
type Feed struct {
	cfg    config.PriceFeedConfig
	ws     *wsconn.Client
	rest   httpclient.Client
	limit  *ratelimit.Limiter
	logger logger.LoggerInterface

	mu         sync.RWMutex
	prices     map[string]pricePoint
	lastUpdate time.Time

	metrics *feedMetrics
}

// NewFeed builds the feed. Connect must be called before prices flow.
func NewFeed(cfg config.PriceFeedConfig, log logger.LoggerInterface) (*Feed, error) {
	f := &Feed{
		cfg:    cfg,
		logger: log,
		prices: make(map[string]pricePoint, len(cfg.Symbols)),
		limit:  ratelimit.PerMinute(30),
	}

	wsCfg := wsconn.DefaultConfig(streamURL(cfg), "pricefeed")
	ws, err := wsconn.New(wsCfg)
	if err != nil {
		return nil, err
	}
	ws.OnMessage(f.handleMessage)
	ws.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			log.Warn(context.Background(), "price feed connection state",
				"state", string(state), "error", err)
		}
	})
	f.ws = ws

	if cfg.SnapshotURL != "" {
		rest, err := httpclient.New(
			httpclient.WithUpstream("pricefeed"),
			httpclient.WithBaseURL(cfg.SnapshotURL),
			httpclient.WithRequestTimeout(5*time.Second),
		)
		if err != nil {
			return nil, err
		}
		f.rest = rest
	}

	if err := f.initMetrics(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Feed) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	f.metrics = &feedMetrics{}

	f.metrics.updates, err = meter.Int64Counter(
		"pricefeed_updates_total",
		metric.WithDescription("Ticker updates received"),
	)
	if err != nil {
		return err
	}

	f.metrics.snapshots, err = meter.Int64Counter(
		"pricefeed_snapshots_total",
		metric.WithDescription("REST snapshot fetches"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Connect opens the WebSocket stream.
func (f *Feed) Connect(ctx context.Context) error {
	return f.ws.Connect(ctx)
}

// Close shuts the stream down.
func (f *Feed) Close() error {
	return f.ws.Close()
}

// LastUpdate returns when any price last moved, for staleness checks.
func (f *Feed) LastUpdate() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastUpdate
}

// MidPrice returns the advisory mid price for the pair. A stale or
// missing price returns false and kicks off a background snapshot; the
// caller renders without a reference.
func (f *Feed) MidPrice(pair domain.Pair) (decimal.Decimal, bool) {
	symbol := pairSymbol(pair)

	f.mu.RLock()
	point, ok := f.prices[symbol]
	f.mu.RUnlock()

	if ok && time.Since(point.at) <= f.cfg.StaleTimeout {
		return point.mid, true
	}

	go f.refresh(symbol)
	return decimal.Zero, false
}

func (f *Feed) handleMessage(ctx context.Context, msg []byte) {
	var event StreamEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		f.logger.Debug(ctx, "unparseable feed message", "error", err)
		return
	}

	var ticker BookTickerEvent
	if err := json.Unmarshal(event.Data, &ticker); err != nil {
		f.logger.Debug(ctx, "unparseable ticker payload", "error", err)
		return
	}

	symbol := ticker.Symbol
	if symbol == "" {
		symbol = streamSymbol(event.Stream)
	}
	if symbol == "" {
		return
	}

	mid, err := ticker.Mid()
	if err != nil {
		f.logger.Debug(ctx, "unparseable ticker prices", "symbol", symbol, "error", err)
		return
	}

	f.store(symbol, mid)
	f.metrics.updates.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", symbol)))
}

// refresh fetches one REST snapshot, at most at the limiter's rate.
func (f *Feed) refresh(symbol string) {
	if f.rest == nil || !f.limit.Allow() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var snapshot TickerSnapshot
	resp, err := f.rest.NewRequest().
		SetQueryParam("symbol", symbol).
		SetResult(&snapshot).
		Get(ctx, "/api/v3/ticker/bookTicker")
	if err != nil || resp.IsError() {
		f.logger.Debug(ctx, "price snapshot failed", "symbol", symbol, "error", err)
		return
	}

	mid, err := snapshot.Mid()
	if err != nil {
		f.logger.Debug(ctx, "unparseable snapshot", "symbol", symbol, "error", err)
		return
	}

	f.store(symbol, mid)
	f.metrics.snapshots.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", symbol)))
}

func (f *Feed) store(symbol string, mid decimal.Decimal) {
	now := time.Now()
	f.mu.Lock()
	f.prices[symbol] = pricePoint{mid: mid, at: now}
	f.lastUpdate = now
	f.mu.Unlock()
}

// pairSymbol maps a pair onto the feed's symbol convention, ETH-USDC
// becomes ETHUSDC.
func pairSymbol(pair domain.Pair) string {
	return pair.Base.Symbol() + pair.Quote.Symbol()
}

// streamURL builds the combined-stream URL for the configured symbols.
func streamURL(cfg config.PriceFeedConfig) string {
	streams := make([]string, 0, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		streams = append(streams, BookTickerStream(sym))
	}
	return strings.TrimSuffix(cfg.WebSocketURL, "/") + "/stream?streams=" + strings.Join(streams, "/")
}
