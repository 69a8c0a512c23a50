package app

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/apm"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

const quoteTracerName = "swap.quote"

// QuoteServiceConfig holds quote service settings.
type QuoteServiceConfig struct {
	Debounce       time.Duration
	DefaultFeeTier int
	QuoteTimeout   time.Duration
}

// DefaultQuoteServiceConfig returns sensible defaults.
func DefaultQuoteServiceConfig() QuoteServiceConfig {
	return QuoteServiceConfig{
		Debounce:       400 * time.Millisecond,
		DefaultFeeTier: 3000,
		QuoteTimeout:   15 * time.Second,
	}
}

type quoteMetrics struct {
	requests metric.Int64Counter
	fetches  metric.Int64Counter
	stale    metric.Int64Counter
	latency  metric.Float64Histogram
}

// QuoteService turns a stream of input edits into quote results. Each
// edit resets the debounce timer; only the result of the highest issued
// generation is ever delivered, so a slow early response can never
// overwrite a newer one.
type QuoteService struct {
	quoter   Quoter
	registry *asset.Registry
	config   QuoteServiceConfig
	logger   logger.LoggerInterface
	tracer   apm.Tracer
	metrics  *quoteMetrics

	mu       sync.Mutex
	seq      uint64
	applied  uint64
	timer    *time.Timer
	listener QuoteListener
}

// NewQuoteService creates a QuoteService.
func NewQuoteService(quoter Quoter, registry *asset.Registry, cfg QuoteServiceConfig, log logger.LoggerInterface) (*QuoteService, error) {
	if quoter == nil {
		panic("quoter is required")
	}
	s := &QuoteService{
		quoter:   quoter,
		registry: registry,
		config:   cfg,
		logger:   log,
		tracer:   apm.NewTracer(quoteTracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *QuoteService) initMetrics() error {
	meter := otel.Meter(quoteTracerName)
	var err error

	s.metrics = &quoteMetrics{}
	if s.metrics.requests, err = meter.Int64Counter(
		"quote_requests_total",
		metric.WithDescription("Quote requests issued by input edits"),
	); err != nil {
		return err
	}
	if s.metrics.fetches, err = meter.Int64Counter(
		"quote_fetches_total",
		metric.WithDescription("Quote fetches that reached the provider"),
	); err != nil {
		return err
	}
	if s.metrics.stale, err = meter.Int64Counter(
		"quote_stale_dropped_total",
		metric.WithDescription("Quote results dropped for arriving out of order"),
	); err != nil {
		return err
	}
	if s.metrics.latency, err = meter.Float64Histogram(
		"quote_latency_ms",
		metric.WithDescription("Quote fetch latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return err
	}
	return nil
}

// SetListener installs the result listener. Must be set before Request.
func (s *QuoteService) SetListener(l QuoteListener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Request schedules a quote for selling amountIn of pair.Base. A zero
// amount resolves immediately to a zero quote without touching the
// provider. Returns the generation number assigned to this request.
func (s *QuoteService) Request(ctx context.Context, pair domain.Pair, amountIn asset.Amount) uint64 {
	s.mu.Lock()
	s.seq++
	req := domain.QuoteRequest{
		Pair:     pair,
		AmountIn: amountIn,
		FeeTier:  s.config.DefaultFeeTier,
		Seq:      s.seq,
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.metrics.requests.Add(ctx, 1)

	if !amountIn.IsPositive() {
		s.mu.Unlock()
		s.apply(domain.ZeroQuote(req))
		return req.Seq
	}

	s.timer = time.AfterFunc(s.config.Debounce, func() {
		s.apply(s.fetch(ctx, req))
	})
	s.mu.Unlock()
	return req.Seq
}

// Cancel drops any scheduled fetch. In-flight fetches are not aborted,
// their results lose the generation race instead.
func (s *QuoteService) Cancel() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
	s.applied = s.seq
	s.mu.Unlock()
}

// fetch performs the provider call. Failures resolve to a no-liquidity
// result; the caller never sees an error.
func (s *QuoteService) fetch(ctx context.Context, req domain.QuoteRequest) domain.QuoteResult {
	ctx, cancel := context.WithTimeout(ctx, s.config.QuoteTimeout)
	defer cancel()

	ctx, span := s.tracer.StartSpanFromContext(ctx, "quote.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("pair", req.Pair.String()),
		attribute.String("amount_in", req.AmountIn.Raw().String()),
		attribute.Int64("seq", int64(req.Seq)),
	)

	tokenIn, okIn := s.registry.Wrapped(req.Pair.Base)
	tokenOut, okOut := s.registry.Wrapped(req.Pair.Quote)
	if !okIn || !okOut {
		s.logger.Warn(ctx, "pair has no wrapped mapping", "pair", req.Pair.String())
		return domain.NoLiquidityQuote(req)
	}

	s.metrics.fetches.Add(ctx, 1)
	start := time.Now()
	amountOut, gasEstimate, err := s.quoter.QuoteExactInputSingle(
		ctx, tokenIn.Address(), tokenOut.Address(), req.AmountIn.Raw(), req.FeeTier)
	s.metrics.latency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if err != nil {
		span.NoticeError(err)
		s.logger.Warn(ctx, "quote fetch failed",
			"pair", req.Pair.String(),
			"amount_in", req.AmountIn.Raw().String(),
			"error", err,
		)
		return domain.NoLiquidityQuote(req)
	}

	return domain.QuoteResult{
		Request:     req,
		AmountOut:   asset.NewAmount(req.Pair.Quote, amountOut),
		FeeTier:     req.FeeTier,
		GasEstimate: gasEstimate,
		FetchedAt:   time.Now(),
	}
}

// apply delivers the result only when it carries the highest issued
// generation. A fetch still in flight when a newer request was issued
// is stale even if it resolves first.
func (s *QuoteService) apply(result domain.QuoteResult) {
	s.mu.Lock()
	if result.Request.Seq != s.seq || result.Request.Seq <= s.applied {
		s.mu.Unlock()
		s.metrics.stale.Add(context.Background(), 1)
		return
	}
	s.applied = result.Request.Seq
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(result)
	}
}
