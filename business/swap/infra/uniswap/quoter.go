// Package uniswap implements the swap quoting and routing ports against
// Uniswap V3 contracts.
package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zk-web3/darknodedex-sub000/business/swap/app"
	"github.com/zk-web3/darknodedex-sub000/internal/apm"
	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/circuitbreaker"
	"github.com/zk-web3/darknodedex-sub000/internal/config"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

const (
	tracerName = "swap.uniswap"
	meterName  = "swap.uniswap"
)

var _ app.Quoter = (*Quoter)(nil)

type quoterMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	quoteErrors  metric.Int64Counter
}

// Quoter reads quotes from the Uniswap V3 QuoterV2 contract via
// eth_call. It never submits transactions.
type Quoter struct {
	client    *ethclient.Client
	quoter    common.Address
	quoterABI abi.ABI

	logger  logger.LoggerInterface
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	tracer  apm.Tracer
	metrics *quoterMetrics
}

// NewQuoter creates a QuoterV2-backed quote reader.
func NewQuoter(client *ethclient.Client, cfg config.UniswapConfig, log logger.LoggerInterface) (*Quoter, error) {
	parsedABI, err := abi.JSON(strings.NewReader(QuoterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse quoter ABI: %w", err)
	}

	q := &Quoter{
		client:    client,
		quoter:    cfg.QuoterAddressHex(),
		quoterABI: parsedABI,
		logger:    log,
		tracer:    apm.NewTracer(tracerName),
		cb:        circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("uniswap-quoter")),
	}

	if err := q.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return q, nil
}

func (q *Quoter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	q.metrics = &quoterMetrics{}

	q.metrics.quotesTotal, err = meter.Int64Counter(
		"uniswap_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return err
	}

	q.metrics.quoteLatency, err = meter.Float64Histogram(
		"uniswap_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	q.metrics.quoteErrors, err = meter.Int64Counter(
		"uniswap_quote_errors_total",
		metric.WithDescription("Total quote errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// QuoteExactInputSingle asks QuoterV2 how much tokenOut a given tokenIn
// amount buys in the pool of the requested fee tier. A pool that cannot
// serve the trade surfaces as an error, which the caller treats as no
// liquidity.
func (q *Quoter) QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, feeTier int) (*big.Int, uint64, error) {
	ctx, span := q.tracer.StartSpanFromContext(ctx, "uniswap.quote_exact_input_single")
	defer span.End()
	span.SetAttributes(
		attribute.String("token_in", tokenIn.Hex()),
		attribute.String("token_out", tokenOut.Hex()),
		attribute.String("amount_in", amountIn.String()),
		attribute.Int("fee_tier", feeTier),
	)

	start := time.Now()
	q.metrics.quotesTotal.Add(ctx, 1)

	callData, err := q.quoterABI.Pack("quoteExactInputSingle", QuoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               big.NewInt(int64(feeTier)),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := q.cb.Execute(func() ([]byte, error) {
		return q.client.CallContract(ctx, ethereum.CallMsg{
			To:   &q.quoter,
			Data: callData,
		}, nil)
	})

	q.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if err != nil {
		q.metrics.quoteErrors.Add(ctx, 1)
		span.NoticeError(err)
		// QuoterV2 reverts when the pool is missing or too shallow.
		return nil, 0, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("quoter call failed for fee tier %d", feeTier)))
	}

	outputs, err := q.quoterABI.Unpack("quoteExactInputSingle", result)
	if err != nil {
		q.metrics.quoteErrors.Add(ctx, 1)
		return nil, 0, apperror.Wrap(err, apperror.CodeQuoteFailed, "decoding quoter result")
	}
	if len(outputs) < 4 {
		q.metrics.quoteErrors.Add(ctx, 1)
		return nil, 0, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithContext(fmt.Sprintf("unexpected output length: %d", len(outputs))))
	}

	amountOut := outputs[0].(*big.Int)
	gasEstimate := outputs[3].(*big.Int)

	span.SetAttributes(attribute.String("amount_out", amountOut.String()))

	q.logger.Debug(ctx, "uniswap quote",
		"token_in", tokenIn.Hex(),
		"token_out", tokenOut.Hex(),
		"amount_in", amountIn.String(),
		"amount_out", amountOut.String(),
		"fee_tier", feeTier,
	)

	return amountOut, gasEstimate.Uint64(), nil
}
