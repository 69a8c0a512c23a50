package uniswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zk-web3/darknodedex-sub000/business/swap/app"
	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/apm"
	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/config"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

const receiptPollInterval = 2 * time.Second

// TxSigner produces signed transaction options for contract calls.
type TxSigner interface {
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

var _ app.SwapRouter = (*Router)(nil)

type routerMetrics struct {
	swapsSubmitted metric.Int64Counter
	confirmLatency metric.Float64Histogram
}

// Router submits exactInputSingle swaps to the Uniswap V3 SwapRouter and
// waits for receipts.
type Router struct {
	client    *ethclient.Client
	address   common.Address
	contract  *bind.BoundContract
	routerABI abi.ABI
	signer    TxSigner

	logger  logger.LoggerInterface
	tracer  apm.Tracer
	metrics *routerMetrics
}

// NewRouter creates a SwapRouter-backed swap submitter.
func NewRouter(client *ethclient.Client, cfg config.UniswapConfig, signer TxSigner, log logger.LoggerInterface) (*Router, error) {
	parsedABI, err := abi.JSON(strings.NewReader(SwapRouterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	r := &Router{
		client:    client,
		address:   cfg.RouterAddressHex(),
		contract:  bind.NewBoundContract(cfg.RouterAddressHex(), parsedABI, client, client, client),
		routerABI: parsedABI,
		signer:    signer,
		logger:    log,
		tracer:    apm.NewTracer(tracerName),
	}

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return r, nil
}

func (r *Router) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &routerMetrics{}

	r.metrics.swapsSubmitted, err = meter.Int64Counter(
		"uniswap_swaps_submitted_total",
		metric.WithDescription("Swap transactions submitted"),
	)
	if err != nil {
		return err
	}

	r.metrics.confirmLatency, err = meter.Float64Histogram(
		"uniswap_swap_confirm_latency_ms",
		metric.WithDescription("Time from submission to receipt in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Address returns the router contract address, which is also the ERC-20
// spender that needs allowance.
func (r *Router) Address() common.Address {
	return r.address
}

// ExactInputSingle signs and submits the swap. Native input rides as
// transaction value; the router wraps it.
func (r *Router) ExactInputSingle(ctx context.Context, intent domain.Intent) (common.Hash, error) {
	ctx, span := r.tracer.StartSpanFromContext(ctx, "uniswap.exact_input_single")
	defer span.End()
	span.SetAttributes(
		attribute.String("token_in", intent.TokenIn.Hex()),
		attribute.String("token_out", intent.TokenOut.Hex()),
		attribute.String("amount_in", intent.AmountIn.Raw().String()),
		attribute.String("amount_out_minimum", intent.AmountOutMinimum.Raw().String()),
	)

	opts, err := r.signer.TransactOpts(ctx)
	if err != nil {
		span.NoticeError(err)
		return common.Hash{}, err
	}
	if intent.Value != nil && intent.Value.Sign() > 0 {
		opts.Value = intent.Value
	}

	tx, err := r.contract.Transact(opts, "exactInputSingle", ExactInputSingleParams{
		TokenIn:           intent.TokenIn,
		TokenOut:          intent.TokenOut,
		Fee:               big.NewInt(int64(intent.FeeTier)),
		Recipient:         intent.Recipient,
		Deadline:          intent.Deadline,
		AmountIn:          intent.AmountIn.Raw(),
		AmountOutMinimum:  intent.AmountOutMinimum.Raw(),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		span.NoticeError(err)
		return common.Hash{}, apperror.Wrap(err, apperror.CodeTransactionFailed, "submitting swap")
	}

	r.metrics.swapsSubmitted.Add(ctx, 1)
	span.SetAttributes(attribute.String("tx_hash", tx.Hash().Hex()))

	r.logger.Info(ctx, "swap submitted",
		"tx_hash", tx.Hash().Hex(),
		"token_in", intent.TokenIn.Hex(),
		"token_out", intent.TokenOut.Hex(),
	)
	return tx.Hash(), nil
}

// WaitMined polls for the transaction receipt. It reports whether the
// transaction succeeded on-chain; a mined-but-reverted swap returns
// (false, nil).
func (r *Router) WaitMined(ctx context.Context, hash common.Hash) (bool, error) {
	ctx, span := r.tracer.StartSpanFromContext(ctx, "uniswap.wait_mined")
	defer span.End()
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))

	start := time.Now()
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := r.client.TransactionReceipt(ctx, hash)
		if err == nil {
			r.metrics.confirmLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
			return receipt.Status == types.ReceiptStatusSuccessful, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			span.NoticeError(err)
			return false, apperror.Wrap(err, apperror.CodeEthereumRPCError, "fetching receipt")
		}

		select {
		case <-ctx.Done():
			return false, apperror.Wrap(ctx.Err(), apperror.CodeServiceTimeout, "waiting for receipt")
		case <-ticker.C:
		}
	}
}
