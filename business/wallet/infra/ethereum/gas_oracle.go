package ethereum

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zk-web3/darknodedex-sub000/business/wallet/app"
	"github.com/zk-web3/darknodedex-sub000/business/wallet/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/apm"
	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/cache"
	"github.com/zk-web3/darknodedex-sub000/internal/circuitbreaker"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

const (
	meterName = "wallet.ethereum"

	gasPriceCacheKey = "gas_price"
)

// GasOracleConfig holds gas oracle settings.
type GasOracleConfig struct {
	CacheTTL    time.Duration // how long a fetched price stays fresh
	MaxGasPrice *big.Int      // refuse prices above this, nil disables
}

// DefaultGasOracleConfig returns sensible defaults.
func DefaultGasOracleConfig() GasOracleConfig {
	maxGas, _ := new(big.Int).SetString("500000000000", 10) // 500 gwei
	return GasOracleConfig{
		CacheTTL:    12 * time.Second, // ~1 block
		MaxGasPrice: maxGas,
	}
}

type gasOracleMetrics struct {
	fetches     metric.Int64Counter
	cacheHits   metric.Int64Counter
	priceGwei   metric.Float64Gauge
	estimations metric.Int64Counter
}

var _ app.GasOracle = (*GasOracle)(nil)

// GasOracle reads gas prices from the node, with caching and a circuit
// breaker around the RPC.
type GasOracle struct {
	config GasOracleConfig
	client *ethclient.Client
	logger logger.LoggerInterface

	priceCache *cache.Cache[string, *domain.GasPrice]
	cb         *circuitbreaker.CircuitBreaker[*big.Int]

	tracer  apm.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a gas oracle.
func NewGasOracle(client *ethclient.Client, cfg GasOracleConfig, log logger.LoggerInterface) (*GasOracle, error) {
	g := &GasOracle{
		config:     cfg,
		client:     client,
		logger:     log,
		priceCache: cache.New[string, *domain.GasPrice](5 * time.Minute),
		cb:         circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		tracer:     apm.NewTracer(tracerName),
	}
	if err := g.initMetrics(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}
	if g.metrics.fetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Gas price RPC fetches"),
	); err != nil {
		return err
	}
	if g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_price_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
	); err != nil {
		return err
	}
	if g.metrics.priceGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Last observed gas price in gwei"),
	); err != nil {
		return err
	}
	if g.metrics.estimations, err = meter.Int64Counter(
		"gas_estimations_total",
		metric.WithDescription("Gas estimation calls"),
	); err != nil {
		return err
	}
	return nil
}

// GasPrice returns the suggested gas price, served from cache within the
// configured TTL.
func (g *GasOracle) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	ctx, span := g.tracer.StartSpanFromContext(ctx, "gas_oracle.gas_price")
	defer span.End()

	if cached, ok := g.priceCache.Get(gasPriceCacheKey); ok {
		g.metrics.cacheHits.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	g.metrics.fetches.Add(ctx, 1)
	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return g.client.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.NoticeError(err)
		return nil, apperror.Wrap(err, apperror.CodeEthereumRPCError, "fetching gas price")
	}

	if g.config.MaxGasPrice != nil && wei.Cmp(g.config.MaxGasPrice) > 0 {
		g.logger.Warn(ctx, "gas price above configured maximum",
			"price_wei", wei.String(),
			"max_wei", g.config.MaxGasPrice.String(),
		)
	}

	price := domain.NewGasPrice(wei)
	g.priceCache.Set(gasPriceCacheKey, price, g.config.CacheTTL)
	g.metrics.priceGwei.Record(ctx, price.Gwei)
	span.SetAttributes(attribute.Float64("gas_price_gwei", price.Gwei))
	return price, nil
}

// EstimateGas estimates gas for a call.
func (g *GasOracle) EstimateGas(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (uint64, error) {
	ctx, span := g.tracer.StartSpanFromContext(ctx, "gas_oracle.estimate_gas")
	defer span.End()

	g.metrics.estimations.Add(ctx, 1)
	limit, err := g.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		span.NoticeError(err)
		return 0, apperror.Wrap(err, apperror.CodeGasEstimationFailed, "estimating gas")
	}
	span.SetAttributes(attribute.Int64("gas_limit", int64(limit)))
	return limit, nil
}
