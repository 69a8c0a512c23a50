// Package swap implements the swap bounded context: quoting, approvals,
// swap execution and local history.
package swap

import (
	"context"
	"time"

	ethclientlib "github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/zk-web3/darknodedex-sub000/business/swap/app"
	swapDI "github.com/zk-web3/darknodedex-sub000/business/swap/di"
	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/business/swap/infra/erc20"
	"github.com/zk-web3/darknodedex-sub000/business/swap/infra/history"
	"github.com/zk-web3/darknodedex-sub000/business/swap/infra/pricefeed"
	"github.com/zk-web3/darknodedex-sub000/business/swap/infra/uniswap"
	walletDI "github.com/zk-web3/darknodedex-sub000/business/wallet/di"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
	"github.com/zk-web3/darknodedex-sub000/internal/config"
	"github.com/zk-web3/darknodedex-sub000/internal/di"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
	"github.com/zk-web3/darknodedex-sub000/internal/monolith"
)

// Module implements the swap bounded context.
type Module struct{}

// RegisterServices registers all swap services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, swapDI.Whitelist, func(sr di.ServiceRegistry) *domain.Whitelist {
		cfg := sr.Get("config").(*config.Config)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		wl, err := domain.NewWhitelist(cfg.Swap.Pairs, cfg.Ethereum.ChainID, registry)
		if err != nil {
			panic("failed to build pair whitelist: " + err.Error())
		}
		return wl
	})

	di.RegisterToken(c, swapDI.Quoter, func(sr di.ServiceRegistry) app.Quoter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclientlib.Client)

		quoter, err := uniswap.NewQuoter(client, cfg.Uniswap, log)
		if err != nil {
			panic("failed to create uniswap quoter: " + err.Error())
		}
		return quoter
	})

	di.RegisterToken(c, swapDI.Allowances, func(sr di.ServiceRegistry) app.AllowanceReader {
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclientlib.Client)

		reader, err := erc20.NewClient(client, nil, log)
		if err != nil {
			panic("failed to create allowance reader: " + err.Error())
		}
		return reader
	})

	di.RegisterToken(c, swapDI.Approver, func(sr di.ServiceRegistry) app.Approver {
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclientlib.Client)
		wallet := walletDI.GetWallet(sr)

		approver, err := erc20.NewClient(client, wallet, log)
		if err != nil {
			panic("failed to create approver: " + err.Error())
		}
		return approver
	})

	di.RegisterToken(c, swapDI.Router, func(sr di.ServiceRegistry) app.SwapRouter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclientlib.Client)
		wallet := walletDI.GetWallet(sr)

		router, err := uniswap.NewRouter(client, cfg.Uniswap, wallet, log)
		if err != nil {
			panic("failed to create uniswap router: " + err.Error())
		}
		return router
	})

	di.RegisterToken(c, swapDI.Balances, func(sr di.ServiceRegistry) app.BalanceReader {
		client := sr.Get("ethClient").(*ethclientlib.Client)
		wallet := walletDI.GetWallet(sr)

		return erc20.NewBalances(client, wallet.Address)
	})

	di.RegisterToken(c, swapDI.HistoryStore, func(sr di.ServiceRegistry) app.HistoryStore {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		store, err := history.NewStore(cfg.Swap.HistoryPath, cfg.Swap.HistoryCap, log)
		if err != nil {
			panic("failed to create history store: " + err.Error())
		}
		return store
	})

	di.RegisterToken(c, swapDI.ReferencePrices, func(sr di.ServiceRegistry) app.ReferencePrices {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if !cfg.PriceFeed.Enabled {
			return noReference{}
		}

		feed, err := pricefeed.NewFeed(cfg.PriceFeed, log)
		if err != nil {
			panic("failed to create price feed: " + err.Error())
		}
		return feed
	})

	di.RegisterToken(c, swapDI.QuoteService, func(sr di.ServiceRegistry) *app.QuoteService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		svcCfg := app.DefaultQuoteServiceConfig()
		if cfg.Swap.QuoteDebounce > 0 {
			svcCfg.Debounce = cfg.Swap.QuoteDebounce
		}
		svcCfg.DefaultFeeTier = cfg.Uniswap.DefaultFeeTier

		svc, err := app.NewQuoteService(swapDI.GetQuoter(sr), registry, svcCfg, log)
		if err != nil {
			panic("failed to create quote service: " + err.Error())
		}
		return svc
	})

	di.RegisterToken(c, swapDI.Orchestrator, func(sr di.ServiceRegistry) *app.Orchestrator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)
		wallet := walletDI.GetWallet(sr)

		orch, err := app.NewOrchestrator(
			swapDI.GetQuoteService(sr),
			app.NewApprovalChecker(swapDI.GetAllowances(sr), log),
			swapDI.GetApprover(sr),
			swapDI.GetRouter(sr),
			swapDI.GetBalances(sr),
			swapDI.GetHistoryStore(sr),
			wallet,
			registry,
			app.OrchestratorConfig{
				SlippageBps:    cfg.Swap.SlippageBps,
				DeadlineWindow: time.Duration(cfg.Swap.DeadlineSeconds) * time.Second,
				ChainID:        cfg.Ethereum.ChainID,
			},
			log,
		)
		if err != nil {
			panic("failed to create orchestrator: " + err.Error())
		}
		return orch
	})

	return nil
}

// Startup initializes the swap module. The price feed connects in the
// background; swaps work without it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	prices := swapDI.GetReferencePrices(mono.Services())
	if connector, ok := prices.(interface{ Connect(context.Context) error }); ok {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := connector.Connect(connectCtx); err != nil {
			log.Warn(ctx, "price feed connection failed, will retry in background", "error", err)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-time.After(5 * time.Second):
						if err := connector.Connect(ctx); err != nil {
							log.Warn(ctx, "price feed retry failed", "error", err)
						} else {
							log.Info(ctx, "price feed connected")
							return
						}
					}
				}
			}()
		}
	}

	wl := swapDI.GetWhitelist(mono.Services())
	log.Info(ctx, "swap module started", "pairs", len(wl.Pairs()))
	return nil
}

// noReference is the price feed stand-in when the feed is disabled.
type noReference struct{}

func (noReference) MidPrice(domain.Pair) (decimal.Decimal, bool) {
	return decimal.Zero, false
}
