// Package wallet implements the wallet bounded context: the signing
// account, balances and gas.
package wallet

import (
	"context"

	ethclientlib "github.com/ethereum/go-ethereum/ethclient"

	"github.com/zk-web3/darknodedex-sub000/business/wallet/app"
	walletDI "github.com/zk-web3/darknodedex-sub000/business/wallet/di"
	"github.com/zk-web3/darknodedex-sub000/business/wallet/infra/ethereum"
	"github.com/zk-web3/darknodedex-sub000/internal/config"
	"github.com/zk-web3/darknodedex-sub000/internal/di"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
	"github.com/zk-web3/darknodedex-sub000/internal/monolith"
)

// Module implements the wallet bounded context.
type Module struct{}

// RegisterServices registers all wallet services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, walletDI.Wallet, func(sr di.ServiceRegistry) app.Wallet {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclientlib.Client)

		w, err := ethereum.NewKeyWallet(client, cfg.Wallet.PrivateKey, cfg.Ethereum.ChainID, log)
		if err != nil {
			panic("failed to create wallet: " + err.Error())
		}
		return w
	})

	di.RegisterToken(c, walletDI.TokenReader, func(sr di.ServiceRegistry) app.TokenReader {
		client := sr.Get("ethClient").(*ethclientlib.Client)

		reader, err := ethereum.NewTokenReader(client)
		if err != nil {
			panic("failed to create token reader: " + err.Error())
		}
		return reader
	})

	di.RegisterToken(c, walletDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclientlib.Client)

		oracle, err := ethereum.NewGasOracle(client, ethereum.DefaultGasOracleConfig(), log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, walletDI.WalletService, func(sr di.ServiceRegistry) *app.WalletService {
		return app.NewWalletService(
			walletDI.GetWallet(sr),
			walletDI.GetTokenReader(sr),
			walletDI.GetGasOracle(sr),
		)
	})

	return nil
}

// Startup initializes the wallet module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	w := walletDI.GetWallet(mono.Services())
	log.Info(ctx, "wallet module started",
		"address", w.Address().Hex(),
		"chain_id", w.ChainID(),
	)
	return nil
}
