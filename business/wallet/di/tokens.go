// Package di contains dependency injection tokens for the wallet context.
package di

import (
	"github.com/zk-web3/darknodedex-sub000/business/wallet/app"
	"github.com/zk-web3/darknodedex-sub000/internal/di"
)

// Public service tokens - exposed to other modules
var (
	WalletService = di.NewToken[*app.WalletService]("wallet.WalletService")
	Wallet        = di.NewToken[app.Wallet]("wallet.Wallet")
	GasOracle     = di.NewToken[app.GasOracle]("wallet.GasOracle")
)

// Private dependency tokens - internal to the wallet module
var (
	TokenReader = di.NewToken[app.TokenReader]("wallet:tokenReader")
)

func GetWalletService(c di.ServiceRegistry) *app.WalletService {
	return di.GetToken(c, WalletService)
}

func GetWallet(c di.ServiceRegistry) app.Wallet {
	return di.GetToken(c, Wallet)
}

func GetGasOracle(c di.ServiceRegistry) app.GasOracle {
	return di.GetToken(c, GasOracle)
}

func GetTokenReader(c di.ServiceRegistry) app.TokenReader {
	return di.GetToken(c, TokenReader)
}
