package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zk-web3/darknodedex-sub000/business/wallet/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
)

// TokenReader reads ERC-20 balances.
type TokenReader interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// WalletService exposes account and balance operations to other contexts.
type WalletService struct {
	wallet Wallet
	tokens TokenReader
	gas    GasOracle
}

// NewWalletService creates a WalletService.
func NewWalletService(wallet Wallet, tokens TokenReader, gas GasOracle) *WalletService {
	if wallet == nil {
		panic("wallet is required")
	}
	return &WalletService{wallet: wallet, tokens: tokens, gas: gas}
}

// Account returns the connected account.
func (s *WalletService) Account() domain.Account {
	return s.wallet.Account()
}

// Wallet returns the underlying wallet port.
func (s *WalletService) Wallet() Wallet {
	return s.wallet
}

// Balance returns the connected account's balance of a. Native assets
// read the chain balance, tokens read balanceOf.
func (s *WalletService) Balance(ctx context.Context, a *asset.Asset) (domain.Balance, error) {
	owner := s.wallet.Address()

	var raw *big.Int
	var err error
	if a.IsNative() {
		raw, err = s.wallet.NativeBalance(ctx)
	} else {
		raw, err = s.tokens.BalanceOf(ctx, a.Address(), owner)
	}
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.NewBalance(owner, asset.NewAmount(a, raw)), nil
}

// EstimateGas estimates gas and cost for a call from the connected account.
func (s *WalletService) EstimateGas(ctx context.Context, to common.Address, value *big.Int, data []byte) (*domain.GasEstimate, error) {
	limit, err := s.gas.EstimateGas(ctx, s.wallet.Address(), to, value, data)
	if err != nil {
		return nil, err
	}
	price, err := s.gas.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewGasEstimate(limit, price), nil
}
