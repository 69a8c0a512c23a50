package erc20

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/zk-web3/darknodedex-sub000/business/swap/app"
	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
)

const balanceOfABISelector = "0x70a08231" // balanceOf(address)

var _ app.BalanceReader = (*Balances)(nil)

// OwnerFunc resolves the connected account at read time.
type OwnerFunc func() common.Address

// Balances reads the spendable balance of a pair's base asset for the
// pre-submission check. Native balances come from the chain state,
// token balances from the ERC-20 contract.
type Balances struct {
	client *ethclient.Client
	owner  OwnerFunc
}

// NewBalances creates the balance reader.
func NewBalances(client *ethclient.Client, owner OwnerFunc) *Balances {
	return &Balances{client: client, owner: owner}
}

// SpendableBalance returns the owner's balance of pair.Base in raw
// units.
func (b *Balances) SpendableBalance(ctx context.Context, pair domain.Pair) (*big.Int, error) {
	owner := b.owner()

	if pair.Base.IsNative() {
		balance, err := b.client.BalanceAt(ctx, owner, nil)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeEthereumRPCError, "reading native balance")
		}
		return balance, nil
	}

	token := pair.Base.Address()
	callData := append(common.FromHex(balanceOfABISelector), common.LeftPadBytes(owner.Bytes(), 32)...)
	result, err := b.client.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeContractCallFailed,
			fmt.Sprintf("reading %s balance", pair.Base.Symbol()))
	}
	return new(big.Int).SetBytes(result), nil
}
