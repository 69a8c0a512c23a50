package ethereum

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/zk-web3/darknodedex-sub000/business/wallet/app"
	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
)

const balanceOfABI = `[
	{
		"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var _ app.TokenReader = (*TokenReader)(nil)

// TokenReader reads ERC-20 balances via eth_call.
type TokenReader struct {
	client *ethclient.Client
	abi    abi.ABI
}

// NewTokenReader creates a TokenReader.
func NewTokenReader(client *ethclient.Client) (*TokenReader, error) {
	parsed, err := abi.JSON(strings.NewReader(balanceOfABI))
	if err != nil {
		return nil, err
	}
	return &TokenReader{client: client, abi: parsed}, nil
}

// BalanceOf returns owner's balance of token.
func (r *TokenReader) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := r.abi.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeContractCallFailed, "reading token balance")
	}
	results, err := r.abi.Unpack("balanceOf", out)
	if err != nil || len(results) == 0 {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithMessage("could not decode balanceOf result"),
			apperror.WithCause(err))
	}
	return results[0].(*big.Int), nil
}
