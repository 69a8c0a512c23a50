package app

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zk-web3/darknodedex-sub000/internal/asset"
)

type fakeAllowances struct {
	allowance *big.Int
	err       error
}

func (f *fakeAllowances) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.allowance, nil
}

func TestNeedsApproval(t *testing.T) {
	registry := asset.DefaultRegistry()
	eth, _ := registry.GetNative(asset.ChainIDEthereum)
	usdc, _ := registry.GetBySymbolAndChain("USDC", asset.ChainIDEthereum)

	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	spender := common.HexToAddress("0x2222222222222222222222222222222222222222")

	oneUSDC, _ := asset.ParseString(usdc, "1") // 1e6 raw
	oneETH, _ := asset.ParseString(eth, "1")

	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	tests := []struct {
		name      string
		sold      *asset.Asset
		amount    asset.Amount
		allowance *big.Int
		readErr   error
		want      bool
	}{
		{"native never needs approval", eth, oneETH, big.NewInt(0), nil, false},
		{"zero allowance below required", usdc, oneUSDC, big.NewInt(0), nil, true},
		{"partial allowance below required", usdc, oneUSDC, big.NewInt(999_999), nil, true},
		{"exact allowance suffices", usdc, oneUSDC, big.NewInt(1_000_000), nil, false},
		{"unlimited allowance suffices", usdc, oneUSDC, maxUint256, nil, false},
		{"read error fails safe", usdc, oneUSDC, nil, errors.New("rpc timeout"), true},
		{"zero amount never needs approval", usdc, asset.Zero(usdc), big.NewInt(0), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewApprovalChecker(&fakeAllowances{allowance: tt.allowance, err: tt.readErr}, testLogger())
			got := checker.NeedsApproval(context.Background(), tt.sold, owner, spender, tt.amount)
			if got != tt.want {
				t.Errorf("NeedsApproval = %v, want %v", got, tt.want)
			}
		})
	}
}
