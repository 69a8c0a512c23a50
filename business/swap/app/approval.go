package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zk-web3/darknodedex-sub000/internal/asset"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

// ApprovalChecker decides whether a swap needs an ERC-20 approval first.
type ApprovalChecker struct {
	allowances AllowanceReader
	logger     logger.LoggerInterface
}

// NewApprovalChecker creates an ApprovalChecker.
func NewApprovalChecker(allowances AllowanceReader, log logger.LoggerInterface) *ApprovalChecker {
	if allowances == nil {
		panic("allowance reader is required")
	}
	return &ApprovalChecker{allowances: allowances, logger: log}
}

// NeedsApproval reports whether spender lacks allowance to move amount
// of the sold asset. Native sells never need approval. A failed
// allowance read answers true: the approve path re-reads afterwards, so
// failing safe costs one extra check, never a stuck swap.
func (c *ApprovalChecker) NeedsApproval(ctx context.Context, sold *asset.Asset, owner, spender common.Address, amount asset.Amount) bool {
	if sold.IsNative() {
		return false
	}
	if !amount.IsPositive() {
		return false
	}

	allowance, err := c.allowances.Allowance(ctx, sold.Address(), owner, spender)
	if err != nil {
		c.logger.Warn(ctx, "allowance read failed, assuming approval needed",
			"token", sold.Symbol(),
			"owner", owner.Hex(),
			"spender", spender.Hex(),
			"error", err,
		)
		return true
	}

	return allowance.Cmp(amount.Raw()) < 0
}
