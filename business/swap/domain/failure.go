package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
)

// FailureReason is the user-facing failure taxonomy. Every error that
// reaches the presentation maps to exactly one reason.
type FailureReason string

const (
	FailureUserRejected          FailureReason = "user_rejected"
	FailureInsufficientFunds     FailureReason = "insufficient_funds"
	FailureInsufficientLiquidity FailureReason = "insufficient_liquidity"
	FailureExecutionReverted     FailureReason = "execution_reverted"
	FailureNetworkOrProvider     FailureReason = "network_or_provider"
	FailureInvalidInput          FailureReason = "invalid_input"
)

// Message returns the user-facing text for the reason.
func (r FailureReason) Message() string {
	switch r {
	case FailureUserRejected:
		return "Transaction rejected in wallet"
	case FailureInsufficientFunds:
		return "Insufficient balance for this swap"
	case FailureInsufficientLiquidity:
		return "No liquidity for this pair"
	case FailureExecutionReverted:
		return "Swap reverted on chain, likely price movement past your slippage tolerance"
	case FailureInvalidInput:
		return "Invalid swap input"
	default:
		return "Network or provider error, please retry"
	}
}

// codeReasons maps application error codes onto the taxonomy.
var codeReasons = map[apperror.Code]FailureReason{
	apperror.CodeUserRejected:          FailureUserRejected,
	apperror.CodeInsufficientFunds:     FailureInsufficientFunds,
	apperror.CodeInsufficientLiquidity: FailureInsufficientLiquidity,
	apperror.CodeExecutionReverted:     FailureExecutionReverted,
	apperror.CodeApprovalFailed:        FailureExecutionReverted,
	apperror.CodeInvalidAmount:         FailureInvalidInput,
	apperror.CodeInvalidInput:          FailureInvalidInput,
	apperror.CodeUnsupportedPair:       FailureInvalidInput,
	apperror.CodeDeadlinePassed:        FailureInvalidInput,
}

// revertMarkers are substrings providers emit for on-chain reverts.
// "STF" is Uniswap's SafeTransferFrom failure, seen when allowance or
// balance runs short between quote and execution.
var revertMarkers = []string{
	"execution reverted",
	"always failing transaction",
	"transaction failed",
	"stf",
	"too little received",
}

var rejectionMarkers = []string{
	"user denied",
	"user rejected",
	"request rejected",
}

var fundsMarkers = []string{
	"insufficient funds",
	"insufficient balance",
	"exceeds balance",
}

// ClassifyError maps any error from the quote/approve/swap path onto the
// failure taxonomy. Unknown errors conservatively classify as
// network-or-provider, which is the only retryable bucket.
func ClassifyError(err error) FailureReason {
	if err == nil {
		return FailureNetworkOrProvider
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if reason, ok := codeReasons[appErr.Code]; ok {
			return reason
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailureNetworkOrProvider
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rejectionMarkers {
		if strings.Contains(msg, marker) {
			return FailureUserRejected
		}
	}
	for _, marker := range fundsMarkers {
		if strings.Contains(msg, marker) {
			return FailureInsufficientFunds
		}
	}
	for _, marker := range revertMarkers {
		if strings.Contains(msg, marker) {
			return FailureExecutionReverted
		}
	}
	return FailureNetworkOrProvider
}
