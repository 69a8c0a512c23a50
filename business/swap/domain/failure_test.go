package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
)

func TestClassifyError_FromCodes(t *testing.T) {
	tests := []struct {
		code apperror.Code
		want FailureReason
	}{
		{apperror.CodeUserRejected, FailureUserRejected},
		{apperror.CodeInsufficientFunds, FailureInsufficientFunds},
		{apperror.CodeInsufficientLiquidity, FailureInsufficientLiquidity},
		{apperror.CodeExecutionReverted, FailureExecutionReverted},
		{apperror.CodeInvalidAmount, FailureInvalidInput},
		{apperror.CodeUnsupportedPair, FailureInvalidInput},
		{apperror.CodeDeadlinePassed, FailureInvalidInput},
		{apperror.CodeEthereumRPCError, FailureNetworkOrProvider},
	}
	for _, tt := range tests {
		if got := ClassifyError(apperror.New(tt.code)); got != tt.want {
			t.Errorf("ClassifyError(%s) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestClassifyError_WrappedCode(t *testing.T) {
	err := fmt.Errorf("submitting swap: %w", apperror.New(apperror.CodeUserRejected))
	if got := ClassifyError(err); got != FailureUserRejected {
		t.Errorf("wrapped code classified as %s", got)
	}
}

func TestClassifyError_FromProviderStrings(t *testing.T) {
	tests := []struct {
		msg  string
		want FailureReason
	}{
		{"MetaMask Tx Signature: User denied transaction signature", FailureUserRejected},
		{"insufficient funds for gas * price + value", FailureInsufficientFunds},
		{"execution reverted: STF", FailureExecutionReverted},
		{"execution reverted: Too little received", FailureExecutionReverted},
		{"dial tcp 127.0.0.1:8545: connection refused", FailureNetworkOrProvider},
		{"i/o timeout", FailureNetworkOrProvider},
	}
	for _, tt := range tests {
		if got := ClassifyError(errors.New(tt.msg)); got != tt.want {
			t.Errorf("ClassifyError(%q) = %s, want %s", tt.msg, got, tt.want)
		}
	}
}

func TestClassifyError_ContextErrors(t *testing.T) {
	if got := ClassifyError(context.DeadlineExceeded); got != FailureNetworkOrProvider {
		t.Errorf("deadline exceeded classified as %s", got)
	}
	if got := ClassifyError(context.Canceled); got != FailureNetworkOrProvider {
		t.Errorf("canceled classified as %s", got)
	}
}

func TestFailureReason_Messages(t *testing.T) {
	reasons := []FailureReason{
		FailureUserRejected,
		FailureInsufficientFunds,
		FailureInsufficientLiquidity,
		FailureExecutionReverted,
		FailureNetworkOrProvider,
		FailureInvalidInput,
	}
	for _, r := range reasons {
		if r.Message() == "" {
			t.Errorf("reason %s has no message", r)
		}
	}
}
