package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Phase is the orchestrator's position in the swap lifecycle.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseQuoting        Phase = "quoting"
	PhaseReadyToApprove Phase = "ready_to_approve"
	PhaseReadyToSwap    Phase = "ready_to_swap"
	PhaseSubmitting     Phase = "submitting"
	PhaseConfirming     Phase = "confirming"
	PhaseSucceeded      Phase = "succeeded"
	PhaseFailed         Phase = "failed"
)

// transitions lists the allowed successor phases.
var transitions = map[Phase][]Phase{
	PhaseIdle:           {PhaseQuoting},
	PhaseQuoting:        {PhaseIdle, PhaseQuoting, PhaseReadyToApprove, PhaseReadyToSwap, PhaseFailed},
	PhaseReadyToApprove: {PhaseIdle, PhaseQuoting, PhaseSubmitting, PhaseFailed},
	PhaseReadyToSwap:    {PhaseIdle, PhaseQuoting, PhaseSubmitting, PhaseFailed},
	PhaseSubmitting:     {PhaseConfirming, PhaseFailed},
	PhaseConfirming:     {PhaseReadyToApprove, PhaseReadyToSwap, PhaseSucceeded, PhaseFailed},
	PhaseSucceeded:      {PhaseIdle, PhaseQuoting},
	PhaseFailed:         {PhaseIdle, PhaseQuoting},
}

// CanTransition reports whether from → to is an allowed phase change.
func CanTransition(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Busy reports whether the phase has a transaction in flight; input
// changes are ignored while busy.
func (p Phase) Busy() bool {
	return p == PhaseSubmitting || p == PhaseConfirming
}

// TxKind distinguishes the two transaction kinds the client sends.
type TxKind string

const (
	TxApproval TxKind = "approval"
	TxSwap     TxKind = "swap"
)

// TxState is the lifecycle of one transaction.
type TxState string

const (
	TxStateIdle    TxState = "idle"
	TxStatePending TxState = "pending"
	TxStateSuccess TxState = "success"
	TxStateFailed  TxState = "failed"
)

// TxStatus tracks a single transaction. Approval and swap each get their
// own instance, never shared.
type TxStatus struct {
	Kind      TxKind
	State     TxState
	Hash      common.Hash
	Message   string
	UpdatedAt time.Time
}

// NewTxStatus creates an idle status for one transaction kind.
func NewTxStatus(kind TxKind) TxStatus {
	return TxStatus{Kind: kind, State: TxStateIdle, UpdatedAt: time.Now()}
}

// Pending marks the transaction as submitted.
func (t TxStatus) Pending(hash common.Hash) TxStatus {
	t.State = TxStatePending
	t.Hash = hash
	t.UpdatedAt = time.Now()
	return t
}

// Success marks the transaction as mined successfully.
func (t TxStatus) Success() TxStatus {
	t.State = TxStateSuccess
	t.UpdatedAt = time.Now()
	return t
}

// Failed marks the transaction as failed with a user-facing message.
func (t TxStatus) Failed(message string) TxStatus {
	t.State = TxStateFailed
	t.Message = message
	t.UpdatedAt = time.Now()
	return t
}
