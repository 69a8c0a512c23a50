package domain

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Phase }{
		{PhaseIdle, PhaseQuoting},
		{PhaseQuoting, PhaseReadyToSwap},
		{PhaseQuoting, PhaseReadyToApprove},
		{PhaseReadyToApprove, PhaseSubmitting},
		{PhaseReadyToSwap, PhaseSubmitting},
		{PhaseSubmitting, PhaseConfirming},
		{PhaseConfirming, PhaseReadyToSwap},    // approval mined, swap still pending
		{PhaseConfirming, PhaseReadyToApprove}, // approval mined but allowance still short
		{PhaseConfirming, PhaseSucceeded},
		{PhaseConfirming, PhaseFailed},
		{PhaseFailed, PhaseQuoting},
		{PhaseSucceeded, PhaseIdle},
	}
	for _, tt := range allowed {
		if !CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be allowed", tt.from, tt.to)
		}
	}

	denied := []struct{ from, to Phase }{
		{PhaseIdle, PhaseSubmitting},
		{PhaseIdle, PhaseSucceeded},
		{PhaseConfirming, PhaseIdle},
		{PhaseConfirming, PhaseSubmitting},
		{PhaseSubmitting, PhaseIdle},
		{PhaseSubmitting, PhaseReadyToSwap},
		{PhaseSucceeded, PhaseFailed},
	}
	for _, tt := range denied {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be denied", tt.from, tt.to)
		}
	}
}

func TestPhase_Busy(t *testing.T) {
	busy := []Phase{PhaseSubmitting, PhaseConfirming}
	for _, p := range busy {
		if !p.Busy() {
			t.Errorf("%s should be busy", p)
		}
	}
	idle := []Phase{PhaseIdle, PhaseQuoting, PhaseReadyToSwap, PhaseReadyToApprove, PhaseSucceeded, PhaseFailed}
	for _, p := range idle {
		if p.Busy() {
			t.Errorf("%s should not be busy", p)
		}
	}
}

func TestTxStatus_Lifecycle(t *testing.T) {
	status := NewTxStatus(TxApproval)
	if status.State != TxStateIdle {
		t.Fatalf("new status state = %s", status.State)
	}

	pending := status.Pending([32]byte{0xab})
	if pending.State != TxStatePending {
		t.Errorf("state = %s, want pending", pending.State)
	}
	if pending.Hash == ([32]byte{}) {
		t.Error("pending status lost its hash")
	}

	failed := pending.Failed("reverted")
	if failed.State != TxStateFailed || failed.Message != "reverted" {
		t.Errorf("failed = %+v", failed)
	}
	// original untouched, TxStatus is a value
	if status.State != TxStateIdle {
		t.Error("NewTxStatus value mutated")
	}
}
