package app

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
)

type fakeApprover struct {
	mu       sync.Mutex
	err      error
	mineOK   bool
	mineErr  error
	mineGate chan struct{}
	onMined  func()
	calls    int
}

func (f *fakeApprover) Approve(ctx context.Context, token, spender common.Address) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return common.Hash{}, f.err
	}
	return common.HexToHash("0xaaaa"), nil
}

func (f *fakeApprover) WaitMined(ctx context.Context, hash common.Hash) (bool, error) {
	f.mu.Lock()
	gate := f.mineGate
	ok, err := f.mineOK, f.mineErr
	hook := f.onMined
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return false, err
	}
	if ok && hook != nil {
		hook()
	}
	return ok, nil
}

type fakeRouter struct {
	mu        sync.Mutex
	submitErr error
	mineOK    bool
	mineErr   error
	mineGate  chan struct{}
	submitted int
}

func (f *fakeRouter) ExactInputSingle(ctx context.Context, intent domain.Intent) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted++
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	return common.HexToHash("0xbbbb"), nil
}

func (f *fakeRouter) WaitMined(ctx context.Context, hash common.Hash) (bool, error) {
	f.mu.Lock()
	gate := f.mineGate
	ok, err := f.mineOK, f.mineErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return ok, err
}

func (f *fakeRouter) Address() common.Address {
	return common.HexToAddress("0x3333333333333333333333333333333333333333")
}

type fakeBalances struct {
	balance *big.Int
	err     error
}

func (f *fakeBalances) SpendableBalance(ctx context.Context, pair domain.Pair) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.balance, nil
}

type memHistory struct {
	mu      sync.Mutex
	records []domain.Record
}

func (m *memHistory) Append(ctx context.Context, wallet common.Address, record domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memHistory) List(ctx context.Context, wallet common.Address) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

type fakeWallet struct {
	address common.Address
	chainID uint64
}

func (f *fakeWallet) Address() common.Address { return f.address }
func (f *fakeWallet) ChainID() uint64         { return f.chainID }

type orchestratorFixture struct {
	orch       *Orchestrator
	quoter     *fakeQuoter
	allowances *fakeAllowances
	approver   *fakeApprover
	router     *fakeRouter
	balances   *fakeBalances
	history    *memHistory
	pair       domain.Pair
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	registry := asset.DefaultRegistry()
	pair, err := domain.ParsePair("ETH-USDC", asset.ChainIDEthereum, registry)
	if err != nil {
		t.Fatalf("ParsePair: %v", err)
	}

	quoter := &fakeQuoter{}
	svc := newTestQuoteService(t, quoter, time.Millisecond)

	// Zero allowance: token sells start in ReadyToApprove, ETH sells skip it.
	allowances := &fakeAllowances{allowance: big.NewInt(0)}
	approver := &fakeApprover{mineOK: true}
	router := &fakeRouter{mineOK: true}
	ten := new(big.Int)
	ten.SetString("10000000000000000000", 10) // 10 ETH
	balances := &fakeBalances{balance: ten}
	history := &memHistory{}
	wallet := &fakeWallet{
		address: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		chainID: asset.ChainIDEthereum,
	}

	orch, err := NewOrchestrator(
		svc,
		NewApprovalChecker(allowances, testLogger()),
		approver,
		router,
		balances,
		history,
		wallet,
		registry,
		OrchestratorConfig{
			SlippageBps:    50,
			DeadlineWindow: 20 * time.Minute,
			ChainID:        asset.ChainIDEthereum,
		},
		testLogger(),
	)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	orch.SetPair(context.Background(), pair)
	return &orchestratorFixture{
		orch:       orch,
		quoter:     quoter,
		allowances: allowances,
		approver:   approver,
		router:     router,
		balances:   balances,
		history:    history,
		pair:       pair,
	}
}

func waitPhase(t *testing.T, orch *Orchestrator, want domain.Phase) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if orch.Phase() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for phase %s, stuck at %s", want, orch.Phase())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (f *orchestratorFixture) typeAmount(t *testing.T, s string) {
	t.Helper()
	amt, err := asset.ParseString(f.pair.Base, s)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	f.orch.SetAmount(context.Background(), amt)
}

func TestOrchestrator_HappyPath_NativeSell(t *testing.T) {
	f := newOrchestratorFixture(t)

	f.typeAmount(t, "1")
	waitPhase(t, f.orch, domain.PhaseReadyToSwap) // native sell skips approval

	if err := f.orch.Swap(context.Background()); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	waitPhase(t, f.orch, domain.PhaseSucceeded)

	if !f.orch.Amount().IsZero() {
		t.Error("success must clear the typed amount")
	}
	records, _ := f.history.List(context.Background(), common.Address{})
	if len(records) != 1 || records[0].Status != domain.TxStateSuccess {
		t.Fatalf("history = %+v", records)
	}

	f.orch.Reset(context.Background())
	waitPhase(t, f.orch, domain.PhaseIdle)
}

func TestOrchestrator_RevertKeepsAmount(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.router.mineOK = false // mined but reverted

	f.typeAmount(t, "1")
	waitPhase(t, f.orch, domain.PhaseReadyToSwap)

	if err := f.orch.Swap(context.Background()); err == nil {
		t.Fatal("expected swap error")
	}
	waitPhase(t, f.orch, domain.PhaseFailed)

	if f.orch.Amount().IsZero() {
		t.Error("failure must keep the typed amount")
	}

	records, _ := f.history.List(context.Background(), common.Address{})
	if len(records) != 1 || records[0].Status != domain.TxStateFailed {
		t.Fatalf("history = %+v", records)
	}
	if records[0].Reason != string(domain.FailureExecutionReverted) {
		t.Errorf("reason = %s", records[0].Reason)
	}

	// Reset re-quotes the surviving amount.
	f.router.mineOK = true
	f.orch.Reset(context.Background())
	waitPhase(t, f.orch, domain.PhaseReadyToSwap)
}

func TestOrchestrator_ApprovalFlow(t *testing.T) {
	f := newOrchestratorFixture(t)

	registry := asset.DefaultRegistry()
	usdcDai, err := domain.ParsePair("USDC-DAI", asset.ChainIDEthereum, registry)
	if err != nil {
		t.Fatalf("ParsePair: %v", err)
	}
	f.orch.SetPair(context.Background(), usdcDai)
	f.pair = usdcDai

	// A mined approval flips the allowance to unlimited.
	f.approver.onMined = func() {
		f.allowances.allowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	}

	f.typeAmount(t, "100")
	waitPhase(t, f.orch, domain.PhaseReadyToApprove)

	if err := f.orch.Approve(context.Background()); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	waitPhase(t, f.orch, domain.PhaseReadyToSwap)

	if f.approver.calls != 1 {
		t.Errorf("approver called %d times, want 1", f.approver.calls)
	}
}

func TestOrchestrator_ApprovalStillShortStaysReadyToApprove(t *testing.T) {
	f := newOrchestratorFixture(t)

	registry := asset.DefaultRegistry()
	usdcDai, _ := domain.ParsePair("USDC-DAI", asset.ChainIDEthereum, registry)
	f.orch.SetPair(context.Background(), usdcDai)
	f.pair = usdcDai

	// Approval mines but the re-read still reports a short allowance.
	f.typeAmount(t, "100")
	waitPhase(t, f.orch, domain.PhaseReadyToApprove)

	if err := f.orch.Approve(context.Background()); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	waitPhase(t, f.orch, domain.PhaseReadyToApprove)
}

func TestOrchestrator_AllowanceRereadFailureStaysReadyToApprove(t *testing.T) {
	f := newOrchestratorFixture(t)

	registry := asset.DefaultRegistry()
	usdcDai, _ := domain.ParsePair("USDC-DAI", asset.ChainIDEthereum, registry)
	f.orch.SetPair(context.Background(), usdcDai)
	f.pair = usdcDai

	// The approval mines, then the allowance re-read starts failing. The
	// checker treats an unreadable allowance as missing, so the flow must
	// land back in ReadyToApprove instead of assuming the grant.
	f.approver.onMined = func() {
		f.allowances.err = apperror.New(apperror.CodeAllowanceReadFailed)
	}

	f.typeAmount(t, "100")
	waitPhase(t, f.orch, domain.PhaseReadyToApprove)

	if err := f.orch.Approve(context.Background()); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	waitPhase(t, f.orch, domain.PhaseReadyToApprove)
}

func TestOrchestrator_ApprovalPassesThroughConfirming(t *testing.T) {
	f := newOrchestratorFixture(t)

	registry := asset.DefaultRegistry()
	usdcDai, _ := domain.ParsePair("USDC-DAI", asset.ChainIDEthereum, registry)
	f.orch.SetPair(context.Background(), usdcDai)
	f.pair = usdcDai

	gate := make(chan struct{})
	f.approver.mineGate = gate
	f.approver.onMined = func() {
		f.allowances.allowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	}

	var events []Event
	var mu sync.Mutex
	f.orch.Subscribe(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	f.typeAmount(t, "100")
	waitPhase(t, f.orch, domain.PhaseReadyToApprove)

	done := make(chan error, 1)
	go func() { done <- f.orch.Approve(context.Background()) }()
	waitPhase(t, f.orch, domain.PhaseConfirming)

	mu.Lock()
	var sawPending bool
	for _, e := range events {
		if e.Phase == domain.PhaseConfirming && e.Approval.State == domain.TxStatePending {
			sawPending = true
		}
	}
	mu.Unlock()
	if !sawPending {
		t.Error("approval never observed pending in the confirming phase")
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("Approve: %v", err)
	}
	waitPhase(t, f.orch, domain.PhaseReadyToSwap)
}

func TestOrchestrator_InsufficientBalance(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.balances.balance = big.NewInt(1) // 1 wei

	f.typeAmount(t, "1")
	waitPhase(t, f.orch, domain.PhaseReadyToSwap)

	err := f.orch.Swap(context.Background())
	if apperror.GetCode(err) != apperror.CodeInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	waitPhase(t, f.orch, domain.PhaseFailed)
	if f.router.submitted != 0 {
		t.Error("swap must not be submitted without balance")
	}
	if records, _ := f.history.List(context.Background(), common.Address{}); len(records) != 0 {
		t.Error("nothing was submitted, history must stay empty")
	}
}

func TestOrchestrator_UserRejection(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.router.submitErr = apperror.New(apperror.CodeUserRejected)

	f.typeAmount(t, "1")
	waitPhase(t, f.orch, domain.PhaseReadyToSwap)

	var events []Event
	var mu sync.Mutex
	f.orch.Subscribe(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	if err := f.orch.Swap(context.Background()); err == nil {
		t.Fatal("expected rejection error")
	}
	waitPhase(t, f.orch, domain.PhaseFailed)

	mu.Lock()
	defer mu.Unlock()
	last := events[len(events)-1]
	if last.Failure != domain.FailureUserRejected {
		t.Errorf("failure = %s, want user_rejected", last.Failure)
	}
	if last.Swap.State != domain.TxStateFailed {
		t.Errorf("swap tx state = %s", last.Swap.State)
	}
	if records, _ := f.history.List(context.Background(), common.Address{}); len(records) != 0 {
		t.Error("a rejected submission has no hash, history must stay empty")
	}
}

func TestOrchestrator_NoLiquidityQuote(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.quoter.quote = func(*big.Int) (*big.Int, uint64, error) {
		return nil, 0, apperror.New(apperror.CodeContractCallFailed)
	}

	f.typeAmount(t, "1")
	waitPhase(t, f.orch, domain.PhaseFailed)

	if f.orch.Quote() != nil {
		t.Error("no-liquidity quote must not be stored")
	}
	if f.router.submitted != 0 {
		t.Error("nothing may be submitted without a quote")
	}
}

func TestOrchestrator_InputIgnoredWhileBusy(t *testing.T) {
	f := newOrchestratorFixture(t)

	// Hold the receipt wait so the orchestrator sits in Confirming.
	gate := make(chan struct{})
	f.router.mu.Lock()
	f.router.mineGate = gate
	f.router.mu.Unlock()

	f.typeAmount(t, "1")
	waitPhase(t, f.orch, domain.PhaseReadyToSwap)
	typed := f.orch.Amount()

	done := make(chan error, 1)
	go func() { done <- f.orch.Swap(context.Background()) }()
	waitPhase(t, f.orch, domain.PhaseConfirming)

	f.typeAmount(t, "5")
	f.orch.SetPair(context.Background(), f.pair.Flip())
	if got := f.orch.Phase(); got != domain.PhaseConfirming {
		t.Fatalf("phase = %s, edits must be ignored while confirming", got)
	}
	if !f.orch.Amount().Equals(typed) {
		t.Error("amount changed during confirmation")
	}
	if f.orch.Pair().String() != f.pair.String() {
		t.Error("pair changed during confirmation")
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("Swap: %v", err)
	}
	waitPhase(t, f.orch, domain.PhaseSucceeded)
}

func TestOrchestrator_SetSlippage(t *testing.T) {
	f := newOrchestratorFixture(t)

	if got := f.orch.SlippageBps(); got != 50 {
		t.Fatalf("SlippageBps = %d, want configured 50", got)
	}

	f.orch.SetSlippage(100)
	if got := f.orch.SlippageBps(); got != 100 {
		t.Errorf("SlippageBps = %d, want 100", got)
	}

	f.orch.SetSlippage(-5)
	if got := f.orch.SlippageBps(); got != 0 {
		t.Errorf("SlippageBps = %d, want clamp to 0", got)
	}
	f.orch.SetSlippage(20000)
	if got := f.orch.SlippageBps(); got != 10000 {
		t.Errorf("SlippageBps = %d, want clamp to 10000", got)
	}

	// Hold the receipt wait: adjustments are ignored mid-transaction.
	f.orch.SetSlippage(50)
	gate := make(chan struct{})
	f.router.mu.Lock()
	f.router.mineGate = gate
	f.router.mu.Unlock()

	f.typeAmount(t, "1")
	waitPhase(t, f.orch, domain.PhaseReadyToSwap)
	done := make(chan error, 1)
	go func() { done <- f.orch.Swap(context.Background()) }()
	waitPhase(t, f.orch, domain.PhaseConfirming)

	f.orch.SetSlippage(500)
	if got := f.orch.SlippageBps(); got != 50 {
		t.Errorf("SlippageBps = %d, changed during confirmation", got)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("Swap: %v", err)
	}
	waitPhase(t, f.orch, domain.PhaseSucceeded)
}
