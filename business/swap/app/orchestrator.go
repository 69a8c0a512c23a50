package app

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/apm"
	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

const orchestratorTracerName = "swap.orchestrator"

// WalletProvider is the slice of the wallet the orchestrator needs.
// Address and chain are re-read before every submission, never cached
// across them.
type WalletProvider interface {
	Address() common.Address
	ChainID() uint64
}

// OrchestratorConfig holds swap execution settings.
type OrchestratorConfig struct {
	SlippageBps    int64
	DeadlineWindow time.Duration
	ChainID        uint64
}

type orchestratorMetrics struct {
	swaps     metric.Int64Counter
	approvals metric.Int64Counter
	failures  metric.Int64Counter
}

// Orchestrator drives one swap at a time through the phase machine:
// Idle -> Quoting -> ReadyToApprove|ReadyToSwap -> Submitting ->
// Confirming -> Succeeded|Failed. A failure keeps the typed amount so
// the user can retry; success clears it.
type Orchestrator struct {
	quotes   *QuoteService
	checker  *ApprovalChecker
	approver Approver
	router   SwapRouter
	balances BalanceReader
	history  HistoryStore
	wallet   WalletProvider
	registry *asset.Registry
	config   OrchestratorConfig
	logger   logger.LoggerInterface
	tracer   apm.Tracer
	metrics  *orchestratorMetrics

	mu          sync.Mutex
	phase       domain.Phase
	slippageBps int64
	pair        domain.Pair
	amount      asset.Amount
	quote       *domain.QuoteResult
	approvalTx  domain.TxStatus
	swapTx      domain.TxStatus
	failure     domain.FailureReason
	message     string
	listeners   []EventListener
}

// NewOrchestrator creates the orchestrator and hooks it up to the quote
// service's listener.
func NewOrchestrator(
	quotes *QuoteService,
	checker *ApprovalChecker,
	approver Approver,
	router SwapRouter,
	balances BalanceReader,
	history HistoryStore,
	wallet WalletProvider,
	registry *asset.Registry,
	cfg OrchestratorConfig,
	log logger.LoggerInterface,
) (*Orchestrator, error) {
	o := &Orchestrator{
		quotes:      quotes,
		checker:     checker,
		approver:    approver,
		router:      router,
		balances:    balances,
		history:     history,
		wallet:      wallet,
		registry:    registry,
		config:      cfg,
		logger:      log,
		tracer:      apm.NewTracer(orchestratorTracerName),
		phase:       domain.PhaseIdle,
		slippageBps: cfg.SlippageBps,
		approvalTx:  domain.NewTxStatus(domain.TxApproval),
		swapTx:      domain.NewTxStatus(domain.TxSwap),
	}
	if err := o.initMetrics(); err != nil {
		return nil, err
	}
	quotes.SetListener(o.onQuote)
	return o, nil
}

func (o *Orchestrator) initMetrics() error {
	meter := otel.Meter(orchestratorTracerName)
	var err error

	o.metrics = &orchestratorMetrics{}
	if o.metrics.swaps, err = meter.Int64Counter(
		"swaps_total",
		metric.WithDescription("Swap submissions by outcome"),
	); err != nil {
		return err
	}
	if o.metrics.approvals, err = meter.Int64Counter(
		"approvals_total",
		metric.WithDescription("Approval submissions by outcome"),
	); err != nil {
		return err
	}
	if o.metrics.failures, err = meter.Int64Counter(
		"swap_failures_total",
		metric.WithDescription("Failures by reason"),
	); err != nil {
		return err
	}
	return nil
}

// Subscribe adds an event listener.
func (o *Orchestrator) Subscribe(l EventListener) {
	o.mu.Lock()
	o.listeners = append(o.listeners, l)
	o.mu.Unlock()
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() domain.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Pair returns the selected pair.
func (o *Orchestrator) Pair() domain.Pair {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pair
}

// Amount returns the current input amount.
func (o *Orchestrator) Amount() asset.Amount {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.amount
}

// Quote returns the latest applied quote, nil when none.
func (o *Orchestrator) Quote() *domain.QuoteResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.quote
}

// SlippageBps returns the current slippage tolerance.
func (o *Orchestrator) SlippageBps() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.slippageBps
}

// SetSlippage adjusts the slippage tolerance, clamped to [0, 10000] bps.
// Ignored while a transaction is in flight. A standing quote keeps its
// amountOut; only the minimum-out bound moves.
func (o *Orchestrator) SetSlippage(bps int64) {
	o.mu.Lock()
	if o.phase.Busy() {
		o.mu.Unlock()
		return
	}
	if bps < 0 {
		bps = 0
	}
	if bps > 10000 {
		bps = 10000
	}
	o.slippageBps = bps
	o.mu.Unlock()
	o.emit()
}

// SetPair switches the traded pair. Ignored while a transaction is in
// flight. Any standing quote is invalidated.
func (o *Orchestrator) SetPair(ctx context.Context, pair domain.Pair) {
	o.mu.Lock()
	if o.phase.Busy() {
		o.mu.Unlock()
		return
	}
	o.pair = pair
	o.quote = nil
	o.amount = asset.Zero(pair.Base)
	o.quotes.Cancel()
	o.toPhaseLocked(domain.PhaseIdle)
	o.mu.Unlock()
	o.emit()
}

// SetAmount is called on every input edit. Ignored while a transaction
// is in flight. The quote resolves asynchronously through onQuote.
func (o *Orchestrator) SetAmount(ctx context.Context, amount asset.Amount) {
	o.mu.Lock()
	if o.phase.Busy() {
		o.mu.Unlock()
		return
	}
	o.amount = amount
	o.quote = nil

	if !amount.IsPositive() {
		o.quotes.Cancel()
		o.toPhaseLocked(domain.PhaseIdle)
		o.mu.Unlock()
		o.emit()
		return
	}

	o.toPhaseLocked(domain.PhaseQuoting)
	pair := o.pair
	o.mu.Unlock()
	o.emit()

	o.quotes.Request(ctx, pair, amount)
}

// onQuote receives fresh quote results from the quote service.
func (o *Orchestrator) onQuote(result domain.QuoteResult) {
	ctx := context.Background()

	o.mu.Lock()
	if o.phase.Busy() {
		o.mu.Unlock()
		return
	}
	// A quote for a different pair or amount lost an edit race; the quote
	// service's generation counter makes this rare, but a pair switch
	// does not bump the counter's applied floor for free results.
	if result.Request.Pair.String() != o.pair.String() || !result.Request.AmountIn.Equals(o.amount) {
		o.mu.Unlock()
		return
	}

	if result.NoLiquidity {
		o.quote = nil
		o.failLocked(domain.FailureInsufficientLiquidity)
		o.mu.Unlock()
		o.emit()
		return
	}
	if !result.Request.AmountIn.IsPositive() {
		o.quote = nil
		o.toPhaseLocked(domain.PhaseIdle)
		o.mu.Unlock()
		o.emit()
		return
	}

	o.quote = &result
	owner := o.wallet.Address()
	sold := o.pair.Base
	amount := o.amount
	o.mu.Unlock()

	needsApproval := o.checker.NeedsApproval(ctx, sold, owner, o.router.Address(), amount)

	o.mu.Lock()
	// Re-check freshness after the allowance read.
	if o.quote == nil || o.quote.Request.Seq != result.Request.Seq {
		o.mu.Unlock()
		return
	}
	if needsApproval {
		o.toPhaseLocked(domain.PhaseReadyToApprove)
	} else {
		o.toPhaseLocked(domain.PhaseReadyToSwap)
	}
	o.mu.Unlock()
	o.emit()
}

// Approve submits the ERC-20 approval and waits for it to mine. On
// success the allowance is re-read, never assumed.
func (o *Orchestrator) Approve(ctx context.Context) error {
	o.mu.Lock()
	if o.phase != domain.PhaseReadyToApprove {
		o.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithMessage("no approval pending"))
	}
	o.toPhaseLocked(domain.PhaseSubmitting)
	o.approvalTx = domain.NewTxStatus(domain.TxApproval)
	sold := o.pair.Base
	amount := o.amount
	o.mu.Unlock()
	o.emit()

	ctx, span := o.tracer.StartSpanFromContext(ctx, "swap.approve")
	defer span.End()
	span.SetAttributes(attribute.String("token", sold.Symbol()))

	hash, err := o.approver.Approve(ctx, sold.Address(), o.router.Address())
	if err != nil {
		span.NoticeError(err)
		return o.failApproval(ctx, err)
	}
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))

	o.mu.Lock()
	o.approvalTx = o.approvalTx.Pending(hash)
	o.toPhaseLocked(domain.PhaseConfirming)
	o.mu.Unlock()
	o.emit()

	succeeded, err := o.approver.WaitMined(ctx, hash)
	if err != nil {
		span.NoticeError(err)
		return o.failApproval(ctx, err)
	}
	if !succeeded {
		err := apperror.New(apperror.CodeApprovalFailed,
			apperror.WithContext("approval transaction reverted"))
		span.NoticeError(err)
		return o.failApproval(ctx, err)
	}

	o.metrics.approvals.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", true)))
	owner := o.wallet.Address()
	stillNeeds := o.checker.NeedsApproval(ctx, sold, owner, o.router.Address(), amount)

	o.mu.Lock()
	o.approvalTx = o.approvalTx.Success()
	if stillNeeds {
		o.toPhaseLocked(domain.PhaseReadyToApprove)
	} else {
		o.toPhaseLocked(domain.PhaseReadyToSwap)
	}
	o.mu.Unlock()
	o.emit()

	o.logger.Info(ctx, "approval confirmed",
		"token", sold.Symbol(),
		"tx_hash", hash.Hex(),
		"still_needs_approval", stillNeeds,
	)
	return nil
}

// failApproval records a terminal approval failure.
func (o *Orchestrator) failApproval(ctx context.Context, err error) error {
	reason := domain.ClassifyError(err)
	o.metrics.approvals.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", false)))

	o.mu.Lock()
	o.approvalTx = o.approvalTx.Failed(reason.Message())
	o.failLocked(reason)
	o.mu.Unlock()
	o.emit()
	return err
}

// Swap builds the intent from the standing quote with a fresh deadline,
// submits it, and waits for the receipt.
func (o *Orchestrator) Swap(ctx context.Context) error {
	o.mu.Lock()
	if o.phase != domain.PhaseReadyToSwap {
		o.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithMessage("no swap ready"))
	}
	if o.quote == nil {
		o.mu.Unlock()
		return apperror.New(apperror.CodeStaleQuote)
	}
	quote := *o.quote
	pair := o.pair
	slippage := o.slippageBps
	o.toPhaseLocked(domain.PhaseSubmitting)
	o.swapTx = domain.NewTxStatus(domain.TxSwap)
	o.mu.Unlock()
	o.emit()

	ctx, span := o.tracer.StartSpanFromContext(ctx, "swap.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("pair", pair.String()),
		attribute.String("amount_in", quote.Request.AmountIn.Raw().String()),
	)

	// Wallet identity is re-read at submission time.
	recipient := o.wallet.Address()
	if chainID := o.wallet.ChainID(); chainID != o.config.ChainID {
		err := apperror.New(apperror.CodeWrongChain)
		span.NoticeError(err)
		return o.failSwap(ctx, pair, quote, common.Hash{}, err)
	}

	balance, err := o.balances.SpendableBalance(ctx, pair)
	if err != nil {
		o.logger.Warn(ctx, "balance pre-check failed, continuing", "error", err)
	} else if balance.Cmp(quote.Request.AmountIn.Raw()) < 0 {
		err := apperror.New(apperror.CodeInsufficientFunds)
		span.NoticeError(err)
		return o.failSwap(ctx, pair, quote, common.Hash{}, err)
	}

	intent, err := domain.BuildIntent(quote, slippage, o.config.DeadlineWindow, recipient, o.registry, time.Now())
	if err != nil {
		span.NoticeError(err)
		return o.failSwap(ctx, pair, quote, common.Hash{}, err)
	}
	if err := intent.Validate(time.Now()); err != nil {
		span.NoticeError(err)
		return o.failSwap(ctx, pair, quote, common.Hash{}, err)
	}

	hash, err := o.router.ExactInputSingle(ctx, intent)
	if err != nil {
		span.NoticeError(err)
		return o.failSwap(ctx, pair, quote, common.Hash{}, err)
	}
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))

	o.mu.Lock()
	o.swapTx = o.swapTx.Pending(hash)
	o.toPhaseLocked(domain.PhaseConfirming)
	o.mu.Unlock()
	o.emit()

	succeeded, err := o.router.WaitMined(ctx, hash)
	if err != nil {
		span.NoticeError(err)
		return o.failSwap(ctx, pair, quote, hash, err)
	}
	if !succeeded {
		err := apperror.New(apperror.CodeExecutionReverted)
		span.NoticeError(err)
		return o.failSwap(ctx, pair, quote, hash, err)
	}

	o.metrics.swaps.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", true)))
	o.appendHistory(ctx, recipient, domain.NewRecord(
		pair, quote.Request.AmountIn, quote.AmountOut, hash, domain.TxStateSuccess, ""))

	o.mu.Lock()
	o.swapTx = o.swapTx.Success()
	o.quote = nil
	o.amount = asset.Zero(pair.Base)
	o.toPhaseLocked(domain.PhaseSucceeded)
	o.mu.Unlock()
	o.emit()

	o.logger.Info(ctx, "swap confirmed",
		"pair", pair.String(),
		"tx_hash", hash.Hex(),
	)
	return nil
}

// failSwap records a terminal swap failure. The typed amount survives so
// the user can retry. Failures before submission have no hash and leave
// no history record; history is a log of transactions, not attempts.
func (o *Orchestrator) failSwap(ctx context.Context, pair domain.Pair, quote domain.QuoteResult, hash common.Hash, err error) error {
	reason := domain.ClassifyError(err)
	o.metrics.swaps.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", false)))
	o.metrics.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(reason))))

	if hash != (common.Hash{}) {
		o.appendHistory(ctx, o.wallet.Address(), domain.NewRecord(
			pair, quote.Request.AmountIn, quote.AmountOut, hash, domain.TxStateFailed, string(reason)))
	}

	o.mu.Lock()
	o.swapTx = o.swapTx.Failed(reason.Message())
	o.failLocked(reason)
	o.mu.Unlock()
	o.emit()

	o.logger.Warn(ctx, "swap failed",
		"pair", pair.String(),
		"reason", string(reason),
		"error", err,
	)
	return err
}

// Reset returns to Idle after a terminal phase. After a failure the
// amount is kept; after success it was already cleared.
func (o *Orchestrator) Reset(ctx context.Context) {
	o.mu.Lock()
	if o.phase != domain.PhaseSucceeded && o.phase != domain.PhaseFailed {
		o.mu.Unlock()
		return
	}
	o.failure = ""
	o.message = ""
	o.approvalTx = domain.NewTxStatus(domain.TxApproval)
	o.swapTx = domain.NewTxStatus(domain.TxSwap)
	o.toPhaseLocked(domain.PhaseIdle)
	amount := o.amount
	o.mu.Unlock()
	o.emit()

	// Retrying after a failure re-quotes the surviving amount.
	if amount.IsPositive() {
		o.SetAmount(ctx, amount)
	}
}

// History lists the connected wallet's swap records.
func (o *Orchestrator) History(ctx context.Context) ([]domain.Record, error) {
	return o.history.List(ctx, o.wallet.Address())
}

func (o *Orchestrator) appendHistory(ctx context.Context, wallet common.Address, record domain.Record) {
	if o.history == nil {
		return
	}
	if err := o.history.Append(ctx, wallet, record); err != nil {
		o.logger.Warn(ctx, "history append failed", "error", err)
	}
}

// toPhaseLocked transitions the phase, panicking on an illegal edge.
// Callers hold the mutex.
func (o *Orchestrator) toPhaseLocked(next domain.Phase) {
	if o.phase == next {
		return
	}
	if !domain.CanTransition(o.phase, next) {
		panic("illegal phase transition " + string(o.phase) + " -> " + string(next))
	}
	o.phase = next
	if next != domain.PhaseFailed {
		o.failure = ""
		o.message = ""
	}
}

func (o *Orchestrator) failLocked(reason domain.FailureReason) {
	o.failure = reason
	o.message = reason.Message()
	o.phase = domain.PhaseFailed
}

// emit snapshots the state and notifies listeners outside the lock.
func (o *Orchestrator) emit() {
	o.mu.Lock()
	event := Event{
		Phase:    o.phase,
		Approval: o.approvalTx,
		Swap:     o.swapTx,
		Failure:  o.failure,
		Message:  o.message,
	}
	listeners := make([]EventListener, len(o.listeners))
	copy(listeners, o.listeners)
	o.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}
