// Package ui provides the Bubble Tea TUI for the swap client.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/zk-web3/darknodedex-sub000/business/swap/app"
	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
	"github.com/zk-web3/darknodedex-sub000/pkg/ui/components"
)

// Deps are the services the TUI renders and drives.
type Deps struct {
	Orchestrator *app.Orchestrator
	Whitelist    *domain.Whitelist
	Prices       app.ReferencePrices
	Address      string
}

// Model is the main Bubble Tea model for the swap TUI.
type Model struct {
	deps Deps
	keys KeyMap

	input   textinput.Model
	quote   *components.QuoteComponent
	status  *components.StatusComponent
	history *components.HistoryComponent

	pairs       []domain.Pair
	pairIdx     int
	showHistory bool
	inputErr    string
	width       int
	quitting    bool
}

// New creates the TUI model.
func New(deps Deps) Model {
	input := textinput.New()
	input.Placeholder = "0.0"
	input.CharLimit = 32
	input.Width = 24
	input.Focus()

	return Model{
		deps:    deps,
		keys:    DefaultKeyMap(),
		input:   input,
		quote:   components.NewQuoteComponent(),
		status:  components.NewStatusComponent(),
		history: components.NewHistoryComponent(10),
		pairs:   deps.Whitelist.Pairs(),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	m.deps.Orchestrator.SetPair(context.Background(), m.currentPair())
	return tea.Batch(textinput.Blink, tickCmd())
}

// slippageStepBps is how far one keypress moves the slippage tolerance.
const slippageStepBps = 10

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m Model) currentPair() domain.Pair {
	return m.pairs[m.pairIdx]
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextPair):
			return m.cyclePair(1), nil

		case key.Matches(msg, m.keys.PrevPair):
			return m.cyclePair(-1), nil

		case key.Matches(msg, m.keys.Confirm):
			return m, m.confirmCmd()

		case key.Matches(msg, m.keys.Reset):
			m.deps.Orchestrator.Reset(context.Background())
			return m, nil

		case key.Matches(msg, m.keys.SlippageUp):
			m.deps.Orchestrator.SetSlippage(m.deps.Orchestrator.SlippageBps() + slippageStepBps)
			return m, nil

		case key.Matches(msg, m.keys.SlippageDown):
			m.deps.Orchestrator.SetSlippage(m.deps.Orchestrator.SlippageBps() - slippageStepBps)
			return m, nil

		case key.Matches(msg, m.keys.History):
			m.showHistory = !m.showHistory
			if m.showHistory {
				return m, m.loadHistoryCmd()
			}
			return m, nil
		}

		if m.showHistory {
			switch msg.String() {
			case "up", "k":
				m.history.ScrollUp()
				return m, nil
			case "down", "j":
				m.history.ScrollDown()
				return m, nil
			}
		}

		// Everything else edits the amount.
		var cmd tea.Cmd
		before := m.input.Value()
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != before {
			m.applyAmount()
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case TickMsg:
		m.syncFromOrchestrator()
		return m, tickCmd()

	case StateMsg:
		m.status.Set(msg.Event.Phase, msg.Event.Approval, msg.Event.Swap, msg.Event.Failure, msg.Event.Message)
		m.syncFromOrchestrator()
		if msg.Event.Phase == domain.PhaseSucceeded {
			m.input.SetValue("")
			if m.showHistory {
				return m, m.loadHistoryCmd()
			}
		}
		return m, nil

	case HistoryMsg:
		if msg.Err == nil {
			m.history.Set(msg.Records)
		}
		return m, nil

	case ErrorMsg:
		m.inputErr = msg.Error.Error()
		return m, nil
	}

	return m, nil
}

// cyclePair moves the pair selection and re-quotes any typed amount.
func (m Model) cyclePair(delta int) Model {
	if m.status.Phase().Busy() {
		return m
	}
	m.pairIdx = (m.pairIdx + delta + len(m.pairs)) % len(m.pairs)
	m.deps.Orchestrator.SetPair(context.Background(), m.currentPair())
	m.applyAmount()
	return m
}

// applyAmount parses the typed value and pushes it to the orchestrator.
// A blank or invalid value clears the quote.
func (m *Model) applyAmount() {
	m.inputErr = ""
	value := strings.TrimSpace(m.input.Value())
	pair := m.currentPair()

	if value == "" {
		m.deps.Orchestrator.SetAmount(context.Background(), asset.Zero(pair.Base))
		return
	}

	amount, err := asset.ParseString(pair.Base, value)
	if err != nil {
		m.inputErr = fmt.Sprintf("invalid amount for %s", pair.Base.Symbol())
		m.deps.Orchestrator.SetAmount(context.Background(), asset.Zero(pair.Base))
		return
	}
	m.deps.Orchestrator.SetAmount(context.Background(), amount)
}

// confirmCmd runs the action the current phase allows, off the UI loop.
func (m Model) confirmCmd() tea.Cmd {
	orch := m.deps.Orchestrator
	switch orch.Phase() {
	case domain.PhaseReadyToApprove:
		return func() tea.Msg {
			// Failures surface through orchestrator events.
			_ = orch.Approve(context.Background())
			return nil
		}
	case domain.PhaseReadyToSwap:
		return func() tea.Msg {
			_ = orch.Swap(context.Background())
			return nil
		}
	default:
		return nil
	}
}

func (m Model) loadHistoryCmd() tea.Cmd {
	orch := m.deps.Orchestrator
	return func() tea.Msg {
		records, err := orch.History(context.Background())
		return HistoryMsg{Records: records, Err: err}
	}
}

// syncFromOrchestrator refreshes the quote panel from the standing
// quote. All numbers come from the domain; the view only formats.
func (m *Model) syncFromOrchestrator() {
	phase := m.deps.Orchestrator.Phase()
	m.quote.SetLoading(phase == domain.PhaseQuoting)

	quote := m.deps.Orchestrator.Quote()
	if quote == nil {
		if phase != domain.PhaseQuoting {
			m.quote.SetQuote(nil)
		}
		return
	}

	pair := m.currentPair()
	view := &components.QuoteView{
		Pair:        pair.String(),
		AmountIn:    quote.Request.AmountIn.ToDecimalString() + " " + pair.Base.Symbol(),
		AmountOut:   quote.AmountOut.ToDecimalString() + " " + pair.Quote.Symbol(),
		MinReceived: domain.MinimumOut(quote.AmountOut, m.deps.Orchestrator.SlippageBps()).ToDecimalString() + " " + pair.Quote.Symbol(),
		FeeTier:     feeTierPercent(quote.FeeTier),
		GasEstimate: quote.GasEstimate,
		NoLiquidity: quote.NoLiquidity,
	}

	price := quote.ExecutionPrice()
	view.ExecPrice = fmt.Sprintf("1 %s = %s %s",
		pair.Base.Symbol(), price.StringFixed(4), pair.Quote.Symbol())

	if reference, ok := m.deps.Prices.MidPrice(pair); ok {
		if impact, known := quote.PriceImpactBps(reference); known {
			view.ImpactBps = impact.StringFixed(1)
			view.ImpactKnown = true
		}
	}

	m.quote.SetQuote(view)
}

func feeTierPercent(feeTier int) string {
	pct := decimal.NewFromInt(int64(feeTier)).Div(decimal.NewFromInt(10000))
	return pct.StringFixed(2) + "%"
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" ⇄ DEX Swap "))
	b.WriteString("\n\n")

	// Pair selector
	var pairParts []string
	for i, p := range m.pairs {
		label := p.String()
		if i == m.pairIdx {
			pairParts = append(pairParts, HeaderStyle.Render("["+label+"]"))
		} else {
			pairParts = append(pairParts, LabelStyle.Render(label))
		}
	}
	b.WriteString("  " + strings.Join(pairParts, "  "))
	b.WriteString("\n\n")

	// Amount input
	pair := m.currentPair()
	b.WriteString(fmt.Sprintf("  %s %s %s\n",
		LabelStyle.Render("Sell"),
		m.input.View(),
		ValueStyle.Render(pair.Base.Symbol()),
	))
	if m.inputErr != "" {
		b.WriteString("  " + NegativeStyle.Render(m.inputErr) + "\n")
	}
	b.WriteString("\n")

	// Panels: quote + status, optionally history
	left := BoxStyle.Render(m.quote.View())
	right := BoxStyle.Render(m.status.View())
	if m.width > 90 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(left)
		b.WriteString("\n")
		b.WriteString(right)
	}
	b.WriteString("\n")

	if m.showHistory {
		b.WriteString(BoxStyle.Render(m.history.View()))
		b.WriteString("\n")
	}

	// Footer
	b.WriteString("\n")
	if m.deps.Address != "" {
		b.WriteString(LabelStyle.Render("  " + m.deps.Address))
		b.WriteString("\n")
	}
	b.WriteString(HelpStyle.Render(fmt.Sprintf(
		"enter: approve/swap • tab: pair • [/]: slippage (%d bps) • ctrl+h: history • ctrl+r: reset • esc: quit",
		m.deps.Orchestrator.SlippageBps(),
	)))

	return b.String()
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// Run starts the Bubble Tea program and wires orchestrator events into
// it.
func Run(deps Deps) error {
	Program = tea.NewProgram(New(deps), tea.WithAltScreen())

	deps.Orchestrator.Subscribe(func(event app.Event) {
		Send(StateMsg{Event: event})
	})

	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
