// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// QuoteView holds display-ready quote data. All values are formatted by
// the caller from domain types; the component only renders.
type QuoteView struct {
	Pair        string
	AmountIn    string
	AmountOut   string
	ExecPrice   string
	MinReceived string
	ImpactBps   string
	ImpactKnown bool
	FeeTier     string
	GasEstimate uint64
	NoLiquidity bool
}

// QuoteComponent renders the current quote panel.
type QuoteComponent struct {
	view    *QuoteView
	loading bool
}

// NewQuoteComponent creates the quote panel.
func NewQuoteComponent() *QuoteComponent {
	return &QuoteComponent{}
}

// SetQuote replaces the displayed quote. nil clears the panel.
func (q *QuoteComponent) SetQuote(view *QuoteView) {
	q.view = view
	q.loading = false
}

// SetLoading marks the panel as waiting for a fresh quote.
func (q *QuoteComponent) SetLoading(loading bool) {
	q.loading = loading
}

// View renders the quote panel.
func (q *QuoteComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB"))
	dangerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("QUOTE"))
	sb.WriteString("\n\n")

	if q.loading {
		sb.WriteString(labelStyle.Render("  Fetching quote..."))
		return sb.String()
	}
	if q.view == nil {
		sb.WriteString(labelStyle.Render("  Enter an amount to get a quote"))
		return sb.String()
	}
	if q.view.NoLiquidity {
		sb.WriteString(dangerStyle.Render("  No liquidity for this trade"))
		return sb.String()
	}

	row := func(label, value string) {
		sb.WriteString(fmt.Sprintf("  %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-14s", label)),
			valueStyle.Render(value),
		))
	}

	row("You pay", q.view.AmountIn)
	row("You receive", q.view.AmountOut)
	row("Price", q.view.ExecPrice)
	row("Min received", q.view.MinReceived)
	if q.view.ImpactKnown {
		impact := q.view.ImpactBps + " bps"
		style := valueStyle
		if strings.HasPrefix(q.view.ImpactBps, "-") {
			style = warnStyle
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-14s", "Price impact")),
			style.Render(impact),
		))
	}
	row("Fee tier", q.view.FeeTier)
	if q.view.GasEstimate > 0 {
		row("Gas estimate", fmt.Sprintf("%d", q.view.GasEstimate))
	}

	return sb.String()
}
