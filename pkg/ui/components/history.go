package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
)

// HistoryComponent renders past swaps, newest first, with scrolling.
type HistoryComponent struct {
	records []domain.Record
	offset  int
	visible int
}

// NewHistoryComponent creates the history list showing up to visible
// rows at a time.
func NewHistoryComponent(visible int) *HistoryComponent {
	if visible <= 0 {
		visible = 10
	}
	return &HistoryComponent{visible: visible}
}

// Set replaces the record list and resets scrolling.
func (h *HistoryComponent) Set(records []domain.Record) {
	h.records = records
	h.offset = 0
}

// ScrollUp moves the window toward newer records.
func (h *HistoryComponent) ScrollUp() {
	if h.offset > 0 {
		h.offset--
	}
}

// ScrollDown moves the window toward older records.
func (h *HistoryComponent) ScrollDown() {
	if h.offset < len(h.records)-h.visible {
		h.offset++
	}
}

// View renders the history list.
func (h *HistoryComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("HISTORY"))
	if len(h.records) > h.visible {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("  (%d-%d of %d, ↑↓ scroll)",
			h.offset+1, min(h.offset+h.visible, len(h.records)), len(h.records))))
	}
	sb.WriteString("\n\n")

	if len(h.records) == 0 {
		sb.WriteString(mutedStyle.Render("  No swaps yet"))
		return sb.String()
	}

	end := min(h.offset+h.visible, len(h.records))
	for _, r := range h.records[h.offset:end] {
		var icon string
		var style lipgloss.Style
		if r.Status == domain.TxStateSuccess {
			icon = "✓"
			style = successStyle
		} else {
			icon = "✗"
			style = failStyle
		}

		line := fmt.Sprintf("%s %s  %s %s → %s %s",
			icon,
			r.Timestamp.Local().Format("Jan 02 15:04"),
			r.FromAmount, r.FromSymbol,
			r.ToAmount, r.ToSymbol,
		)
		sb.WriteString("  " + style.Render(line))
		if r.Reason != "" {
			sb.WriteString(mutedStyle.Render("  (" + r.Reason + ")"))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
