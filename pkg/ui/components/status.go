package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
)

// StatusComponent renders the swap lifecycle: current phase, pending
// transactions and the failure banner.
type StatusComponent struct {
	phase    domain.Phase
	approval domain.TxStatus
	swap     domain.TxStatus
	failure  domain.FailureReason
	message  string
	since    time.Time
}

// NewStatusComponent creates the status line.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{phase: domain.PhaseIdle, since: time.Now()}
}

// Set updates the displayed state.
func (s *StatusComponent) Set(phase domain.Phase, approval, swap domain.TxStatus, failure domain.FailureReason, message string) {
	if phase != s.phase {
		s.since = time.Now()
	}
	s.phase = phase
	s.approval = approval
	s.swap = swap
	s.failure = failure
	s.message = message
}

// Phase returns the phase currently displayed.
func (s *StatusComponent) Phase() domain.Phase {
	return s.phase
}

// View renders the status panel.
func (s *StatusComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	pendingStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	successStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	failStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("STATUS"))
	sb.WriteString("\n\n")

	var phaseStyle lipgloss.Style
	var hint string
	switch s.phase {
	case domain.PhaseIdle:
		phaseStyle = mutedStyle
		hint = "enter an amount"
	case domain.PhaseQuoting:
		phaseStyle = pendingStyle
		hint = spinner(s.since) + " quoting"
	case domain.PhaseReadyToApprove:
		phaseStyle = pendingStyle
		hint = "press enter to approve"
	case domain.PhaseReadyToSwap:
		phaseStyle = successStyle
		hint = "press enter to swap"
	case domain.PhaseSubmitting:
		phaseStyle = pendingStyle
		hint = spinner(s.since) + " waiting for signature and submission"
	case domain.PhaseConfirming:
		phaseStyle = pendingStyle
		hint = spinner(s.since) + " waiting for confirmation"
	case domain.PhaseSucceeded:
		phaseStyle = successStyle
		hint = "swap confirmed, ctrl+r for another"
	case domain.PhaseFailed:
		phaseStyle = failStyle
		hint = "ctrl+r to retry"
	default:
		phaseStyle = mutedStyle
	}

	sb.WriteString(fmt.Sprintf("  %s %s\n",
		phaseStyle.Render(strings.ToUpper(string(s.phase))),
		mutedStyle.Render(hint),
	))

	if line := txLine(s.approval, "approval"); line != "" {
		sb.WriteString("  " + line + "\n")
	}
	if line := txLine(s.swap, "swap"); line != "" {
		sb.WriteString("  " + line + "\n")
	}

	if s.phase == domain.PhaseFailed && s.message != "" {
		sb.WriteString("\n")
		sb.WriteString(failStyle.Render("  ✗ " + s.message))
		sb.WriteString("\n")
	}

	return sb.String()
}

func txLine(tx domain.TxStatus, label string) string {
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	pendingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	switch tx.State {
	case domain.TxStatePending:
		return pendingStyle.Render("◌ "+label+" pending") + " " + mutedStyle.Render(shortHash(tx.Hash.Hex()))
	case domain.TxStateSuccess:
		return successStyle.Render("✓ "+label+" confirmed") + " " + mutedStyle.Render(shortHash(tx.Hash.Hex()))
	case domain.TxStateFailed:
		return failStyle.Render("✗ " + label + " failed")
	default:
		return ""
	}
}

func shortHash(hex string) string {
	if len(hex) <= 14 {
		return hex
	}
	return hex[:10] + "…" + hex[len(hex)-4:]
}

func spinner(since time.Time) string {
	frames := []string{"◐", "◓", "◑", "◒"}
	idx := int(time.Since(since).Milliseconds()/200) % len(frames)
	return frames[idx]
}
