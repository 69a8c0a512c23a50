// Package ui provides the Bubble Tea TUI for the swap client.
package ui

import (
	"github.com/zk-web3/darknodedex-sub000/business/swap/app"
	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
)

// Message types for TUI updates

// StateMsg carries one orchestrator state change.
type StateMsg struct {
	Event app.Event
}

// HistoryMsg carries the loaded swap history.
type HistoryMsg struct {
	Records []domain.Record
	Err     error
}

// ErrorMsg is sent when an action fails outside the orchestrator.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for spinners and quote age display.
type TickMsg struct{}
