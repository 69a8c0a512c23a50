// Package ui provides the Bubble Tea TUI for the swap client.
package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit         key.Binding
	NextPair     key.Binding
	PrevPair     key.Binding
	Confirm      key.Binding
	Reset        key.Binding
	History      key.Binding
	SlippageUp   key.Binding
	SlippageDown key.Binding
	Help         key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		NextPair: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pair"),
		),
		PrevPair: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev pair"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "approve/swap"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reset"),
		),
		History: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "history"),
		),
		SlippageUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "more slippage"),
		),
		SlippageDown: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "less slippage"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+_"),
			key.WithHelp("ctrl+/", "help"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.NextPair, k.History, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Confirm, k.NextPair, k.PrevPair},
		{k.SlippageUp, k.SlippageDown},
		{k.Reset, k.History, k.Quit},
	}
}
