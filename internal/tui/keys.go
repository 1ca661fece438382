package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextMatch   key.Binding
	PrevMatch   key.Binding
	NextStage   key.Binding
	PrevStage   key.Binding
	MoreContext key.Binding
	LessContext key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	NextMatch:   key.NewBinding(key.WithKeys("n", "j", "down"), key.WithHelp("n", "next match")),
	PrevMatch:   key.NewBinding(key.WithKeys("p", "N", "k", "up"), key.WithHelp("p", "prev match")),
	NextStage:   key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next stage")),
	PrevStage:   key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev stage")),
	MoreContext: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "context")),
	LessContext: key.NewBinding(key.WithKeys("-", "_")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) short() []key.Binding {
	return []key.Binding{k.NextMatch, k.PrevMatch, k.NextStage, k.MoreContext, k.Help, k.Quit}
}

func (k keyMap) full() []key.Binding {
	return []key.Binding{k.NextMatch, k.PrevMatch, k.NextStage, k.PrevStage, k.MoreContext, k.Help, k.Quit}
}
