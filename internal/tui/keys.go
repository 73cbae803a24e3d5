package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding the stepper reacts to. Which subset is active
// depends on the screen; the help line only shows the active subset.
type keyMap struct {
	Next       key.Binding
	Prev       key.Binding
	Jump       key.Binding
	Last       key.Binding
	Autoplay   key.Binding
	Reset      key.Binding
	SwitchMode key.Binding
	Up         key.Binding
	Down       key.Binding
	Pick       key.Binding
	Submit     key.Binding
	Skip       key.Binding
	Another    key.Binding
	Back       key.Binding
	Quit       key.Binding

	scope screenScope
}

type screenScope int

const (
	scopeWelcome screenScope = iota
	scopeGuided
	scopeInteractive
	scopeCelebration
)

func newKeyMap() keyMap {
	return keyMap{
		Next:       key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/n", "next")),
		Prev:       key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←/p", "back")),
		Jump:       key.NewBinding(key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("0-12", "jump")),
		Last:       key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last stage")),
		Autoplay:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "autoplay")),
		Reset:      key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "reset")),
		SwitchMode: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch mode")),
		Up:         key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓", "choose factor")),
		Down:       key.NewBinding(key.WithKeys("down")),
		Pick:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "pick")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		Skip:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "explore without a name")),
		Another:    key.NewBinding(key.WithKeys("enter", "a"), key.WithHelp("enter", "try another gene")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// withScope returns a copy of the map whose help reflects scope. In the
// interactive screen "r" and "q" are typed into the search box, so only
// their control-key variants stay active.
func (k keyMap) withScope(scope screenScope) keyMap {
	k.scope = scope
	switch scope {
	case scopeInteractive:
		k.Reset = key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset"))
		k.Quit = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	case scopeWelcome:
		k.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit"))
	}
	return k
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	switch k.scope {
	case scopeWelcome:
		return []key.Binding{k.Submit, k.Skip, k.Quit}
	case scopeInteractive:
		return []key.Binding{k.Up, k.Pick, k.Reset, k.SwitchMode, k.Quit}
	case scopeCelebration:
		return []key.Binding{k.Another, k.Back, k.Quit}
	default:
		return []key.Binding{k.Next, k.Prev, k.Jump, k.Autoplay, k.Reset, k.SwitchMode, k.Quit}
	}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
