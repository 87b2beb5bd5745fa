package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up          key.Binding
	down        key.Binding
	enter       key.Binding
	play        key.Binding
	purchase    key.Binding
	download    key.Binding
	downloadAll key.Binding
	theme       key.Binding
	back        key.Binding
	yes         key.Binding
	no          key.Binding
	quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		play:        key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "play/pause")),
		purchase:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "purchase")),
		download:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		downloadAll: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "download all")),
		theme:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:          key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.play},
		{k.purchase, k.download, k.downloadAll},
		{k.theme, k.back, k.quit},
	}
}
