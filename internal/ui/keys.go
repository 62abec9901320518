package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the feed's key bindings.
type KeyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Refresh  key.Binding
	Retry    key.Binding
	Mute     key.Binding
	Like     key.Binding
	Location key.Binding
	Debug    key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next:     key.NewBinding(key.WithKeys("j", "down", "pgdown"), key.WithHelp("j/↓", "next")),
		Prev:     key.NewBinding(key.WithKeys("k", "up", "pgup"), key.WithHelp("k/↑", "prev")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Retry:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "retry")),
		Mute:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Like:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		Location: key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "nearby")),
		Debug:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp lists the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Like, k.Mute, k.Location, k.Refresh, k.Quit}
}
