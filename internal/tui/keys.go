package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Generate      key.Binding
	Summarize     key.Binding
	Lock          key.Binding
	Export        key.Binding
	ExportMD      key.Binding
	Clear         key.Binding
	Incognito     key.Binding
	Notifications key.Binding
	Focus         key.Binding
	Quit          key.Binding
	ForceQuit     key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding

	Save   key.Binding
	Delete key.Binding
	Cancel key.Binding
	Submit key.Binding
	Yes    key.Binding
	No     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Generate:      key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "generate")),
		Summarize:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "summarize")),
		Lock:          key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "lock")),
		Export:        key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "export html")),
		ExportMD:      key.NewBinding(key.WithKeys("alt+e"), key.WithHelp("alt+e", "export md")),
		Clear:         key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "clear")),
		Incognito:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "incognito")),
		Notifications: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "notices")),
		Focus:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		Quit:          key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:     key.NewBinding(key.WithKeys("ctrl+c")),
		ScrollUp:      key.NewBinding(key.WithKeys("up", "k")),
		ScrollDown:    key.NewBinding(key.WithKeys("down", "j")),

		Save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Delete: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "delete")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "unlock")),
		Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		No:     key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
	}
}

// sidebarHelp is the shortcut list shown under the prompt.
func (k keyMap) sidebarHelp() []key.Binding {
	return []key.Binding{k.Generate, k.Summarize, k.Lock, k.Export, k.ExportMD, k.Clear, k.Incognito, k.Notifications, k.Focus, k.Quit}
}
