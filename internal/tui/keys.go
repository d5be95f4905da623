package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start  key.Binding
	End    key.Binding
	Panic  key.Binding
	New    key.Binding
	NewCat key.Binding
	Done   key.Binding
	Pick   key.Binding
	PriUp  key.Binding
	PriDn  key.Binding
	Sync   key.Binding
	Export key.Binding
	Tab1   key.Binding
	Tab2   key.Binding
	Tab3   key.Binding
	Tab4   key.Binding
	Tab    key.Binding
	Help   key.Binding
	Enter  key.Binding
	Back   key.Binding
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start block"),
	),
	End: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "end block"),
	),
	Panic: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "panic"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new task"),
	),
	NewCat: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "new category"),
	),
	Done: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "toggle done"),
	),
	Pick: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "pick for block"),
	),
	PriUp: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "raise priority"),
	),
	PriDn: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "lower priority"),
	),
	Sync: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "sync now"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "focus"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "tasks"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "dashboard"),
	),
	Tab4: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "check-in"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.End, k.Pick, k.Panic, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.End, k.Pick, k.Panic},
		{k.New, k.NewCat, k.Done, k.PriUp, k.PriDn},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4},
		{k.Sync, k.Export, k.Up, k.Down, k.Enter, k.Back, k.Quit},
	}
}
