package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	Up, Down, Left, Right             key.Binding
	PanUp, PanDown, PanLeft, PanRight key.Binding
	ZoomIn, ZoomOut, Fit              key.Binding

	Click    key.Binding
	Deselect key.Binding
	Mode     key.Binding
	Refresh  key.Binding
	Reload   key.Binding

	Polygon     key.Binding
	Rectangle   key.Binding
	Circle      key.Binding
	CloseShape  key.Binding
	DeleteShape key.Binding
	Edit        key.Binding
	Remove      key.Binding
	ClearAll    key.Binding

	PickStart key.Binding
	PickEnd   key.Binding
	Algorithm key.Binding
	FindPath  key.Binding
	ClearPath key.Binding

	Cancel key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap is the stock key layout.
var DefaultKeyMap = KeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "cursor up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "cursor down")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "cursor left")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "cursor right")),
	PanUp:    key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "pan up")),
	PanDown:  key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "pan down")),
	PanLeft:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "pan left")),
	PanRight: key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "pan right")),
	ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
	Fit:      key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "fit network")),

	Click:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "click")),
	Deselect: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "deselect")),
	Mode:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "route/edit")),
	Refresh:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "refresh")),
	Reload:   key.NewBinding(key.WithKeys("U"), key.WithHelp("U", "reload graph")),

	Polygon:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "polygon")),
	Rectangle:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rectangle")),
	Circle:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "circle")),
	CloseShape:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "close polygon")),
	DeleteShape: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete shape")),
	Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "add constraint")),
	Remove:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "remove constraint")),
	ClearAll:    key.NewBinding(key.WithKeys("C"), key.WithHelp("C C", "clear all")),

	PickStart: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "pick start")),
	PickEnd:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "pick end")),
	Algorithm: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "algorithm")),
	FindPath:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "find path")),
	ClearPath: key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "clear path")),

	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
}

func (k KeyMap) routeHelp() []key.Binding {
	return []key.Binding{k.Click, k.PickStart, k.PickEnd, k.Algorithm, k.FindPath, k.ClearPath, k.Mode, k.Help, k.Quit}
}

func (k KeyMap) editHelp() []key.Binding {
	return []key.Binding{k.Click, k.Deselect, k.Polygon, k.Rectangle, k.Circle, k.Edit, k.Remove, k.ClearAll, k.Mode, k.Help, k.Quit}
}

func (k KeyMap) navHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.PanUp, k.PanDown, k.PanLeft, k.PanRight,
		k.ZoomIn, k.ZoomOut, k.Fit, k.Refresh, k.Reload, k.DeleteShape, k.CloseShape, k.Cancel}
}
