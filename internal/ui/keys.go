package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Search      key.Binding
	ClearSearch key.Binding
	OnlyBids    key.Binding
	Refresh     key.Binding
	Auto        key.Binding
	Faster      key.Binding
	Slower      key.Binding
	Sort        key.Binding
	Help        key.Binding
	Debug       key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		ClearSearch: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		OnlyBids:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "only with bids")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Auto:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-refresh")),
		Faster:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "interval -10s")),
		Slower:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "interval +10s")),
		Sort:        key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7"), key.WithHelp("1-7", "sort column")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Debug:       key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.OnlyBids, k.Refresh, k.Auto, k.Sort, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Search, k.ClearSearch, k.OnlyBids, k.Sort},
		{k.Refresh, k.Auto, k.Faster, k.Slower},
		{k.Help, k.Debug, k.Quit},
	}
}
