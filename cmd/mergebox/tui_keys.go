package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Remove key.Binding
	Merge  key.Binding
	Clear  key.Binding
	Add    key.Binding
	Submit key.Binding
	Back   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Remove: key.NewBinding(key.WithKeys("d", "x", "delete"), key.WithHelp("d", "remove")),
		Merge:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "merge")),
		Clear:  key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear all")),
		Add:    key.NewBinding(key.WithKeys("a", "/", "tab"), key.WithHelp("a", "add files")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "upload")),
		Back:   key.NewBinding(key.WithKeys("esc", "tab"), key.WithHelp("esc", "back to list")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// setHasFiles mirrors the button state: list actions only work on a non-empty list
func (k *keyMap) setHasFiles(merge, clear bool) {
	k.Merge.SetEnabled(merge)
	k.Clear.SetEnabled(clear)
	k.Remove.SetEnabled(merge || clear)
	k.Up.SetEnabled(merge || clear)
	k.Down.SetEnabled(merge || clear)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Remove, k.Merge, k.Clear, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Remove},
		{k.Add, k.Submit, k.Back},
		{k.Merge, k.Clear},
		{k.Help, k.Quit},
	}
}
