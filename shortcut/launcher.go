package shortcut

import (
	"unicode"
	"unicode/utf8"
)

// Mode decides what a keystroke in the launcher's input means.
type Mode int

const (
	// ActionMode treats each keystroke as a shortcut key.
	ActionMode Mode = iota
	// SearchMode accumulates keystrokes into a text filter.
	SearchMode
)

func (m Mode) String() string {
	switch m {
	case ActionMode:
		return "action"
	case SearchMode:
		return "search"
	}
	return "unknown"
}

// Policy holds the launcher choices that are configuration, not contract.
type Policy struct {
	// ClearSearchOnAction empties the search text when toggling back into
	// ActionMode.
	ClearSearchOnAction bool
	// StartInSearch opens the launcher (and every scope) in SearchMode.
	StartInSearch bool
}

func DefaultPolicy() Policy {
	return Policy{ClearSearchOnAction: true}
}

// Launcher is the input state of the list view. Scope is empty at the top
// level. Transitions return a new value and never mutate the receiver.
type Launcher struct {
	Mode   Mode
	Search string
	Scope  string
	Policy Policy
}

func NewLauncher(p Policy) Launcher {
	l := Launcher{Policy: p}
	if p.StartInSearch {
		l.Mode = SearchMode
	}
	return l
}

type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectEnterCategory
	EffectRunCommand
)

// Effect is what the host should do after a transition.
type Effect struct {
	Kind EffectKind
	Item Item
}

// Toggle switches between ActionMode and SearchMode.
func (l Launcher) Toggle() Launcher {
	if l.Mode == SearchMode {
		l.Mode = ActionMode
		if l.Policy.ClearSearchOnAction {
			l.Search = ""
		}
		return l
	}
	l.Mode = SearchMode
	return l
}

// Type handles one typed character. In ActionMode it is looked up as a
// shortcut key among visible; in SearchMode it extends the search text.
func (l Launcher) Type(r rune, visible []Item) (Launcher, Effect) {
	if !unicode.IsPrint(r) {
		return l, Effect{}
	}
	if l.Mode == SearchMode {
		l.Search += string(r)
		return l, Effect{}
	}
	it, ok := FindByKey(visible, string(r))
	if !ok {
		return l, Effect{}
	}
	return l.Activate(it)
}

// Activate is what choosing an item does: categories are entered, commands
// are run.
func (l Launcher) Activate(it Item) (Launcher, Effect) {
	switch {
	case it.Category != nil:
		return l.Enter(it.Category.ID), Effect{Kind: EffectEnterCategory, Item: it}
	case it.Command != nil:
		return l, Effect{Kind: EffectRunCommand, Item: it}
	}
	return l, Effect{}
}

// Backspace drops the last search character. It does nothing in ActionMode.
func (l Launcher) Backspace() Launcher {
	if l.Mode != SearchMode || l.Search == "" {
		return l
	}
	_, size := utf8.DecodeLastRuneInString(l.Search)
	l.Search = l.Search[:len(l.Search)-size]
	return l
}

// Enter opens a category scope with a fresh input state.
func (l Launcher) Enter(categoryID string) Launcher {
	next := NewLauncher(l.Policy)
	next.Scope = categoryID
	return next
}

// Leave returns to the top level. ok is false when already there.
func (l Launcher) Leave() (Launcher, bool) {
	if l.Scope == "" {
		return l, false
	}
	return NewLauncher(l.Policy), true
}

// Filter is the search text the list should be narrowed by.
func (l Launcher) Filter() string {
	return l.Search
}

func (l Launcher) Placeholder() string {
	if l.Mode == SearchMode {
		return "Search for command or press tab to toggle search mode"
	}
	return "Press key to run command or tab to search"
}
