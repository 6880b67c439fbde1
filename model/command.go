package model

import "strings"

// Command is a keystroke the launcher sends to the active application.
type Command struct {
	Entity      `yaml:",inline"`
	Modifiers   []Modifier `json:"modifiers" yaml:"modifiers"`
	CommandKeys string     `json:"commandKeys" yaml:"commandKeys"`
	Category    string     `json:"category" yaml:"category"`
}

// InCategory reports whether the command belongs to the given scope. An empty
// id means the top level.
func (c Command) InCategory(id string) bool {
	if IsTopLevel(id) {
		return IsTopLevel(c.Category)
	}
	return c.Category == id
}

// Label is the keystroke as shown in the list, e.g. "⌘⇧K".
func (c Command) Label() string {
	return Glyphs(c.Modifiers) + strings.ToUpper(c.CommandKeys)
}
