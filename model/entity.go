package model

import (
	"strings"
	"unicode/utf8"
)

// NoCategory marks a command that lives at the top level.
const NoCategory = "no-category"

type Type string

const (
	TypeCommand  Type = "command"
	TypeCategory Type = "category"
)

// Entity is the shape shared by commands and categories.
type Entity struct {
	ID          string `json:"id" yaml:"id"`
	Type        Type   `json:"type" yaml:"type"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description,omitempty"`
	ShortcutKey string `json:"shortcutKey" yaml:"shortcutKey"`
}

// NormalizeShortcutKey keeps the last character typed and upper-cases it, the
// way the shortcut field behaves while the user is typing.
func NormalizeShortcutKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return strings.ToUpper(string(r))
}

// SameKey reports whether two shortcut keys select the same entity.
func SameKey(a, b string) bool {
	return a != "" && strings.ToUpper(a) == strings.ToUpper(b)
}

// IsTopLevel reports whether a category reference points at the top level.
func IsTopLevel(category string) bool {
	return category == "" || category == NoCategory
}
