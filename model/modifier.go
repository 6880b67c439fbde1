package model

import (
	"fmt"
	"sort"
	"strings"
)

type Modifier string

const (
	ModCommand Modifier = "command"
	ModControl Modifier = "control"
	ModOption  Modifier = "option"
	ModShift   Modifier = "shift"
)

// AllModifiers is the canonical display and dispatch order.
var AllModifiers = []Modifier{ModCommand, ModControl, ModOption, ModShift}

var glyphs = map[Modifier]string{
	ModCommand: "⌘",
	ModControl: "⌃",
	ModOption:  "⌥",
	ModShift:   "⇧",
}

var aliases = map[string]Modifier{
	"command": ModCommand,
	"cmd":     ModCommand,
	"control": ModControl,
	"ctrl":    ModControl,
	"option":  ModOption,
	"opt":     ModOption,
	"alt":     ModOption,
	"shift":   ModShift,
}

func (m Modifier) Valid() bool {
	_, ok := glyphs[m]
	return ok
}

func (m Modifier) Glyph() string {
	return glyphs[m]
}

func order(m Modifier) int {
	for i, o := range AllModifiers {
		if o == m {
			return i
		}
	}
	return len(AllModifiers)
}

// SortModifiers returns the set without duplicates in canonical order.
func SortModifiers(mods []Modifier) []Modifier {
	seen := make(map[Modifier]bool, len(mods))
	out := make([]Modifier, 0, len(mods))
	for _, m := range mods {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return order(out[i]) < order(out[j]) })
	return out
}

// HasModifier reports whether m is in the set.
func HasModifier(mods []Modifier, m Modifier) bool {
	for _, x := range mods {
		if x == m {
			return true
		}
	}
	return false
}

// Glyphs renders the set as macOS modifier symbols.
func Glyphs(mods []Modifier) string {
	var b strings.Builder
	for _, m := range SortModifiers(mods) {
		b.WriteString(m.Glyph())
	}
	return b.String()
}

// ParseModifiers reads a comma or space separated list such as "cmd, shift".
func ParseModifiers(s string) ([]Modifier, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '+'
	})
	var mods []Modifier
	for _, f := range fields {
		m, ok := aliases[strings.ToLower(f)]
		if !ok {
			return nil, fmt.Errorf("unknown modifier %q", f)
		}
		mods = append(mods, m)
	}
	return SortModifiers(mods), nil
}

// FormatModifiers is the inverse of ParseModifiers.
func FormatModifiers(mods []Modifier) string {
	parts := make([]string, 0, len(mods))
	for _, m := range SortModifiers(mods) {
		parts = append(parts, string(m))
	}
	return strings.Join(parts, ", ")
}
