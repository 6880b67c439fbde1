// Package shortcut holds the launcher's pure logic: shortcut clash checks,
// id generation, list composition and the two-mode key interpreter.
package shortcut

import (
	"fmt"

	"keybox/model"
)

// Candidate is the item being created or edited. ID is empty on create.
type Candidate struct {
	ID          string
	Type        model.Type
	ShortcutKey string
	Category    string
}

// Clash is the outcome of CheckClash. With is the entity already holding the
// key when HasClash is set.
type Clash struct {
	HasClash bool
	Message  string
	With     *model.Entity
}

// CheckClash reports whether the candidate's shortcut key is already taken in
// its scope. Categories share the top-level key space with uncategorised
// commands; every category has its own key space for its commands.
func CheckClash(c Candidate, commands []model.Command, categories []model.Category) Clash {
	key := model.NormalizeShortcutKey(c.ShortcutKey)
	other := func(e model.Entity) bool {
		return (c.ID == "" || e.ID != c.ID) && model.SameKey(e.ShortcutKey, key)
	}

	if c.Type == model.TypeCategory || (c.Type == model.TypeCommand && model.IsTopLevel(c.Category)) {
		for i := range categories {
			if other(categories[i].Entity) {
				return clash(categories[i].Entity, fmt.Sprintf("Shortcut key %q is already used by category %q", key, categories[i].Title))
			}
		}
		for i := range commands {
			if model.IsTopLevel(commands[i].Category) && other(commands[i].Entity) {
				msg := fmt.Sprintf("Shortcut key %q is already used by command %q", key, commands[i].Title)
				if c.Type == model.TypeCommand {
					msg += " without a category"
				}
				return clash(commands[i].Entity, msg)
			}
		}
		return Clash{}
	}

	if c.Type == model.TypeCommand {
		for i := range commands {
			if commands[i].Category == c.Category && other(commands[i].Entity) {
				return clash(commands[i].Entity, fmt.Sprintf("Shortcut key %q is already used by command %q in the same category", key, commands[i].Title))
			}
		}
	}
	return Clash{}
}

func clash(e model.Entity, msg string) Clash {
	return Clash{HasClash: true, Message: msg, With: &e}
}
