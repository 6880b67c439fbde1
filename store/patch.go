package store

import "keybox/model"

// CommandPatch lists the fields to change; nil fields are kept.
type CommandPatch struct {
	Title       *string
	Description *string
	ShortcutKey *string
	Modifiers   []model.Modifier
	CommandKeys *string
	Category    *string
}

func (p CommandPatch) Apply(c model.Command) model.Command {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.ShortcutKey != nil {
		c.ShortcutKey = *p.ShortcutKey
	}
	if p.Modifiers != nil {
		c.Modifiers = append([]model.Modifier(nil), p.Modifiers...)
	}
	if p.CommandKeys != nil {
		c.CommandKeys = *p.CommandKeys
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	return c
}

// CategoryPatch lists the fields to change; nil fields are kept.
type CategoryPatch struct {
	Title       *string
	Description *string
	ShortcutKey *string
}

func (p CategoryPatch) Apply(c model.Category) model.Category {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.ShortcutKey != nil {
		c.ShortcutKey = *p.ShortcutKey
	}
	return c
}
