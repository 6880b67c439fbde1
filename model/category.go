package model

// Category groups zero or more commands under one shortcut key.
type Category struct {
	Entity `yaml:",inline"`
}

func NewCategory(id, title, description, shortcutKey string) Category {
	return Category{Entity: Entity{
		ID:          id,
		Type:        TypeCategory,
		Title:       title,
		Description: description,
		ShortcutKey: shortcutKey,
	}}
}
