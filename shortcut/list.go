package shortcut

import (
	"strings"

	"keybox/model"
)

// Item is one row of the launcher list: exactly one of Category and Command
// is set.
type Item struct {
	Category *model.Category
	Command  *model.Command
}

func CategoryItem(c model.Category) Item { return Item{Category: &c} }
func CommandItem(c model.Command) Item   { return Item{Command: &c} }

func (i Item) Entity() model.Entity {
	if i.Category != nil {
		return i.Category.Entity
	}
	if i.Command != nil {
		return i.Command.Entity
	}
	return model.Entity{}
}

func (i Item) IsCategory() bool { return i.Category != nil }

// ComposeList builds the visible list for a scope. An empty scope is the top
// level: all categories first, then the uncategorised commands. Inside a
// category only that category's commands are listed. A non-empty search keeps
// the items whose title or description contains it, ignoring case.
func ComposeList(commands []model.Command, categories []model.Category, scope, search string) []Item {
	var items []Item
	if model.IsTopLevel(scope) {
		for _, c := range categories {
			items = append(items, CategoryItem(c))
		}
	}
	for _, c := range commands {
		if c.InCategory(scope) {
			items = append(items, CommandItem(c))
		}
	}
	return FilterItems(items, search)
}

// FilterItems keeps the items matching search as a case-insensitive
// substring of title or description, preserving order.
func FilterItems(items []Item, search string) []Item {
	if search == "" {
		return items
	}
	needle := strings.ToLower(search)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		e := it.Entity()
		if strings.Contains(strings.ToLower(e.Title), needle) ||
			strings.Contains(strings.ToLower(e.Description), needle) {
			out = append(out, it)
		}
	}
	return out
}

// FindByKey returns the first visible item bound to key.
func FindByKey(items []Item, key string) (Item, bool) {
	key = model.NormalizeShortcutKey(key)
	for _, it := range items {
		if model.SameKey(it.Entity().ShortcutKey, key) {
			return it, true
		}
	}
	return Item{}, false
}
