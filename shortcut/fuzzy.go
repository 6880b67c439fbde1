package shortcut

import "github.com/sahilm/fuzzy"

type itemSource []Item

func (s itemSource) String(i int) string {
	e := s[i].Entity()
	return e.Title + " " + e.Description
}

func (s itemSource) Len() int { return len(s) }

// FuzzyFilter ranks items by fuzzy match of search against title and
// description. Ties keep list order.
func FuzzyFilter(items []Item, search string) []Item {
	if search == "" {
		return items
	}
	matches := fuzzy.FindFrom(search, itemSource(items))
	out := make([]Item, len(matches))
	for i, m := range matches {
		out[i] = items[m.Index]
	}
	return out
}
