package catalog

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"keybox/model"
	"keybox/shortcut"
)

var ErrNoCommand = errors.New("key path does not select a command")

// Resolve walks a key path the way the launcher does in action mode: a
// category key opens its scope, a command key selects the command.
func (s Snapshot) Resolve(keys []string) (model.Command, error) {
	l := shortcut.NewLauncher(shortcut.DefaultPolicy())
	for i, k := range keys {
		r, _ := utf8.DecodeRuneInString(model.NormalizeShortcutKey(k))
		next, eff := l.Type(r, s.Items(l.Scope, ""))
		switch eff.Kind {
		case shortcut.EffectNone:
			return model.Command{}, fmt.Errorf("%w: nothing bound to %q", ErrNoCommand, k)
		case shortcut.EffectRunCommand:
			if i != len(keys)-1 {
				return model.Command{}, fmt.Errorf("%w: %q is a command, extra keys follow", ErrNoCommand, k)
			}
			return *eff.Item.Command, nil
		}
		l = next
	}
	return model.Command{}, fmt.Errorf("%w: path ends in a category", ErrNoCommand)
}
