package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"keybox/catalog"
	"keybox/model"
	"keybox/store"
)

type field struct {
	name  string
	label string
	input textinput.Model
	// picker fields cycle through categories with left/right instead of
	// taking text.
	picker bool
}

type form struct {
	kind      model.Type
	editingID string
	fields    []field
	focus     int
	errs      map[string]string

	categories  []model.Category
	categoryIdx int // 0 is "No category"
}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	return in
}

func newCommandForm(cmd *model.Command, scope string, categories []model.Category) *form {
	f := &form{kind: model.TypeCommand, errs: map[string]string{}, categories: categories}

	key := newInput("e.g. P")
	key.CharLimit = 2
	f.fields = []field{
		{name: catalog.FieldTitle, label: "Title", input: newInput("Title shown in the command list")},
		{name: "description", label: "Description", input: newInput("Helpful information about your command (optional)")},
		{name: catalog.FieldShortcutKey, label: "Shortcut Key", input: key},
		{name: catalog.FieldModifiers, label: "Modifiers", input: newInput("command, control, option, shift")},
		{name: catalog.FieldCommandKeys, label: "Keys", input: newInput("Key/s run with the modifiers, e.g. abc")},
		{name: catalog.FieldCategory, label: "Category", picker: true},
	}

	category := scope
	if cmd != nil {
		f.editingID = cmd.ID
		f.fields[0].input.SetValue(cmd.Title)
		f.fields[1].input.SetValue(cmd.Description)
		f.fields[2].input.SetValue(cmd.ShortcutKey)
		f.fields[3].input.SetValue(model.FormatModifiers(cmd.Modifiers))
		f.fields[4].input.SetValue(cmd.CommandKeys)
		category = cmd.Category
	}
	for i, c := range categories {
		if c.ID == category {
			f.categoryIdx = i + 1
		}
	}
	f.fields[0].input.Focus()
	return f
}

func newCategoryForm(cat *model.Category) *form {
	f := &form{kind: model.TypeCategory, errs: map[string]string{}}

	key := newInput("e.g. P")
	key.CharLimit = 2
	f.fields = []field{
		{name: catalog.FieldTitle, label: "Category Title", input: newInput("Enter category title")},
		{name: "description", label: "Description", input: newInput("Optional description for this category")},
		{name: catalog.FieldShortcutKey, label: "Shortcut Key", input: key},
	}
	if cat != nil {
		f.editingID = cat.ID
		f.fields[0].input.SetValue(cat.Title)
		f.fields[1].input.SetValue(cat.Description)
		f.fields[2].input.SetValue(cat.ShortcutKey)
	}
	f.fields[0].input.Focus()
	return f
}

func (f *form) title() string {
	verb := "Create"
	if f.editingID != "" {
		verb = "Edit"
	}
	if f.kind == model.TypeCategory {
		return verb + " Category"
	}
	return verb + " Command"
}

func (f *form) value(name string) string {
	for _, fl := range f.fields {
		if fl.name == name {
			return strings.TrimSpace(fl.input.Value())
		}
	}
	return ""
}

func (f *form) category() string {
	if f.categoryIdx == 0 || f.categoryIdx > len(f.categories) {
		return model.NoCategory
	}
	return f.categories[f.categoryIdx-1].ID
}

func (f *form) categoryLabel() string {
	if f.categoryIdx == 0 || f.categoryIdx > len(f.categories) {
		return "No category"
	}
	c := f.categories[f.categoryIdx-1]
	return fmt.Sprintf("%s [%s]", c.Title, c.ShortcutKey)
}

func (f *form) move(delta int) tea.Cmd {
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
	if f.fields[f.focus].picker {
		return nil
	}
	return f.fields[f.focus].input.Focus()
}

func (f *form) cycleCategory(delta int) {
	n := len(f.categories) + 1
	f.categoryIdx = (f.categoryIdx + delta + n) % n
}

// update feeds a key to the focused field. The shortcut key field keeps only
// the last character typed, upper-cased.
func (f *form) update(msg tea.KeyMsg) tea.Cmd {
	fl := &f.fields[f.focus]
	if fl.picker {
		switch msg.String() {
		case "left":
			f.cycleCategory(-1)
		case "right", " ":
			f.cycleCategory(1)
		}
		return nil
	}
	delete(f.errs, fl.name)
	var cmd tea.Cmd
	fl.input, cmd = fl.input.Update(msg)
	if fl.name == catalog.FieldShortcutKey {
		fl.input.SetValue(model.NormalizeShortcutKey(fl.input.Value()))
		fl.input.CursorEnd()
	}
	return cmd
}

func (f *form) commandInput() (catalog.CommandInput, error) {
	mods, err := model.ParseModifiers(f.value(catalog.FieldModifiers))
	if err != nil {
		return catalog.CommandInput{}, &catalog.ValidationError{Field: catalog.FieldModifiers, Message: err.Error()}
	}
	return catalog.CommandInput{
		Title:       f.value(catalog.FieldTitle),
		Description: f.value("description"),
		ShortcutKey: f.value(catalog.FieldShortcutKey),
		Modifiers:   mods,
		CommandKeys: f.value(catalog.FieldCommandKeys),
		Category:    f.category(),
	}, nil
}

func (f *form) categoryInput() catalog.CategoryInput {
	return catalog.CategoryInput{
		Title:       f.value(catalog.FieldTitle),
		Description: f.value("description"),
		ShortcutKey: f.value(catalog.FieldShortcutKey),
	}
}

func commandPatch(in catalog.CommandInput) store.CommandPatch {
	mods := in.Modifiers
	if mods == nil {
		mods = []model.Modifier{}
	}
	return store.CommandPatch{
		Title:       &in.Title,
		Description: &in.Description,
		ShortcutKey: &in.ShortcutKey,
		Modifiers:   mods,
		CommandKeys: &in.CommandKeys,
		Category:    &in.Category,
	}
}

func categoryPatch(in catalog.CategoryInput) store.CategoryPatch {
	return store.CategoryPatch{
		Title:       &in.Title,
		Description: &in.Description,
		ShortcutKey: &in.ShortcutKey,
	}
}

func (f *form) view(width int) string {
	var b strings.Builder

	b.WriteString(labelStyle.Render(f.title()))
	b.WriteString("\n\n")

	inputWidth := width - 20
	if inputWidth < 20 {
		inputWidth = 20
	}
	for i, fl := range f.fields {
		b.WriteString(labelStyle.Render(fl.label + ": "))
		style := inputStyle
		if i == f.focus {
			style = focusedInputStyle
		}
		if _, bad := f.errs[fl.name]; bad {
			style = invalidInputStyle
		}
		var content string
		if fl.picker {
			content = "‹ " + f.categoryLabel() + " ›"
		} else {
			content = fl.input.View()
		}
		b.WriteString(style.Width(inputWidth).Render(content))
		b.WriteString("\n")
		if msg, bad := f.errs[fl.name]; bad {
			b.WriteString(fieldErrorStyle.Render("  " + msg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	help := "tab: next field • enter: save • esc: cancel"
	if f.kind == model.TypeCommand {
		help = "tab: next field • ←/→: category • enter: save • esc: cancel"
	}
	b.WriteString(helpStyle.Render(help))
	b.WriteString("\n")

	return b.String()
}
