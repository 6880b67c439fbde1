package catalog

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keybox/model"
	"keybox/store"
)

type fakeDispatcher struct {
	mods  []model.Modifier
	keys  string
	calls int
	err   error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, mods []model.Modifier, keys string) error {
	f.calls++
	f.mods = mods
	f.keys = keys
	return f.err
}

// brokenGateway fails every write.
type brokenGateway struct{ *store.Memory }

func (brokenGateway) Set(context.Context, string, string) error { return errors.New("disk full") }

func newCatalog(t *testing.T) (*Catalog, *fakeDispatcher) {
	t.Helper()
	d := &fakeDispatcher{}
	return New(store.New(store.NewMemory()), WithDispatcher(d)), d
}

func cmdInput(title, key, category string) CommandInput {
	return CommandInput{
		Title:       title,
		ShortcutKey: key,
		Modifiers:   []model.Modifier{model.ModControl, model.ModCommand},
		CommandKeys: "a",
		Category:    category,
	}
}

func requireField(t *testing.T, err error, field string) *ValidationError {
	t.Helper()
	ve, ok := IsValidation(err)
	require.True(t, ok, "want ValidationError, got %v", err)
	assert.Equal(t, field, ve.Field)
	return ve
}

func TestCreateCommand(t *testing.T) {
	ctx := context.Background()
	c, _ := newCatalog(t)

	got, err := c.CreateCommand(ctx, CommandInput{
		Title:       "  Arc ",
		Description: "Open Arc",
		ShortcutKey: "a",
		Modifiers:   []model.Modifier{model.ModOption, model.ModCommand},
		CommandKeys: "a",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Arc", got.Title)
	assert.Equal(t, "A", got.ShortcutKey)
	assert.Equal(t, model.NoCategory, got.Category)
	assert.Equal(t, model.TypeCommand, got.Type)
	assert.Equal(t, []model.Modifier{model.ModCommand, model.ModOption}, got.Modifiers)

	snap, err := c.Reload(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Commands, 1)
	assert.Equal(t, got, snap.Commands[0])
}

func TestCreateCommand_Validation(t *testing.T) {
	ctx := context.Background()
	c, _ := newCatalog(t)

	tests := []struct {
		name  string
		in    CommandInput
		field string
	}{
		{"missing title", cmdInput(" ", "A", ""), FieldTitle},
		{"missing key", cmdInput("X", "", ""), FieldShortcutKey},
		{"long key", cmdInput("X", "AB", ""), FieldShortcutKey},
		{"no modifiers", CommandInput{Title: "X", ShortcutKey: "A", CommandKeys: "a"}, FieldModifiers},
		{"bad modifier", CommandInput{Title: "X", ShortcutKey: "A", CommandKeys: "a", Modifiers: []model.Modifier{"hyper"}}, FieldModifiers},
		{"no keys", CommandInput{Title: "X", ShortcutKey: "A", Modifiers: []model.Modifier{model.ModShift}}, FieldCommandKeys},
		{"unknown category", cmdInput("X", "A", "nope"), FieldCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateCommand(ctx, tt.in)
			requireField(t, err, tt.field)
		})
	}

	snap, err := c.Reload(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Commands, "rejected input is never saved")
}

func TestCreate_ClashesAreValidationErrors(t *testing.T) {
	ctx := context.Background()
	c, _ := newCatalog(t)

	cat, err := c.CreateCategory(ctx, CategoryInput{Title: "Projects", ShortcutKey: "p"})
	require.NoError(t, err)
	assert.Equal(t, "P", cat.ShortcutKey)

	_, err = c.CreateCommand(ctx, cmdInput("Print", "P", model.NoCategory))
	ve := requireField(t, err, FieldShortcutKey)
	assert.Contains(t, ve.Message, `"Projects"`)

	// inside the category the key space is separate
	inCat, err := c.CreateCommand(ctx, cmdInput("Preview", "P", cat.ID))
	require.NoError(t, err)
	assert.Equal(t, cat.ID, inCat.Category)

	_, err = c.CreateCommand(ctx, cmdInput("Paste", "p", cat.ID))
	ve = requireField(t, err, FieldShortcutKey)
	assert.Contains(t, ve.Message, "in the same category")

	_, err = c.CreateCommand(ctx, cmdInput("Top", "T", ""))
	require.NoError(t, err)
	_, err = c.CreateCategory(ctx, CategoryInput{Title: "Tools", ShortcutKey: "T"})
	ve = requireField(t, err, FieldShortcutKey)
	assert.Contains(t, ve.Message, `command "Top"`)
}

func TestUpdateCommand(t *testing.T) {
	ctx := context.Background()
	c, _ := newCatalog(t)
	a, err := c.CreateCommand(ctx, cmdInput("Alpha", "A", ""))
	require.NoError(t, err)
	_, err = c.CreateCommand(ctx, cmdInput("Beta", "B", ""))
	require.NoError(t, err)

	// keeping its own key is not a clash
	title := "Alpha 2"
	got, err := c.UpdateCommand(ctx, a.ID, store.CommandPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Alpha 2", got.Title)
	assert.Equal(t, "A", got.ShortcutKey)
	assert.Equal(t, a.ID, got.ID)

	key := "b"
	_, err = c.UpdateCommand(ctx, a.ID, store.CommandPatch{ShortcutKey: &key})
	requireField(t, err, FieldShortcutKey)

	_, err = c.UpdateCommand(ctx, "missing", store.CommandPatch{Title: &title})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateCommand_AcrossCategories(t *testing.T) {
	ctx := context.Background()
	c, _ := newCatalog(t)
	cat1, err := c.CreateCategory(ctx, CategoryInput{Title: "One", ShortcutKey: "1"})
	require.NoError(t, err)
	cat2, err := c.CreateCategory(ctx, CategoryInput{Title: "Two", ShortcutKey: "2"})
	require.NoError(t, err)
	m1, err := c.CreateCommand(ctx, cmdInput("A1", "A", cat1.ID))
	require.NoError(t, err)
	_, err = c.CreateCommand(ctx, cmdInput("A2", "A", cat2.ID))
	require.NoError(t, err)

	desc := "still fine"
	_, err = c.UpdateCommand(ctx, m1.ID, store.CommandPatch{Description: &desc})
	require.NoError(t, err)

	moveTo := cat2.ID
	_, err = c.UpdateCommand(ctx, m1.ID, store.CommandPatch{Category: &moveTo})
	requireField(t, err, FieldShortcutKey)
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()
	c, _ := newCatalog(t)
	cat, err := c.CreateCategory(ctx, CategoryInput{Title: "Dev", ShortcutKey: "D"})
	require.NoError(t, err)
	_, err = c.CreateCategory(ctx, CategoryInput{Title: "Ops", ShortcutKey: "O"})
	require.NoError(t, err)

	desc := "Developer tools"
	got, err := c.UpdateCategory(ctx, cat.ID, store.CategoryPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Developer tools", got.Description)

	key := "o"
	_, err = c.UpdateCategory(ctx, cat.ID, store.CategoryPatch{ShortcutKey: &key})
	requireField(t, err, FieldShortcutKey)

	empty := ""
	_, err = c.UpdateCategory(ctx, cat.ID, store.CategoryPatch{Title: &empty})
	requireField(t, err, FieldTitle)

	_, err = c.UpdateCategory(ctx, "missing", store.CategoryPatch{Title: &desc})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteCategory_Reparents(t *testing.T) {
	ctx := context.Background()
	c, _ := newCatalog(t)
	cat, err := c.CreateCategory(ctx, CategoryInput{Title: "Dev", ShortcutKey: "D"})
	require.NoError(t, err)
	top, err := c.CreateCommand(ctx, cmdInput("Top", "T", ""))
	require.NoError(t, err)
	build, err := c.CreateCommand(ctx, cmdInput("Build", "B", cat.ID))
	require.NoError(t, err)

	snap, err := c.Reload(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Items("", ""), 2)

	typ, err := c.Delete(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TypeCategory, typ)

	snap, err = c.Reload(ctx)
	require.NoError(t, err)
	items := snap.Items("", "")
	require.Len(t, items, 2)
	assert.Equal(t, top.ID, items[0].Entity().ID)
	assert.Equal(t, build.ID, items[1].Entity().ID)
	assert.Equal(t, model.NoCategory, items[1].Command.Category)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newCatalog(t)
	m, err := c.CreateCommand(ctx, cmdInput("Top", "T", ""))
	require.NoError(t, err)

	typ, err := c.Delete(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TypeCommand, typ)

	_, err = c.Delete(ctx, m.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, c.DeleteCommand(ctx, m.ID), store.ErrNotFound)
	_, err = c.DeleteCategory(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c, _ := newCatalog(t)
	_, err := c.CreateCommand(ctx, cmdInput("Top", "T", ""))
	require.NoError(t, err)
	require.NoError(t, c.Clear(ctx))

	snap, err := c.Reload(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Commands)
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	c := New(store.New(brokenGateway{store.NewMemory()}))

	_, err := c.CreateCommand(ctx, cmdInput("Top", "T", ""))
	var se *store.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save command", se.Op)
	assert.NotEmpty(t, se.ID)
	assert.Contains(t, err.Error(), "disk full")
	_, isValidation := IsValidation(err)
	assert.False(t, isValidation)
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	c, d := newCatalog(t)
	cmd := model.Command{Modifiers: []model.Modifier{model.ModShift, model.ModCommand}, CommandKeys: "k"}

	require.NoError(t, c.Run(ctx, cmd))
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, "K", d.keys)
	assert.Equal(t, []model.Modifier{model.ModCommand, model.ModShift}, d.mods)

	d.err = errors.New("not permitted")
	assert.Same(t, d.err, c.Run(ctx, cmd))
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	c, _ := newCatalog(t)
	cat, err := c.CreateCategory(ctx, CategoryInput{Title: "Dev", ShortcutKey: "D"})
	require.NoError(t, err)
	build, err := c.CreateCommand(ctx, cmdInput("Build", "B", cat.ID))
	require.NoError(t, err)
	top, err := c.CreateCommand(ctx, cmdInput("Top", "T", ""))
	require.NoError(t, err)

	snap, err := c.Reload(ctx)
	require.NoError(t, err)

	got, err := snap.Resolve([]string{"d", "b"})
	require.NoError(t, err)
	assert.Equal(t, build.ID, got.ID)

	got, err = snap.Resolve([]string{"t"})
	require.NoError(t, err)
	assert.Equal(t, top.ID, got.ID)

	for _, path := range [][]string{{"d"}, {"b"}, {"t", "x"}, {}} {
		_, err := snap.Resolve(path)
		assert.ErrorIs(t, err, ErrNoCommand, strings.Join(path, ","))
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src, _ := newCatalog(t)
	cat, err := src.CreateCategory(ctx, CategoryInput{Title: "Dev", Description: "tools", ShortcutKey: "D"})
	require.NoError(t, err)
	_, err = src.CreateCommand(ctx, cmdInput("Build", "B", cat.ID))
	require.NoError(t, err)
	_, err = src.CreateCommand(ctx, cmdInput("Top", "T", ""))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf))

	dst, _ := newCatalog(t)
	res, err := dst.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Categories: 1, Commands: 2}, res)

	snap, err := dst.Reload(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Categories, 1)
	newCat := snap.Categories[0]
	assert.NotEqual(t, cat.ID, newCat.ID)
	scoped := snap.Items(newCat.ID, "")
	require.Len(t, scoped, 1)
	assert.Equal(t, "Build", scoped[0].Entity().Title)
}

func TestImport_StopsOnClash(t *testing.T) {
	ctx := context.Background()
	c, _ := newCatalog(t)
	_, err := c.CreateCommand(ctx, cmdInput("Existing", "E", ""))
	require.NoError(t, err)

	doc := `
commands:
  - title: Fresh
    shortcutKey: F
    modifiers: [command]
    commandKeys: f
    category: no-category
  - title: Dupe
    shortcutKey: E
    modifiers: [command]
    commandKeys: e
    category: no-category
`
	res, err := c.Import(ctx, strings.NewReader(doc))
	requireField(t, err, FieldShortcutKey)
	assert.Contains(t, err.Error(), `"Dupe"`)
	assert.Equal(t, 1, res.Commands)
}

func TestImport_UnknownCategoryReference(t *testing.T) {
	c, _ := newCatalog(t)
	doc := `
commands:
  - title: Lost
    shortcutKey: L
    modifiers: [command]
    commandKeys: l
    category: elsewhere
`
	_, err := c.Import(context.Background(), strings.NewReader(doc))
	requireField(t, err, FieldCategory)
}
