package store

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keybox/model"
)

// failingGateway fails every call whose key has the configured prefix.
type failingGateway struct {
	*Memory
	failSet    string
	failGet    string
	failRemove string
}

var errBoom = errors.New("boom")

func (f *failingGateway) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet != "" && strings.HasPrefix(key, f.failGet) {
		return "", false, errBoom
	}
	return f.Memory.Get(ctx, key)
}

func (f *failingGateway) Set(ctx context.Context, key, value string) error {
	if f.failSet != "" && strings.HasPrefix(key, f.failSet) {
		return errBoom
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *failingGateway) Remove(ctx context.Context, key string) error {
	if f.failRemove != "" && strings.HasPrefix(key, f.failRemove) {
		return errBoom
	}
	return f.Memory.Remove(ctx, key)
}

func newCommand(id, title, key, category string) model.Command {
	return model.Command{
		Entity:      model.Entity{ID: id, Title: title, ShortcutKey: key},
		Modifiers:   []model.Modifier{model.ModCommand, model.ModShift},
		CommandKeys: "k",
		Category:    category,
	}
}

func TestStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	s := New(mem)

	require.NoError(t, s.SaveCommand(ctx, newCommand("m2", "Second", "B", model.NoCategory)))
	require.NoError(t, s.SaveCommand(ctx, newCommand("m1", "First", "A", model.NoCategory)))
	require.NoError(t, s.SaveCategory(ctx, model.NewCategory("c1", "Dev", "", "D")))

	cmds, err := s.Commands(ctx)
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "m2", cmds[0].ID, "insertion order is kept")
	assert.Equal(t, model.TypeCommand, cmds[0].Type)

	got, err := s.Command(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)
	assert.Equal(t, []model.Modifier{model.ModCommand, model.ModShift}, got.Modifiers)

	ids, err := s.CategoryIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)

	assert.Equal(t, []string{"category-c1", "category-ids", "command-ids", "command-m1", "command-m2"}, mem.Keys())
}

func TestStore_SaveTwiceKeepsSingleIndexEntry(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory())
	c := newCommand("m1", "First", "A", "")
	require.NoError(t, s.SaveCommand(ctx, c))
	c.Title = "Renamed"
	require.NoError(t, s.SaveCommand(ctx, c))

	ids, err := s.CommandIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, ids)
}

func TestStore_MissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory())

	_, err := s.Command(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	title := "x"
	_, err = s.UpdateCommand(ctx, "nope", CommandPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateCategory(ctx, "nope", CategoryPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteCommand(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategory(ctx, "nope"), ErrNotFound)
}

func TestStore_UpdateMerges(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory())
	orig := newCommand("m1", "First", "A", "c1")
	orig.Description = "desc"
	require.NoError(t, s.SaveCommand(ctx, orig))

	title := "New"
	got, err := s.UpdateCommand(ctx, "m1", CommandPatch{Title: &title, Modifiers: []model.Modifier{model.ModOption}})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "desc", got.Description)
	assert.Equal(t, "c1", got.Category)
	assert.Equal(t, []model.Modifier{model.ModOption}, got.Modifiers)

	stored, err := s.Command(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestStore_DeleteAndReparent(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory())
	require.NoError(t, s.SaveCategory(ctx, model.NewCategory("c1", "Dev", "", "D")))
	require.NoError(t, s.SaveCommand(ctx, newCommand("m1", "Build", "B", "c1")))
	require.NoError(t, s.SaveCommand(ctx, newCommand("m2", "Test", "T", "c1")))
	require.NoError(t, s.SaveCommand(ctx, newCommand("m3", "Other", "O", "c2")))

	require.NoError(t, s.DeleteCategory(ctx, "c1"))
	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)

	moved, err := s.Reparent(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	cmds, err := s.Commands(ctx)
	require.NoError(t, err)
	require.Len(t, cmds, 3)
	assert.Equal(t, model.NoCategory, cmds[0].Category)
	assert.Equal(t, model.NoCategory, cmds[1].Category)
	assert.Equal(t, "c2", cmds[2].Category)

	moved, err = s.Reparent(ctx, model.NoCategory)
	require.NoError(t, err)
	assert.Zero(t, moved)

	require.NoError(t, s.DeleteCommand(ctx, "m2"))
	ids, err := s.CommandIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m3"}, ids)
}

func TestStore_OrphanedRecordIsInvisible(t *testing.T) {
	ctx := context.Background()
	gw := &failingGateway{Memory: NewMemory(), failSet: commandIndex}
	s := New(gw)

	err := s.SaveCommand(ctx, newCommand("m1", "First", "A", ""))
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, gw.Keys(), "command-m1")

	cmds, err := s.Commands(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmds)
}

func TestStore_IndexPointingAtMissingRecordIsSkipped(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Set(ctx, commandIndex, `["gone"]`))
	cmds, err := New(mem).Commands(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmds)
}

func TestStore_StorageErrorsNameOperationAndID(t *testing.T) {
	ctx := context.Background()
	gw := &failingGateway{Memory: NewMemory(), failGet: "command-m1"}
	s := New(gw)

	_, err := s.Command(ctx, "m1")
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "get command", se.Op)
	assert.Equal(t, "m1", se.ID)
	assert.Equal(t, "get command m1: boom", err.Error())

	gw = &failingGateway{Memory: NewMemory(), failRemove: "category-"}
	s = New(gw)
	require.NoError(t, s.SaveCategory(ctx, model.NewCategory("c1", "Dev", "", "D")))
	err = s.DeleteCategory(ctx, "c1")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "delete category", se.Op)
}

func TestStore_CorruptIndex(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Set(ctx, categoryIndex, "{not json"))
	_, err := New(mem).Categories(ctx)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "decode category index", se.Op)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	s := New(mem)
	require.NoError(t, s.SaveCommand(ctx, newCommand("m1", "First", "A", "")))
	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, mem.Keys())
}

func TestStore_ExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory())
	require.NoError(t, s.SaveCategory(ctx, model.NewCategory("c1", "Dev", "Developer tools", "D")))
	require.NoError(t, s.SaveCommand(ctx, newCommand("m1", "Build", "B", "c1")))

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, &buf))
	assert.Contains(t, buf.String(), "shortcutKey: D")
	assert.Contains(t, buf.String(), "- command")

	doc, err := DecodeDocument(&buf)
	require.NoError(t, err)
	require.Len(t, doc.Categories, 1)
	require.Len(t, doc.Commands, 1)
	assert.Equal(t, "Developer tools", doc.Categories[0].Description)
	assert.Equal(t, "c1", doc.Commands[0].Category)
	assert.Equal(t, []model.Modifier{model.ModCommand, model.ModShift}, doc.Commands[0].Modifiers)
}

func TestDecodeDocument_Empty(t *testing.T) {
	doc, err := DecodeDocument(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, doc.Commands)
}
