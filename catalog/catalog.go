// Package catalog is the write path for commands and categories: it
// validates input, rejects shortcut clashes, assigns ids and keeps the
// category cascade in one place.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"keybox/logger"
	"keybox/model"
	"keybox/runner"
	"keybox/shortcut"
	"keybox/store"
)

// Form field names carried by ValidationError.
const (
	FieldTitle       = "title"
	FieldShortcutKey = "shortcutKey"
	FieldModifiers   = "modifiers"
	FieldCommandKeys = "commandKeys"
	FieldCategory    = "category"
)

// ValidationError is a rejected user input, attached to one form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Snapshot is the full dataset as read by Reload.
type Snapshot struct {
	Commands   []model.Command
	Categories []model.Category
}

// Items is the visible list for a scope and search text.
func (s Snapshot) Items(scope, search string) []shortcut.Item {
	return shortcut.ComposeList(s.Commands, s.Categories, scope, search)
}

func (s Snapshot) Category(id string) (model.Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

func (s Snapshot) Command(id string) (model.Command, bool) {
	for _, c := range s.Commands {
		if c.ID == id {
			return c, true
		}
	}
	return model.Command{}, false
}

func (s Snapshot) CommandIDs() []string {
	ids := make([]string, len(s.Commands))
	for i, c := range s.Commands {
		ids[i] = c.ID
	}
	return ids
}

func (s Snapshot) CategoryIDs() []string {
	ids := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		ids[i] = c.ID
	}
	return ids
}

// Catalog ties the store, the id generator and the dispatcher together.
type Catalog struct {
	store *store.Store
	ids   *shortcut.IDGenerator
	disp  runner.Dispatcher
}

type Option func(*Catalog)

// WithIDGenerator replaces the crypto/rand backed generator.
func WithIDGenerator(g *shortcut.IDGenerator) Option {
	return func(c *Catalog) { c.ids = g }
}

// WithDispatcher sets the keystroke dispatcher used by Run.
func WithDispatcher(d runner.Dispatcher) Option {
	return func(c *Catalog) { c.disp = d }
}

func New(s *store.Store, opts ...Option) *Catalog {
	c := &Catalog{
		store: s,
		ids:   shortcut.NewIDGenerator(nil),
		disp:  runner.AppleScript{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Reload reads a fresh snapshot from storage.
func (c *Catalog) Reload(ctx context.Context) (Snapshot, error) {
	cmds, err := c.store.Commands(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	cats, err := c.store.Categories(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Commands: cmds, Categories: cats}, nil
}

// CommandInput is the editable part of a command.
type CommandInput struct {
	Title       string
	Description string
	ShortcutKey string
	Modifiers   []model.Modifier
	CommandKeys string
	Category    string
}

// CategoryInput is the editable part of a category.
type CategoryInput struct {
	Title       string
	Description string
	ShortcutKey string
}

func validateEntity(title, key string) *ValidationError {
	if strings.TrimSpace(title) == "" {
		return invalid(FieldTitle, "The item is required")
	}
	if key == "" {
		return invalid(FieldShortcutKey, "The item is required")
	}
	if utf8.RuneCountInString(key) != 1 {
		return invalid(FieldShortcutKey, "Shortcut key must be a single character")
	}
	return nil
}

func validateCommand(cmd model.Command, snap Snapshot) *ValidationError {
	if ve := validateEntity(cmd.Title, cmd.ShortcutKey); ve != nil {
		return ve
	}
	if len(cmd.Modifiers) == 0 {
		return invalid(FieldModifiers, "Select at least one modifier")
	}
	for _, m := range cmd.Modifiers {
		if !m.Valid() {
			return invalid(FieldModifiers, fmt.Sprintf("Unknown modifier %q", m))
		}
	}
	if cmd.CommandKeys == "" {
		return invalid(FieldCommandKeys, "The item is required")
	}
	if !model.IsTopLevel(cmd.Category) {
		if _, ok := snap.Category(cmd.Category); !ok {
			return invalid(FieldCategory, fmt.Sprintf("Category %q does not exist", cmd.Category))
		}
	}
	return nil
}

func clashError(cl shortcut.Clash) *ValidationError {
	if !cl.HasClash {
		return nil
	}
	return invalid(FieldShortcutKey, cl.Message)
}

func normalizeCommand(cmd model.Command) model.Command {
	cmd.Type = model.TypeCommand
	cmd.Title = strings.TrimSpace(cmd.Title)
	cmd.Description = strings.TrimSpace(cmd.Description)
	cmd.ShortcutKey = strings.ToUpper(strings.TrimSpace(cmd.ShortcutKey))
	cmd.Modifiers = model.SortModifiers(cmd.Modifiers)
	if model.IsTopLevel(cmd.Category) {
		cmd.Category = model.NoCategory
	}
	return cmd
}

func normalizeCategory(cat model.Category) model.Category {
	cat.Type = model.TypeCategory
	cat.Title = strings.TrimSpace(cat.Title)
	cat.Description = strings.TrimSpace(cat.Description)
	cat.ShortcutKey = strings.ToUpper(strings.TrimSpace(cat.ShortcutKey))
	return cat
}

func (c *Catalog) checkCommand(cmd model.Command, snap Snapshot) error {
	if ve := validateCommand(cmd, snap); ve != nil {
		return ve
	}
	cand := shortcut.Candidate{ID: cmd.ID, Type: model.TypeCommand, ShortcutKey: cmd.ShortcutKey, Category: cmd.Category}
	if ve := clashError(shortcut.CheckClash(cand, snap.Commands, snap.Categories)); ve != nil {
		return ve
	}
	return nil
}

func (c *Catalog) checkCategory(cat model.Category, snap Snapshot) error {
	if ve := validateEntity(cat.Title, cat.ShortcutKey); ve != nil {
		return ve
	}
	cand := shortcut.Candidate{ID: cat.ID, Type: model.TypeCategory, ShortcutKey: cat.ShortcutKey}
	if ve := clashError(shortcut.CheckClash(cand, snap.Commands, snap.Categories)); ve != nil {
		return ve
	}
	return nil
}

func rejected(err error, typ model.Type, key string) error {
	if ve, ok := IsValidation(err); ok {
		logger.L.Debug("rejected", "type", typ, "shortcut_key", key, "field", ve.Field, "reason", ve.Message)
	}
	return err
}

// CreateCommand validates in, assigns an id and saves the command.
func (c *Catalog) CreateCommand(ctx context.Context, in CommandInput) (model.Command, error) {
	snap, err := c.Reload(ctx)
	if err != nil {
		return model.Command{}, err
	}
	cmd := normalizeCommand(model.Command{
		Entity:      model.Entity{Title: in.Title, Description: in.Description, ShortcutKey: in.ShortcutKey},
		Modifiers:   in.Modifiers,
		CommandKeys: in.CommandKeys,
		Category:    in.Category,
	})
	if err := c.checkCommand(cmd, snap); err != nil {
		return model.Command{}, rejected(err, model.TypeCommand, cmd.ShortcutKey)
	}

	id, err := c.ids.Generate(snap.CommandIDs(), snap.CategoryIDs())
	if err != nil {
		panic(err)
	}
	cmd.ID = id
	if err := c.store.SaveCommand(ctx, cmd); err != nil {
		return model.Command{}, err
	}
	logger.L.Info("created command", "id", cmd.ID, "shortcut_key", cmd.ShortcutKey, "category", cmd.Category)
	return cmd, nil
}

// UpdateCommand applies p to an existing command after validating the
// merged result. The id never changes.
func (c *Catalog) UpdateCommand(ctx context.Context, id string, p store.CommandPatch) (model.Command, error) {
	snap, err := c.Reload(ctx)
	if err != nil {
		return model.Command{}, err
	}
	cur, ok := snap.Command(id)
	if !ok {
		return model.Command{}, fmt.Errorf("update command %s: %w", id, store.ErrNotFound)
	}
	merged := normalizeCommand(p.Apply(cur))
	if err := c.checkCommand(merged, snap); err != nil {
		return model.Command{}, rejected(err, model.TypeCommand, merged.ShortcutKey)
	}

	title, desc, key, keys, category := merged.Title, merged.Description, merged.ShortcutKey, merged.CommandKeys, merged.Category
	updated, err := c.store.UpdateCommand(ctx, id, store.CommandPatch{
		Title:       &title,
		Description: &desc,
		ShortcutKey: &key,
		Modifiers:   merged.Modifiers,
		CommandKeys: &keys,
		Category:    &category,
	})
	if err != nil {
		return model.Command{}, err
	}
	logger.L.Info("updated command", "id", id, "shortcut_key", updated.ShortcutKey)
	return updated, nil
}

func (c *Catalog) DeleteCommand(ctx context.Context, id string) error {
	if err := c.store.DeleteCommand(ctx, id); err != nil {
		return err
	}
	logger.L.Info("deleted command", "id", id)
	return nil
}

// CreateCategory validates in, assigns an id and saves the category.
func (c *Catalog) CreateCategory(ctx context.Context, in CategoryInput) (model.Category, error) {
	snap, err := c.Reload(ctx)
	if err != nil {
		return model.Category{}, err
	}
	cat := normalizeCategory(model.NewCategory("", in.Title, in.Description, in.ShortcutKey))
	if err := c.checkCategory(cat, snap); err != nil {
		return model.Category{}, rejected(err, model.TypeCategory, cat.ShortcutKey)
	}

	id, err := c.ids.Generate(snap.CommandIDs(), snap.CategoryIDs())
	if err != nil {
		panic(err)
	}
	cat.ID = id
	if err := c.store.SaveCategory(ctx, cat); err != nil {
		return model.Category{}, err
	}
	logger.L.Info("created category", "id", cat.ID, "shortcut_key", cat.ShortcutKey)
	return cat, nil
}

// UpdateCategory applies p to an existing category after validating the
// merged result.
func (c *Catalog) UpdateCategory(ctx context.Context, id string, p store.CategoryPatch) (model.Category, error) {
	snap, err := c.Reload(ctx)
	if err != nil {
		return model.Category{}, err
	}
	cur, ok := snap.Category(id)
	if !ok {
		return model.Category{}, fmt.Errorf("update category %s: %w", id, store.ErrNotFound)
	}
	merged := normalizeCategory(p.Apply(cur))
	if err := c.checkCategory(merged, snap); err != nil {
		return model.Category{}, rejected(err, model.TypeCategory, merged.ShortcutKey)
	}

	title, desc, key := merged.Title, merged.Description, merged.ShortcutKey
	updated, err := c.store.UpdateCategory(ctx, id, store.CategoryPatch{Title: &title, Description: &desc, ShortcutKey: &key})
	if err != nil {
		return model.Category{}, err
	}
	logger.L.Info("updated category", "id", id, "shortcut_key", updated.ShortcutKey)
	return updated, nil
}

// DeleteCategory removes the category and moves its commands to the top
// level. It returns how many commands were moved.
func (c *Catalog) DeleteCategory(ctx context.Context, id string) (int, error) {
	if err := c.store.DeleteCategory(ctx, id); err != nil {
		return 0, err
	}
	moved, err := c.store.Reparent(ctx, id)
	if err != nil {
		return moved, err
	}
	logger.L.Info("deleted category", "id", id, "reparented", moved)
	return moved, nil
}

// Delete removes whichever entity has id.
func (c *Catalog) Delete(ctx context.Context, id string) (model.Type, error) {
	snap, err := c.Reload(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := snap.Category(id); ok {
		_, err := c.DeleteCategory(ctx, id)
		return model.TypeCategory, err
	}
	if _, ok := snap.Command(id); ok {
		return model.TypeCommand, c.DeleteCommand(ctx, id)
	}
	return "", fmt.Errorf("delete %s: %w", id, store.ErrNotFound)
}

// Clear deletes every command and category.
func (c *Catalog) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	logger.L.Info("cleared all data")
	return nil
}

// Run sends the command's keystroke. Dispatcher errors are returned as-is.
func (c *Catalog) Run(ctx context.Context, cmd model.Command) error {
	logger.L.Debug("dispatching", "id", cmd.ID, "keys", cmd.Label())
	return runner.Run(ctx, c.disp, cmd)
}
