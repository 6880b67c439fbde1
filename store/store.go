package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"keybox/model"
)

const (
	commandPrefix  = "command-"
	categoryPrefix = "category-"
	commandIndex   = "command-ids"
	categoryIndex  = "category-ids"
)

type bucket struct {
	name   string
	prefix string
	index  string
}

var (
	commands   = bucket{name: "command", prefix: commandPrefix, index: commandIndex}
	categories = bucket{name: "category", prefix: categoryPrefix, index: categoryIndex}
)

func (b bucket) key(id string) string { return b.prefix + id }

// Store reads and writes entities through a Gateway. It holds no cache, so
// every read reflects the last completed write.
type Store struct {
	gw Gateway
}

func New(gw Gateway) *Store {
	return &Store{gw: gw}
}

func (s *Store) ids(ctx context.Context, b bucket) ([]string, error) {
	raw, ok, err := s.gw.Get(ctx, b.index)
	if err != nil {
		return nil, wrap("read "+b.name+" index", "", err)
	}
	if !ok || raw == "" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, wrap("decode "+b.name+" index", "", err)
	}
	return ids, nil
}

func (s *Store) writeIDs(ctx context.Context, b bucket, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return wrap("encode "+b.name+" index", "", err)
	}
	return wrap("write "+b.name+" index", "", s.gw.Set(ctx, b.index, string(raw)))
}

func load[T any](ctx context.Context, s *Store, b bucket, id string) (T, error) {
	var v T
	raw, ok, err := s.gw.Get(ctx, b.key(id))
	if err != nil {
		return v, wrap("get "+b.name, id, err)
	}
	if !ok {
		return v, fmt.Errorf("%s %s: %w", b.name, id, ErrNotFound)
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, wrap("decode "+b.name, id, err)
	}
	return v, nil
}

// save writes the record, then appends the id to the index. A failed index
// write leaves an unreferenced record behind, which reads never see.
func save(ctx context.Context, s *Store, b bucket, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return wrap("encode "+b.name, id, err)
	}
	if err := s.gw.Set(ctx, b.key(id), string(raw)); err != nil {
		return wrap("save "+b.name, id, err)
	}
	ids, err := s.ids(ctx, b)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return s.writeIDs(ctx, b, append(ids, id))
}

func loadAll[T any](ctx context.Context, s *Store, b bucket) ([]T, error) {
	ids, err := s.ids(ctx, b)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		v, err := load[T](ctx, s, b, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func remove(ctx context.Context, s *Store, b bucket, id string) error {
	if _, ok, err := s.gw.Get(ctx, b.key(id)); err != nil {
		return wrap("get "+b.name, id, err)
	} else if !ok {
		return fmt.Errorf("%s %s: %w", b.name, id, ErrNotFound)
	}
	if err := s.gw.Remove(ctx, b.key(id)); err != nil {
		return wrap("delete "+b.name, id, err)
	}
	ids, err := s.ids(ctx, b)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	return s.writeIDs(ctx, b, kept)
}

func (s *Store) CommandIDs(ctx context.Context) ([]string, error) {
	return s.ids(ctx, commands)
}

func (s *Store) CategoryIDs(ctx context.Context) ([]string, error) {
	return s.ids(ctx, categories)
}

// SaveCommand inserts or replaces a command record.
func (s *Store) SaveCommand(ctx context.Context, c model.Command) error {
	c.Type = model.TypeCommand
	return save(ctx, s, commands, c.ID, c)
}

func (s *Store) Command(ctx context.Context, id string) (model.Command, error) {
	return load[model.Command](ctx, s, commands, id)
}

// Commands lists every command in insertion order.
func (s *Store) Commands(ctx context.Context) ([]model.Command, error) {
	return loadAll[model.Command](ctx, s, commands)
}

// UpdateCommand merges p into the stored command. A missing id is an error.
func (s *Store) UpdateCommand(ctx context.Context, id string, p CommandPatch) (model.Command, error) {
	c, err := s.Command(ctx, id)
	if err != nil {
		return model.Command{}, fmt.Errorf("update: %w", err)
	}
	c = p.Apply(c)
	if err := s.SaveCommand(ctx, c); err != nil {
		return model.Command{}, err
	}
	return c, nil
}

func (s *Store) DeleteCommand(ctx context.Context, id string) error {
	return remove(ctx, s, commands, id)
}

// SaveCategory inserts or replaces a category record.
func (s *Store) SaveCategory(ctx context.Context, c model.Category) error {
	c.Type = model.TypeCategory
	return save(ctx, s, categories, c.ID, c)
}

func (s *Store) Category(ctx context.Context, id string) (model.Category, error) {
	return load[model.Category](ctx, s, categories, id)
}

// Categories lists every category in insertion order.
func (s *Store) Categories(ctx context.Context) ([]model.Category, error) {
	return loadAll[model.Category](ctx, s, categories)
}

// UpdateCategory merges p into the stored category. A missing id is an error.
func (s *Store) UpdateCategory(ctx context.Context, id string, p CategoryPatch) (model.Category, error) {
	c, err := s.Category(ctx, id)
	if err != nil {
		return model.Category{}, fmt.Errorf("update: %w", err)
	}
	c = p.Apply(c)
	if err := s.SaveCategory(ctx, c); err != nil {
		return model.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes only the category record. Commands that point at it
// are left alone; see Reparent.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return remove(ctx, s, categories, id)
}

// Reparent moves every command of categoryID to the top level and returns
// how many were moved.
func (s *Store) Reparent(ctx context.Context, categoryID string) (int, error) {
	if model.IsTopLevel(categoryID) {
		return 0, nil
	}
	all, err := s.Commands(ctx)
	if err != nil {
		return 0, err
	}
	top := model.NoCategory
	moved := 0
	for _, c := range all {
		if c.Category != categoryID {
			continue
		}
		if _, err := s.UpdateCommand(ctx, c.ID, CommandPatch{Category: &top}); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// Clear deletes everything in the gateway.
func (s *Store) Clear(ctx context.Context) error {
	return wrap("clear", "", s.gw.Clear(ctx))
}
