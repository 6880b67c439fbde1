package store

import (
	"context"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"keybox/model"
)

// Document is the portable form of a whole store.
type Document struct {
	Categories []model.Category `yaml:"categories"`
	Commands   []model.Command  `yaml:"commands"`
}

// Export writes every category and command as YAML.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	cats, err := s.Categories(ctx)
	if err != nil {
		return err
	}
	cmds, err := s.Commands(ctx)
	if err != nil {
		return err
	}
	return EncodeDocument(w, Document{Categories: cats, Commands: cmds})
}

func EncodeDocument(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return Document{}, fmt.Errorf("decode yaml: %w", err)
	}
	return doc, nil
}
