package catalog

import (
	"context"
	"fmt"
	"io"

	"keybox/model"
	"keybox/store"
)

// Export writes every category and command as YAML.
func (c *Catalog) Export(ctx context.Context, w io.Writer) error {
	return c.store.Export(ctx, w)
}

// ImportResult counts what Import created.
type ImportResult struct {
	Categories int
	Commands   int
}

// Import reads a YAML document and creates its contents as new entities.
// Ids in the document only link commands to categories; fresh ids are
// assigned. Each item goes through the same validation as a manual create,
// and the first rejected item stops the import, leaving earlier items saved.
func (c *Catalog) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult
	doc, err := store.DecodeDocument(r)
	if err != nil {
		return res, err
	}

	remap := make(map[string]string, len(doc.Categories))
	for _, cat := range doc.Categories {
		created, err := c.CreateCategory(ctx, CategoryInput{
			Title:       cat.Title,
			Description: cat.Description,
			ShortcutKey: cat.ShortcutKey,
		})
		if err != nil {
			return res, fmt.Errorf("import category %q: %w", cat.Title, err)
		}
		remap[cat.ID] = created.ID
		res.Categories++
	}

	for _, cmd := range doc.Commands {
		category := model.NoCategory
		if !model.IsTopLevel(cmd.Category) {
			id, ok := remap[cmd.Category]
			if !ok {
				return res, fmt.Errorf("import command %q: %w", cmd.Title,
					invalid(FieldCategory, fmt.Sprintf("Category %q is not in the document", cmd.Category)))
			}
			category = id
		}
		_, err := c.CreateCommand(ctx, CommandInput{
			Title:       cmd.Title,
			Description: cmd.Description,
			ShortcutKey: cmd.ShortcutKey,
			Modifiers:   cmd.Modifiers,
			CommandKeys: cmd.CommandKeys,
			Category:    category,
		})
		if err != nil {
			return res, fmt.Errorf("import command %q: %w", cmd.Title, err)
		}
		res.Commands++
	}
	return res, nil
}
