package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"keybox/catalog"
	"keybox/model"
	"keybox/shortcut"
	"keybox/store"
)

func newListCmd(open opener) *cobra.Command {
	var (
		category string
		search   string
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories and commands",
		Long: `The list command prints what the launcher would show. Without
--category it lists the top level: every category followed by the commands
that have no category.

Example:
  keybox list
  keybox list --category <id>
  keybox list --search push --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return open(func(s *session) error {
				snap, err := s.cat.Reload(cmd.Context())
				if err != nil {
					return err
				}
				if category != "" {
					if _, ok := snap.Category(category); !ok {
						return fmt.Errorf("category %s: %w", category, store.ErrNotFound)
					}
				}
				items := snap.Items(category, search)
				if jsonOut {
					return printJSON(cmd.OutOrStdout(), listRows(items))
				}
				printItems(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "List the commands of this category id")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Keep items whose title or description contains this text")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}

type listRow struct {
	Type        model.Type `json:"type"`
	ID          string     `json:"id"`
	ShortcutKey string     `json:"shortcutKey"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Keystroke   string     `json:"keystroke,omitempty"`
}

func listRows(items []shortcut.Item) []listRow {
	rows := make([]listRow, 0, len(items))
	for _, it := range items {
		e := it.Entity()
		row := listRow{Type: e.Type, ID: e.ID, ShortcutKey: e.ShortcutKey, Title: e.Title, Description: e.Description}
		if it.Command != nil {
			row.Type = model.TypeCommand
			row.Keystroke = it.Command.Label()
		} else {
			row.Type = model.TypeCategory
		}
		rows = append(rows, row)
	}
	return rows
}

func printItems(w io.Writer, items []shortcut.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No commands configured")
		return
	}
	for _, r := range listRows(items) {
		label := r.Keystroke
		if r.Type == model.TypeCategory {
			label = "›"
		}
		fmt.Fprintf(w, "[%s] %-30s %-12s %s\n", r.ShortcutKey, r.Title, label, r.ID)
	}
}

func newAddCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a command or category",
	}
	cmd.AddCommand(newAddCommandCmd(open), newAddCategoryCmd(open))
	return cmd
}

func newAddCommandCmd(open opener) *cobra.Command {
	var (
		in        catalog.CommandInput
		modifiers string
	)
	cmd := &cobra.Command{
		Use:   "command",
		Short: "Create a command",
		Long: `The add command subcommand creates a shortcut bound to a single key.

Example:
  keybox add command --title "Save" --key s --modifiers cmd --keys s
  keybox add command --title "Push" --key p --modifiers cmd,shift --keys k --category <id>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mods, err := model.ParseModifiers(modifiers)
			if err != nil {
				return &catalog.ValidationError{Field: catalog.FieldModifiers, Message: err.Error()}
			}
			in.Modifiers = mods
			return open(func(s *session) error {
				created, err := s.cat.CreateCommand(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created command %q [%s] %s\n", created.Title, created.ShortcutKey, created.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "Title shown in the command list")
	cmd.Flags().StringVar(&in.Description, "description", "", "Optional description")
	cmd.Flags().StringVar(&in.ShortcutKey, "key", "", "Single key that runs the command")
	cmd.Flags().StringVar(&modifiers, "modifiers", "", "Modifiers held, e.g. cmd,shift")
	cmd.Flags().StringVar(&in.CommandKeys, "keys", "", "Key/s sent with the modifiers")
	cmd.Flags().StringVar(&in.Category, "category", "", "Category id (default: no category)")
	return cmd
}

func newAddCategoryCmd(open opener) *cobra.Command {
	var in catalog.CategoryInput
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return open(func(s *session) error {
				created, err := s.cat.CreateCategory(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created category %q [%s] %s\n", created.Title, created.ShortcutKey, created.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "Category title")
	cmd.Flags().StringVar(&in.Description, "description", "", "Optional description")
	cmd.Flags().StringVar(&in.ShortcutKey, "key", "", "Single key that opens the category")
	return cmd
}

func newEditCmd(open opener) *cobra.Command {
	var (
		title, description, key string
		modifiers, keys, cat    string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a command or category",
		Long: `The edit command updates only the fields whose flags are given.

Example:
  keybox edit <id> --title "Save all"
  keybox edit <id> --category no-category`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			flags := cmd.Flags()
			str := func(name, v string) *string {
				if flags.Changed(name) {
					return &v
				}
				return nil
			}

			return open(func(s *session) error {
				ctx := cmd.Context()
				snap, err := s.cat.Reload(ctx)
				if err != nil {
					return err
				}

				if _, ok := snap.Category(id); ok {
					for _, name := range []string{"modifiers", "keys", "category"} {
						if flags.Changed(name) {
							return fmt.Errorf("--%s does not apply to a category", name)
						}
					}
					updated, err := s.cat.UpdateCategory(ctx, id, store.CategoryPatch{
						Title:       str("title", title),
						Description: str("description", description),
						ShortcutKey: str("key", key),
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Updated category %q [%s]\n", updated.Title, updated.ShortcutKey)
					return nil
				}

				p := store.CommandPatch{
					Title:       str("title", title),
					Description: str("description", description),
					ShortcutKey: str("key", key),
					CommandKeys: str("keys", keys),
					Category:    str("category", cat),
				}
				if flags.Changed("modifiers") {
					mods, err := model.ParseModifiers(modifiers)
					if err != nil {
						return &catalog.ValidationError{Field: catalog.FieldModifiers, Message: err.Error()}
					}
					if mods == nil {
						mods = []model.Modifier{}
					}
					p.Modifiers = mods
				}
				updated, err := s.cat.UpdateCommand(ctx, id, p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated command %q [%s]\n", updated.Title, updated.ShortcutKey)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&key, "key", "", "New shortcut key")
	cmd.Flags().StringVar(&modifiers, "modifiers", "", "New modifiers, e.g. cmd,shift")
	cmd.Flags().StringVar(&keys, "keys", "", "New key/s sent with the modifiers")
	cmd.Flags().StringVar(&cat, "category", "", "New category id, or no-category")
	return cmd
}

func newDeleteCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a command or category",
		Long: `The delete command removes a command, or a category. Deleting a
category moves its commands to the top level.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return open(func(s *session) error {
				typ, err := s.cat.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", typ, args[0])
				return nil
			})
		},
	}
}

func newRunCmd(open opener) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run <key> [<key>...]",
		Short: "Send a command's keystroke by its key path",
		Long: `The run command selects a command the way the launcher does: a
category key opens the category, a command key sends its keystroke.

Example:
  keybox run s
  keybox run g p`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return open(func(s *session) error {
				snap, err := s.cat.Reload(cmd.Context())
				if err != nil {
					return err
				}
				target, err := snap.Resolve(args)
				if err != nil {
					return err
				}
				if dryRun {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", target.Title, target.Label())
					return nil
				}
				return s.cat.Run(cmd.Context(), target)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of sending it")
	return cmd
}
