package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"keybox/config"
)

func newExportCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write all categories and commands as YAML",
		Long: `The export command writes the whole dataset as YAML, to stdout or to
the given file. The output can be read back with import.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return open(func(s *session) error {
				if len(args) == 0 {
					return s.cat.Export(cmd.Context(), cmd.OutOrStdout())
				}
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", args[0], err)
				}
				if err := s.cat.Export(cmd.Context(), f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
}

func newImportCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the categories and commands of a YAML export",
		Long: `The import command creates every category and command in the file as
new items. Shortcut keys must not clash with what is already stored; the first
rejected item stops the import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			return open(func(s *session) error {
				res, err := s.cat.Import(cmd.Context(), f)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d categories, %d commands\n", res.Categories, res.Commands)
				return err
			})
		},
	}
}

func newClearCmd(open opener) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("this removes every command and category; pass --yes to confirm")
			}
			return open(func(s *session) error {
				if err := s.cat.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted all data")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.Save(config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Path())
		},
	}

	cmd.AddCommand(initCmd, pathCmd)
	return cmd
}
