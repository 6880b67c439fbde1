package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"keybox/catalog"
	"keybox/config"
	"keybox/db"
	"keybox/logger"
	"keybox/runner"
	"keybox/shortcut"
	"keybox/store"
	"keybox/ui"
)

const version = "0.1.0"

// session is what every subcommand works against once config is loaded.
type session struct {
	cfg     config.Config
	cat     *catalog.Catalog
	closers []io.Closer
}

func (s *session) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openSession is replaced in tests.
var openSession = func(dbPath string) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	logs, err := logger.Init(logger.Options{
		Enabled: cfg.Log.Enabled,
		Dir:     cfg.Log.Dir,
		Level:   cfg.Log.Level,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.L.Debug("opened database", "path", cfg.Database.Path)

	cat := catalog.New(store.New(database),
		catalog.WithDispatcher(runner.AppleScript{Binary: cfg.Dispatch.Osascript}))
	return &session{cfg: cfg, cat: cat, closers: []io.Closer{database, logs}}, nil
}

// opener runs fn with a session that is closed afterwards.
type opener func(fn func(s *session) error) error

func newRootCmd() *cobra.Command {
	var dbPath string

	open := func(fn func(s *session) error) error {
		s, err := openSession(dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(s)
	}

	root := &cobra.Command{
		Use:   "keybox",
		Short: "Run keyboard shortcuts by pressing a single key",
		Long: `keybox keeps a list of keyboard shortcuts, optionally grouped into
categories, each bound to a single key. Pressing the key in the launcher
sends the shortcut's keystroke to the focused application.

Run without arguments to open the launcher.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return open(func(s *session) error {
				return runLauncher(cmd.Context(), s)
			})
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "Database file (overrides database.path)")

	root.AddCommand(
		newListCmd(open),
		newAddCmd(open),
		newEditCmd(open),
		newDeleteCmd(open),
		newRunCmd(open),
		newExportCmd(open),
		newImportCmd(open),
		newClearCmd(open),
		newConfigCmd(),
	)
	return root
}

func runLauncher(ctx context.Context, s *session) error {
	app, err := ui.NewApp(ctx, s.cat, ui.Options{
		Policy: shortcut.Policy{
			ClearSearchOnAction: s.cfg.Launcher.ClearSearchOnAction,
			StartInSearch:       s.cfg.Launcher.StartInSearch,
		},
		Fuzzy:             s.cfg.Search.Fuzzy,
		DispatchAfterExit: s.cfg.Dispatch.AfterExit,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	// The keystroke goes out after the launcher has released the terminal so
	// it reaches the previously focused window.
	if cmd := app.Selected(); cmd != nil {
		return s.cat.Run(ctx, *cmd)
	}
	return nil
}

func execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
