package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"keybox/catalog"
	"keybox/logger"
	"keybox/model"
	"keybox/shortcut"
)

type screen int

const (
	screenList screen = iota
	screenForm
	screenConfirm
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// Options configures the launcher.
type Options struct {
	Policy shortcut.Policy
	Fuzzy  bool
	// DispatchAfterExit quits the program when a command is chosen and leaves
	// the keystroke to the caller, see App.Selected.
	DispatchAfterExit bool
}

type confirmation struct {
	prompt string
	action func(ctx context.Context) (string, error)
}

type App struct {
	ctx  context.Context
	cat  *catalog.Catalog
	opts Options

	snap     catalog.Snapshot
	items    []shortcut.Item
	launcher shortcut.Launcher

	// UI state
	screen screen
	cursor int
	width  int
	height int
	err    string
	status string

	searchInput textinput.Model

	form    *form
	confirm *confirmation

	selected *model.Command
}

func NewApp(ctx context.Context, c *catalog.Catalog, opts Options) (*App, error) {
	snap, err := c.Reload(ctx)
	if err != nil {
		return nil, err
	}

	search := textinput.New()
	search.Focus()

	app := &App{
		ctx:         ctx,
		cat:         c,
		opts:        opts,
		snap:        snap,
		launcher:    shortcut.NewLauncher(opts.Policy),
		searchInput: search,
	}
	app.filterItems()
	return app, nil
}

// Selected is the command chosen when the program quit to dispatch it.
func (a *App) Selected() *model.Command {
	return a.selected
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

type dispatchedMsg struct {
	cmd model.Command
	err error
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width - 4   // account for app padding
		a.height = msg.Height - 2 // account for app padding
		return a, nil

	case dispatchedMsg:
		if msg.err != nil {
			a.err = msg.err.Error()
			logger.L.Error("dispatch failed", "id", msg.cmd.ID, "err", msg.err)
		} else {
			a.status = "Sent " + msg.cmd.Label()
		}
		return a, nil

	case tea.KeyMsg:
		a.err = ""
		a.status = ""

		switch a.screen {
		case screenList:
			return a.updateList(msg)
		case screenForm:
			return a.updateForm(msg)
		case screenConfirm:
			return a.updateConfirm(msg)
		}
	}

	return a, nil
}

func (a *App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "tab":
		a.launcher = a.launcher.Toggle()
		a.filterItems()

	case "up":
		if a.cursor > 0 {
			a.cursor--
		}

	case "down":
		if a.cursor < len(a.items)-1 {
			a.cursor++
		}

	case "enter":
		if len(a.items) > 0 {
			var eff shortcut.Effect
			a.launcher, eff = a.launcher.Activate(a.items[a.cursor])
			return a.apply(eff)
		}

	case "esc":
		if l, ok := a.launcher.Leave(); ok {
			a.launcher = l
			a.cursor = 0
			a.filterItems()
			return a, nil
		}
		if a.launcher.Search != "" {
			a.launcher.Search = ""
			a.filterItems()
			return a, nil
		}
		return a, tea.Quit

	case "backspace":
		a.launcher = a.launcher.Backspace()
		a.filterItems()

	case "ctrl+n":
		a.openForm(newCommandForm(nil, a.launcher.Scope, a.snap.Categories))

	case "ctrl+k":
		a.openForm(newCategoryForm(nil))

	case "ctrl+e":
		if it, ok := a.current(); ok {
			if it.Category != nil {
				a.openForm(newCategoryForm(it.Category))
			} else {
				a.openForm(newCommandForm(it.Command, a.launcher.Scope, a.snap.Categories))
			}
		}

	case "ctrl+x":
		if it, ok := a.current(); ok {
			a.askDelete(it)
		}

	case "ctrl+d":
		a.screen = screenConfirm
		a.confirm = &confirmation{
			prompt: "Delete all data? All commands and categories will be removed.",
			action: func(ctx context.Context) (string, error) {
				return "Deleted all data", a.cat.Clear(ctx)
			},
		}

	case "ctrl+y":
		if it, ok := a.current(); ok && it.Command != nil {
			if err := writeClipboard(it.Command.Label()); err != nil {
				a.err = err.Error()
			} else {
				a.status = "Copied " + it.Command.Label()
			}
		}

	default:
		return a.typeRunes(msg)
	}

	return a, nil
}

func (a *App) typeRunes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var runes []rune
	switch msg.Type {
	case tea.KeyRunes:
		runes = msg.Runes
	case tea.KeySpace:
		runes = []rune{' '}
	default:
		return a, nil
	}

	for _, r := range runes {
		var eff shortcut.Effect
		a.launcher, eff = a.launcher.Type(r, a.items)
		if eff.Kind != shortcut.EffectNone {
			return a.apply(eff)
		}
	}
	a.filterItems()
	return a, nil
}

func (a *App) apply(eff shortcut.Effect) (tea.Model, tea.Cmd) {
	switch eff.Kind {
	case shortcut.EffectEnterCategory:
		a.cursor = 0
		a.filterItems()
	case shortcut.EffectRunCommand:
		return a, a.runCommand(*eff.Item.Command)
	}
	return a, nil
}

func (a *App) runCommand(cmd model.Command) tea.Cmd {
	if a.opts.DispatchAfterExit {
		a.selected = &cmd
		return tea.Quit
	}
	ctx, c := a.ctx, a.cat
	return func() tea.Msg {
		return dispatchedMsg{cmd: cmd, err: c.Run(ctx, cmd)}
	}
}

func (a *App) current() (shortcut.Item, bool) {
	if len(a.items) == 0 {
		return shortcut.Item{}, false
	}
	return a.items[a.cursor], true
}

func (a *App) askDelete(it shortcut.Item) {
	e := it.Entity()
	a.screen = screenConfirm
	if it.Category != nil {
		a.confirm = &confirmation{
			prompt: fmt.Sprintf("Delete category '%s'? Its commands move to the top level.", e.Title),
			action: func(ctx context.Context) (string, error) {
				moved, err := a.cat.DeleteCategory(ctx, e.ID)
				return fmt.Sprintf("Deleted! %d command(s) moved to the top level", moved), err
			},
		}
		return
	}
	a.confirm = &confirmation{
		prompt: fmt.Sprintf("Delete command '%s'?", e.Title),
		action: func(ctx context.Context) (string, error) {
			return "Deleted!", a.cat.DeleteCommand(ctx, e.ID)
		},
	}
}

func (a *App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		status, err := a.confirm.action(a.ctx)
		if err != nil {
			a.err = err.Error()
		} else {
			a.status = status
		}
		a.closeOverlay()
		return a, nil

	case "n", "N", "esc":
		a.closeOverlay()
		return a, nil

	case "ctrl+c":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) openForm(f *form) {
	a.form = f
	a.screen = screenForm
}

func (a *App) closeOverlay() {
	a.screen = screenList
	a.form = nil
	a.confirm = nil
	a.refresh()
}

func (a *App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "esc":
		a.screen = screenList
		a.form = nil
		return a, nil

	case "tab", "down":
		return a, a.form.move(1)

	case "shift+tab", "up":
		return a, a.form.move(-1)

	case "enter":
		return a.submitForm()

	default:
		return a, a.form.update(msg)
	}
}

func (a *App) submitForm() (tea.Model, tea.Cmd) {
	f := a.form
	var (
		title string
		err   error
	)
	if f.kind == model.TypeCategory {
		in := f.categoryInput()
		title = in.Title
		if f.editingID == "" {
			_, err = a.cat.CreateCategory(a.ctx, in)
		} else {
			_, err = a.cat.UpdateCategory(a.ctx, f.editingID, categoryPatch(in))
		}
	} else {
		var in catalog.CommandInput
		in, err = f.commandInput()
		title = in.Title
		if err == nil {
			if f.editingID == "" {
				_, err = a.cat.CreateCommand(a.ctx, in)
			} else {
				_, err = a.cat.UpdateCommand(a.ctx, f.editingID, commandPatch(in))
			}
		}
	}

	if ve, ok := catalog.IsValidation(err); ok {
		f.errs[ve.Field] = ve.Message
		a.err = ve.Message
		return a, nil
	}
	if err != nil {
		a.err = err.Error()
		return a, nil
	}

	if f.kind == model.TypeCategory {
		a.status = fmt.Sprintf("Category %q saved", title)
	} else {
		a.status = fmt.Sprintf("Command %q saved", title)
	}
	a.closeOverlay()
	return a, nil
}

// refresh reloads the snapshot from storage and leaves a scope whose
// category no longer exists.
func (a *App) refresh() {
	snap, err := a.cat.Reload(a.ctx)
	if err != nil {
		a.err = err.Error()
		return
	}
	a.snap = snap
	if a.launcher.Scope != "" {
		if _, ok := snap.Category(a.launcher.Scope); !ok {
			a.launcher, _ = a.launcher.Leave()
		}
	}
	a.filterItems()
}

func (a *App) filterItems() {
	query := a.launcher.Filter()
	if a.opts.Fuzzy {
		a.items = shortcut.FuzzyFilter(a.snap.Items(a.launcher.Scope, ""), query)
	} else {
		a.items = a.snap.Items(a.launcher.Scope, query)
	}

	a.searchInput.Placeholder = a.launcher.Placeholder()
	a.searchInput.SetValue(query)
	a.searchInput.CursorEnd()

	if a.cursor >= len(a.items) {
		a.cursor = max(0, len(a.items)-1)
	}
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	// Title
	b.WriteString(titleStyle.Render("keybox"))
	if a.launcher.Scope != "" {
		if c, ok := a.snap.Category(a.launcher.Scope); ok {
			b.WriteString(breadcrumbStyle.Render(" › " + c.Title))
		}
	}
	b.WriteString("  ")
	if a.launcher.Mode == shortcut.SearchMode {
		b.WriteString(searchModeStyle.Render("SEARCH"))
	} else {
		b.WriteString(modeStyle.Render("ACTION"))
	}
	b.WriteString("\n\n")

	// Search bar
	b.WriteString(searchStyle.Width(a.width - 4).Render(a.searchInput.View()))
	b.WriteString("\n\n")

	listHeight := a.height - 10
	if listHeight < 3 {
		listHeight = 3
	}

	if a.screen == screenForm {
		b.WriteString(a.form.view(a.width))
	} else {
		b.WriteString(a.renderList(listHeight))
	}

	if a.screen == screenConfirm {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render(a.confirm.prompt + " (y/n)"))
		b.WriteString("\n")
	}

	// Status/error
	if a.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + a.err))
		b.WriteString("\n")
	}
	if a.status != "" {
		b.WriteString("\n")
		b.WriteString(successStyle.Render(a.status))
		b.WriteString("\n")
	}

	// Help bar
	b.WriteString("\n")
	b.WriteString(a.renderHelp())

	return appStyle.Render(b.String())
}

func (a *App) renderList(height int) string {
	if len(a.items) == 0 {
		if a.launcher.Filter() != "" {
			return mutedStyle.Render("No matching commands\nCommand matching your search could not be found\n")
		}
		return mutedStyle.Render("No commands configured\nPress ctrl+n to create a new command\n")
	}

	// each item takes two lines
	visible := height / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if a.cursor >= visible {
		start = a.cursor - visible + 1
	}
	end := start + visible
	if end > len(a.items) {
		end = len(a.items)
	}

	var lines []string
	for i := start; i < end; i++ {
		it := a.items[i]
		e := it.Entity()

		prefix := "  "
		style := normalStyle
		if it.Category != nil {
			style = categoryStyle
		}
		if i == a.cursor {
			prefix = "▸ "
			style = selectedStyle
		}

		row := tagStyle.Render(e.ShortcutKey) + " " + style.Render(prefix+e.Title)
		if it.Category != nil {
			row += keysStyle.Render("  ›")
		} else {
			row += "  " + keysStyle.Render(it.Command.Label())
		}
		detail := descStyle.Render("    " + truncate(e.Description, a.width-10))
		lines = append(lines, row, detail)
	}

	return strings.Join(lines, "\n") + "\n"
}

func (a *App) renderHelp() string {
	if a.screen != screenList {
		return ""
	}

	keys := []struct{ key, desc string }{
		{"tab", "toggle search"},
		{"enter", "open/run"},
		{"ctrl+n", "new command"},
		{"ctrl+k", "new category"},
		{"ctrl+e", "edit"},
		{"ctrl+x", "delete"},
		{"ctrl+y", "copy"},
		{"esc", "back"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, helpKeyStyle.Render(k.key)+" "+helpStyle.Render(k.desc))
	}

	return strings.Join(parts, "  ")
}

func truncate(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
