package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"keybox/model"
)

// Dispatcher synthesises a keystroke in the frontmost application.
type Dispatcher interface {
	Dispatch(ctx context.Context, modifiers []model.Modifier, keys string) error
}

// KeyText applies the case rule for a command's keys: upper-case when shift
// is held, lower-case otherwise.
func KeyText(c model.Command) string {
	if model.HasModifier(c.Modifiers, model.ModShift) {
		return strings.ToUpper(c.CommandKeys)
	}
	return strings.ToLower(c.CommandKeys)
}

// Run sends the command's keystroke through d. Errors are returned as-is.
func Run(ctx context.Context, d Dispatcher, c model.Command) error {
	return d.Dispatch(ctx, model.SortModifiers(c.Modifiers), KeyText(c))
}

// Script builds the System Events AppleScript for one keystroke.
func Script(modifiers []model.Modifier, keys string) string {
	var b strings.Builder
	b.WriteString(`tell application "System Events" to keystroke "`)
	b.WriteString(escape(keys))
	b.WriteString(`"`)

	mods := model.SortModifiers(modifiers)
	if len(mods) > 0 {
		parts := make([]string, len(mods))
		for i, m := range mods {
			parts[i] = string(m) + " down"
		}
		b.WriteString(" using {")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("}")
	}
	return b.String()
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// AppleScript dispatches through osascript.
type AppleScript struct {
	// Binary defaults to "osascript".
	Binary string
}

func (a AppleScript) Dispatch(ctx context.Context, modifiers []model.Modifier, keys string) error {
	bin := a.Binary
	if bin == "" {
		bin = "osascript"
	}
	var stderr bytes.Buffer
	c := exec.CommandContext(ctx, bin, "-e", Script(modifiers, keys))
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", bin, err, msg)
		}
		return fmt.Errorf("%s: %w", bin, err)
	}
	return nil
}
