package action

import (
	"context"
	"fmt"
	"strings"
)

// keyboard synthesizes input into the focused window: xdotool on Linux,
// System Events on macOS.
type keyboard struct {
	run Runner
	os  string
}

var macModifiers = map[string]string{
	"ctrl":  "command down",
	"cmd":   "command down",
	"shift": "shift down",
	"alt":   "option down",
}

var macKeyCodes = map[string]int{
	"Return": 36,
	"Tab":    48,
	"Escape": 53,
}

// Hotkey presses a chord such as "ctrl+shift+v".
func (k keyboard) Hotkey(ctx context.Context, chord string) error {
	if k.os != Darwin {
		_, err := k.run.Run(ctx, command("xdotool", "key", chord))
		return err
	}

	parts := strings.Split(chord, "+")
	key := parts[len(parts)-1]

	var mods []string
	for _, p := range parts[:len(parts)-1] {
		if m, ok := macModifiers[p]; ok {
			mods = append(mods, m)
		}
	}

	stroke := fmt.Sprintf("keystroke %q", key)
	if code, ok := macKeyCodes[key]; ok {
		stroke = fmt.Sprintf("key code %d", code)
	}
	if len(mods) > 0 {
		stroke += " using {" + strings.Join(mods, ", ") + "}"
	}
	_, err := k.run.Run(ctx, command("osascript", "-e", `tell application "System Events" to `+stroke))
	return err
}

func (k keyboard) Press(ctx context.Context, key string) error {
	return k.Hotkey(ctx, key)
}

func (k keyboard) Type(ctx context.Context, text string) error {
	if k.os != Darwin {
		_, err := k.run.Run(ctx, command("xdotool", "type", "--delay", "100", text))
		return err
	}
	_, err := k.run.Run(ctx, command("osascript", "-e", fmt.Sprintf(`tell application "System Events" to keystroke %q`, text)))
	return err
}
