package action

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
)

var appNames = map[string]map[string]string{
	Linux: {
		"chrome":     "google-chrome",
		"firefox":    "firefox",
		"terminal":   "gnome-terminal",
		"files":      "nautilus",
		"vscode":     "code",
		"spotify":    "spotify",
		"calculator": "gnome-calculator",
	},
	Darwin: {
		"safari": "Safari", "chrome": "Google Chrome", "firefox": "Firefox",
		"vscode": "Visual Studio Code", "code": "Visual Studio Code",
		"terminal": "Terminal", "finder": "Finder", "mail": "Mail",
		"notes": "Notes", "calendar": "Calendar", "music": "Music",
		"photos": "Photos", "messages": "Messages", "spotify": "Spotify",
		"slack": "Slack", "zoom": "zoom.us", "whatsapp": "WhatsApp",
		"telegram": "Telegram", "discord": "Discord", "excel": "Microsoft Excel",
		"word": "Microsoft Word", "powerpoint": "Microsoft PowerPoint",
		"calculator": "Calculator", "preview": "Preview", "facetime": "FaceTime",
	},
}

// Apps launches and closes desktop applications.
type Apps struct {
	run Runner
	os  string
	log *log.Logger
}

func NewApps(r Runner, goos string, logger *log.Logger) *Apps {
	if logger == nil {
		logger = log.Default()
	}
	return &Apps{run: r, os: goos, log: logger}
}

// Resolve maps a spoken application name to what the platform launches.
func (a *Apps) Resolve(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if actual, ok := appNames[a.os][key]; ok {
		return actual
	}
	return name
}

// Open launches name and returns the resolved executable as the target.
func (a *Apps) Open(ctx context.Context, name string) (string, string, error) {
	actual := a.Resolve(name)

	var err error
	if a.os == Darwin {
		_, err = a.run.Run(ctx, command("open", "-a", actual))
	} else {
		err = a.run.Start(command(actual))
	}
	if err != nil {
		a.log.Error("Error opening app", "app", actual, "err", err)
		return fmt.Sprintf("Could not open %s, sir.", name), "", nil
	}

	return fmt.Sprintf("Opening %s, sir.", actual), actual, nil
}

func (a *Apps) Close(ctx context.Context, name string) (string, error) {
	var c Cmd
	if a.os == Darwin {
		c = command("osascript", "-e", fmt.Sprintf("quit app %q", name))
	} else {
		c = command("pkill", name)
	}

	if _, err := a.run.Run(ctx, c); err != nil {
		a.log.Error("Error closing app", "app", name, "err", err)
		return fmt.Sprintf("Could not close %s, sir.", name), nil
	}
	return fmt.Sprintf("Closing %s, sir.", name), nil
}

func (a *Apps) Minimize(ctx context.Context) (string, error) {
	var c Cmd
	if a.os == Darwin {
		c = command("osascript", "-e", `tell application "System Events" to keystroke "m" using command down`)
	} else {
		c = command("xdotool", "getactivewindow", "windowminimize")
	}

	if _, err := a.run.Run(ctx, c); err != nil {
		a.log.Error("Minimize error", "err", err)
		return "Could not minimize window.", nil
	}
	return "Window minimized, sir.", nil
}

func (a *Apps) Maximize(ctx context.Context) (string, error) {
	if a.os == Darwin {
		return "Window maximized, sir.", nil
	}

	c := command("wmctrl", "-r", ":ACTIVE:", "-b", "add,maximized_vert,maximized_horz")
	if _, err := a.run.Run(ctx, c); err != nil {
		a.log.Error("Maximize error", "err", err)
		return "Could not maximize window.", nil
	}
	return "Window maximized, sir.", nil
}
