package action

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"path/filepath"
	"strings"
	"time"

	"jarvis/internal/monitor"
)

const gib = 1 << 30

// System controls host volume and power, and reports its health.
type System struct {
	run     Runner
	os      string
	guard   Guard
	sampler monitor.Sampler
	battery monitor.BatteryReader
	shots   string
	now     func() time.Time
	log     *log.Logger
}

type SystemOptions struct {
	Runner  Runner
	OS      string
	Guard   Guard
	Sampler monitor.Sampler
	Battery monitor.BatteryReader
	// ScreenshotDir receives screenshots. Empty means the working directory.
	ScreenshotDir string
	Now           func() time.Time
	Logger        *log.Logger
}

func NewSystem(opt SystemOptions) *System {
	if opt.OS == "" {
		opt.OS = HostOS()
	}
	if opt.Sampler == nil {
		opt.Sampler = monitor.NewHostSampler()
	}
	if opt.Battery == nil {
		opt.Battery = monitor.SysfsBattery{Root: monitor.DefaultPowerSupplyRoot}
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	return &System{
		run:     opt.Runner,
		os:      opt.OS,
		guard:   opt.Guard,
		sampler: opt.Sampler,
		battery: opt.Battery,
		shots:   opt.ScreenshotDir,
		now:     opt.Now,
		log:     opt.Logger,
	}
}

func (s *System) do(ctx context.Context, ok, fail string, c Cmd) (string, error) {
	if _, err := s.run.Run(ctx, c); err != nil {
		s.log.Error(fail, "cmd", c.Name, "err", err)
		return fail + ".", nil
	}
	return ok, nil
}

func (s *System) osascript(script string) Cmd {
	return command("osascript", "-e", script)
}

func (s *System) VolumeUp(ctx context.Context) (string, error) {
	c := command("pactl", "set-sink-volume", "@DEFAULT_SINK@", "+10%")
	if s.os == Darwin {
		c = s.osascript("set volume output volume ((output volume of (get volume settings)) + 10)")
	}
	return s.do(ctx, "Volume increased, sir.", "Could not change volume", c)
}

func (s *System) VolumeDown(ctx context.Context) (string, error) {
	c := command("pactl", "set-sink-volume", "@DEFAULT_SINK@", "-10%")
	if s.os == Darwin {
		c = s.osascript("set volume output volume ((output volume of (get volume settings)) - 10)")
	}
	return s.do(ctx, "Volume decreased, sir.", "Could not change volume", c)
}

func (s *System) Mute(ctx context.Context) (string, error) {
	c := command("pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle")
	if s.os == Darwin {
		c = s.osascript("set volume with output muted")
	}
	return s.do(ctx, "Volume muted, sir.", "Could not mute volume", c)
}

func (s *System) Screenshot(ctx context.Context) (string, error) {
	name := fmt.Sprintf("screenshot_%s.png", s.now().Format("20060102_150405"))
	path := filepath.Join(s.shots, name)

	c := command("gnome-screenshot", "-f", path)
	if s.os == Darwin {
		c = command("screencapture", "-x", path)
	}
	return s.do(ctx, fmt.Sprintf("Screenshot saved: %s, sir.", name), "Could not take screenshot", c)
}

func (s *System) Lock(ctx context.Context) (string, error) {
	c := command("xdg-screensaver", "lock")
	if s.os == Darwin {
		c = command("pmset", "displaysleepnow")
	}
	return s.do(ctx, "System locked, sir.", "Could not lock system", c)
}

func (s *System) Shutdown(ctx context.Context, confirmed bool) (string, error) {
	if !confirmed && s.gated() {
		return "CONFIRM_SHUTDOWN: Are you sure you want to shutdown?", nil
	}

	c := command("shutdown", "-h", "now")
	if s.os == Darwin {
		c = s.osascript(`tell app "System Events" to shut down`)
	}
	s.log.Warn("Shutting down host")
	return s.do(ctx, "Shutting down system, sir.", "Could not shut down", c)
}

func (s *System) Restart(ctx context.Context, confirmed bool) (string, error) {
	if !confirmed && s.gated() {
		return "CONFIRM_RESTART: Are you sure you want to restart?", nil
	}

	c := command("shutdown", "-r", "now")
	if s.os == Darwin {
		c = s.osascript(`tell app "System Events" to restart`)
	}
	s.log.Warn("Restarting host")
	return s.do(ctx, "Restarting system, sir.", "Could not restart", c)
}

func (s *System) gated() bool {
	return s.guard == nil || s.guard.GateEnabled()
}

func (s *System) Info(ctx context.Context) (string, error) {
	sm, err := s.sampler.Sample(ctx)
	if err != nil {
		s.log.Error("System info error", "err", err)
		return "Could not get system info.", nil
	}

	var b strings.Builder
	b.WriteString("System Status:\n")
	fmt.Fprintf(&b, "CPU: %.1f%%\n", sm.CPU)
	fmt.Fprintf(&b, "Memory: %.1f%% (%.1fGB / %.1fGB)\n", sm.Memory, float64(sm.MemUsed)/gib, float64(sm.MemTotal)/gib)
	fmt.Fprintf(&b, "Disk: %.1f%% (%.1fGB / %.1fGB)", sm.Disk, float64(sm.DiskUsed)/gib, float64(sm.DiskTotal)/gib)

	if bat := sm.Battery; bat != nil {
		fmt.Fprintf(&b, "\nBattery: %.0f%% (%s)", bat.Percent, chargeState(bat))
	}
	return b.String(), nil
}

func (s *System) Battery(context.Context) (string, error) {
	bat, err := s.battery.Read()
	if errors.Is(err, monitor.ErrNoBattery) {
		return "No battery detected, sir.", nil
	}
	if err != nil {
		s.log.Error("Battery info error", "err", err)
		return "Could not get battery info.", nil
	}

	left := "calculating"
	if bat.Left > 0 {
		h := int(bat.Left.Hours())
		m := int(bat.Left.Minutes()) % 60
		left = fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("Battery: %.0f%%, %s. Time remaining: %s, sir.", bat.Percent, chargeState(bat), left), nil
}

func chargeState(b *monitor.Battery) string {
	if b.Plugged {
		return "charging"
	}
	return "discharging"
}
