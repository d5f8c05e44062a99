package monitor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const DefaultPowerSupplyRoot = "/sys/class/power_supply"

var ErrNoBattery = errors.New("no battery")

type Battery struct {
	Percent float64
	Plugged bool
	// Left is the estimated time to empty. Zero when unknown or charging.
	Left time.Duration
}

type BatteryReader interface {
	Read() (*Battery, error)
}

// SysfsBattery reads the first BAT* entry under Root.
type SysfsBattery struct {
	Root string
}

func (s SysfsBattery) Read() (*Battery, error) {
	matches, err := filepath.Glob(filepath.Join(s.Root, "BAT*"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoBattery
	}
	dir := matches[0]

	capacity, err := readInt(filepath.Join(dir, "capacity"))
	if err != nil {
		return nil, fmt.Errorf("battery capacity: %w", err)
	}

	status, _ := os.ReadFile(filepath.Join(dir, "status"))
	b := &Battery{
		Percent: float64(capacity),
		Plugged: strings.TrimSpace(string(status)) != "Discharging",
	}

	if !b.Plugged {
		b.Left = timeLeft(dir)
	}
	return b, nil
}

// timeLeft estimates from energy_now/power_now, falling back to the
// charge_now/current_now pair some firmwares expose instead.
func timeLeft(dir string) time.Duration {
	pairs := [][2]string{{"energy_now", "power_now"}, {"charge_now", "current_now"}}
	for _, p := range pairs {
		amount, err1 := readInt(filepath.Join(dir, p[0]))
		rate, err2 := readInt(filepath.Join(dir, p[1]))
		if err1 != nil || err2 != nil || rate <= 0 {
			continue
		}
		hours := float64(amount) / float64(rate)
		return time.Duration(hours * float64(time.Hour)).Truncate(time.Minute)
	}
	return 0
}

func readInt(path string) (int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
}
