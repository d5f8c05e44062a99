package mode

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

type Mode string

const (
	Normal        Mode = "normal"
	Silent        Mode = "silent"
	Developer     Mode = "developer"
	Presentation  Mode = "presentation"
	Safe          Mode = "safe"
	Night         Mode = "night"
	Idle          Mode = "idle"
	Active        Mode = "active"
	Alert         Mode = "alert"
	Entertainment Mode = "entertainment"
)

var all = []Mode{
	Normal, Silent, Developer, Presentation, Safe,
	Night, Idle, Active, Alert, Entertainment,
}

func All() []Mode {
	return append([]Mode(nil), all...)
}

func Parse(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range all {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Holder keeps the current operation mode. It only changes through Set.
type Holder struct {
	mu  sync.RWMutex
	cur Mode

	observers []func(Mode)
}

func NewHolder(initial Mode) *Holder {
	if initial == "" {
		initial = Normal
	}
	return &Holder{cur: initial}
}

func (h *Holder) Get() Mode {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cur
}

func (h *Holder) Set(m Mode) {
	h.mu.Lock()
	h.cur = m
	obs := slices.Clone(h.observers)
	h.mu.Unlock()

	for _, fn := range obs {
		fn(m)
	}
}

// OnChange registers fn to run after every Set.
func (h *Holder) OnChange(fn func(Mode)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, fn)
}
