package safety

import (
	"path/filepath"
	"strings"

	"jarvis/internal/mode"
)

type Risk int

const (
	RiskSafe Risk = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "safe"
	}
}

type keywordRisk struct {
	keyword string
	risk    Risk
}

// checked in order, first hit wins
var riskyKeywords = []keywordRisk{
	{"shutdown", RiskCritical},
	{"restart", RiskCritical},
	{"delete", RiskHigh},
	{"remove", RiskHigh},
	{"format", RiskCritical},
	{"kill", RiskMedium},
	{"terminate", RiskMedium},
	{"close all", RiskMedium},
}

var DefaultProtectedPaths = []string{
	"/bin", "/sbin", "/usr", "/etc", "/boot", "/System", "/Library",
	`C:\Windows`, `C:\Program Files`, `C:\System32`,
}

type ModeGetter interface {
	Get() mode.Mode
}

type Options struct {
	RequireConfirmation bool
	ProtectedPaths      []string
	Mode                ModeGetter
}

type Layer struct {
	requireConfirmation bool
	protected           []string
	mode                ModeGetter
}

func New(opt Options) *Layer {
	paths := opt.ProtectedPaths
	if len(paths) == 0 {
		paths = DefaultProtectedPaths
	}
	return &Layer{
		requireConfirmation: opt.RequireConfirmation,
		protected:           append([]string(nil), paths...),
		mode:                opt.Mode,
	}
}

func (l *Layer) Assess(command string) Risk {
	lower := strings.ToLower(command)
	for _, kr := range riskyKeywords {
		if strings.Contains(lower, kr.keyword) {
			return kr.risk
		}
	}
	return RiskSafe
}

// GateEnabled reports whether destructive actions must be confirmed first.
// Safe mode forces the gate on.
func (l *Layer) GateEnabled() bool {
	if l.requireConfirmation {
		return true
	}
	return l.mode != nil && l.mode.Get() == mode.Safe
}

func (l *Layer) RequiresConfirmation(command string) bool {
	if !l.GateEnabled() {
		return false
	}
	r := l.Assess(command)
	return r == RiskHigh || r == RiskCritical
}

// PathSafe reports whether path lies outside every protected prefix.
func (l *Layer) PathSafe(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	abs = filepath.Clean(abs)

	for _, p := range l.protected {
		if abs == p || strings.HasPrefix(abs, strings.TrimSuffix(p, string(filepath.Separator))+string(filepath.Separator)) {
			return false
		}
	}
	return true
}
