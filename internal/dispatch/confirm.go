package dispatch

import (
	"context"
	"strings"
)

// ActionKind is the sentinel prefix a provider puts in front of its reply
// to ask for confirmation.
type ActionKind string

const (
	ActionDelete   ActionKind = "CONFIRM_DELETE"
	ActionShutdown ActionKind = "CONFIRM_SHUTDOWN"
	ActionRestart  ActionKind = "CONFIRM_RESTART"
)

var sentinels = []ActionKind{ActionDelete, ActionShutdown, ActionRestart}

// ParseSentinel reports which confirmation kind text asks for, if any.
func ParseSentinel(text string) (ActionKind, bool) {
	for _, k := range sentinels {
		if strings.HasPrefix(text, string(k)+":") {
			return k, true
		}
	}
	return "", false
}

// PendingAction is the single deferred action waiting for a yes or no.
type PendingAction struct {
	Kind    ActionKind
	Payload string
}

// Executor runs the confirmed form of a deferred action.
type Executor func(ctx context.Context, payload string) (string, error)

const (
	cancelledReply   = "Operation cancelled, sir."
	unconfirmedReply = "No confirmation received. Operation cancelled, sir."
)

var (
	affirmatives = []string{"yes", "confirm", "sure", "ok", "proceed"}
	negatives    = []string{"no", "cancel", "abort", "nevermind"}
)

type verdict int

const (
	verdictNone verdict = iota
	verdictYes
	verdictNo
)

// classify checks affirmatives first, so "no problem, proceed" confirms.
func classify(lower string) verdict {
	switch {
	case containsAny(lower, affirmatives):
		return verdictYes
	case containsAny(lower, negatives):
		return verdictNo
	default:
		return verdictNone
	}
}

func (d *Dispatcher) defaultExecutors() map[ActionKind]Executor {
	ex := make(map[ActionKind]Executor)

	if f := d.p.Files; f != nil {
		ex[ActionDelete] = func(ctx context.Context, path string) (string, error) {
			return f.Delete(ctx, path, true)
		}
	}
	if s := d.p.System; s != nil {
		ex[ActionShutdown] = func(ctx context.Context, _ string) (string, error) {
			return s.Shutdown(ctx, true)
		}
		ex[ActionRestart] = func(ctx context.Context, _ string) (string, error) {
			return s.Restart(ctx, true)
		}
	}

	return ex
}
