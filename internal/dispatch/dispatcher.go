package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"jarvis/internal/memory"
	"jarvis/internal/metrics"
)

// SessionEnd is the text carried by a KindSessionEnd result.
const SessionEnd = "SESSION_END"

var exitPhrases = []string{"stop", "exit", "quit", "goodbye", "bye"}

type Kind int

const (
	// KindUnhandled means no route matched and the caller should ask the oracle.
	KindUnhandled Kind = iota
	KindHandled
	KindSessionEnd
)

func (k Kind) String() string {
	switch k {
	case KindHandled:
		return "handled"
	case KindSessionEnd:
		return "session_end"
	default:
		return "unhandled"
	}
}

type Result struct {
	Kind Kind
	Text string
	// Target is the referent produced by the matched route, if any.
	Target string
}

// Command is one utterance as seen by a route.
type Command struct {
	Raw string
	// Lower is the lowercased text with pronouns replaced by the last target.
	// Routes parse this one.
	Lower string

	// Target and Payload are filled by the route. Payload is what a deferred
	// action receives when the user confirms.
	Target  string
	Payload string
}

type HandlerFunc func(ctx context.Context, cmd *Command) (string, error)

type Route struct {
	Keyword string
	Handle  HandlerFunc
}

// Memory is the slice of context memory the dispatcher reads.
type Memory interface {
	Resolve(text string) (string, bool)
	Reference(slot string) string
	Legacy() bool
}

type Options struct {
	Memory    Memory
	Providers Providers
	Logger    *slog.Logger

	// Now and Pick default to time.Now and rand.IntN.
	Now  func() time.Time
	Pick func(n int) int
}

// Dispatcher maps an utterance to a route by first keyword match in
// registration order. Process calls are serialised.
type Dispatcher struct {
	mu sync.Mutex

	mem  Memory
	p    Providers
	log  *slog.Logger
	now  func() time.Time
	pick func(n int) int

	routes    []Route
	executors map[ActionKind]Executor
	pending   *PendingAction
}

func New(opt Options) *Dispatcher {
	d := &Dispatcher{
		mem:  opt.Memory,
		p:    opt.Providers,
		log:  opt.Logger,
		now:  opt.Now,
		pick: opt.Pick,
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.pick == nil {
		d.pick = rand.IntN
	}

	d.routes = d.table()
	d.executors = d.defaultExecutors()

	return d
}

// RegisterExecutor binds kind to fn, replacing the default executor.
func (d *Dispatcher) RegisterExecutor(kind ActionKind, fn Executor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executors[kind] = fn
}

// Routes returns the route keywords in match order.
func (d *Dispatcher) Routes() []string {
	out := make([]string, len(d.routes))
	for i, r := range d.routes {
		out[i] = r.Keyword
	}
	return out
}

// Pending returns the action awaiting confirmation, if any.
func (d *Dispatcher) Pending() (PendingAction, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil {
		return PendingAction{}, false
	}
	return *d.pending, true
}

func (d *Dispatcher) Process(ctx context.Context, text string) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	res := d.process(ctx, text)
	metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	metrics.CommandsTotal.WithLabelValues(res.Kind.String()).Inc()

	return res
}

func (d *Dispatcher) process(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Kind: KindUnhandled}
	}

	lower := strings.ToLower(text)

	if d.pending != nil {
		return d.settle(ctx, lower)
	}

	if d.mem != nil {
		if target, ok := d.mem.Resolve(lower); ok {
			lower = memory.Substitute(lower, target, d.mem.Legacy())
			d.log.Debug("Resolved reference", "target", target, "text", lower)
		}
	}

	if containsAny(lower, exitPhrases) {
		return Result{Kind: KindSessionEnd, Text: SessionEnd}
	}

	cmd := &Command{Raw: text, Lower: lower}
	for _, r := range d.routes {
		if strings.Contains(lower, r.Keyword) {
			return d.invoke(ctx, r, cmd)
		}
	}

	return Result{Kind: KindUnhandled}
}

func (d *Dispatcher) invoke(ctx context.Context, r Route, cmd *Command) Result {
	text, err := d.call(r.Keyword, func() (string, error) {
		return r.Handle(ctx, cmd)
	})
	if err != nil {
		return Result{Kind: KindHandled, Text: "Error executing command: " + err.Error()}
	}

	if kind, ok := ParseSentinel(text); ok {
		if _, known := d.executors[kind]; known {
			d.pending = &PendingAction{Kind: kind, Payload: cmd.Payload}
			metrics.Confirmations.WithLabelValues("requested").Inc()
			d.log.Info("Awaiting confirmation", "kind", kind, "payload", cmd.Payload)
		} else {
			d.log.Warn("No executor for confirmation", "kind", kind)
		}
	}

	return Result{Kind: KindHandled, Text: text, Target: cmd.Target}
}

// settle consumes the pending action. Whatever the verdict, the slot is
// empty afterwards.
func (d *Dispatcher) settle(ctx context.Context, lower string) Result {
	p := *d.pending
	d.pending = nil

	switch classify(lower) {
	case verdictYes:
		metrics.Confirmations.WithLabelValues("confirmed").Inc()
		exec := d.executors[p.Kind]
		text, err := d.call(string(p.Kind), func() (string, error) {
			return exec(ctx, p.Payload)
		})
		if err != nil {
			return Result{Kind: KindHandled, Text: "Error executing command: " + err.Error()}
		}
		return Result{Kind: KindHandled, Text: text}

	case verdictNo:
		metrics.Confirmations.WithLabelValues("cancelled").Inc()
		return Result{Kind: KindHandled, Text: cancelledReply}

	default:
		metrics.Confirmations.WithLabelValues("discarded").Inc()
		d.log.Info("Discarded pending action", "kind", p.Kind)
		return Result{Kind: KindHandled, Text: unconfirmedReply}
	}
}

// call runs fn and turns a panic into an error.
func (d *Dispatcher) call(route string, fn func() (string, error)) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
		if err != nil {
			metrics.HandlerFailures.WithLabelValues(route).Inc()
			d.log.Error("Handler failed", "route", route, "err", err)
		}
	}()

	return fn()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// after returns the trimmed text following the first sep in s.
func after(s, sep string) (string, bool) {
	_, rest, ok := strings.Cut(s, sep)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// spoken is the utterance with its original case, or Lower when a pronoun
// was substituted and the two no longer line up.
func (c *Command) spoken() string {
	if c.Raw != "" && strings.ToLower(c.Raw) == c.Lower {
		return c.Raw
	}
	return c.Lower
}

// cutFold is strings.Cut with sep matched against the lowercased s. The
// halves keep the case of s unless lowercasing changed its length.
func cutFold(s, sep string) (before, after string, found bool) {
	lower := strings.ToLower(s)
	i := strings.Index(lower, sep)
	if i < 0 {
		return "", "", false
	}
	if len(lower) != len(s) {
		s = lower
	}
	return s[:i], s[i+len(sep):], true
}

// afterFold is after for paths: sep is matched case-insensitively and the
// rest keeps the case it was spoken in.
func afterFold(s, sep string) (string, bool) {
	_, rest, ok := cutFold(s, sep)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
