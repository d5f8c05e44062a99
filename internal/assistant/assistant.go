package assistant

import (
	"context"
	"errors"
	log "log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"jarvis/internal/dispatch"
	"jarvis/internal/oracle"
	"jarvis/internal/safety"
)

const (
	SessionEndedReply = "Session ended. Say my name when you need me, sir."
	TimeoutReply      = "AI response timeout. Please try again, sir."
	TroubleReply      = "I'm having trouble processing that request, sir."
)

type Dispatcher interface {
	Process(ctx context.Context, text string) dispatch.Result
}

type Oracle interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// History persists every command the assistant sees.
type History interface {
	LogCommand(ctx context.Context, command string) error
}

type Memory interface {
	Record(command, target, result string)
}

type RiskAssessor interface {
	Assess(command string) safety.Risk
	RequiresConfirmation(command string) bool
}

type Options struct {
	Dispatcher Dispatcher
	// Oracle, History, Memory and Safety are optional.
	Oracle  Oracle
	History History
	Memory  Memory
	Safety  RiskAssessor
	Logger  *log.Logger
	Now     func() time.Time
}

type Reply struct {
	Text string
	// End is set when the user closed the session.
	End bool
	// FromOracle is set when no route matched and the oracle answered.
	FromOracle bool
}

type Stats struct {
	CommandsProcessed int64
	AIQueries         int64
	Uptime            time.Duration
}

// Assistant is the command pipeline between the session loop and the
// dispatcher: it logs, dispatches, falls back to the oracle and remembers.
type Assistant struct {
	d       Dispatcher
	oracle  Oracle
	history History
	mem     Memory
	safety  RiskAssessor
	log     *log.Logger
	now     func() time.Time

	// seq makes each command, from dispatch to memory record, finish
	// before the next one starts.
	seq sync.Mutex

	started   time.Time
	commands  atomic.Int64
	aiQueries atomic.Int64
}

func New(opt Options) *Assistant {
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}

	return &Assistant{
		d:       opt.Dispatcher,
		oracle:  opt.Oracle,
		history: opt.History,
		mem:     opt.Memory,
		safety:  opt.Safety,
		log:     opt.Logger,
		now:     opt.Now,
		started: opt.Now(),
	}
}

func (a *Assistant) Handle(ctx context.Context, text string) Reply {
	if strings.TrimSpace(text) == "" {
		return Reply{}
	}

	a.seq.Lock()
	defer a.seq.Unlock()

	a.commands.Add(1)

	if a.history != nil {
		if err := a.history.LogCommand(ctx, text); err != nil {
			a.log.Warn("Failed to log command", "err", err)
		}
	}

	if a.safety != nil {
		if risk := a.safety.Assess(text); risk >= safety.RiskHigh {
			a.log.Info("Risky command", "risk", risk, "confirm", a.safety.RequiresConfirmation(text), "command", text)
		}
	}

	res := a.d.Process(ctx, text)

	var reply Reply
	switch res.Kind {
	case dispatch.KindSessionEnd:
		reply = Reply{Text: SessionEndedReply, End: true}
	case dispatch.KindUnhandled:
		reply = Reply{Text: a.ask(ctx, text), FromOracle: true}
	default:
		reply = Reply{Text: res.Text}
	}

	if a.mem != nil {
		a.mem.Record(text, res.Target, reply.Text)
	}

	return reply
}

func (a *Assistant) ask(ctx context.Context, text string) string {
	a.aiQueries.Add(1)

	if a.oracle == nil {
		return TroubleReply
	}

	answer, err := a.oracle.Ask(ctx, text)
	switch {
	case err == nil:
		return answer
	case errors.Is(err, oracle.ErrTimeout):
		a.log.Warn("Oracle timed out", "err", err)
		return TimeoutReply
	default:
		a.log.Error("AI query error", "err", err)
		return TroubleReply
	}
}

func (a *Assistant) Stats() Stats {
	return Stats{
		CommandsProcessed: a.commands.Load(),
		AIQueries:         a.aiQueries.Load(),
		Uptime:            a.now().Sub(a.started),
	}
}
