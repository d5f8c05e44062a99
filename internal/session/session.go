// Package session runs the voice loop: wait for the hotword, then listen,
// dispatch and speak until the user ends the session or goes quiet.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"jarvis/internal/assistant"
	"jarvis/internal/metrics"
	"jarvis/internal/monitor"
)

const DefaultMaxSilences = 3

type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateSpeaking   State = "speaking"
)

type Assistant interface {
	Handle(ctx context.Context, text string) assistant.Reply
}

// Listener returns one utterance, "" when nothing was heard. io.EOF ends
// the loop.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

type Hotword interface {
	Detect(ctx context.Context) (bool, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Chime interface {
	Play(ctx context.Context) error
}

type AlertSource interface {
	Drain() []monitor.Alert
}

// Resetter forgets per-session context such as pronoun references.
type Resetter interface {
	Clear()
}

type StateObserver interface {
	OnState(State)
}

// ObserverFunc adapts a function to StateObserver.
type ObserverFunc func(State)

func (f ObserverFunc) OnState(s State) { f(s) }

var (
	startup = []string{
		"JARVIS online and ready, sir. All systems operational.",
		"Good to see you, sir. JARVIS at your service.",
		"Systems initialized successfully. How may I assist you today, sir?",
		"JARVIS reporting for duty. Ready for your commands, sir.",
	}
	greetings = []string{
		"I'm listening, sir. How may I assist you?",
		"At your service. What do you need, sir?",
		"Ready and waiting. What can I do for you, sir?",
		"Systems online. How can I help, sir?",
	}
	farewells = []string{
		"Session ended. I'll be here when you need me, sir.",
		"Signing off. Call me anytime, sir.",
		"Going into standby mode. Just say my name when you're ready, sir.",
		"Session closed. I'm always here if you need anything, sir.",
	}
	goodbyes = []string{
		"Powering down systems. Goodbye, sir.",
		"Shutting down. It's been a pleasure serving you, sir.",
		"Going offline. Until next time, sir.",
		"Systems shutting down. Stay safe, sir.",
	}
)

type Options struct {
	Assistant Assistant
	Listener  Listener
	Hotword   Hotword
	Speaker   Speaker
	// Chime, Alerts, Observer and Memory are optional.
	Chime    Chime
	Alerts   AlertSource
	Observer StateObserver
	// Memory is cleared whenever a session returns to idle.
	Memory Resetter

	// MaxSilences ends a session after that many empty listens in a row.
	MaxSilences int
	// Retry is the pause after a failed listen.
	Retry  time.Duration
	Pick   func(n int) int
	Logger *log.Logger
}

type Controller struct {
	assistant Assistant
	listener  Listener
	hotword   Hotword
	speaker   Speaker
	chime     Chime
	alerts    AlertSource
	observer  StateObserver
	memory    Resetter

	maxSilences int
	retry       time.Duration
	pick        func(n int) int
	log         *log.Logger

	trigger chan struct{}

	mu     sync.Mutex
	state  State
	active bool
}

func New(opt Options) *Controller {
	if opt.MaxSilences <= 0 {
		opt.MaxSilences = DefaultMaxSilences
	}
	if opt.Retry <= 0 {
		opt.Retry = 500 * time.Millisecond
	}
	if opt.Pick == nil {
		opt.Pick = rand.IntN
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}

	return &Controller{
		assistant:   opt.Assistant,
		listener:    opt.Listener,
		hotword:     opt.Hotword,
		speaker:     opt.Speaker,
		chime:       opt.Chime,
		alerts:      opt.Alerts,
		observer:    opt.Observer,
		memory:      opt.Memory,
		maxSilences: opt.MaxSilences,
		retry:       opt.Retry,
		pick:        opt.Pick,
		log:         opt.Logger,
		trigger:     make(chan struct{}, 1),
		state:       StateIdle,
	}
}

// Trigger starts a session at the next idle iteration. Repeated triggers
// before then collapse into one.
func (c *Controller) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()

	if changed && c.observer != nil {
		c.observer.OnState(s)
	}
}

func (c *Controller) setActive(on bool) {
	c.mu.Lock()
	c.active = on
	c.mu.Unlock()
}

func (c *Controller) choose(lines []string) string {
	return lines[c.pick(len(lines))]
}

// Run loops until ctx is done or the input is exhausted.
func (c *Controller) Run(ctx context.Context) error {
	c.say(ctx, c.choose(startup))
	defer c.say(context.WithoutCancel(ctx), c.choose(goodbyes))

	for {
		if ctx.Err() != nil {
			return nil
		}
		c.speakAlerts(ctx)

		source, err := c.wait(ctx)
		if errors.Is(err, io.EOF) {
			c.log.Info("Input exhausted")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("Hotword detection failed", "err", err)
			c.pause(ctx)
			continue
		}
		if source == "" {
			continue
		}

		c.log.Info("Activated", "source", source)
		metrics.SessionActivations.WithLabelValues(source).Inc()

		if err := c.RunSession(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				c.log.Info("Input exhausted")
				return nil
			}
			return err
		}
	}
}

// wait returns the activation source, or "" when the window passed quietly.
func (c *Controller) wait(ctx context.Context) (string, error) {
	select {
	case <-c.trigger:
		return "trigger", nil
	default:
	}

	if c.hotword == nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-c.trigger:
			return "trigger", nil
		}
	}

	ok, err := c.hotword.Detect(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		return "hotword", nil
	}
	return "", nil
}

// RunSession handles one active session. It returns nil when the session
// ends normally or ctx is done.
func (c *Controller) RunSession(ctx context.Context) error {
	c.setActive(true)
	defer func() {
		if c.memory != nil {
			c.memory.Clear()
		}
		c.setActive(false)
		c.setState(StateIdle)
	}()

	if c.chime != nil {
		if err := c.chime.Play(ctx); err != nil {
			c.log.Debug("Failed to play chime", "err", err)
		}
	}
	c.say(ctx, c.choose(greetings))

	silences := 0
	for ctx.Err() == nil {
		c.speakAlerts(ctx)

		c.setState(StateListening)
		text, err := c.listener.Listen(ctx)
		if errors.Is(err, io.EOF) {
			return err
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("Failed to listen", "err", err)
			c.pause(ctx)
			continue
		}

		if text == "" {
			silences++
			if silences >= c.maxSilences {
				c.log.Info("No speech, returning to standby", "silences", silences)
				return nil
			}
			continue
		}
		silences = 0

		c.setState(StateProcessing)
		reply := c.assistant.Handle(ctx, text)

		if reply.End {
			c.say(ctx, c.choose(farewells))
			return nil
		}
		c.say(ctx, reply.Text)
	}
	return nil
}

// speakAlerts voices pending critical alerts. Others are only logged.
func (c *Controller) speakAlerts(ctx context.Context) {
	if c.alerts == nil {
		return
	}
	for _, a := range c.alerts.Drain() {
		if a.Level != monitor.LevelCritical {
			c.log.Warn("Health alert", "msg", a.Message)
			continue
		}
		c.say(ctx, fmt.Sprintf("Alert, sir. %s", a.Message))
	}
}

func (c *Controller) say(ctx context.Context, text string) {
	if text == "" || c.speaker == nil {
		return
	}

	prev := c.State()
	c.setState(StateSpeaking)
	defer c.setState(prev)

	if err := c.speaker.Speak(ctx, text); err != nil {
		c.log.Error("Failed to speak", "err", err)
	}
}

func (c *Controller) pause(ctx context.Context) {
	t := time.NewTimer(c.retry)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
