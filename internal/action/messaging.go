package action

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"jarvis/internal/store"
)

const whatsAppWeb = "https://web.whatsapp.com"

// CallLog persists call events.
type CallLog interface {
	LogCall(ctx context.Context, contact, kind string, status store.CallStatus) error
	Calls(ctx context.Context, limit int) ([]store.CallRecord, error)
}

type activeCall struct {
	contact string
	kind    string
}

// Messaging drives WhatsApp by synthesizing keystrokes into its window.
type Messaging struct {
	run   Runner
	os    string
	keys  keyboard
	calls CallLog
	pause func(ctx context.Context, d time.Duration) error
	log   *log.Logger

	mu     sync.Mutex
	active *activeCall
}

type MessagingOptions struct {
	Runner Runner
	OS     string
	Calls  CallLog
	// Pause waits between keystrokes so the UI can catch up.
	Pause  func(ctx context.Context, d time.Duration) error
	Logger *log.Logger
}

func NewMessaging(opt MessagingOptions) *Messaging {
	if opt.OS == "" {
		opt.OS = HostOS()
	}
	if opt.Pause == nil {
		opt.Pause = sleep
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	return &Messaging{
		run:   opt.Runner,
		os:    opt.OS,
		keys:  keyboard{run: opt.Runner, os: opt.OS},
		calls: opt.Calls,
		pause: opt.Pause,
		log:   opt.Logger,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// step is one keystroke action followed by a pause.
type step struct {
	do   func(context.Context) error
	wait time.Duration
}

func (m *Messaging) sequence(ctx context.Context, steps ...step) error {
	for _, s := range steps {
		if err := s.do(ctx); err != nil {
			return err
		}
		if s.wait > 0 {
			if err := m.pause(ctx, s.wait); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Messaging) hotkey(chord string, wait time.Duration) step {
	return step{func(ctx context.Context) error { return m.keys.Hotkey(ctx, chord) }, wait}
}

func (m *Messaging) typed(text string, wait time.Duration) step {
	return step{func(ctx context.Context) error { return m.keys.Type(ctx, text) }, wait}
}

func (m *Messaging) launch(ctx context.Context) error {
	if m.os == Darwin {
		_, err := m.run.Run(ctx, command("open", "-a", "WhatsApp"))
		return err
	}
	return openURL(m.run, m.os, whatsAppWeb)
}

func (m *Messaging) Open(ctx context.Context) (string, error) {
	if err := m.launch(ctx); err != nil {
		m.log.Error("Error opening WhatsApp", "err", err)
		return "Could not open WhatsApp, sir.", nil
	}
	if err := m.pause(ctx, 3*time.Second); err != nil {
		return "", err
	}
	return "WhatsApp opened. Please ensure you're logged in, sir.", nil
}

func (m *Messaging) Send(ctx context.Context, contact, message string) (string, error) {
	err := m.sequence(ctx,
		m.hotkey("alt+Tab", time.Second),
		m.hotkey("ctrl+f", 500*time.Millisecond),
		m.typed(contact, time.Second),
		m.hotkey("Return", time.Second),
		m.typed(message, 500*time.Millisecond),
		m.hotkey("Return", 0),
	)
	if err != nil {
		m.log.Error("Error sending message", "contact", contact, "err", err)
		return "Could not send message. Please ensure WhatsApp is open and focused.", nil
	}

	m.log.Info("Message sent", "contact", contact)
	return fmt.Sprintf("Message sent to %s, sir.", contact), nil
}

func (m *Messaging) Call(ctx context.Context, contact string, video bool) (string, error) {
	kind, chord := "voice", "ctrl+shift+c"
	if video {
		kind, chord = "video", "ctrl+shift+v"
	}

	if err := m.launch(ctx); err != nil {
		m.log.Error("Error opening WhatsApp", "err", err)
		return "Could not initiate call, sir.", nil
	}

	err := m.sequence(ctx,
		step{func(context.Context) error { return nil }, 2 * time.Second},
		m.hotkey("ctrl+f", 500*time.Millisecond),
		m.typed(contact, time.Second),
		m.hotkey("Return", time.Second),
		m.hotkey(chord, 0),
	)
	if err != nil {
		m.log.Error("Error initiating call", "contact", contact, "err", err)
		return "Could not initiate call, sir.", nil
	}

	m.mu.Lock()
	m.active = &activeCall{contact: contact, kind: kind}
	m.mu.Unlock()

	m.record(ctx, contact, kind, store.CallInitiated)
	return fmt.Sprintf("Calling %s (%s call), sir...", contact, kind), nil
}

func (m *Messaging) Accept(ctx context.Context) (string, error) {
	if err := m.keys.Hotkey(ctx, "ctrl+shift+a"); err != nil {
		m.log.Error("Error accepting call", "err", err)
		return "Could not accept call, sir.", nil
	}
	m.record(ctx, "unknown", "incoming", store.CallAccepted)
	return "Call accepted, sir.", nil
}

func (m *Messaging) Decline(ctx context.Context) (string, error) {
	if err := m.keys.Hotkey(ctx, "ctrl+shift+d"); err != nil {
		m.log.Error("Error declining call", "err", err)
		return "Could not decline call, sir.", nil
	}
	m.record(ctx, "unknown", "incoming", store.CallDeclined)
	return "Call declined, sir.", nil
}

func (m *Messaging) End(ctx context.Context) (string, error) {
	if err := m.keys.Hotkey(ctx, "ctrl+shift+e"); err != nil {
		m.log.Error("Error ending call", "err", err)
		return "Could not end call, sir.", nil
	}

	m.mu.Lock()
	call := m.active
	m.active = nil
	m.mu.Unlock()

	if call != nil {
		m.record(ctx, call.contact, call.kind, store.CallEnded)
	}
	return "Call ended, sir.", nil
}

func (m *Messaging) MuteCall(ctx context.Context) (string, error) {
	if err := m.keys.Hotkey(ctx, "ctrl+shift+m"); err != nil {
		m.log.Error("Error muting call", "err", err)
		return "Could not mute call, sir.", nil
	}
	return "Call muted/unmuted, sir.", nil
}

func (m *Messaging) ToggleSpeaker(ctx context.Context) (string, error) {
	if err := m.keys.Hotkey(ctx, "ctrl+shift+s"); err != nil {
		m.log.Error("Error toggling speaker", "err", err)
		return "Could not toggle speaker, sir.", nil
	}
	return "Speaker toggled, sir.", nil
}

func (m *Messaging) History(ctx context.Context, limit int) (string, error) {
	if m.calls == nil {
		return "No call history available.", nil
	}
	calls, err := m.calls.Calls(ctx, limit)
	if err != nil {
		return "", fmt.Errorf("call history: %w", err)
	}
	if len(calls) == 0 {
		return "No call history available.", nil
	}

	var b strings.Builder
	b.WriteString("Recent calls:")
	for _, c := range calls {
		fmt.Fprintf(&b, "\n- %s call to %s: %s (%s)", c.Kind, c.Contact, c.Status, c.At.Format(store.TimeLayout))
	}
	return b.String(), nil
}

func (m *Messaging) record(ctx context.Context, contact, kind string, status store.CallStatus) {
	if m.calls == nil {
		return
	}
	if err := m.calls.LogCall(ctx, contact, kind, status); err != nil {
		m.log.Warn("Failed to log call", "contact", contact, "status", status, "err", err)
	}
}
