package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jarvis/internal/assistant"
	"jarvis/internal/ipc"
	"jarvis/internal/mode"
	"jarvis/internal/session"
	"jarvis/internal/store"
)

const historyLimit = 10

// SessionControl is the part of the session loop the socket drives.
type SessionControl interface {
	Trigger()
	State() session.State
}

type pipeline interface {
	Handle(ctx context.Context, text string) assistant.Reply
	Stats() assistant.Stats
}

type journal interface {
	Commands(ctx context.Context, limit int) ([]store.CommandRecord, error)
	AddNote(ctx context.Context, text string, tags ...string) (store.Note, error)
	Notes(ctx context.Context) ([]store.Note, error)
}

type control struct {
	session   SessionControl
	assistant pipeline
	journal   journal
	mode      interface{ Get() mode.Mode }
}

// Control returns the handler for the daemon's control socket.
func (a *App) Control(s SessionControl) ipc.Handler {
	c := &control{session: s, assistant: a.Assistant, journal: a.Store, mode: a.Modes}
	return c.handle
}

func (c *control) handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Cmd {
	case ipc.CmdTrigger:
		c.session.Trigger()
		return ipc.Response{OK: true}

	case ipc.CmdSay:
		if strings.TrimSpace(req.Text) == "" {
			return ipc.Fail("say needs text")
		}
		r := c.assistant.Handle(ctx, req.Text)
		return ipc.Response{OK: true, Reply: r.Text, End: r.End}

	case ipc.CmdStatus:
		st := c.assistant.Stats()
		return ipc.Response{OK: true, Reply: fmt.Sprintf(
			"State %s, %s mode. %d commands processed, %d oracle queries, up %s.",
			c.session.State(), c.mode.Get(), st.CommandsProcessed, st.AIQueries, st.Uptime.Round(time.Second),
		)}

	case ipc.CmdHistory:
		recs, err := c.journal.Commands(ctx, historyLimit)
		if err != nil {
			return ipc.Fail("%v", err)
		}
		lines := make([]string, 0, len(recs))
		for _, r := range recs {
			lines = append(lines, fmt.Sprintf("%s  %s", r.At.Format(time.DateTime), r.Command))
		}
		return ipc.Response{OK: true, Lines: lines}

	case ipc.CmdNote:
		text, tags := splitTags(req.Text)
		if text == "" {
			return ipc.Fail("note needs text")
		}
		if _, err := c.journal.AddNote(ctx, text, tags...); err != nil {
			return ipc.Fail("%v", err)
		}
		return ipc.Response{OK: true, Reply: "Noted, sir."}

	case ipc.CmdNotes:
		notes, err := c.journal.Notes(ctx)
		if err != nil {
			return ipc.Fail("%v", err)
		}
		lines := make([]string, 0, len(notes))
		for _, n := range notes {
			line := fmt.Sprintf("%s  %s", n.At.Format(time.DateTime), n.Text)
			if len(n.Tags) > 0 {
				line += "  #" + strings.Join(n.Tags, " #")
			}
			lines = append(lines, line)
		}
		return ipc.Response{OK: true, Lines: lines}
	}

	return ipc.Fail("unknown command %q", req.Cmd)
}

// splitTags pulls #words out of a note.
func splitTags(s string) (string, []string) {
	var (
		words []string
		tags  []string
	)
	for _, f := range strings.Fields(s) {
		if tag, ok := strings.CutPrefix(f, "#"); ok && tag != "" {
			tags = append(tags, tag)
			continue
		}
		words = append(words, f)
	}
	return strings.Join(words, " "), tags
}
