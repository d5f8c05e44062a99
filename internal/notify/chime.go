// Package notify signals activation with a short sound and a desktop
// notification.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Chime plays an mp3 cue. The speaker is initialised on first use with the
// file's sample rate.
type Chime struct {
	path string

	mu     sync.Mutex
	buffer *beep.Buffer
	inited bool
}

func NewChime(path string) *Chime {
	return &Chime{path: path}
}

func (c *Chime) load() error {
	if c.buffer != nil {
		return nil
	}

	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("open chime: %w", err)
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode chime: %w", err)
	}
	defer streamer.Close()

	if !c.inited {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
		c.inited = true
	}

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	c.buffer = buf
	return nil
}

// Play blocks until the chime has finished or ctx is done.
func (c *Chime) Play(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(); err != nil {
		return err
	}

	done := make(chan struct{})
	s := c.buffer.Streamer(0, c.buffer.Len())
	speaker.Play(beep.Seq(s, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// Desktop posts a notification through notify-send.
type Desktop struct {
	App     string
	Timeout time.Duration
	// Exec runs the command; nil uses os/exec.
	Exec func(ctx context.Context, name string, args ...string) error
}

func (d Desktop) Notify(ctx context.Context, summary, body string) error {
	args := []string{}
	if d.App != "" {
		args = append(args, "--app-name="+d.App)
	}
	if d.Timeout > 0 {
		args = append(args, fmt.Sprintf("--expire-time=%d", d.Timeout.Milliseconds()))
	}
	args = append(args, summary)
	if body != "" {
		args = append(args, body)
	}

	run := d.Exec
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		}
	}
	if err := run(ctx, "notify-send", args...); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}

type Player interface {
	Play(ctx context.Context) error
}

// Cue announces that the assistant is listening: a desktop notification
// followed by the chime. Either part may be nil. A failed notification does
// not stop the chime.
type Cue struct {
	Sound   Player
	Desktop *Desktop
	Message string
}

func (c Cue) Play(ctx context.Context) error {
	var errs []error
	if c.Desktop != nil {
		msg := c.Message
		if msg == "" {
			msg = "Listening..."
		}
		if err := c.Desktop.Notify(ctx, msg, ""); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Sound != nil {
		if err := c.Sound.Play(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
