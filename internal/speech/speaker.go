// Package speech turns reply text into audio: it shapes the text, picks the
// language and rate from the current Voice settings, lowers other audio while
// talking and hands the result to a synthesizer Engine.
package speech

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"jarvis/internal/mode"
)

// Engine synthesizes one utterance and blocks until it has been played.
type Engine interface {
	Say(u Utterance) error
}

type ModeGetter interface {
	Get() mode.Mode
}

type Options struct {
	Engine Engine
	Voice  *Voice
	Mode   ModeGetter
	// Ducker is optional.
	Ducker *Ducker
	// Echo receives every spoken line as it was written.
	Echo   io.Writer
	Logger *log.Logger
}

type Speaker struct {
	engine Engine
	voice  *Voice
	mode   ModeGetter
	ducker *Ducker
	echo   io.Writer
	log    *log.Logger

	mu       sync.Mutex
	speaking atomic.Bool
}

func New(opt Options) *Speaker {
	if opt.Voice == nil {
		opt.Voice = NewVoice(VoiceOptions{HumanLike: true})
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	return &Speaker{
		engine: opt.Engine,
		voice:  opt.Voice,
		mode:   opt.Mode,
		ducker: opt.Ducker,
		echo:   opt.Echo,
		log:    opt.Logger,
	}
}

func (s *Speaker) Voice() *Voice {
	return s.voice
}

func (s *Speaker) Speaking() bool {
	return s.speaking.Load()
}

// Speak says text and returns once it has been played. Calls are
// serialised.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	m := mode.Normal
	if s.mode != nil {
		m = s.mode.Get()
	}
	u := s.voice.Utterance(text, m)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.echo != nil {
		fmt.Fprintf(s.echo, "JARVIS: %s\n", text)
	}
	if u.Text == "" || s.engine == nil {
		return nil
	}

	s.speaking.Store(true)
	defer s.speaking.Store(false)

	if s.ducker != nil {
		if err := s.ducker.Duck(ctx); err != nil {
			s.log.Debug("Failed to duck audio", "err", err)
		}
		defer func() {
			if err := s.ducker.Unduck(context.WithoutCancel(ctx)); err != nil {
				s.log.Debug("Failed to restore audio", "err", err)
			}
		}()
	}

	s.log.Debug("Speaking", "lang", u.Language, "rate", u.Rate, "volume", u.Volume)
	if err := s.engine.Say(u); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}
