// Package voice turns microphone input into command text.
package voice

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"strings"
	"time"

	"jarvis/internal/audio"
)

const DefaultHotword = "jarvis"

// Recorder captures 16 kHz mono PCM.
type Recorder interface {
	Record(ctx context.Context, v audio.VAD) ([]float32, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32, language string) (string, error)
}

type ListenerOptions struct {
	Recorder    Recorder
	Transcriber Transcriber
	// Timeout is how long to wait for speech to start.
	Timeout time.Duration
	// PhraseLimit caps one utterance.
	PhraseLimit time.Duration
	// Threshold overrides the speech energy level when positive.
	Threshold float64
	// Language is passed to the transcriber; empty means its default.
	Language string
	Logger   *log.Logger
}

// Listener records one utterance at a time and returns it as lowercase
// text.
type Listener struct {
	rec      Recorder
	stt      Transcriber
	vad      audio.VAD
	language string
	log      *log.Logger
}

func NewListener(opt ListenerOptions) *Listener {
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	vad := audio.DefaultVAD()
	if opt.Timeout > 0 {
		vad.Onset = opt.Timeout
	}
	if opt.PhraseLimit > 0 {
		vad.MaxLength = opt.PhraseLimit
	}
	if opt.Threshold > 0 {
		vad.Threshold = opt.Threshold
	}
	return &Listener{
		rec:      opt.Recorder,
		stt:      opt.Transcriber,
		vad:      vad,
		language: opt.Language,
		log:      opt.Logger,
	}
}

// Listen returns "" when nothing was said or nothing could be recognised.
func (l *Listener) Listen(ctx context.Context) (string, error) {
	return l.listen(ctx, l.vad)
}

func (l *Listener) listen(ctx context.Context, vad audio.VAD) (string, error) {
	pcm, err := l.rec.Record(ctx, vad)
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	if len(pcm) == 0 {
		return "", nil
	}

	text, err := l.stt.Transcribe(ctx, pcm, l.language)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		l.log.Debug("Failed to transcribe", "err", err)
		return "", nil
	}

	text = normalize(text)
	if text != "" {
		l.log.Info("Heard", "text", text)
	}
	return text, nil
}

// normalize lowercases and drops whisper's non-speech markers such as
// "[BLANK_AUDIO]" or "(wind blowing)".
func normalize(text string) string {
	var b strings.Builder
	depth := 0
	for _, r := range text {
		switch r {
		case '[', '(':
			depth++
			continue
		case ']', ')':
			depth = max(0, depth-1)
			continue
		}
		if depth == 0 {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(b.String()), " "))
}

type HotwordOptions struct {
	Listener *Listener
	Word     string
	// Window bounds one check. Defaults to a 3s onset and 5s phrase.
	Timeout     time.Duration
	PhraseLimit time.Duration
}

// Hotword reports whether the wake word was spoken in a short window.
type Hotword struct {
	l    *Listener
	word string
	vad  audio.VAD
}

func NewHotword(opt HotwordOptions) *Hotword {
	if opt.Word == "" {
		opt.Word = DefaultHotword
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 3 * time.Second
	}
	if opt.PhraseLimit <= 0 {
		opt.PhraseLimit = 5 * time.Second
	}
	vad := opt.Listener.vad
	vad.Onset = opt.Timeout
	vad.MaxLength = opt.PhraseLimit

	return &Hotword{l: opt.Listener, word: strings.ToLower(opt.Word), vad: vad}
}

func (h *Hotword) Detect(ctx context.Context) (bool, error) {
	text, err := h.l.listen(ctx, h.vad)
	if err != nil {
		return false, err
	}
	return strings.Contains(text, h.word), nil
}

type FileListenerOptions struct {
	Files       []string
	Transcriber Transcriber
	Language    string
	Decode      audio.DecodeOptions
	Logger      *log.Logger
}

// FileListener replays recorded audio files as if they were spoken, one
// per Listen call. Every file counts as an activation and io.EOF is
// returned once all have been played.
type FileListener struct {
	files    []string
	stt      Transcriber
	language string
	decode   audio.DecodeOptions
	log      *log.Logger
}

func NewFileListener(opt FileListenerOptions) *FileListener {
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	return &FileListener{
		files:    append([]string(nil), opt.Files...),
		stt:      opt.Transcriber,
		language: opt.Language,
		decode:   opt.Decode,
		log:      opt.Logger,
	}
}

func (f *FileListener) Remaining() int {
	return len(f.files)
}

// Detect succeeds while files remain.
func (f *FileListener) Detect(ctx context.Context) (bool, error) {
	if len(f.files) == 0 {
		return false, io.EOF
	}
	return true, ctx.Err()
}

func (f *FileListener) Listen(ctx context.Context) (string, error) {
	if len(f.files) == 0 {
		return "", io.EOF
	}
	path := f.files[0]
	f.files = f.files[1:]

	pcm, err := audio.DecodeFile(path, f.decode)
	if err != nil {
		return "", err
	}

	text, err := f.stt.Transcribe(ctx, pcm, f.language)
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", path, err)
	}
	text = normalize(text)
	f.log.Info("Heard", "file", path, "text", text)
	return text, nil
}
