package voice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/audio"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeRecorder struct {
	pcm  []float32
	err  error
	vads []audio.VAD
}

func (f *fakeRecorder) Record(_ context.Context, v audio.VAD) ([]float32, error) {
	f.vads = append(f.vads, v)
	return f.pcm, f.err
}

type fakeSTT struct {
	text  string
	err   error
	calls int
	lang  string
}

func (f *fakeSTT) Transcribe(_ context.Context, pcm []float32, language string) (string, error) {
	f.calls++
	f.lang = language
	return f.text, f.err
}

func TestListenLowercases(t *testing.T) {
	rec := &fakeRecorder{pcm: []float32{0.1}}
	stt := &fakeSTT{text: "  Open  Chrome [BLANK_AUDIO] "}
	l := NewListener(ListenerOptions{
		Recorder:    rec,
		Transcriber: stt,
		Language:    "en",
		Timeout:     5 * time.Second,
		PhraseLimit: 8 * time.Second,
		Threshold:   0.03,
		Logger:      quiet,
	})

	text, err := l.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "open chrome", text)
	assert.Equal(t, "en", stt.lang)

	require.Len(t, rec.vads, 1)
	assert.Equal(t, 5*time.Second, rec.vads[0].Onset)
	assert.Equal(t, 8*time.Second, rec.vads[0].MaxLength)
	assert.Equal(t, 0.03, rec.vads[0].Threshold)
}

func TestListenSilence(t *testing.T) {
	stt := &fakeSTT{text: "ignored"}
	l := NewListener(ListenerOptions{Recorder: &fakeRecorder{}, Transcriber: stt, Logger: quiet})

	text, err := l.Listen(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Zero(t, stt.calls)
}

func TestListenErrors(t *testing.T) {
	boom := errors.New("device busy")
	l := NewListener(ListenerOptions{Recorder: &fakeRecorder{err: boom}, Transcriber: &fakeSTT{}, Logger: quiet})
	_, err := l.Listen(context.Background())
	assert.ErrorIs(t, err, boom)

	// recognition failures are treated as nothing heard
	l = NewListener(ListenerOptions{
		Recorder:    &fakeRecorder{pcm: []float32{0.2}},
		Transcriber: &fakeSTT{err: errors.New("garbled")},
		Logger:      quiet,
	})
	text, err := l.Listen(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Hello World":           "hello world",
		"(wind blowing) Jarvis": "jarvis",
		"[Music]":               "",
		" Play  (some) music. ": "play music.",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalize(in), in)
	}
}

func TestHotword(t *testing.T) {
	rec := &fakeRecorder{pcm: []float32{0.3}}
	stt := &fakeSTT{text: "Hey Jarvis, you there?"}
	l := NewListener(ListenerOptions{Recorder: rec, Transcriber: stt, Logger: quiet})
	h := NewHotword(HotwordOptions{Listener: l})

	ok, err := h.Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, rec.vads[0].Onset)
	assert.Equal(t, 5*time.Second, rec.vads[0].MaxLength)

	stt.text = "what's the weather"
	ok, err = h.Detect(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	h = NewHotword(HotwordOptions{Listener: l, Word: "Friday"})
	stt.text = "friday wake up"
	ok, err = h.Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func writeTone(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	data := make([]int, 1600)
	for i := range data {
		data[i] = 8000
	}
	enc := wav.NewEncoder(f, audio.SampleRate, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: audio.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func TestFileListener(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	writeTone(t, a)
	writeTone(t, b)

	stt := &fakeSTT{text: "What Time Is It"}
	f := NewFileListener(FileListenerOptions{Files: []string{a, b}, Transcriber: stt, Logger: quiet})
	ctx := context.Background()

	for range 2 {
		ok, err := f.Detect(ctx)
		require.NoError(t, err)
		assert.True(t, ok)

		text, err := f.Listen(ctx)
		require.NoError(t, err)
		assert.Equal(t, "what time is it", text)
	}

	assert.Zero(t, f.Remaining())
	_, err := f.Detect(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = f.Listen(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileListenerMissingFile(t *testing.T) {
	f := NewFileListener(FileListenerOptions{Files: []string{"/nonexistent/x.wav"}, Transcriber: &fakeSTT{}, Logger: quiet})
	_, err := f.Listen(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
