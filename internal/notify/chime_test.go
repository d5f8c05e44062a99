package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChimeMissingFile(t *testing.T) {
	err := NewChime(filepath.Join(t.TempDir(), "none.mp3")).Play(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestChimeInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mp3")
	require.NoError(t, os.WriteFile(path, []byte("definitely not mpeg"), 0o644))

	err := NewChime(path).Play(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode chime")
}

type fakeSound struct{ plays int }

func (f *fakeSound) Play(context.Context) error {
	f.plays++
	return nil
}

func TestDesktopArgs(t *testing.T) {
	var got []string
	d := Desktop{
		App:     "jarvis",
		Timeout: 1500 * time.Millisecond,
		Exec: func(_ context.Context, name string, args ...string) error {
			got = append([]string{name}, args...)
			return nil
		},
	}

	require.NoError(t, d.Notify(context.Background(), "Listening...", "say something"))
	assert.Equal(t, []string{"notify-send", "--app-name=jarvis", "--expire-time=1500", "Listening...", "say something"}, got)
}

func TestCueChimesEvenIfNotifyFails(t *testing.T) {
	var summary string
	sound := &fakeSound{}
	c := Cue{
		Sound: sound,
		Desktop: &Desktop{Exec: func(_ context.Context, _ string, args ...string) error {
			summary = args[len(args)-1]
			return errors.New("no dbus")
		}},
	}

	err := c.Play(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dbus")
	assert.Equal(t, "Listening...", summary)
	assert.Equal(t, 1, sound.plays)
}

func TestEmptyCue(t *testing.T) {
	assert.NoError(t, Cue{}.Play(context.Background()))
}
