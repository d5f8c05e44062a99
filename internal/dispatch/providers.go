package dispatch

import (
	"context"
	"errors"
	"fmt"

	"jarvis/internal/mode"
)

// ErrUnavailable is returned by a route whose provider was not configured.
var ErrUnavailable = errors.New("capability not configured")

func unavailable(name string) error {
	return fmt.Errorf("%s: %w", name, ErrUnavailable)
}

type Apps interface {
	// Open returns the status line and the resolved executable, which
	// becomes the reference target for later pronouns.
	Open(ctx context.Context, name string) (status, target string, err error)
	Close(ctx context.Context, name string) (string, error)
	Minimize(ctx context.Context) (string, error)
	Maximize(ctx context.Context) (string, error)
}

type Files interface {
	CreateFolder(ctx context.Context, path string) (string, error)
	Rename(ctx context.Context, path, newName string) (string, error)
	Move(ctx context.Context, src, dst string) (string, error)
	Delete(ctx context.Context, path string, confirmed bool) (string, error)
	Search(ctx context.Context, dir, pattern string) (string, error)
}

type System interface {
	VolumeUp(ctx context.Context) (string, error)
	VolumeDown(ctx context.Context) (string, error)
	Mute(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) (string, error)
	Lock(ctx context.Context) (string, error)
	Shutdown(ctx context.Context, confirmed bool) (string, error)
	Restart(ctx context.Context, confirmed bool) (string, error)
	Info(ctx context.Context) (string, error)
	Battery(ctx context.Context) (string, error)
}

type Messaging interface {
	Open(ctx context.Context) (string, error)
	Send(ctx context.Context, contact, message string) (string, error)
	Call(ctx context.Context, contact string, video bool) (string, error)
	Accept(ctx context.Context) (string, error)
	Decline(ctx context.Context) (string, error)
	End(ctx context.Context) (string, error)
	MuteCall(ctx context.Context) (string, error)
	ToggleSpeaker(ctx context.Context) (string, error)
	History(ctx context.Context, limit int) (string, error)
}

type Web interface {
	Google(ctx context.Context, query string) (string, error)
	YouTube(ctx context.Context, query string) (string, error)
	StackOverflow(ctx context.Context, problem string) (string, error)
	ChatGPT(ctx context.Context) (string, error)
	Claude(ctx context.Context) (string, error)
	Gemini(ctx context.Context) (string, error)
}

type Weather interface {
	// Current reports conditions for city, or for the default city when empty.
	Current(ctx context.Context, city string) (string, error)
}

type Code interface {
	// CreateFile creates an empty source file in the project directory and
	// returns its path. An empty language is inferred from the extension.
	CreateFile(ctx context.Context, name, language string) (string, error)
	Write(ctx context.Context, path, code string) (string, error)
	Generate(ctx context.Context, task, language string) (string, error)
	OpenInEditor(ctx context.Context, path string) (string, error)
	Run(ctx context.Context, path string) (string, error)
}

type Media interface {
	SearchAndPlay(ctx context.Context, query string) (string, error)
	PlayVideo(ctx context.Context, query string) (string, error)
	Search(ctx context.Context, query string, limit int) (string, error)
	Pause(ctx context.Context) (string, error)
	Resume(ctx context.Context) (string, error)
	Stop(ctx context.Context) (string, error)
	VolumeUp(ctx context.Context) (string, error)
	VolumeDown(ctx context.Context) (string, error)
	SetVolume(ctx context.Context, percent int) (string, error)
	Current(ctx context.Context) (string, error)
	Trending(ctx context.Context) (string, error)
	History(ctx context.Context, limit int) (string, error)
}

// Voice controls the speech output settings.
type Voice interface {
	SetHumanLike(on bool) string
	SetRate(wpm int)
	ApplyStyle(name string) (string, bool)
	Styles() []string
	SetVoice(name string) string
	Voices() []string
	SetLanguage(code string) string
}

type Languages interface {
	Code(name string) string
	Names() []string
	Detect(text string) string
}

type ModeSetter interface {
	Set(m mode.Mode)
}

// Providers groups the action collaborators. Any of them may be nil; the
// routes that need a missing one fail with ErrUnavailable.
type Providers struct {
	Apps      Apps
	Files     Files
	System    System
	Messaging Messaging
	Web       Web
	Weather   Weather
	Code      Code
	Media     Media
	Voice     Voice
	Languages Languages
	Mode      ModeSetter
}
