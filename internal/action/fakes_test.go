package action

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"jarvis/internal/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeRunner records invocations and answers by program name.
type fakeRunner struct {
	mu       sync.Mutex
	ran      []string
	started  []string
	dirs     []string
	out      map[string]Output
	err      map[string]error
	startErr error
	block    bool
}

func (f *fakeRunner) Run(ctx context.Context, c Cmd) (Output, error) {
	f.mu.Lock()
	f.ran = append(f.ran, c.String())
	f.dirs = append(f.dirs, c.Dir)
	out, err, block := f.out[c.Name], f.err[c.Name], f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return Output{}, ctx.Err()
	}
	return out, err
}

func (f *fakeRunner) Start(c Cmd) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, c.String())
	return f.startErr
}

func (f *fakeRunner) runs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ran...)
}

func (f *fakeRunner) starts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.started...)
}

type fakeGuard struct {
	protected string
	gate      bool
}

func (g fakeGuard) PathSafe(path string) bool {
	return g.protected == "" || path != g.protected
}

func (g fakeGuard) GateEnabled() bool { return g.gate }

type fakeCalls struct {
	logged []store.CallRecord
	err    error
}

func (f *fakeCalls) LogCall(_ context.Context, contact, kind string, status store.CallStatus) error {
	f.logged = append(f.logged, store.CallRecord{Contact: contact, Kind: kind, Status: status})
	return f.err
}

func (f *fakeCalls) Calls(_ context.Context, limit int) ([]store.CallRecord, error) {
	out := make([]store.CallRecord, 0, len(f.logged))
	for i := len(f.logged) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.logged[i])
	}
	return out, nil
}

type fakeMusic struct {
	logged []store.MusicRecord
}

func (f *fakeMusic) LogMusic(_ context.Context, title, artist string) error {
	f.logged = append(f.logged, store.MusicRecord{Title: title, Artist: artist, At: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)})
	return nil
}

func (f *fakeMusic) Music(_ context.Context, limit int) ([]store.MusicRecord, error) {
	out := make([]store.MusicRecord, 0, len(f.logged))
	for i := len(f.logged) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.logged[i])
	}
	return out, nil
}

type fakePlayer struct {
	missing bool
	playErr error
	calls   []string
	volume  int
	paused  bool
}

func (p *fakePlayer) Available() bool { return !p.missing }

func (p *fakePlayer) Play(_ context.Context, url string, volume int) error {
	p.calls = append(p.calls, "play "+url)
	p.volume = volume
	return p.playErr
}

func (p *fakePlayer) SetPaused(_ context.Context, paused bool) error {
	p.calls = append(p.calls, "pause")
	p.paused = paused
	return nil
}

func (p *fakePlayer) SetVolume(_ context.Context, volume int) error {
	p.calls = append(p.calls, "volume")
	p.volume = volume
	return nil
}

func (p *fakePlayer) Stop(context.Context) error {
	p.calls = append(p.calls, "stop")
	return nil
}

type fakeAsker struct {
	reply  string
	err    error
	prompt string
}

func (a *fakeAsker) Ask(_ context.Context, prompt string) (string, error) {
	a.prompt = prompt
	return a.reply, a.err
}
