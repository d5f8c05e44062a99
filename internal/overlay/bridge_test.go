package overlay

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"jarvis/internal/assistant"
	"jarvis/internal/memory"
	"jarvis/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type echoAssistant struct {
	mu   sync.Mutex
	seen []string
}

func (a *echoAssistant) Handle(_ context.Context, text string) assistant.Reply {
	a.mu.Lock()
	a.seen = append(a.seen, text)
	a.mu.Unlock()
	if text == "goodbye" {
		return assistant.Reply{Text: "Session ended.", End: true}
	}
	return assistant.Reply{Text: "You said " + text}
}

// overlayServer accepts websocket clients and hands each connection to the
// test through conns.
type overlayServer struct {
	*httptest.Server
	conns chan *websocket.Conn
}

func newOverlayServer(t *testing.T) *overlayServer {
	t.Helper()
	s := &overlayServer{conns: make(chan *websocket.Conn, 4)}
	up := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- c
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *overlayServer) url() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *overlayServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-s.conns:
		t.Cleanup(func() { c.Close() })
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not connect")
		return nil
	}
}

func readFrame(t *testing.T, c *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, c.ReadJSON(&f))
	return f
}

func startBridge(t *testing.T, b *Bridge) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("bridge did not stop")
		}
	})
}

func TestBridgeRepliesToCommands(t *testing.T) {
	srv := newOverlayServer(t)
	a := &echoAssistant{}
	b := New(Options{URL: srv.url(), Assistant: a, Logger: quiet})
	startBridge(t, b)

	c := srv.accept(t)

	require.NoError(t, c.WriteJSON(Frame{From: "overlay", Kind: KindCommand, ID: "1", Content: "open chrome"}))
	got := readFrame(t, c)
	assert.Equal(t, Frame{From: "jarvis", To: "overlay", Kind: KindReply, ID: "1", Content: "You said open chrome"}, got)

	// frames other than commands are ignored
	require.NoError(t, c.WriteJSON(Frame{Kind: KindState, Content: "idle"}))
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("{broken")))

	require.NoError(t, c.WriteJSON(Frame{From: "overlay", Kind: KindCommand, ID: "2", Content: "goodbye"}))
	got = readFrame(t, c)
	assert.Equal(t, "2", got.ID)
	assert.True(t, got.End)

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Equal(t, []string{"open chrome", "goodbye"}, a.seen)
}

func TestBridgeForwardsState(t *testing.T) {
	srv := newOverlayServer(t)
	b := New(Options{URL: srv.url(), Assistant: &echoAssistant{}, Logger: quiet})

	assert.ErrorIs(t, b.Send(Frame{Kind: KindState}), ErrNotConnected)
	b.OnState(session.StateListening)

	startBridge(t, b)
	c := srv.accept(t)

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.conn != nil
	}, time.Second, time.Millisecond)

	b.OnState(session.StateSpeaking)
	assert.Equal(t, Frame{From: "jarvis", Kind: KindState, Content: "speaking"}, readFrame(t, c))
}

func TestBridgeReconnects(t *testing.T) {
	srv := newOverlayServer(t)
	b := New(Options{URL: srv.url(), Assistant: &echoAssistant{}, Backoff: 10 * time.Millisecond, Logger: quiet})
	startBridge(t, b)

	first := srv.accept(t)
	require.NoError(t, first.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	first.Close()

	second := srv.accept(t)
	require.NoError(t, second.WriteJSON(Frame{Kind: KindCommand, Content: "status"}))
	assert.Equal(t, "You said status", readFrame(t, second).Content)
}

// slowOpener takes a while to record what it opened, so a command that
// overtakes it would miss the reference.
type slowOpener struct {
	mem *memory.Context
}

func (a slowOpener) Handle(_ context.Context, text string) assistant.Reply {
	if app, ok := strings.CutPrefix(text, "open "); ok {
		time.Sleep(50 * time.Millisecond)
		reply := "Opening " + app + ", sir."
		a.mem.Record(text, app, reply)
		return assistant.Reply{Text: reply}
	}
	target := "it"
	if t, ok := a.mem.Resolve(text); ok {
		target = t
	}
	return assistant.Reply{Text: "Closing " + target + ", sir."}
}

func TestBridgeKeepsCommandOrder(t *testing.T) {
	srv := newOverlayServer(t)
	b := New(Options{URL: srv.url(), Assistant: slowOpener{mem: memory.New(memory.Options{})}, Logger: quiet})
	startBridge(t, b)

	c := srv.accept(t)
	require.NoError(t, c.WriteJSON(Frame{From: "overlay", Kind: KindCommand, ID: "1", Content: "open calculator"}))
	require.NoError(t, c.WriteJSON(Frame{From: "overlay", Kind: KindCommand, ID: "2", Content: "close it"}))

	first := readFrame(t, c)
	second := readFrame(t, c)
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "Opening calculator, sir.", first.Content)
	assert.Equal(t, "2", second.ID)
	assert.Equal(t, "Closing calculator, sir.", second.Content)
}
