package ipc

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func startServer(t *testing.T, h Handler) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "j.sock")
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- NewServer(path, h, quiet).Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errc)
	})

	require.Eventually(t, func() bool {
		c, err := net.Dial("unix", path)
		if err != nil {
			return false
		}
		c.Close()
		return true
	}, time.Second, 10*time.Millisecond)
	return path
}

func TestSendReceivesReply(t *testing.T) {
	var (
		mu  sync.Mutex
		got []Request
	)
	path := startServer(t, func(_ context.Context, req Request) Response {
		mu.Lock()
		got = append(got, req)
		mu.Unlock()
		switch req.Cmd {
		case CmdSay:
			return Response{OK: true, Reply: "You said " + req.Text}
		case CmdTrigger:
			return Response{OK: true}
		}
		return Fail("unknown command %q", req.Cmd)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := Send(ctx, path, Request{Cmd: CmdSay, Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, Response{OK: true, Reply: "You said hello"}, resp)

	_, err = Send(ctx, path, Request{Cmd: CmdTrigger})
	require.NoError(t, err)

	_, err = Send(ctx, path, Request{Cmd: "dance"})
	assert.EqualError(t, err, `unknown command "dance"`)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Request{{Cmd: CmdSay, Text: "hello"}, {Cmd: CmdTrigger}, {Cmd: "dance"}}, got)
}

func TestBadRequest(t *testing.T) {
	path := startServer(t, func(context.Context, Request) Response { return Response{OK: true} })

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("{nope\n"))
	require.NoError(t, err)

	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), `"error":"bad request`)
}

func TestSendNoServer(t *testing.T) {
	_, err := Send(context.Background(), filepath.Join(t.TempDir(), "missing.sock"), Request{Cmd: CmdStatus})
	assert.Error(t, err)
}
