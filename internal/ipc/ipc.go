// Package ipc is the daemon's control socket: newline delimited JSON
// requests over a unix socket, one response per request.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const DefaultSocketPath = "/tmp/jarvis.sock"

const (
	// CmdTrigger starts a listening session as if the hotword was heard.
	CmdTrigger = "trigger"
	// CmdSay runs Text as a typed command.
	CmdSay    = "say"
	CmdStatus = "status"
	// CmdHistory lists the most recent commands, newest first.
	CmdHistory = "history"
	// CmdNote stores Text as a note.
	CmdNote  = "note"
	CmdNotes = "notes"
)

type Request struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

type Response struct {
	OK    bool     `json:"ok"`
	Reply string   `json:"reply,omitempty"`
	Lines []string `json:"lines,omitempty"`
	Error string   `json:"error,omitempty"`
	// End is set when the reply closed the session.
	End bool `json:"end,omitempty"`
}

func Fail(format string, args ...any) Response {
	return Response{Error: fmt.Sprintf(format, args...)}
}

type Handler func(ctx context.Context, req Request) Response

type Server struct {
	path    string
	handler Handler
	log     *log.Logger
}

func NewServer(path string, h Handler, logger *log.Logger) *Server {
	if path == "" {
		path = DefaultSocketPath
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{path: path, handler: h, log: logger}
}

func (s *Server) Path() string {
	return s.path
}

// Serve accepts connections until ctx is done, then waits for open
// connections to finish.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "unix", s.path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer os.Remove(s.path)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.log.Info("Control socket ready", "path", s.path)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("Failed to accept", "err", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetDeadline(time.Now())
		case <-done:
		}
	}()

	sc := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)

	for sc.Scan() {
		var (
			req  Request
			resp Response
		)
		if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
			resp = Fail("bad request: %v", err)
		} else {
			s.log.Debug("Control request", "cmd", req.Cmd)
			resp = s.handler(ctx, req)
		}

		if err := enc.Encode(resp); err != nil {
			s.log.Debug("Failed to write response", "err", err)
			return
		}
	}
}

// Send performs one request against the socket at path.
func Send(ctx context.Context, path string, req Request) (Response, error) {
	if path == "" {
		path = DefaultSocketPath
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, fmt.Errorf("dial %s: %w", path, err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("write request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	if resp.Error != "" {
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}
