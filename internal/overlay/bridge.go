// Package overlay connects the assistant to a desktop overlay over a
// websocket. The overlay sends typed commands and receives replies and
// session state changes.
package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"jarvis/internal/assistant"
	"jarvis/internal/metrics"
	"jarvis/internal/session"
)

const (
	KindCommand = "command"
	KindReply   = "reply"
	KindState   = "state"
)

const (
	DefaultWorkers = 4
	DefaultBackoff = 3 * time.Second
	writeTimeout   = 5 * time.Second
)

type Frame struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Kind    string `json:"kind"`
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
	// End marks the reply that closed the session.
	End bool `json:"end,omitempty"`
}

type Assistant interface {
	Handle(ctx context.Context, text string) assistant.Reply
}

type Options struct {
	URL       string
	Name      string
	Assistant Assistant
	Workers   int
	Backoff   time.Duration
	Dialer    *websocket.Dialer
	Logger    *log.Logger
}

// Bridge keeps a websocket open to the overlay, reconnecting after
// failures. Commands run on a bounded worker pool. It also serves as a
// session.StateObserver.
type Bridge struct {
	url       string
	name      string
	assistant Assistant
	workers   int
	backoff   time.Duration
	dialer    *websocket.Dialer
	log       *log.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(opt Options) *Bridge {
	if opt.Name == "" {
		opt.Name = "jarvis"
	}
	if opt.Workers <= 0 {
		opt.Workers = DefaultWorkers
	}
	if opt.Backoff <= 0 {
		opt.Backoff = DefaultBackoff
	}
	if opt.Dialer == nil {
		opt.Dialer = websocket.DefaultDialer
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	return &Bridge{
		url:       opt.URL,
		name:      opt.Name,
		assistant: opt.Assistant,
		workers:   opt.Workers,
		backoff:   opt.Backoff,
		dialer:    opt.Dialer,
		log:       opt.Logger,
	}
}

// Run holds the connection until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		err := b.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		b.log.Warn("Overlay connection lost", "url", b.url, "err", err)
		metrics.OverlayReconnects.Inc()

		t := time.NewTimer(b.backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (b *Bridge) session(ctx context.Context) error {
	conn, _, err := b.dialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	b.log.Info("Connected to overlay", "url", b.url)

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.conn = nil
		b.mu.Unlock()
		conn.Close()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		conn.Close()
		return nil
	})
	g.Go(func() error {
		return b.read(gctx, conn)
	})
	return g.Wait()
}

func (b *Bridge) read(ctx context.Context, conn *websocket.Conn) error {
	pool, pctx := errgroup.WithContext(ctx)
	pool.SetLimit(b.workers)
	defer pool.Wait()

	prev := make(chan struct{})
	close(prev)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("closed by overlay")
			}
			return fmt.Errorf("read: %w", err)
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			b.log.Warn("Failed to parse overlay frame", "err", err)
			continue
		}
		if f.Kind != KindCommand || f.Content == "" {
			b.log.Debug("Ignoring overlay frame", "kind", f.Kind)
			continue
		}

		// Each command waits for the one read before it, so a connection's
		// commands are handled and answered in the order they arrived.
		wait, done := prev, make(chan struct{})
		prev = done

		pool.Go(func() error {
			defer close(done)
			select {
			case <-wait:
			case <-pctx.Done():
			}
			if pctx.Err() != nil {
				return nil
			}

			reply := b.assistant.Handle(pctx, f.Content)
			out := Frame{From: b.name, To: f.From, Kind: KindReply, ID: f.ID, Content: reply.Text, End: reply.End}
			if err := b.Send(out); err != nil {
				b.log.Debug("Failed to send reply", "err", err)
			}
			return nil
		})
	}
}

var ErrNotConnected = errors.New("overlay not connected")

// Send writes one frame. Writes are serialised.
func (b *Bridge) Send(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return ErrNotConnected
	}
	b.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

// OnState forwards session state to the overlay when connected.
func (b *Bridge) OnState(s session.State) {
	err := b.Send(Frame{From: b.name, Kind: KindState, Content: string(s)})
	if err != nil && !errors.Is(err, ErrNotConnected) {
		b.log.Debug("Failed to send state", "state", s, "err", err)
	}
}

var _ session.StateObserver = (*Bridge)(nil)
