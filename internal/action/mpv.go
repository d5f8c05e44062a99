package action

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const DefaultMPVSocket = "/tmp/jarvis-mpv.sock"

// Player plays a single audio stream at a time.
type Player interface {
	Available() bool
	Play(ctx context.Context, url string, volume int) error
	SetPaused(ctx context.Context, paused bool) error
	SetVolume(ctx context.Context, volume int) error
	Stop(ctx context.Context) error
}

// MPV runs mpv headless and steers it over its JSON IPC socket.
type MPV struct {
	Runner Runner
	Binary string
	Socket string
	// LookPath reports whether Binary is installed.
	LookPath func(string) (string, error)

	reqID atomic.Int64
}

func NewMPV(r Runner) *MPV {
	return &MPV{Runner: r, Binary: "mpv", Socket: DefaultMPVSocket, LookPath: exec.LookPath}
}

func (m *MPV) Available() bool {
	if m.LookPath == nil {
		return true
	}
	_, err := m.LookPath(m.Binary)
	return err == nil
}

func (m *MPV) Play(ctx context.Context, url string, volume int) error {
	_ = m.Stop(ctx)
	_ = os.Remove(m.Socket)

	return m.Runner.Start(command(m.Binary,
		"--no-video",
		"--really-quiet",
		"--ytdl-format=bestaudio",
		"--input-ipc-server="+m.Socket,
		"--volume="+strconv.Itoa(volume),
		url,
	))
}

func (m *MPV) SetPaused(ctx context.Context, paused bool) error {
	_, err := m.send(ctx, "set_property", "pause", paused)
	return err
}

func (m *MPV) SetVolume(ctx context.Context, volume int) error {
	_, err := m.send(ctx, "set_property", "volume", volume)
	return err
}

func (m *MPV) Stop(ctx context.Context) error {
	_, err := m.send(ctx, "quit")
	return err
}

// send issues one IPC command and returns the reply's data field.
func (m *MPV) send(ctx context.Context, args ...any) (gjson.Result, error) {
	id := m.reqID.Add(1)

	payload, err := sjson.Set("", "command", args)
	if err == nil {
		payload, err = sjson.Set(payload, "request_id", id)
	}
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encode mpv command: %w", err)
	}

	d := net.Dialer{Timeout: time.Second}
	conn, err := d.DialContext(ctx, "unix", m.Socket)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("mpv ipc: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := conn.Write([]byte(payload + "\n")); err != nil {
		return gjson.Result{}, fmt.Errorf("mpv ipc write: %w", err)
	}

	// mpv interleaves events with replies; skip until ours arrives.
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Text()
		if gjson.Get(line, "request_id").Int() != id {
			continue
		}
		if status := gjson.Get(line, "error").String(); status != "success" {
			return gjson.Result{}, fmt.Errorf("mpv: %s", status)
		}
		return gjson.Get(line, "data"), nil
	}
	if err := sc.Err(); err != nil {
		return gjson.Result{}, fmt.Errorf("mpv ipc read: %w", err)
	}
	return gjson.Result{}, errors.New("mpv closed the connection")
}
