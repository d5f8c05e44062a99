package action

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// Cmd names an external program invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string
}

func command(name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args}
}

func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type Output struct {
	Stdout string
	Stderr string
}

// Runner starts external programs. Providers never call os/exec directly.
type Runner interface {
	// Run waits for c to exit.
	Run(ctx context.Context, c Cmd) (Output, error)
	// Start launches c detached from the caller.
	Start(c Cmd) error
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	Logger *log.Logger
}

func (r ExecRunner) Run(ctx context.Context, c Cmd) (Output, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger().Debug("Running", "cmd", c.String())

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if msg := strings.TrimSpace(out.Stderr); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", c.Name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", c.Name, err)
	}
	return out, nil
}

func (r ExecRunner) Start(c Cmd) error {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.Name, err)
	}
	r.logger().Debug("Started", "cmd", c.String(), "pid", cmd.Process.Pid)

	go func() {
		if err := cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				r.logger().Warn("Detached process failed", "cmd", c.Name, "err", err)
			}
		}
	}()
	return nil
}

func (r ExecRunner) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

const (
	Linux  = "linux"
	Darwin = "darwin"
)

// HostOS is the platform providers target by default.
func HostOS() string {
	if runtime.GOOS == Darwin {
		return Darwin
	}
	return Linux
}

// openURL hands u to the desktop's default handler.
func openURL(r Runner, goos, u string) error {
	if goos == Darwin {
		return r.Start(command("open", u))
	}
	return r.Start(command("xdg-open", u))
}

// queryEscape encodes spaces as %20 rather than '+'.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
