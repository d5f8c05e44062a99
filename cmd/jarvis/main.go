package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"jarvis/internal/app"
	"jarvis/internal/assistant"
	"jarvis/internal/config"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

type handler interface {
	Handle(ctx context.Context, text string) assistant.Reply
}

func main() {
	configPath := cli.StringP("config", "c", config.DefaultPath, "Config file path")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address for API traffic")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.LoadEnv(*envFile); err != nil {
		log.Error("Failed to load env", "err", err)
		os.Exit(1)
	}
	if *proxyAddr == "" {
		*proxyAddr = cfg.Oracle.Proxy
	}

	a, err := app.New(app.Options{Config: cfg, Proxy: *proxyAddr})
	if err != nil {
		log.Error("Failed to start", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = repl(ctx, os.Stdin, os.Stdout, a.Assistant)
	stop()

	if serr := a.Shutdown(context.Background()); serr != nil {
		log.Warn("Unclean shutdown", "err", serr)
	}
	if err != nil {
		log.Error("Console failed", "err", err)
		os.Exit(1)
	}
}

// repl feeds typed lines to h until the input ends, ctx is done or a reply
// closes the session.
func repl(ctx context.Context, in io.Reader, out io.Writer, h handler) error {
	fmt.Fprintln(out, "JARVIS: Console ready, sir. Type a command.")

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		r := h.Handle(ctx, line)
		if r.Text != "" {
			fmt.Fprintf(out, "JARVIS: %s\n", r.Text)
		}
		if r.End {
			return nil
		}
	}
}
