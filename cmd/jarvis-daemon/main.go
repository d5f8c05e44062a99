package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	log "log/slog"

	"jarvis/internal/app"
	"jarvis/internal/audio"
	"jarvis/internal/audio/mic"
	"jarvis/internal/audio/opus"
	"jarvis/internal/config"
	"jarvis/internal/ipc"
	"jarvis/internal/metrics"
	"jarvis/internal/notify"
	"jarvis/internal/overlay"
	"jarvis/internal/session"
	"jarvis/internal/speech"
	"jarvis/internal/speech/espeak"
	"jarvis/internal/voice"
	"jarvis/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

type flags struct {
	config  string
	env     string
	proxy   string
	metrics string
	overlay string
	files   []string
}

func main() {
	var f flags
	cli.StringVarP(&f.config, "config", "c", config.DefaultPath, "Config file path")
	cli.StringVarP(&f.env, "env", "e", ".env", "Env file path")
	cli.StringVarP(&f.proxy, "proxy", "p", "", "Socks proxy address for API traffic")
	cli.StringVarP(&f.metrics, "metrics", "m", "", "Serve Prometheus metrics on this address")
	cli.StringVarP(&f.overlay, "overlay", "o", "", "Overlay websocket URL")
	cli.StringSliceVarP(&f.files, "files", "f", nil, "Replay these audio files instead of listening")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevelMap[*logLevel],
		TimeFormat: time.Kitchen,
	})))

	if err := run(f); err != nil {
		log.Error("Daemon stopped", "err", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	log.Info("Booting up")

	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if err := cfg.LoadEnv(f.env); err != nil {
		return err
	}
	if f.metrics != "" {
		cfg.Metrics = f.metrics
	}
	if f.overlay != "" {
		cfg.Overlay.URL = f.overlay
	}
	if f.proxy == "" {
		f.proxy = cfg.Oracle.Proxy
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Default()

	a, err := app.New(app.Options{Config: cfg, Proxy: f.proxy, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Shutdown(context.Background()); err != nil {
			logger.Warn("Unclean shutdown", "err", err)
		}
	}()

	log.Debug("Loaded pipeline")

	var ducker *speech.Ducker
	if cfg.Speech.Duck {
		ducker = speech.NewDucker(speech.DuckerOptions{
			Self:     []string{"jarvis", "espeak"},
			Floor:    cfg.Speech.DuckFloor,
			Duration: 150 * time.Millisecond,
		})
	}
	speaker := speech.New(speech.Options{
		Engine: espeak.Engine{},
		Voice:  a.Voice,
		Mode:   a.Modes,
		Ducker: ducker,
		Echo:   os.Stdout,
		Logger: logger.With("component", "speech"),
	})

	whisper, err := stt.NewTranscriber(cfg.Listen.Model, stt.Options{
		Language: cfg.Language,
		Threads:  cfg.Listen.Threads,
	})
	if err != nil {
		return fmt.Errorf("init whisper: %w", err)
	}
	defer whisper.Close()

	log.Debug("Loaded whisper")

	var (
		listener session.Listener
		hotword  session.Hotword
	)
	if len(f.files) > 0 {
		fl := voice.NewFileListener(voice.FileListenerOptions{
			Files:       f.files,
			Transcriber: whisper,
			Language:    cfg.Language,
			Decode:      audio.DecodeOptions{Opus: opus.Decode},
			Logger:      logger,
		})
		listener, hotword = fl, fl
	} else {
		rec, err := mic.Open()
		if err != nil {
			return fmt.Errorf("init audio: %w", err)
		}
		defer rec.Close()

		l := voice.NewListener(voice.ListenerOptions{
			Recorder:    rec,
			Transcriber: whisper,
			Timeout:     cfg.Listen.Timeout,
			PhraseLimit: cfg.Listen.PhraseLimit,
			Threshold:   cfg.Listen.Threshold,
			Language:    cfg.Language,
			Logger:      logger,
		})
		listener = l
		hotword = voice.NewHotword(voice.HotwordOptions{Listener: l, Word: cfg.Hotword})
	}

	log.Debug("Loaded recorder")

	cue := notify.Cue{}
	if cfg.Session.Chime != "" {
		cue.Sound = notify.NewChime(cfg.Session.Chime)
	}
	if cfg.Session.Notify {
		cue.Desktop = &notify.Desktop{App: "jarvis", Timeout: 3 * time.Second}
	}

	sopt := session.Options{
		Assistant:   a.Assistant,
		Listener:    listener,
		Hotword:     hotword,
		Speaker:     speaker,
		Chime:       cue,
		Alerts:      a.Monitor,
		Memory:      a.Memory,
		MaxSilences: cfg.Session.MaxSilences,
		Retry:       time.Second,
		Logger:      logger.With("component", "session"),
	}

	var bridge *overlay.Bridge
	if cfg.Overlay.URL != "" {
		bridge = overlay.New(overlay.Options{
			URL:       cfg.Overlay.URL,
			Assistant: a.Assistant,
			Workers:   cfg.Overlay.Workers,
			Backoff:   cfg.Overlay.Backoff,
			Logger:    logger.With("component", "overlay"),
		})
		sopt.Observer = bridge
	}
	ctl := session.New(sopt)

	srv := ipc.NewServer(cfg.Socket, a.Control(ctl), logger.With("component", "ipc"))

	log.Info("Boot up - successful")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Replayed input ends the daemon once it runs out.
		defer stop()
		return ctl.Run(ctx)
	})
	g.Go(func() error {
		return srv.Serve(ctx)
	})
	g.Go(func() error {
		return config.Watch(ctx, f.config, logger, a.Reload)
	})
	if cfg.Monitor.Enabled {
		g.Go(func() error {
			return a.Monitor.Run(ctx)
		})
	}
	if cfg.Metrics != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, cfg.Metrics)
		})
	}
	if bridge != nil {
		g.Go(func() error {
			return bridge.Run(ctx)
		})
	}

	return g.Wait()
}
