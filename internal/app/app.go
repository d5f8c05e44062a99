// Package app assembles the command pipeline shared by the daemon and the
// console from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"
	"time"

	"jarvis/internal/action"
	"jarvis/internal/assistant"
	"jarvis/internal/config"
	"jarvis/internal/dispatch"
	"jarvis/internal/memory"
	"jarvis/internal/mode"
	"jarvis/internal/monitor"
	"jarvis/internal/oracle"
	"jarvis/internal/proxy"
	"jarvis/internal/safety"
	"jarvis/internal/speech"
	"jarvis/internal/store"
)

type Options struct {
	Config config.Config
	// Proxy is a SOCKS5 address for API traffic; empty dials directly.
	Proxy  string
	Logger *log.Logger

	// Runner and Sampler replace the host defaults, mainly in tests.
	Runner  action.Runner
	Sampler monitor.Sampler
	// HTTPClient overrides the proxied client.
	HTTPClient *http.Client
}

// App owns everything behind Assistant.Handle.
type App struct {
	Config    config.Config
	Modes     *mode.Holder
	Safety    *safety.Layer
	Store     *store.Store
	Oracle    *oracle.Oracle
	Voice     *speech.Voice
	Memory    *memory.Context
	Dispatch  *dispatch.Dispatcher
	Assistant *assistant.Assistant
	Monitor   *monitor.Monitor
	Media     *action.Media

	log *log.Logger
}

func New(opt Options) (*App, error) {
	cfg := opt.Config
	logger := opt.Logger
	if logger == nil {
		logger = log.Default()
	}

	initial, err := mode.Parse(cfg.Mode)
	if err != nil {
		return nil, err
	}
	modes := mode.NewHolder(initial)
	modes.OnChange(func(m mode.Mode) {
		logger.Info("Operation mode changed", "mode", m)
	})

	guard := safety.New(safety.Options{
		RequireConfirmation: cfg.Safety.RequireConfirmation,
		ProtectedPaths:      cfg.Safety.ProtectedPaths,
		Mode:                modes,
	})

	db, err := store.Open(cfg.Store.Path, store.Options{Logger: logger.With("component", "store")})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	client := opt.HTTPClient
	if client == nil {
		client, err = proxy.NewClient(opt.Proxy, 0)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	orc, err := newOracle(cfg.Oracle, client, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	runner := opt.Runner
	if runner == nil {
		runner = action.ExecRunner{Logger: logger.With("component", "exec")}
	}

	voice := speech.NewVoice(speech.VoiceOptions{
		HumanLike:  cfg.Speech.HumanLike,
		Language:   cfg.Language,
		Voice:      cfg.Speech.Voice,
		AutoDetect: cfg.AutoDetectLanguage,
	})

	player := action.NewMPV(runner)
	if cfg.Media.Socket != "" {
		player.Socket = cfg.Media.Socket
	}
	media := action.NewMedia(action.MediaOptions{
		Runner: runner,
		Player: player,
		Music:  db,
		Volume: cfg.Media.Volume,
		Logger: logger.With("component", "media"),
	})

	var asker action.Asker
	if orc != nil {
		asker = orc
	}

	providers := dispatch.Providers{
		Apps:  action.NewApps(runner, action.HostOS(), logger),
		Files: action.NewFiles(guard, "", logger),
		System: action.NewSystem(action.SystemOptions{
			Runner:  runner,
			Guard:   guard,
			Sampler: opt.Sampler,
			Logger:  logger,
		}),
		Messaging: action.NewMessaging(action.MessagingOptions{Runner: runner, Calls: db, Logger: logger}),
		Web:       action.NewWeb(runner, action.HostOS(), logger),
		Weather: action.NewWeather(action.WeatherOptions{
			APIKey: cfg.Weather.APIKey,
			Host:   cfg.Weather.Host,
			City:   cfg.Weather.City,
			Client: client,
			Logger: logger,
		}),
		Code: action.NewCode(action.CodeOptions{
			Runner: runner,
			Oracle: asker,
			Dir:    cfg.Code.Dir,
			Editor: cfg.Code.Editor,
			Logger: logger,
		}),
		Media:     media,
		Voice:     voice,
		Languages: speech.Languages{},
		Mode:      modes,
	}

	mem := memory.New(memory.Options{
		Capacity: cfg.Memory.Capacity,
		Legacy:   cfg.Memory.LegacyReferences,
	})

	d := dispatch.New(dispatch.Options{
		Memory:    mem,
		Providers: providers,
		Logger:    logger.With("component", "dispatch"),
	})

	aopt := assistant.Options{
		Dispatcher: d,
		History:    db,
		Memory:     mem,
		Safety:     guard,
		Logger:     logger,
	}
	if orc != nil {
		aopt.Oracle = orc
	}

	thresholds := cfg.Monitor.Thresholds
	mon := monitor.New(monitor.Options{
		Sampler:    opt.Sampler,
		Interval:   cfg.Monitor.Interval,
		Thresholds: &thresholds,
		Logger:     logger.With("component", "monitor"),
	})

	return &App{
		Config:    cfg,
		Modes:     modes,
		Safety:    guard,
		Store:     db,
		Oracle:    orc,
		Voice:     voice,
		Memory:    mem,
		Dispatch:  d,
		Assistant: assistant.New(aopt),
		Monitor:   mon,
		Media:     media,
		log:       logger,
	}, nil
}

// newOracle returns nil when no API key is configured.
func newOracle(cfg config.Oracle, client *http.Client, logger *log.Logger) (*oracle.Oracle, error) {
	if cfg.APIKey == "" {
		logger.Warn("No oracle API key, open questions will not be answered",
			"env", strings.Join([]string{config.EnvOracleKey, config.EnvOpenAIKey}, " or "))
		return nil, nil
	}

	backend, err := oracle.NewBackend(cfg.Provider, cfg.APIKey, cfg.Model, cfg.BaseURL, client)
	if err != nil {
		return nil, err
	}
	return oracle.New(oracle.Options{
		Backend:       backend,
		Logger:        logger.With("component", "oracle"),
		Timeout:       cfg.Timeout,
		MaxContext:    cfg.MaxContext,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		NoCache:       !cfg.Cache,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
	})
}

// Reload applies the settings that can change at runtime.
func (a *App) Reload(cfg config.Config) {
	a.Monitor.SetThresholds(cfg.Monitor.Thresholds)
	a.Config.Monitor = cfg.Monitor
}

// Shutdown stops playback and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var errs []error
	if _, err := a.Media.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
