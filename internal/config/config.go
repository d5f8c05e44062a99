// Package config loads the assistant's settings from YAML with secrets
// taken from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jarvis/internal/monitor"
)

const DefaultPath = "jarvis.yaml"

// Environment variables holding secrets.
const (
	EnvOpenAIKey  = "OPENAI_API_KEY"
	EnvOracleKey  = "JARVIS_ORACLE_KEY"
	EnvWeatherKey = "WEATHER_API_KEY"
)

type Config struct {
	Hotword            string `yaml:"hotword"`
	Language           string `yaml:"language"`
	AutoDetectLanguage bool   `yaml:"auto_detect_language"`
	Mode               string `yaml:"default_mode"`
	Socket             string `yaml:"socket"`
	// Metrics is the listen address for /metrics; empty disables it.
	Metrics string `yaml:"metrics"`

	Listen  Listen        `yaml:"listen"`
	Speech  Speech        `yaml:"speech"`
	Oracle  Oracle        `yaml:"oracle"`
	Weather Weather       `yaml:"weather"`
	Memory  Memory        `yaml:"memory"`
	Safety  Safety        `yaml:"safety"`
	Monitor MonitorConfig `yaml:"monitor"`
	Store   Store         `yaml:"store"`
	Code    Code          `yaml:"code"`
	Media   Media         `yaml:"media"`
	Session Session       `yaml:"session"`
	Overlay Overlay       `yaml:"overlay"`
}

type Listen struct {
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	PhraseLimit time.Duration `yaml:"phrase_limit"`
	Threshold   float64       `yaml:"threshold"`
	Threads     int           `yaml:"threads"`
}

type Speech struct {
	HumanLike bool   `yaml:"human_like"`
	Voice     string `yaml:"voice"`
	Duck      bool   `yaml:"duck"`
	DuckFloor int    `yaml:"duck_floor"`
}

type Oracle struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	Proxy         string        `yaml:"proxy"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxTokens     int           `yaml:"max_tokens"`
	Temperature   float64       `yaml:"temperature"`
	MaxContext    int           `yaml:"max_context"`
	Cache         bool          `yaml:"cache"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`

	APIKey string `yaml:"-"`
}

type Weather struct {
	Host string `yaml:"host"`
	City string `yaml:"city"`

	APIKey string `yaml:"-"`
}

type Memory struct {
	Capacity         int  `yaml:"capacity"`
	LegacyReferences bool `yaml:"legacy_references"`
}

type Safety struct {
	RequireConfirmation bool     `yaml:"require_confirmation"`
	ProtectedPaths      []string `yaml:"protected_paths,omitempty"`
}

type MonitorConfig struct {
	Enabled    bool               `yaml:"enabled"`
	Interval   time.Duration      `yaml:"interval"`
	Thresholds monitor.Thresholds `yaml:"thresholds"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Code struct {
	Dir      string `yaml:"dir"`
	Editor   string `yaml:"editor"`
	Language string `yaml:"language"`
}

type Media struct {
	Volume int    `yaml:"volume"`
	Socket string `yaml:"socket"`
}

type Session struct {
	MaxSilences int `yaml:"max_silences"`
	// Chime is an mp3 played when a session starts.
	Chime string `yaml:"chime"`
	// Notify posts a desktop notification when a session starts.
	Notify bool `yaml:"notify"`
}

type Overlay struct {
	URL     string        `yaml:"url"`
	Workers int           `yaml:"workers"`
	Backoff time.Duration `yaml:"backoff"`
}

func Default() Config {
	return Config{
		Hotword:            "jarvis",
		Language:           "en",
		AutoDetectLanguage: true,
		Mode:               "normal",
		Socket:             "/tmp/jarvis.sock",
		Listen: Listen{
			Model:       "models/ggml-base.en.bin",
			Timeout:     5 * time.Second,
			PhraseLimit: 8 * time.Second,
			Threshold:   0.015,
		},
		Speech: Speech{HumanLike: true, Duck: true, DuckFloor: 10},
		Oracle: Oracle{
			Provider:    "compat",
			Model:       "anthropic/claude-3-haiku",
			BaseURL:     "https://openrouter.ai/api/v1",
			Timeout:     8 * time.Second,
			MaxTokens:   500,
			Temperature: 0.7,
			MaxContext:  4,
			Cache:       true,
		},
		Weather: Weather{Host: "weatherapi-com.p.rapidapi.com", City: "Ludhiana"},
		Memory:  Memory{Capacity: 8},
		Safety:  Safety{RequireConfirmation: true},
		Monitor: MonitorConfig{
			Enabled:    true,
			Interval:   monitor.DefaultInterval,
			Thresholds: monitor.DefaultThresholds(),
		},
		Store:   Store{Path: "jarvis.db"},
		Code:    Code{Dir: "jarvis_projects", Editor: "code", Language: "python"},
		Media:   Media{Volume: 70, Socket: "/tmp/jarvis-mpv.sock"},
		Session: Session{MaxSilences: 3, Notify: true},
		Overlay: Overlay{Workers: 4, Backoff: 3 * time.Second},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Hotword) == "" {
		errs = append(errs, errors.New("hotword is empty"))
	}
	if c.Media.Volume < 0 || c.Media.Volume > 100 {
		errs = append(errs, fmt.Errorf("media.volume %d out of range 0-100", c.Media.Volume))
	}
	if c.Overlay.Workers < 0 {
		errs = append(errs, fmt.Errorf("overlay.workers %d is negative", c.Overlay.Workers))
	}
	for name, v := range map[string]float64{
		"cpu":     c.Monitor.Thresholds.CPU,
		"memory":  c.Monitor.Thresholds.Memory,
		"disk":    c.Monitor.Thresholds.Disk,
		"battery": c.Monitor.Thresholds.Battery,
	} {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("monitor.thresholds.%s %.0f out of range 0-100", name, v))
		}
	}
	return errors.Join(errs...)
}

// LoadEnv reads the given dotenv files, skipping missing ones, and copies
// secrets into c. Variables already set in the process win.
func (c *Config) LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	c.Oracle.APIKey = os.Getenv(EnvOracleKey)
	if c.Oracle.APIKey == "" {
		c.Oracle.APIKey = os.Getenv(EnvOpenAIKey)
	}
	c.Weather.APIKey = os.Getenv(EnvWeatherKey)
	return nil
}

// Save writes c as YAML through a temp file and rename.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".jarvis-*.yaml")
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
