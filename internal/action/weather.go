package action

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultWeatherHost = "weatherapi-com.p.rapidapi.com"
	DefaultCity        = "Ludhiana"
)

type WeatherOptions struct {
	APIKey string
	Host   string
	City   string
	// BaseURL overrides https://{Host}.
	BaseURL string
	Client  *http.Client
	Logger  *log.Logger
}

// Weather reports current conditions through the RapidAPI WeatherAPI
// endpoint.
type Weather struct {
	key     string
	host    string
	city    string
	baseURL string
	client  *http.Client
	log     *log.Logger
}

func NewWeather(opt WeatherOptions) *Weather {
	if opt.Host == "" {
		opt.Host = DefaultWeatherHost
	}
	if opt.City == "" {
		opt.City = DefaultCity
	}
	if opt.BaseURL == "" {
		opt.BaseURL = "https://" + opt.Host
	}
	if opt.Client == nil {
		opt.Client = &http.Client{Timeout: 5 * time.Second}
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	return &Weather{
		key:     opt.APIKey,
		host:    opt.Host,
		city:    opt.City,
		baseURL: opt.BaseURL,
		client:  opt.Client,
		log:     opt.Logger,
	}
}

func (w *Weather) Current(ctx context.Context, city string) (string, error) {
	if w.key == "" {
		return "Weather API not configured, sir.", nil
	}
	if city == "" {
		city = w.city
	}

	body, status, err := w.fetch(ctx, city)
	if err != nil {
		w.log.Error("Weather error", "city", city, "err", err)
		return "Weather service unavailable, sir.", nil
	}
	if status != http.StatusOK {
		w.log.Warn("Weather API refused", "city", city, "status", status)
		return "Could not fetch weather data, sir.", nil
	}

	data := gjson.ParseBytes(body)
	return fmt.Sprintf("Weather in %s: %s°C, %s. Humidity: %d%%. Wind: %s km/h, sir.",
		data.Get("location.name").String(),
		data.Get("current.temp_c").String(),
		data.Get("current.condition.text").String(),
		data.Get("current.humidity").Int(),
		data.Get("current.wind_kph").String(),
	), nil
}

func (w *Weather) fetch(ctx context.Context, city string) ([]byte, int, error) {
	u := w.baseURL + "/current.json?q=" + url.QueryEscape(city)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-RapidAPI-Key", w.key)
	req.Header.Set("X-RapidAPI-Host", w.host)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read weather body: %w", err)
	}
	return body, resp.StatusCode, nil
}
