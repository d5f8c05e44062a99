package action

import (
	"bufio"
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"jarvis/internal/store"
)

const (
	DefaultMediaVolume = 70
	volumeStep         = 10
	trendingQuery      = "trending music 2024"
)

// Track is one search hit.
type Track struct {
	ID       string
	Title    string
	Artist   string
	URL      string
	Duration time.Duration
}

// MusicLog persists what was played.
type MusicLog interface {
	LogMusic(ctx context.Context, title, artist string) error
	Music(ctx context.Context, limit int) ([]store.MusicRecord, error)
}

type MediaOptions struct {
	Runner Runner
	OS     string
	// Player streams audio. Without one, or when it is not installed,
	// tracks open in the browser.
	Player Player
	Music  MusicLog
	YTDLP  string
	Volume int
	Logger *log.Logger
}

// Media searches YouTube through yt-dlp and plays audio through Player.
type Media struct {
	run    Runner
	os     string
	player Player
	music  MusicLog
	ytdlp  string
	log    *log.Logger

	mu       sync.Mutex
	current  *Track
	inPlayer bool
	paused   bool
	volume   int
}

func NewMedia(opt MediaOptions) *Media {
	if opt.OS == "" {
		opt.OS = HostOS()
	}
	if opt.YTDLP == "" {
		opt.YTDLP = "yt-dlp"
	}
	if opt.Volume <= 0 {
		opt.Volume = DefaultMediaVolume
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	return &Media{
		run:    opt.Runner,
		os:     opt.OS,
		player: opt.Player,
		music:  opt.Music,
		ytdlp:  opt.YTDLP,
		log:    opt.Logger,
		volume: clampVolume(opt.Volume),
	}
}

// Find runs a yt-dlp search and returns up to limit tracks.
func (m *Media) Find(ctx context.Context, query string, limit int) ([]Track, error) {
	out, err := m.run.Run(ctx, command(m.ytdlp,
		"--flat-playlist",
		"--dump-json",
		"--no-warnings",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	))
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search: %w", err)
	}
	return parseTracks(out.Stdout), nil
}

// parseTracks reads yt-dlp's one-object-per-line output.
func parseTracks(raw string) []Track {
	var tracks []Track
	sc := bufio.NewScanner(strings.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)

	for sc.Scan() {
		line := sc.Text()
		if !gjson.Valid(line) {
			continue
		}
		r := gjson.Parse(line)
		id := r.Get("id").String()
		if id == "" {
			continue
		}

		artist := r.Get("uploader").String()
		if artist == "" {
			artist = r.Get("channel").String()
		}
		if artist == "" {
			artist = "Unknown"
		}

		tracks = append(tracks, Track{
			ID:       id,
			Title:    r.Get("title").String(),
			Artist:   artist,
			URL:      "https://www.youtube.com/watch?v=" + id,
			Duration: time.Duration(r.Get("duration").Float() * float64(time.Second)),
		})
	}
	return tracks
}

func (m *Media) SearchAndPlay(ctx context.Context, query string) (string, error) {
	tracks, err := m.Find(ctx, query, 1)
	if err != nil {
		m.log.Error("Search error", "query", query, "err", err)
		return fmt.Sprintf("Could not search for '%s', sir.", query), nil
	}
	if len(tracks) == 0 {
		return fmt.Sprintf("No results found for '%s', sir.", query), nil
	}
	t := tracks[0]

	m.mu.Lock()
	volume := m.volume
	m.mu.Unlock()

	if m.player != nil && m.player.Available() {
		err := m.player.Play(ctx, t.URL, volume)
		if err == nil {
			m.nowPlaying(ctx, t, true)
			return fmt.Sprintf("Now playing: %s by %s%s, sir.", t.Title, t.Artist, clock(t.Duration)), nil
		}
		m.log.Warn("Player failed, falling back to browser", "err", err)
	}

	if err := openURL(m.run, m.os, t.URL); err != nil {
		m.log.Error("Error opening browser", "url", t.URL, "err", err)
		return "Could not play music, sir.", nil
	}
	m.nowPlaying(ctx, t, false)
	return fmt.Sprintf("Playing in browser: %s by %s, sir.", t.Title, t.Artist), nil
}

func (m *Media) nowPlaying(ctx context.Context, t Track, inPlayer bool) {
	m.mu.Lock()
	m.current = &t
	m.inPlayer = inPlayer
	m.paused = false
	m.mu.Unlock()

	m.log.Info("Now playing", "title", t.Title, "artist", t.Artist, "player", inPlayer)
	if m.music == nil {
		return
	}
	if err := m.music.LogMusic(ctx, t.Title, t.Artist); err != nil {
		m.log.Warn("Failed to log music", "title", t.Title, "err", err)
	}
}

// clock renders d as " (m:ss)", or nothing when unknown.
func clock(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	s := int(d.Seconds())
	return fmt.Sprintf(" (%d:%02d)", s/60, s%60)
}

func (m *Media) PlayVideo(ctx context.Context, query string) (string, error) {
	tracks, err := m.Find(ctx, query, 1)
	if err != nil {
		m.log.Error("Search error", "query", query, "err", err)
		return fmt.Sprintf("Could not search for '%s', sir.", query), nil
	}
	if len(tracks) == 0 {
		return fmt.Sprintf("No results found for '%s', sir.", query), nil
	}
	t := tracks[0]

	if err := openURL(m.run, m.os, t.URL); err != nil {
		m.log.Error("Error opening browser", "url", t.URL, "err", err)
		return "Could not play video, sir.", nil
	}
	return fmt.Sprintf("Playing in browser: %s by %s, sir.", t.Title, t.Artist), nil
}

func (m *Media) Search(ctx context.Context, query string, limit int) (string, error) {
	tracks, err := m.Find(ctx, query, limit)
	if err != nil {
		m.log.Error("Search error", "query", query, "err", err)
		return fmt.Sprintf("Could not search for '%s', sir.", query), nil
	}
	if len(tracks) == 0 {
		return fmt.Sprintf("No results found for '%s', sir.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results for '%s':\n", len(tracks), query)
	for i, t := range tracks {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, t.Title, t.Artist)
	}
	return b.String(), nil
}

func (m *Media) Trending(ctx context.Context) (string, error) {
	tracks, err := m.Find(ctx, trendingQuery, 10)
	if err != nil || len(tracks) == 0 {
		if err != nil {
			m.log.Error("Trending error", "err", err)
		}
		return "Could not fetch trending music, sir.", nil
	}

	lines := []string{"Trending music:"}
	for i, t := range tracks[:min(len(tracks), 5)] {
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, t.Title, t.Artist))
	}
	return strings.Join(lines, "\n"), nil
}

func (m *Media) Pause(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.inPlayer || m.paused {
		return "Nothing is playing, sir.", nil
	}
	if err := m.player.SetPaused(ctx, true); err != nil {
		m.log.Error("Pause error", "err", err)
		return "Could not pause playback, sir.", nil
	}
	m.paused = true
	return "Playback paused, sir.", nil
}

func (m *Media) Resume(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.inPlayer || !m.paused {
		return "Nothing to resume, sir.", nil
	}
	if err := m.player.SetPaused(ctx, false); err != nil {
		m.log.Error("Resume error", "err", err)
		return "Could not resume playback, sir.", nil
	}
	m.paused = false
	return "Playback resumed, sir.", nil
}

func (m *Media) Stop(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inPlayer && m.player != nil {
		if err := m.player.Stop(ctx); err != nil {
			m.log.Debug("Player stop", "err", err)
		}
	}
	m.current = nil
	m.inPlayer = false
	m.paused = false
	return "Playback stopped, sir.", nil
}

func (m *Media) VolumeUp(ctx context.Context) (string, error) {
	m.mu.Lock()
	v := m.volume + volumeStep
	m.mu.Unlock()
	return m.SetVolume(ctx, v)
}

func (m *Media) VolumeDown(ctx context.Context) (string, error) {
	m.mu.Lock()
	v := m.volume - volumeStep
	m.mu.Unlock()
	return m.SetVolume(ctx, v)
}

func (m *Media) SetVolume(ctx context.Context, percent int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.volume = clampVolume(percent)
	if m.current != nil && m.inPlayer {
		if err := m.player.SetVolume(ctx, m.volume); err != nil {
			m.log.Warn("Volume change not applied", "err", err)
		}
	}
	return fmt.Sprintf("Volume set to %d%%, sir.", m.volume), nil
}

func clampVolume(v int) int {
	return max(0, min(100, v))
}

func (m *Media) Current(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return "No media is playing, sir.", nil
	}
	return fmt.Sprintf("Currently playing: %s by %s, sir.", m.current.Title, m.current.Artist), nil
}

func (m *Media) History(ctx context.Context, limit int) (string, error) {
	if m.music == nil {
		return "No music history available.", nil
	}
	recs, err := m.music.Music(ctx, limit)
	if err != nil {
		return "", fmt.Errorf("music history: %w", err)
	}
	if len(recs) == 0 {
		return "No music history available.", nil
	}

	var b strings.Builder
	b.WriteString("Recent music:")
	for _, r := range recs {
		b.WriteString("\n- " + r.Title)
		if r.Artist != "" {
			b.WriteString(" by " + r.Artist)
		}
		fmt.Fprintf(&b, " (%s)", r.At.Format(store.TimeLayout))
	}
	return b.String(), nil
}
