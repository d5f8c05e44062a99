package store

import (
	"context"
	"database/sql"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	DefaultCommandCap = 1000
	DefaultMusicCap   = 500

	// TimeLayout is how timestamps are stored and shown in history listings.
	TimeLayout = "2006-01-02T15:04:05"
)

const schema = `
CREATE TABLE IF NOT EXISTS commands (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	id      TEXT NOT NULL UNIQUE,
	command TEXT NOT NULL,
	at      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS music (
	seq    INTEGER PRIMARY KEY AUTOINCREMENT,
	id     TEXT NOT NULL UNIQUE,
	title  TEXT NOT NULL,
	artist TEXT NOT NULL DEFAULT '',
	at     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS calls (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	id      TEXT NOT NULL UNIQUE,
	contact TEXT NOT NULL,
	kind    TEXT NOT NULL,
	status  TEXT NOT NULL,
	at      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS notes (
	seq  INTEGER PRIMARY KEY AUTOINCREMENT,
	id   TEXT NOT NULL UNIQUE,
	text TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '',
	at   TEXT NOT NULL
);`

type CommandRecord struct {
	ID      string
	Command string
	At      time.Time
}

type MusicRecord struct {
	ID     string
	Title  string
	Artist string
	At     time.Time
}

type CallStatus string

const (
	CallInitiated CallStatus = "initiated"
	CallAccepted  CallStatus = "accepted"
	CallDeclined  CallStatus = "declined"
	CallEnded     CallStatus = "ended"
)

type CallRecord struct {
	ID      string
	Contact string
	// Kind is "voice" or "video".
	Kind   string
	Status CallStatus
	At     time.Time
}

type Note struct {
	ID   string
	Text string
	Tags []string
	At   time.Time
}

type Options struct {
	CommandCap int
	MusicCap   int
	Now        func() time.Time
	Logger     *log.Logger
}

// Store is the assistant's persistent history: commands, music, calls and
// notes, kept in a single SQLite file.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	log *log.Logger

	commandCap int
	musicCap   int
	now        func() time.Time
}

// Open creates or opens the database at path.
func Open(path string, opt Options) (*Store, error) {
	if opt.CommandCap <= 0 {
		opt.CommandCap = DefaultCommandCap
	}
	if opt.MusicCap <= 0 {
		opt.MusicCap = DefaultMusicCap
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	opt.Logger.Debug("Opened store", "path", path)

	return &Store{
		db:         db,
		log:        opt.Logger,
		commandCap: opt.CommandCap,
		musicCap:   opt.MusicCap,
		now:        opt.Now,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LogCommand appends a command, dropping the oldest beyond the cap.
func (s *Store) LogCommand(ctx context.Context, command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (id, command, at) VALUES (?, ?, ?)`,
		uuid.NewString(), command, s.stamp(),
	); err != nil {
		return fmt.Errorf("log command: %w", err)
	}
	return s.trim(ctx, "commands", s.commandCap)
}

// Commands returns up to limit commands, newest first. limit <= 0 means all.
func (s *Store) Commands(ctx context.Context, limit int) ([]CommandRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, at FROM commands ORDER BY seq DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	var out []CommandRecord
	for rows.Next() {
		var rec CommandRecord
		var at string
		if err := rows.Scan(&rec.ID, &rec.Command, &at); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		rec.At = parseStamp(at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LogMusic appends a played track, dropping the oldest beyond the cap.
func (s *Store) LogMusic(ctx context.Context, title, artist string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO music (id, title, artist, at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), title, artist, s.stamp(),
	); err != nil {
		return fmt.Errorf("log music: %w", err)
	}
	return s.trim(ctx, "music", s.musicCap)
}

func (s *Store) Music(ctx context.Context, limit int) ([]MusicRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, artist, at FROM music ORDER BY seq DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query music: %w", err)
	}
	defer rows.Close()

	var out []MusicRecord
	for rows.Next() {
		var rec MusicRecord
		var at string
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Artist, &at); err != nil {
			return nil, fmt.Errorf("scan music: %w", err)
		}
		rec.At = parseStamp(at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) LogCall(ctx context.Context, contact, kind string, status CallStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calls (id, contact, kind, status, at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), contact, kind, string(status), s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("log call: %w", err)
	}
	return nil
}

func (s *Store) Calls(ctx context.Context, limit int) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contact, kind, status, at FROM calls ORDER BY seq DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		var rec CallRecord
		var status, at string
		if err := rows.Scan(&rec.ID, &rec.Contact, &rec.Kind, &status, &at); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		rec.Status = CallStatus(status)
		rec.At = parseStamp(at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) AddNote(ctx context.Context, text string, tags ...string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := Note{
		ID:   uuid.NewString(),
		Text: text,
		Tags: tags,
		At:   s.now().Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, text, tags, at) VALUES (?, ?, ?, ?)`,
		n.ID, n.Text, strings.Join(tags, ","), n.At.Format(TimeLayout),
	)
	if err != nil {
		return Note{}, fmt.Errorf("add note: %w", err)
	}
	return n, nil
}

// Notes returns every note, oldest first.
func (s *Store) Notes(ctx context.Context) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, tags, at FROM notes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		var tags, at string
		if err := rows.Scan(&n.ID, &n.Text, &tags, &at); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if tags != "" {
			n.Tags = strings.Split(tags, ",")
		}
		n.At = parseStamp(at)
		out = append(out, n)
	}
	return out, rows.Err()
}

// trim keeps the newest keep rows of table. Callers hold s.mu.
func (s *Store) trim(ctx context.Context, table string, keep int) error {
	q := fmt.Sprintf(
		`DELETE FROM %s WHERE seq <= (SELECT seq FROM %s ORDER BY seq DESC LIMIT 1 OFFSET ?)`,
		table, table)
	res, err := s.db.ExecContext(ctx, q, keep)
	if err != nil {
		return fmt.Errorf("trim %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.log.Debug("Trimmed history", "table", table, "rows", n)
	}
	return nil
}

func (s *Store) stamp() string {
	return s.now().Format(TimeLayout)
}

func parseStamp(v string) time.Time {
	t, err := time.ParseInLocation(TimeLayout, v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
