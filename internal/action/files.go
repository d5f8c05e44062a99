package action

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	log "log/slog"
	"os"
	"path/filepath"
	"strings"
)

const searchShown = 10

// Guard decides which paths may be touched and whether destructive actions
// need a spoken confirmation first.
type Guard interface {
	PathSafe(path string) bool
	GateEnabled() bool
}

// Files manages the local filesystem. Relative paths resolve against Base,
// or the working directory when Base is empty.
type Files struct {
	guard Guard
	base  string
	log   *log.Logger
}

func NewFiles(g Guard, base string, logger *log.Logger) *Files {
	if logger == nil {
		logger = log.Default()
	}
	return &Files{guard: g, base: base, log: logger}
}

func (f *Files) abs(path string) (string, error) {
	path = expandHome(path)
	if !filepath.IsAbs(path) && f.base != "" {
		path = filepath.Join(f.base, path)
	}
	return filepath.Abs(path)
}

func (f *Files) CreateFolder(_ context.Context, path string) (string, error) {
	p, err := f.abs(path)
	if err != nil {
		return "", err
	}
	if !f.guard.PathSafe(p) {
		return "Cannot create folder in protected directory.", nil
	}

	if err := os.MkdirAll(p, 0o755); err != nil {
		f.log.Error("Error creating folder", "path", p, "err", err)
		return fmt.Sprintf("Error creating folder: %v", err), nil
	}
	return fmt.Sprintf("Folder created: %s, sir.", filepath.Base(p)), nil
}

func (f *Files) Rename(_ context.Context, path, newName string) (string, error) {
	old, err := f.abs(path)
	if err != nil {
		return "", err
	}
	if !exists(old) {
		return "File not found.", nil
	}
	if !f.guard.PathSafe(old) {
		return "Cannot rename protected file.", nil
	}

	target := filepath.Join(filepath.Dir(old), newName)
	if err := os.Rename(old, target); err != nil {
		f.log.Error("Error renaming", "from", old, "to", target, "err", err)
		return fmt.Sprintf("Error renaming: %v", err), nil
	}
	return fmt.Sprintf("Renamed to: %s, sir.", newName), nil
}

// Move relocates src. A destination that is an existing directory receives
// the file under its current name.
func (f *Files) Move(_ context.Context, src, dst string) (string, error) {
	from, err := f.abs(src)
	if err != nil {
		return "", err
	}
	to, err := f.abs(dst)
	if err != nil {
		return "", err
	}

	if !exists(from) {
		return "Source file not found.", nil
	}
	if !f.guard.PathSafe(from) || !f.guard.PathSafe(to) {
		return "Cannot move protected file.", nil
	}

	if fi, err := os.Stat(to); err == nil && fi.IsDir() {
		to = filepath.Join(to, filepath.Base(from))
	}
	if err := os.Rename(from, to); err != nil {
		f.log.Error("Error moving", "from", from, "to", to, "err", err)
		return fmt.Sprintf("Error moving file: %v", err), nil
	}
	return fmt.Sprintf("Moved %s to %s, sir.", filepath.Base(from), dst), nil
}

// Delete removes path. Unless confirmed, and while the confirmation gate is
// on, it only asks.
func (f *Files) Delete(_ context.Context, path string, confirmed bool) (string, error) {
	p, err := f.abs(path)
	if err != nil {
		return "", err
	}
	if !exists(p) {
		return "File not found.", nil
	}
	if !f.guard.PathSafe(p) {
		return "Cannot delete protected file.", nil
	}

	name := filepath.Base(p)
	if !confirmed && f.guard.GateEnabled() {
		return fmt.Sprintf("CONFIRM_DELETE: Are you sure you want to delete %s?", name), nil
	}

	if err := os.RemoveAll(p); err != nil {
		f.log.Error("Error deleting", "path", p, "err", err)
		return fmt.Sprintf("Error deleting: %v", err), nil
	}
	f.log.Info("Deleted", "path", p)
	return fmt.Sprintf("Deleted: %s, sir.", name), nil
}

// Search walks dir recursively for entries whose base name matches the
// glob pattern.
func (f *Files) Search(_ context.Context, dir, pattern string) (string, error) {
	if dir == "" {
		dir = "."
	}
	root, err := f.abs(dir)
	if err != nil {
		return "", err
	}
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return "Directory not found.", nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return fmt.Sprintf("Invalid pattern '%s'.", pattern), nil
	}

	var found []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return fs.SkipDir
			}
			return err
		}
		if p == root {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			rel, _ := filepath.Rel(root, p)
			found = append(found, rel)
		}
		return nil
	})
	if err != nil {
		f.log.Error("Search error", "dir", root, "err", err)
		return fmt.Sprintf("Search error: %v", err), nil
	}

	if len(found) == 0 {
		return fmt.Sprintf("No files found matching '%s'", pattern), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d file(s):\n", len(found))
	for _, rel := range found[:min(len(found), searchShown)] {
		b.WriteString(rel + "\n")
	}
	if len(found) > searchShown {
		fmt.Fprintf(&b, "\n... and %d more", len(found)-searchShown)
	}
	return b.String(), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
