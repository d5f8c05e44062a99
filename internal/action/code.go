package action

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultProjectDir = "jarvis_projects"
	runTimeout        = 10 * time.Second
)

var extensions = map[string]string{
	"python":     ".py",
	"javascript": ".js",
	"java":       ".java",
	"cpp":        ".cpp",
	"c":          ".c",
	"html":       ".html",
	"css":        ".css",
}

var languages = func() map[string]string {
	m := make(map[string]string, len(extensions))
	for lang, ext := range extensions {
		m[ext] = lang
	}
	return m
}()

var fence = regexp.MustCompile("(?m)^```[a-zA-Z+#]*\\s*$")

// Asker answers free-form prompts.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

type CodeOptions struct {
	Runner Runner
	Oracle Asker
	// Dir holds created projects. Defaults to DefaultProjectDir.
	Dir    string
	Editor string
	Python string
	// RunTimeout bounds compiling and running a program.
	RunTimeout time.Duration
	Logger     *log.Logger
}

// Code creates, generates and runs small programs in the project directory.
type Code struct {
	run     Runner
	oracle  Asker
	dir     string
	editor  string
	python  string
	timeout time.Duration
	log     *log.Logger
}

func NewCode(opt CodeOptions) *Code {
	if opt.Dir == "" {
		opt.Dir = DefaultProjectDir
	}
	if opt.Editor == "" {
		opt.Editor = "code"
	}
	if opt.Python == "" {
		opt.Python = "python3"
	}
	if opt.RunTimeout <= 0 {
		opt.RunTimeout = runTimeout
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	return &Code{
		run:     opt.Runner,
		oracle:  opt.Oracle,
		dir:     opt.Dir,
		editor:  opt.Editor,
		python:  opt.Python,
		timeout: opt.RunTimeout,
		log:     opt.Logger,
	}
}

// Language infers a language from name's extension, defaulting to python.
func Language(name string) string {
	if lang, ok := languages[strings.ToLower(filepath.Ext(name))]; ok {
		return lang
	}
	return "python"
}

func Extension(language string) string {
	if ext, ok := extensions[strings.ToLower(language)]; ok {
		return ext
	}
	return ".txt"
}

func (c *Code) CreateFile(_ context.Context, name, language string) (string, error) {
	if language == "" {
		language = Language(name)
	}
	if ext := Extension(language); !strings.HasSuffix(name, ext) && filepath.Ext(name) == "" {
		name += ext
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("project dir: %w", err)
	}

	path := filepath.Join(c.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	c.log.Info("Created file", "path", path, "language", language)
	return path, nil
}

func (c *Code) Write(_ context.Context, path, code string) (string, error) {
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return fmt.Sprintf("Code written to %s, sir.", filepath.Base(path)), nil
}

func (c *Code) Generate(ctx context.Context, task, language string) (string, error) {
	if c.oracle == nil {
		return "", errors.New("code generation needs an oracle")
	}

	prompt := fmt.Sprintf("Generate %s code for: %s\n\n"+
		"Requirements:\n"+
		"- Complete, working code\n"+
		"- Include comments\n"+
		"- Handle errors\n"+
		"- Keep it simple\n\n"+
		"Output ONLY the code, no explanations.", language, task)

	reply, err := c.oracle.Ask(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return StripFences(reply), nil
}

// StripFences removes markdown code fences around a generated program.
func StripFences(s string) string {
	return strings.TrimSpace(fence.ReplaceAllString(s, ""))
}

func (c *Code) OpenInEditor(ctx context.Context, path string) (string, error) {
	p := c.resolve(path)
	if err := c.run.Start(command(c.editor, p)); err != nil {
		c.log.Error("Error opening editor", "path", p, "err", err)
		return "Could not open VS Code, sir.", nil
	}
	return fmt.Sprintf("Opened %s in VS Code, sir.", filepath.Base(p)), nil
}

// resolve prefers an existing path and falls back to the project directory.
func (c *Code) resolve(path string) string {
	if exists(path) || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dir, path)
}

func (c *Code) Run(ctx context.Context, path string) (string, error) {
	p := c.resolve(path)
	if !exists(p) {
		return "File not found.", nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.execute(ctx, p)
	if ctx.Err() == context.DeadlineExceeded {
		return "Program execution timed out.", nil
	}
	if err != nil {
		c.log.Warn("Program failed", "path", p, "err", err)
	}
	return reply, nil
}

func (c *Code) execute(ctx context.Context, p string) (string, error) {
	dir := filepath.Dir(p)
	base := filepath.Base(p)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	switch filepath.Ext(p) {
	case ".py":
		out, err := c.run.Run(ctx, Cmd{Name: c.python, Args: []string{p}})
		return fmt.Sprintf("Output:\n%s\nErrors:\n%s", out.Stdout, out.Stderr), err

	case ".java":
		if out, err := c.run.Run(ctx, Cmd{Name: "javac", Args: []string{base}, Dir: dir}); err != nil {
			return "Compilation error:\n" + out.Stderr, err
		}
		out, err := c.run.Run(ctx, Cmd{Name: "java", Args: []string{stem}, Dir: dir})
		return "Output:\n" + out.Stdout, err

	case ".c", ".cpp":
		compiler := "gcc"
		if filepath.Ext(p) == ".cpp" {
			compiler = "g++"
		}
		bin := filepath.Join(dir, stem)
		if out, err := c.run.Run(ctx, Cmd{Name: compiler, Args: []string{p, "-o", bin}}); err != nil {
			return "Compilation error:\n" + out.Stderr, err
		}
		out, err := c.run.Run(ctx, Cmd{Name: bin})
		return "Output:\n" + out.Stdout, err

	default:
		return "Unsupported file type for execution.", nil
	}
}
