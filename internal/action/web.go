package action

import (
	"context"
	"fmt"
	log "log/slog"
)

// Web opens searches and assistant sites in the default browser.
type Web struct {
	run Runner
	os  string
	log *log.Logger
}

func NewWeb(r Runner, goos string, logger *log.Logger) *Web {
	if logger == nil {
		logger = log.Default()
	}
	return &Web{run: r, os: goos, log: logger}
}

func (w *Web) open(u, ok string) (string, error) {
	if err := openURL(w.run, w.os, u); err != nil {
		w.log.Error("Error opening browser", "url", u, "err", err)
		return "Could not open browser, sir.", nil
	}
	return ok, nil
}

func (w *Web) Google(_ context.Context, query string) (string, error) {
	return w.open("https://www.google.com/search?q="+queryEscape(query),
		fmt.Sprintf("Searching Google for: %s, sir.", query))
}

func (w *Web) YouTube(_ context.Context, query string) (string, error) {
	return w.open("https://www.youtube.com/results?search_query="+queryEscape(query),
		fmt.Sprintf("Searching YouTube for: %s, sir.", query))
}

func (w *Web) StackOverflow(_ context.Context, problem string) (string, error) {
	return w.open("https://stackoverflow.com/search?q="+queryEscape(problem),
		fmt.Sprintf("Searching StackOverflow for: %s, sir.", problem))
}

func (w *Web) ChatGPT(context.Context) (string, error) {
	return w.open("https://chat.openai.com", "Opening ChatGPT, sir.")
}

func (w *Web) Claude(context.Context) (string, error) {
	return w.open("https://claude.ai", "Opening Claude, sir.")
}

func (w *Web) Gemini(context.Context) (string, error) {
	return w.open("https://gemini.google.com", "Opening Gemini, sir.")
}
