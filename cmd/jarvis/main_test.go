package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/assistant"
)

type scripted struct {
	seen []string
}

func (s *scripted) Handle(_ context.Context, text string) assistant.Reply {
	s.seen = append(s.seen, text)
	if text == "goodbye" {
		return assistant.Reply{Text: "Goodbye, sir.", End: true}
	}
	return assistant.Reply{Text: "Echo " + text}
}

func TestReplStopsOnEnd(t *testing.T) {
	h := &scripted{}
	var out bytes.Buffer

	err := repl(context.Background(), strings.NewReader("hello\n\n  \ngoodbye\nnever\n"), &out, h)
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "goodbye"}, h.seen)
	assert.Equal(t, "JARVIS: Console ready, sir. Type a command.\n"+
		"> JARVIS: Echo hello\n"+
		"> > > JARVIS: Goodbye, sir.\n", out.String())
}

func TestReplStopsAtEOF(t *testing.T) {
	h := &scripted{}
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), strings.NewReader("status"), &out, h))
	assert.Equal(t, []string{"status"}, h.seen)
	assert.True(t, strings.HasSuffix(out.String(), "> \n"))
}

func TestReplCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := &scripted{}

	require.NoError(t, repl(ctx, strings.NewReader("hello\n"), &bytes.Buffer{}, h))
	assert.Empty(t, h.seen)
}
