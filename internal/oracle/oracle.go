package oracle

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"jarvis/internal/metrics"
)

const (
	DefaultTimeout     = 8 * time.Second
	DefaultMaxContext  = 4
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

// IdentityLine replaces any reply that leaks a foreign identity.
const IdentityLine = "I am JARVIS, created by Mr. Prabhnoor Singh of Singh Industries, sir. How may I assist you?"

var forbiddenTerms = []string{
	"i am claude", "my name is claude", "i'm claude",
	"created by anthropic", "anthropic", "i am an ai assistant",
	"i don't have a name", "i'm not jarvis", "i am not jarvis",
	"openai", "chatgpt", "i don't have a creator",
	"trained by", "developed by anthropic",
}

const systemPrompt = `You are JARVIS (Just A Rather Very Intelligent System), created by Singh Industries and engineered by Mr. Prabhnoor Singh.

IDENTITY RULES:
1. Your name is JARVIS, never any other name.
2. You were created by Mr. Prabhnoor Singh of Singh Industries and by no one else.
3. Never mention other AI systems or the companies behind them.
4. If asked who created you, answer: "I am JARVIS, created by Mr. Prabhnoor Singh of Singh Industries".

PERSONALITY:
- Professional, efficient and loyal.
- Address the user as "sir".
- Answer in one or two sentences.
- No apologies or disclaimers.`

var (
	ErrTimeout  = errors.New("oracle timeout")
	ErrNoAnswer = errors.New("empty completion")
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Params are the sampling settings handed to a backend on every call.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// Backend sends one chat completion request and returns the reply text.
type Backend interface {
	Complete(ctx context.Context, msgs []Message, p Params) (string, error)
}

type Options struct {
	Backend Backend
	Logger  *log.Logger

	Timeout     time.Duration
	MaxContext  int
	Temperature float64
	MaxTokens   int
	// NoCache disables the prompt cache.
	NoCache bool

	// RatePerSecond throttles backend calls. Zero means unlimited.
	RatePerSecond float64
	Burst         int
}

// Oracle answers free-form questions the dispatcher could not route.
// It keeps a short rolling conversation and caches replies by exact prompt.
type Oracle struct {
	backend Backend
	log     *log.Logger
	limiter *rate.Limiter

	timeout    time.Duration
	maxContext int
	params     Params
	useCache   bool

	mu      sync.Mutex
	history []Message
	cache   map[string]string
}

func New(opt Options) (*Oracle, error) {
	if opt.Backend == nil {
		return nil, errors.New("oracle: backend is required")
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultTimeout
	}
	if opt.MaxContext <= 0 {
		opt.MaxContext = DefaultMaxContext
	}
	if opt.Temperature == 0 {
		opt.Temperature = DefaultTemperature
	}
	if opt.MaxTokens <= 0 {
		opt.MaxTokens = DefaultMaxTokens
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opt.RatePerSecond > 0 {
		burst := opt.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opt.RatePerSecond), burst)
	}

	return &Oracle{
		backend:    opt.Backend,
		log:        opt.Logger,
		limiter:    limiter,
		timeout:    opt.Timeout,
		maxContext: opt.MaxContext,
		params:     Params{Temperature: opt.Temperature, MaxTokens: opt.MaxTokens},
		useCache:   !opt.NoCache,
		cache:      make(map[string]string),
	}, nil
}

// Ask returns the reply to prompt. A byte-identical prompt seen before is
// answered from the cache without touching the backend.
func (o *Oracle) Ask(ctx context.Context, prompt string) (string, error) {
	if o.useCache {
		o.mu.Lock()
		cached, ok := o.cache[prompt]
		o.mu.Unlock()
		if ok {
			metrics.OracleQueries.WithLabelValues("cached").Inc()
			o.log.Debug("Using cached response", "prompt", prompt)
			return cached, nil
		}
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("oracle rate limit: %w", err)
	}

	msgs := o.messages(prompt)

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	reply, err := o.backend.Complete(callCtx, msgs, o.params)
	metrics.OracleLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			metrics.OracleQueries.WithLabelValues("timeout").Inc()
			return "", fmt.Errorf("%w after %s", ErrTimeout, o.timeout)
		}
		metrics.OracleQueries.WithLabelValues("error").Inc()
		return "", fmt.Errorf("oracle query: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		metrics.OracleQueries.WithLabelValues("error").Inc()
		return "", ErrNoAnswer
	}

	if filtered := Filter(reply); filtered != reply {
		metrics.OracleQueries.WithLabelValues("filtered").Inc()
		o.log.Warn("Replaced reply with identity line", "reply", reply)
		reply = filtered
	} else {
		metrics.OracleQueries.WithLabelValues("ok").Inc()
	}

	o.remember(prompt, reply)

	return reply, nil
}

// Reset drops the rolling conversation. The cache is kept.
func (o *Oracle) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.history = nil
}

// History returns a copy of the rolling conversation, oldest first.
func (o *Oracle) History() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.history...)
}

func (o *Oracle) messages(prompt string) []Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	recent := o.history
	if len(recent) > o.maxContext {
		recent = recent[len(recent)-o.maxContext:]
	}

	msgs := make([]Message, 0, len(recent)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: systemPrompt})
	msgs = append(msgs, recent...)
	msgs = append(msgs, Message{Role: RoleUser, Content: prompt})
	return msgs
}

func (o *Oracle) remember(prompt, reply string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.history = append(o.history,
		Message{Role: RoleUser, Content: prompt},
		Message{Role: RoleAssistant, Content: reply},
	)
	if limit := o.maxContext * 2; len(o.history) > limit {
		o.history = append([]Message(nil), o.history[len(o.history)-limit:]...)
	}

	if o.useCache {
		o.cache[prompt] = reply
	}
}

// Filter returns IdentityLine when reply contains a forbidden identity term,
// reply otherwise.
func Filter(reply string) string {
	lower := strings.ToLower(reply)
	for _, term := range forbiddenTerms {
		if strings.Contains(lower, term) {
			return IdentityLine
		}
	}
	return reply
}

// NewBackend picks a backend by provider name: "openai" uses the official
// SDK, "compat" any OpenAI-compatible endpoint.
func NewBackend(provider, apiKey, model, baseURL string, httpClient *http.Client) (Backend, error) {
	switch provider {
	case "", "openai":
		return NewOfficial(apiKey, model, baseURL, httpClient), nil
	case "compat":
		return NewCompat(apiKey, model, baseURL, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", provider)
	}
}
