package memory

import (
	"strings"
	"sync"
	"time"
)

const (
	DefaultCapacity = 8

	// frequency keys are truncated so the counter map stays bounded by key length
	freqKeyLimit = 50
)

// Pronoun slots overwritten on every targeted interaction.
const (
	RefIt         = "it"
	RefThat       = "that"
	RefThis       = "this"
	RefLastTarget = "last_target"
)

// pronouns scanned by Resolve. "them" resolves but is never written.
var pronouns = []string{"it", "that", "this", "them"}

type Interaction struct {
	Command string
	Target  string
	Result  string
	At      time.Time
}

type AppStat struct {
	LastOpened time.Time
	Count      int
}

type Options struct {
	Capacity int
	// Legacy matches pronouns as raw substrings ("it" inside "with").
	Legacy bool
	Now    func() time.Time
}

// Context is the rolling short-term interaction log plus the pronoun table.
// All methods are safe for concurrent use.
type Context struct {
	mu sync.Mutex

	capacity int
	legacy   bool
	now      func() time.Time

	log  []Interaction
	refs map[string]string

	frequent map[string]int
	apps     map[string]AppStat
}

func New(opt Options) *Context {
	if opt.Capacity <= 0 {
		opt.Capacity = DefaultCapacity
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}

	return &Context{
		capacity: opt.Capacity,
		legacy:   opt.Legacy,
		now:      opt.Now,
		log:      make([]Interaction, 0, opt.Capacity),
		refs:     make(map[string]string),
		frequent: make(map[string]int),
		apps:     make(map[string]AppStat),
	}
}

// Record appends an interaction, evicting the oldest once capacity is hit.
// A non-empty target replaces every pronoun slot.
func (c *Context) Record(command, target, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if len(c.log) == c.capacity {
		copy(c.log, c.log[1:])
		c.log = c.log[:c.capacity-1]
	}
	c.log = append(c.log, Interaction{
		Command: command,
		Target:  target,
		Result:  result,
		At:      now,
	})

	if target != "" {
		c.refs[RefLastTarget] = target
		c.refs[RefIt] = target
		c.refs[RefThat] = target
		c.refs[RefThis] = target
	}

	key := freqKey(command)
	c.frequent[key]++

	if target != "" && firstWord(command) == "open" {
		app := strings.ToLower(target)
		st := c.apps[app]
		c.apps[app] = AppStat{LastOpened: now, Count: st.Count + 1}
	}
}

// Resolve reports the last recorded target when text mentions any pronoun.
// Which pronoun matched does not matter: there is a single stored referent.
func (c *Context) Resolve(text string) (string, bool) {
	if !c.mentionsPronoun(strings.ToLower(text)) {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	target, ok := c.refs[RefLastTarget]
	if !ok || target == "" {
		return "", false
	}
	return target, true
}

// Legacy reports whether pronouns are matched as raw substrings.
func (c *Context) Legacy() bool {
	return c.legacy
}

func (c *Context) mentionsPronoun(lower string) bool {
	if c.legacy {
		for _, p := range pronouns {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}

	for _, w := range Words(lower) {
		for _, p := range pronouns {
			if w == p {
				return true
			}
		}
	}
	return false
}

// Clear wipes the log and the pronoun table. Frequency counters survive.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log = c.log[:0]
	c.refs = make(map[string]string)
}

// Recent returns a copy of the log, oldest first.
func (c *Context) Recent() []Interaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Interaction(nil), c.log...)
}

func (c *Context) Reference(slot string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.refs[slot]
}

func (c *Context) Frequency(command string) int {
	key := freqKey(command)

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.frequent[key]
}

func (c *Context) AppStats(app string) (AppStat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.apps[strings.ToLower(app)]
	return st, ok
}

// freqKey is the lowercased command cut to freqKeyLimit characters.
func freqKey(command string) string {
	key := []rune(strings.ToLower(command))
	if len(key) > freqKeyLimit {
		key = key[:freqKeyLimit]
	}
	return string(key)
}

func firstWord(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
