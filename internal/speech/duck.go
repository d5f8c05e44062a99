package speech

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxStreamVolume = 150

var volumeRe = regexp.MustCompile(`(\d+)\s*%`)

// Pactl runs pactl with args and returns its stdout.
type Pactl func(ctx context.Context, args ...string) ([]byte, error)

func execPactl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "pactl", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("pactl %s: %w", args[0], err)
	}
	return out, nil
}

type stream struct {
	id     int
	volume int
	app    string
}

type fade struct {
	id   int
	from int
	to   int
}

// Ducker fades other applications' audio down while the assistant speaks
// and restores it afterwards. Streams named in self are left alone.
type Ducker struct {
	mu       sync.Mutex
	pactl    Pactl
	self     []string
	floor    int
	factor   float64
	duration time.Duration
	active   bool
	original map[int]int
}

type DuckerOptions struct {
	// Self lists application.name values that are never ducked.
	Self []string
	// Floor is the lowest volume, in percent, a ducked stream drops to.
	Floor int
	// Factor scales the current volume when ducking.
	Factor   float64
	Duration time.Duration
	Pactl    Pactl
}

func NewDucker(opt DuckerOptions) *Ducker {
	if opt.Pactl == nil {
		opt.Pactl = execPactl
	}
	if opt.Factor <= 0 {
		opt.Factor = 0.3
	}
	return &Ducker{
		pactl:    opt.Pactl,
		self:     append([]string(nil), opt.Self...),
		floor:    max(0, min(maxStreamVolume, opt.Floor)),
		factor:   opt.Factor,
		duration: opt.Duration,
		original: make(map[int]int),
	}
}

func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := d.streams(ctx)
	if err != nil {
		return err
	}

	d.original = make(map[int]int)
	var targets []fade
	for _, s := range streams {
		if slices.Contains(d.self, s.app) {
			continue
		}
		to := int(math.Round(max(float64(d.floor), float64(s.volume)*d.factor)))
		to = min(to, maxStreamVolume)

		d.original[s.id] = s.volume
		targets = append(targets, fade{id: s.id, from: s.volume, to: to})
	}

	if err := d.fade(ctx, targets); err != nil {
		return err
	}
	d.active = true
	return nil
}

// Unduck returns ducked streams to their volume before Duck. Streams that
// appeared in between are not touched.
func (d *Ducker) Unduck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := d.streams(ctx)
	if err != nil {
		return err
	}

	var targets []fade
	for _, s := range streams {
		if orig, ok := d.original[s.id]; ok {
			targets = append(targets, fade{id: s.id, from: s.volume, to: orig})
		}
	}

	if err := d.fade(ctx, targets); err != nil {
		return err
	}
	d.original = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) fade(ctx context.Context, targets []fade) error {
	if len(targets) == 0 {
		return nil
	}
	if d.duration <= 0 {
		for _, t := range targets {
			if err := d.set(ctx, t.id, t.to); err != nil {
				return err
			}
		}
		return nil
	}

	const minStep = 10 * time.Millisecond
	steps := max(1, int(d.duration/minStep))
	step := d.duration / time.Duration(steps)

	for i := 0; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		for _, t := range targets {
			v := int(math.Round(float64(t.from) + float64(t.to-t.from)*frac))
			if err := d.set(ctx, t.id, v); err != nil {
				return err
			}
		}

		if i < steps {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(step):
			}
		}
	}
	return nil
}

func (d *Ducker) set(ctx context.Context, id, percent int) error {
	percent = max(0, min(maxStreamVolume, percent))
	_, err := d.pactl(ctx, "set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", percent))
	if err != nil {
		return fmt.Errorf("set volume id=%d: %w", id, err)
	}
	return nil
}

func (d *Ducker) streams(ctx context.Context) ([]stream, error) {
	out, err := d.pactl(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, fmt.Errorf("list sink inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

// parseSinkInputs reads `pactl list sink-inputs` output.
func parseSinkInputs(text string) []stream {
	blocks := strings.Split(text, "Sink Input #")
	var res []stream

	for _, block := range blocks[1:] {
		header, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		s := stream{id: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && s.volume == 0 {
				if m := volumeRe.FindStringSubmatch(line); m != nil {
					s.volume, _ = strconv.Atoi(m[1])
				}
			}
			if rest, ok := strings.CutPrefix(line, "application.name = "); ok && s.app == "" {
				s.app = strings.Trim(rest, `"`)
			}
		}

		if s.volume == 0 && s.app == "" {
			continue
		}
		res = append(res, s)
	}
	return res
}
