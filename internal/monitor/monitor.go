package monitor

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"jarvis/internal/metrics"
)

const (
	DefaultInterval  = 60 * time.Second
	DefaultQueueSize = 64
)

type Level string

const (
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

type Alert struct {
	Level   Level
	Message string
	Time    time.Time
}

// Thresholds are percentages. Battery alerts fire below the threshold while
// unplugged; the rest fire above theirs.
type Thresholds struct {
	CPU     float64 `yaml:"cpu"`
	Memory  float64 `yaml:"memory"`
	Disk    float64 `yaml:"disk"`
	Battery float64 `yaml:"battery"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{CPU: 85, Memory: 90, Disk: 90, Battery: 20}
}

// Evaluate turns one sample into the alerts it warrants.
func Evaluate(s Sample, t Thresholds, now time.Time) []Alert {
	var out []Alert

	if s.CPU > t.CPU {
		out = append(out, Alert{LevelWarning, fmt.Sprintf("CPU usage at %.1f%%", s.CPU), now})
	}
	if s.Memory > t.Memory {
		out = append(out, Alert{LevelWarning, fmt.Sprintf("Memory usage at %.1f%%", s.Memory), now})
	}
	if s.Disk > t.Disk {
		out = append(out, Alert{LevelWarning, fmt.Sprintf("Disk usage at %.1f%%", s.Disk), now})
	}
	if b := s.Battery; b != nil && !b.Plugged && b.Percent < t.Battery {
		out = append(out, Alert{LevelCritical, fmt.Sprintf("Battery at %.0f%%. Connect power.", b.Percent), now})
	}

	return out
}

type Options struct {
	Sampler    Sampler
	Interval   time.Duration
	Thresholds *Thresholds
	QueueSize  int
	Logger     *log.Logger
	Now        func() time.Time
}

// Monitor polls a Sampler and queues alerts for the session loop. The queue
// never blocks the poller: alerts that do not fit are dropped.
type Monitor struct {
	sampler  Sampler
	interval time.Duration
	log      *log.Logger
	now      func() time.Time

	mu         sync.RWMutex
	thresholds Thresholds

	alerts chan Alert
}

func New(opt Options) *Monitor {
	if opt.Sampler == nil {
		opt.Sampler = NewHostSampler()
	}
	if opt.Interval <= 0 {
		opt.Interval = DefaultInterval
	}
	if opt.QueueSize <= 0 {
		opt.QueueSize = DefaultQueueSize
	}
	if opt.Logger == nil {
		opt.Logger = log.Default()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	th := DefaultThresholds()
	if opt.Thresholds != nil {
		th = *opt.Thresholds
	}

	return &Monitor{
		sampler:    opt.Sampler,
		interval:   opt.Interval,
		log:        opt.Logger,
		now:        opt.Now,
		thresholds: th,
		alerts:     make(chan Alert, opt.QueueSize),
	}
}

// Run checks once immediately and then every interval until ctx ends.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("Monitoring system health", "interval", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Check(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Check takes one sample and queues whatever alerts it raises.
func (m *Monitor) Check(ctx context.Context) []Alert {
	s, err := m.sampler.Sample(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.log.Error("System health check error", "err", err)
		}
		return nil
	}

	raised := Evaluate(s, m.Thresholds(), m.now())
	for _, a := range raised {
		metrics.AlertsRaised.WithLabelValues(string(a.Level)).Inc()
		select {
		case m.alerts <- a:
		default:
			metrics.AlertsDropped.Inc()
			m.log.Warn("Alert queue full, dropping", "alert", a.Message)
		}
	}
	return raised
}

// Alerts is the receive side of the queue.
func (m *Monitor) Alerts() <-chan Alert {
	return m.alerts
}

// Drain empties the queue without blocking.
func (m *Monitor) Drain() []Alert {
	var out []Alert
	for {
		select {
		case a := <-m.alerts:
			out = append(out, a)
		default:
			return out
		}
	}
}

func (m *Monitor) Thresholds() Thresholds {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.thresholds
}

func (m *Monitor) SetThresholds(t Thresholds) {
	m.mu.Lock()
	m.thresholds = t
	m.mu.Unlock()
	m.log.Info("Updated health thresholds", "cpu", t.CPU, "memory", t.Memory, "disk", t.Disk, "battery", t.Battery)
}
