package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Sample is one reading of the host's load.
type Sample struct {
	CPU float64

	Memory    float64
	MemUsed   uint64
	MemTotal  uint64
	Disk      float64
	DiskUsed  uint64
	DiskTotal uint64

	// Battery is nil on machines without one.
	Battery *Battery
}

type Sampler interface {
	Sample(ctx context.Context) (Sample, error)
}

// HostSampler reads the local machine through gopsutil and sysfs.
type HostSampler struct {
	// CPUWindow is how long CPU usage is measured for.
	CPUWindow time.Duration
	// DiskPath is the mount whose usage is reported.
	DiskPath string
	Battery  BatteryReader
}

func NewHostSampler() *HostSampler {
	return &HostSampler{
		CPUWindow: time.Second,
		DiskPath:  "/",
		Battery:   SysfsBattery{Root: DefaultPowerSupplyRoot},
	}
}

func (h *HostSampler) Sample(ctx context.Context) (Sample, error) {
	var s Sample

	pct, err := cpu.PercentWithContext(ctx, h.CPUWindow, false)
	if err != nil {
		return s, fmt.Errorf("cpu percent: %w", err)
	}
	if len(pct) > 0 {
		s.CPU = pct[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("virtual memory: %w", err)
	}
	s.Memory, s.MemUsed, s.MemTotal = vm.UsedPercent, vm.Used, vm.Total

	du, err := disk.UsageWithContext(ctx, h.DiskPath)
	if err != nil {
		return s, fmt.Errorf("disk usage %s: %w", h.DiskPath, err)
	}
	s.Disk, s.DiskUsed, s.DiskTotal = du.UsedPercent, du.Used, du.Total

	if h.Battery != nil {
		b, err := h.Battery.Read()
		if err == nil {
			s.Battery = b
		}
	}

	return s, nil
}
