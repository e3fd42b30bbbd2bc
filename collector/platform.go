package collector

import (
	"context"
	"sync"

	"github.com/wicsp/hostsnap/model"
)

// Host is the capability set a source may use: run a command, read a
// pseudo-file, stat a mounted filesystem or query portable host statistics.
// Statfs is bounded by the command timeout since a dead network mount can
// block it forever.
type Host interface {
	Run(ctx context.Context, name string, args ...string) Result
	ReadFile(path string) (string, error)
	Statfs(ctx context.Context, path string) (FSStat, error)
	Stats() HostStats
}

// Source is one data-acquisition attempt for a metric. Collect fetches the
// raw text through Host and parses it; any error moves on to the next source.
type Source[T any] struct {
	Name    string
	Collect func(ctx context.Context, h Host) (T, error)
}

// CPUSample is what a CPU source yields before core-count normalisation.
type CPUSample struct {
	Percent float64
	Cores   []float64 // nil when the source only knows the aggregate
	LoadAvg [3]float64
}

// Strategy holds the ordered source chain for every metric on one platform.
type Strategy struct {
	Memory  []Source[model.MemoryUsage]
	CPU     []Source[CPUSample]
	Disk    []Source[[]model.DiskUsage]
	Process []Source[[]model.Process]
	Uptime  []Source[string]
}

// Metric names a collected metric.
type Metric string

const (
	MetricMemory  Metric = "memory"
	MetricCPU     Metric = "cpu"
	MetricDisk    Metric = "disk"
	MetricProcess Metric = "process"
	MetricUptime  Metric = "uptime"
)

// Metrics lists every metric with a source chain, in display order.
var Metrics = []Metric{MetricMemory, MetricCPU, MetricDisk, MetricProcess, MetricUptime}

// Names returns the ordered source names for m. Empty means unsupported.
func (s Strategy) Names(m Metric) []string {
	switch m {
	case MetricMemory:
		return sourceNames(s.Memory)
	case MetricCPU:
		return sourceNames(s.CPU)
	case MetricDisk:
		return sourceNames(s.Disk)
	case MetricProcess:
		return sourceNames(s.Process)
	case MetricUptime:
		return sourceNames(s.Uptime)
	}
	return nil
}

func sourceNames[T any](chain []Source[T]) []string {
	names := make([]string, 0, len(chain))
	for _, src := range chain {
		names = append(names, src.Name)
	}
	return names
}

var (
	strategiesMu sync.RWMutex
	strategies   = map[string]Strategy{
		"linux":  linuxStrategy(),
		"darwin": darwinStrategy(),
	}
)

// Select returns the strategy for a GOOS value. An unknown OS gets an empty
// Strategy, which every collector treats as UnsupportedPlatform.
func Select(goos string) Strategy {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()
	return strategies[goos]
}

// Register adds or replaces the strategy for goos.
func Register(goos string, s Strategy) {
	strategiesMu.Lock()
	defer strategiesMu.Unlock()
	strategies[goos] = s
}

func linuxStrategy() Strategy {
	return Strategy{
		Memory:  []Source[model.MemoryUsage]{procMeminfoSource, gopsutilMemorySource},
		CPU:     []Source[CPUSample]{procStatSource, gopsutilCPUSource},
		Disk:    []Source[[]model.DiskUsage]{dfSource, procMountsSource, gopsutilDiskSource},
		Process: []Source[[]model.Process]{psLinuxSource},
		Uptime:  []Source[string]{procUptimeSource},
	}
}

func darwinStrategy() Strategy {
	return Strategy{
		Memory:  []Source[model.MemoryUsage]{vmStatSource, gopsutilMemorySource},
		CPU:     []Source[CPUSample]{topSource, gopsutilCPUSource},
		Disk:    []Source[[]model.DiskUsage]{dfSource, gopsutilDiskSource},
		Process: []Source[[]model.Process]{psDarwinSource},
		Uptime:  []Source[string]{uptimeCommandSource},
	}
}
