package model

import "strings"

// MaskIP replaces an IP with x.x.x.x. The sentinel "unknown" and the
// empty string are kept.
func MaskIP(ip string) string {
	if ip == "" || ip == Unknown {
		return ip
	}
	return "x.x.x.x"
}

// MemoryUsage is a memory snapshot in bytes.
// Used = Total - Available; every field is zero when no source succeeded.
type MemoryUsage struct {
	Total     uint64  `json:"total" yaml:"total"`
	Available uint64  `json:"available" yaml:"available"`
	Used      uint64  `json:"used" yaml:"used"`
	Percent   float64 `json:"percent" yaml:"percent"`
}

// NewMemoryUsage derives Used and Percent from total and available bytes.
// Available larger than total is clamped so Used never underflows.
func NewMemoryUsage(total, available uint64) MemoryUsage {
	if available > total {
		available = total
	}
	m := MemoryUsage{Total: total, Available: available, Used: total - available}
	if total > 0 {
		m.Percent = float64(m.Used) / float64(total) * 100
	}
	return m
}

// DiskUsage describes one mounted filesystem.
type DiskUsage struct {
	Device     string  `json:"device" yaml:"device"`
	Mountpoint string  `json:"mountpoint" yaml:"mountpoint"`
	Total      uint64  `json:"total" yaml:"total"`
	Used       uint64  `json:"used" yaml:"used"`
	Free       uint64  `json:"free" yaml:"free"`
	Percent    float64 `json:"percent" yaml:"percent"`
	Filesystem string  `json:"filesystem" yaml:"filesystem"`
}

// CPUUsage is a CPU load snapshot.
// len(Cores) always equals the logical CPU count.
type CPUUsage struct {
	Percent float64    `json:"percent" yaml:"percent"`
	Cores   []float64  `json:"cores" yaml:"cores"`
	LoadAvg [3]float64 `json:"load_avg" yaml:"load_avg"` // 1, 5, 15 minutes
}

// Process is one OS process from a single enumeration.
type Process struct {
	PID           int     `json:"pid" yaml:"pid"`
	Name          string  `json:"name" yaml:"name"`
	Cmd           string  `json:"cmd" yaml:"cmd"`
	CPUPercent    float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent" yaml:"memory_percent"`
	Status        string  `json:"status" yaml:"status"`
	User          string  `json:"user" yaml:"user"`
	Created       *string `json:"created" yaml:"created"`
}

// KillOutcome is the result of signalling a process.
type KillOutcome int

const (
	KillSucceeded        KillOutcome = 0
	KillNoSuchProcess    KillOutcome = 1
	KillPermissionDenied KillOutcome = 2
	KillFailed           KillOutcome = 3
)

func (k KillOutcome) String() string {
	switch k {
	case KillSucceeded:
		return "SUCCEEDED"
	case KillNoSuchProcess:
		return "NO_SUCH_PROCESS"
	case KillPermissionDenied:
		return "PERMISSION_DENIED"
	case KillFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Matches reports whether substr occurs in the process name or command line,
// ignoring case. An empty substr matches every process.
func (p Process) Matches(substr string) bool {
	needle := strings.ToLower(substr)
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Cmd), needle)
}
