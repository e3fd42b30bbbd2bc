package model

import "time"

// Snapshot holds one point-in-time collection of every metric.
// A failed metric leaves its zero/default value; it never aborts the others.
type Snapshot struct {
	Timestamp time.Time   `json:"timestamp" yaml:"timestamp"`
	System    SystemInfo  `json:"system" yaml:"system"`
	Memory    MemoryUsage `json:"memory" yaml:"memory"`
	CPU       CPUUsage    `json:"cpu" yaml:"cpu"`
	Disks     []DiskUsage `json:"disks" yaml:"disks"`
	Processes []Process   `json:"processes" yaml:"processes"`
}

// Unknown is the sentinel for host identity fields that could not be resolved.
const Unknown = "unknown"

// SystemInfo is the host identity snapshot.
type SystemInfo struct {
	Hostname        string    `json:"hostname" yaml:"hostname"`
	Platform        string    `json:"platform" yaml:"platform"`
	PlatformVersion string    `json:"platform_version" yaml:"platform_version"`
	Architecture    string    `json:"architecture" yaml:"architecture"`
	Processor       string    `json:"processor" yaml:"processor"`
	IPAddress       string    `json:"ip_address" yaml:"ip_address"`
	RuntimeVersion  string    `json:"runtime_version" yaml:"runtime_version"`
	CurrentTime     time.Time `json:"current_time" yaml:"current_time"`
	Uptime          *string   `json:"uptime" yaml:"uptime"` // nil when unavailable
}

// UptimeString returns the uptime or "-" when it is unknown.
func (s SystemInfo) UptimeString() string {
	if s.Uptime == nil {
		return "-"
	}
	return *s.Uptime
}
