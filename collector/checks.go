package collector

import (
	"context"
	"time"
)

// SourceCheck is the result of running one source in isolation.
type SourceCheck struct {
	Metric   Metric        `json:"metric" yaml:"metric"`
	Source   string        `json:"source" yaml:"source"`
	OK       bool          `json:"ok" yaml:"ok"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// CheckSources runs every source of every chain, not stopping at the first
// success, so a user can see which native tools work on this host.
// Results follow Metrics order, then chain order.
func (c *Collector) CheckSources(ctx context.Context) []SourceCheck {
	s := c.Strategy()
	var out []SourceCheck
	out = append(out, checkChain(ctx, c, MetricMemory, s.Memory)...)
	out = append(out, checkChain(ctx, c, MetricCPU, s.CPU)...)
	out = append(out, checkChain(ctx, c, MetricDisk, s.Disk)...)
	out = append(out, checkChain(ctx, c, MetricProcess, s.Process)...)
	out = append(out, checkChain(ctx, c, MetricUptime, s.Uptime)...)
	return out
}

func checkChain[T any](ctx context.Context, c *Collector, metric Metric, chain []Source[T]) []SourceCheck {
	h := c.host()
	checks := make([]SourceCheck, 0, len(chain))
	for _, src := range chain {
		start := c.now()
		_, err := src.Collect(ctx, h)
		check := SourceCheck{
			Metric:   metric,
			Source:   src.Name,
			OK:       err == nil,
			Duration: c.now().Sub(start),
		}
		if err != nil {
			check.Error = err.Error()
		}
		checks = append(checks, check)
	}
	return checks
}
