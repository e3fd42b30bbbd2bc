package collector

import (
	"context"

	"github.com/wicsp/hostsnap/model"
)

// MemoryUsage returns the first successful memory reading for the platform,
// or an all-zero record when every source fails.
func (c *Collector) MemoryUsage(ctx context.Context) model.MemoryUsage {
	m, ok := collectFirst(ctx, c, MetricMemory, c.strategy.Memory)
	if !ok {
		return model.MemoryUsage{}
	}
	return m
}
