package collector

import (
	"context"

	"github.com/wicsp/hostsnap/model"
)

// ListProcesses enumerates processes once. It returns nil when ps is
// unavailable or unsupported on the platform.
func (c *Collector) ListProcesses(ctx context.Context) []model.Process {
	procs, ok := collectFirst(ctx, c, MetricProcess, c.strategy.Process)
	if !ok {
		return nil
	}
	return procs
}
