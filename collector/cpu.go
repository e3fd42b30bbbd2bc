package collector

import (
	"context"
	"runtime"

	"github.com/wicsp/hostsnap/model"
)

// CPUUsage returns the CPU snapshot. Cores always has one entry per logical
// CPU. Sources that only report an aggregate (macOS top) or whose per-core
// count disagrees with the logical count get the aggregate repeated per core;
// that is an approximation, not a per-core measurement.
func (c *Collector) CPUUsage(ctx context.Context) model.CPUUsage {
	n := c.logicalCPUs(ctx)
	sample, ok := collectFirst(ctx, c, MetricCPU, c.strategy.CPU)
	if !ok {
		return model.CPUUsage{Cores: make([]float64, n)}
	}

	cores := sample.Cores
	if len(cores) != n {
		if len(cores) > 0 {
			c.log.Debug().
				Int("per_core", len(cores)).
				Int("logical", n).
				Msg("per-core count mismatch, repeating aggregate")
		}
		cores = make([]float64, n)
		for i := range cores {
			cores[i] = sample.Percent
		}
	} else {
		cores = append([]float64(nil), cores...)
	}
	return model.CPUUsage{
		Percent: sample.Percent,
		Cores:   cores,
		LoadAvg: sample.LoadAvg,
	}
}

func (c *Collector) logicalCPUs(ctx context.Context) int {
	n, err := c.facts.LogicalCPUs(ctx)
	if err != nil || n <= 0 {
		c.log.Debug().Err(err).Msg("logical cpu count unavailable, using runtime.NumCPU")
		n = runtime.NumCPU()
	}
	if n <= 0 {
		n = 1
	}
	return n
}
