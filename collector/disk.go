package collector

import (
	"context"

	"github.com/wicsp/hostsnap/model"
)

// DiskUsage lists mounted filesystems, or nil when every source fails.
// Rows without a filesystem type are filled in from the mount table when
// it is readable.
func (c *Collector) DiskUsage(ctx context.Context) []model.DiskUsage {
	disks, ok := collectFirst(ctx, c, MetricDisk, c.strategy.Disk)
	if !ok {
		return nil
	}
	out := make([]model.DiskUsage, len(disks))
	copy(out, disks)

	var types map[string]string
	for i := range out {
		if out[i].Filesystem != "" {
			continue
		}
		if types == nil {
			var err error
			types, err = c.facts.FilesystemTypes(ctx)
			if err != nil {
				c.log.Warn().Str("metric", string(MetricDisk)).Err(err).Msg("filesystem types unavailable")
				break
			}
		}
		out[i].Filesystem = types[out[i].Mountpoint]
	}
	return out
}
