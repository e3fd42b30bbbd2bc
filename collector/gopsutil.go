package collector

import (
	"context"
	"errors"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/wicsp/hostsnap/model"
)

// HostFacts answers the host questions that have no text source of their own.
type HostFacts interface {
	KernelVersion(ctx context.Context) (string, error)
	KernelArch(ctx context.Context) (string, error)
	CPUModel(ctx context.Context) (string, error)
	LogicalCPUs(ctx context.Context) (int, error)
	FilesystemTypes(ctx context.Context) (map[string]string, error)
}

// gopsutilFacts implements HostFacts with shirou/gopsutil.
type gopsutilFacts struct{}

func (gopsutilFacts) KernelVersion(ctx context.Context) (string, error) {
	return host.KernelVersionWithContext(ctx)
}

func (gopsutilFacts) KernelArch(ctx context.Context) (string, error) {
	return host.KernelArch()
}

func (gopsutilFacts) CPUModel(ctx context.Context) (string, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	for _, info := range infos {
		if info.ModelName != "" {
			return info.ModelName, nil
		}
	}
	return "", errors.New("no cpu model name reported")
}

func (gopsutilFacts) LogicalCPUs(ctx context.Context) (int, error) {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return runtime.NumCPU(), nil
	}
	return n, nil
}

// FilesystemTypes maps mountpoint to filesystem type for every mounted partition.
func (gopsutilFacts) FilesystemTypes(ctx context.Context) (map[string]string, error) {
	parts, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, err
	}
	types := make(map[string]string, len(parts))
	for _, p := range parts {
		types[p.Mountpoint] = p.Fstype
	}
	return types, nil
}

// HostStats is the portable statistics API the gopsutil sources read through.
type HostStats interface {
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	CPUTimes(ctx context.Context, perCPU bool) ([]cpu.TimesStat, error)
	LoadAvg(ctx context.Context) (*load.AvgStat, error)
	Partitions(ctx context.Context) ([]disk.PartitionStat, error)
}

// gopsutilStats implements HostStats with shirou/gopsutil.
type gopsutilStats struct{}

func (gopsutilStats) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (gopsutilStats) CPUTimes(ctx context.Context, perCPU bool) ([]cpu.TimesStat, error) {
	return cpu.TimesWithContext(ctx, perCPU)
}

func (gopsutilStats) LoadAvg(ctx context.Context) (*load.AvgStat, error) {
	return load.AvgWithContext(ctx)
}

func (gopsutilStats) Partitions(ctx context.Context) ([]disk.PartitionStat, error) {
	return disk.PartitionsWithContext(ctx, false)
}

const srcGopsutil = "gopsutil"

var gopsutilMemorySource = Source[model.MemoryUsage]{
	Name: srcGopsutil,
	Collect: func(ctx context.Context, h Host) (model.MemoryUsage, error) {
		vm, err := h.Stats().VirtualMemory(ctx)
		if err != nil {
			return model.MemoryUsage{}, errors.Join(ErrSourceUnavailable, err)
		}
		if vm == nil || vm.Total == 0 {
			return model.MemoryUsage{}, parseErr(srcGopsutil, "total memory is zero")
		}
		return model.NewMemoryUsage(vm.Total, vm.Available), nil
	},
}

// gopsutilCPUSource applies the same since-boot busy formula as /proc/stat
// to gopsutil's cumulative CPU times.
var gopsutilCPUSource = Source[CPUSample]{
	Name: srcGopsutil,
	Collect: func(ctx context.Context, h Host) (CPUSample, error) {
		stats := h.Stats()
		total, err := stats.CPUTimes(ctx, false)
		if err != nil || len(total) == 0 {
			return CPUSample{}, errors.Join(ErrSourceUnavailable, err)
		}
		pct, ok := timesBusyPercent(total[0])
		if !ok {
			return CPUSample{}, parseErr(srcGopsutil, "cpu times sum to zero")
		}
		sample := CPUSample{Percent: pct}
		if perCore, err := stats.CPUTimes(ctx, true); err == nil {
			for _, t := range perCore {
				p, ok := timesBusyPercent(t)
				if !ok {
					sample.Cores = nil
					break
				}
				sample.Cores = append(sample.Cores, p)
			}
		}
		if avg, err := stats.LoadAvg(ctx); err == nil && avg != nil {
			sample.LoadAvg = [3]float64{avg.Load1, avg.Load5, avg.Load15}
		}
		return sample, nil
	},
}

func timesBusyPercent(t cpu.TimesStat) (float64, bool) {
	sum := t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
	if sum <= 0 {
		return 0, false
	}
	return 100 - t.Idle/sum*100, true
}

// gopsutilDiskSource lists partitions through gopsutil and sizes them with
// the same bounded statfs as the mount-table source.
var gopsutilDiskSource = Source[[]model.DiskUsage]{
	Name: srcGopsutil,
	Collect: func(ctx context.Context, h Host) ([]model.DiskUsage, error) {
		parts, err := h.Stats().Partitions(ctx)
		if err != nil {
			return nil, errors.Join(ErrSourceUnavailable, err)
		}
		seen := make(map[string]bool)
		var disks []model.DiskUsage
		for _, p := range parts {
			if seen[p.Mountpoint] {
				continue
			}
			st, err := h.Statfs(ctx, p.Mountpoint)
			if err != nil || st.Total == 0 {
				continue
			}
			seen[p.Mountpoint] = true
			disks = append(disks, diskFromStat(MountEntry{Device: p.Device, Mountpoint: p.Mountpoint, FSType: p.Fstype}, st))
		}
		if len(disks) == 0 {
			return nil, parseErr(srcGopsutil, "no usable partitions")
		}
		return disks, nil
	},
}
