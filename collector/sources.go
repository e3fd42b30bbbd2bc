package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/wicsp/hostsnap/model"
)

var procMeminfoSource = Source[model.MemoryUsage]{
	Name: srcMeminfo,
	Collect: func(ctx context.Context, h Host) (model.MemoryUsage, error) {
		raw, err := h.ReadFile("/proc/meminfo")
		if err != nil {
			return model.MemoryUsage{}, err
		}
		return ParseMeminfo(raw)
	},
}

var vmStatSource = Source[model.MemoryUsage]{
	Name: srcVMStat + "+" + srcSysctlMemsize,
	Collect: func(ctx context.Context, h Host) (model.MemoryUsage, error) {
		res := h.Run(ctx, "vm_stat")
		if !res.Succeeded {
			return model.MemoryUsage{}, res.unavailable()
		}
		st, err := ParseVMStat(res.Stdout)
		if err != nil {
			return model.MemoryUsage{}, err
		}
		res = h.Run(ctx, "sysctl", "-n", "hw.memsize")
		if !res.Succeeded {
			return model.MemoryUsage{}, res.unavailable()
		}
		total, err := ParseSysctlUint(res.Stdout)
		if err != nil {
			return model.MemoryUsage{}, err
		}
		if total == 0 {
			return model.MemoryUsage{}, parseErr(srcSysctlMemsize, "memsize is zero")
		}
		return model.NewMemoryUsage(total, st.Available()), nil
	},
}

var procStatSource = Source[CPUSample]{
	Name: srcProcStat + "+" + srcLoadavg,
	Collect: func(ctx context.Context, h Host) (CPUSample, error) {
		raw, err := h.ReadFile("/proc/stat")
		if err != nil {
			return CPUSample{}, err
		}
		st, err := ParseProcStat(raw)
		if err != nil {
			return CPUSample{}, err
		}
		raw, err = h.ReadFile("/proc/loadavg")
		if err != nil {
			return CPUSample{}, err
		}
		load, err := ParseLoadavg(raw)
		if err != nil {
			return CPUSample{}, err
		}
		return CPUSample{Percent: st.Percent, Cores: st.Cores, LoadAvg: load}, nil
	},
}

// topSource only yields an aggregate; the collector repeats it per core.
var topSource = Source[CPUSample]{
	Name: srcTop + "+" + srcSysctlLoadavg,
	Collect: func(ctx context.Context, h Host) (CPUSample, error) {
		res := h.Run(ctx, "top", "-l", "1", "-n", "0")
		if !res.Succeeded {
			return CPUSample{}, res.unavailable()
		}
		pct, err := ParseTopCPU(res.Stdout)
		if err != nil {
			return CPUSample{}, err
		}
		res = h.Run(ctx, "sysctl", "-n", "vm.loadavg")
		if !res.Succeeded {
			return CPUSample{}, res.unavailable()
		}
		load, err := ParseSysctlLoadavg(res.Stdout)
		if err != nil {
			return CPUSample{}, err
		}
		return CPUSample{Percent: pct, LoadAvg: load}, nil
	},
}

// dfSource uses POSIX output (-P) so long device names never wrap onto a second line.
var dfSource = Source[[]model.DiskUsage]{
	Name: srcDF,
	Collect: func(ctx context.Context, h Host) ([]model.DiskUsage, error) {
		res := h.Run(ctx, "df", "-kP")
		if !res.Succeeded {
			return nil, res.unavailable()
		}
		disks := ParseDF(res.Stdout)
		if len(disks) == 0 {
			return nil, parseErr(srcDF, "no mount rows")
		}
		return disks, nil
	},
}

var psLinuxSource = Source[[]model.Process]{
	Name: srcPSLinux,
	Collect: func(ctx context.Context, h Host) ([]model.Process, error) {
		return runPS(ctx, h, srcPSLinux, ParsePSLinux, "ps", "aux")
	},
}

var psDarwinSource = Source[[]model.Process]{
	Name: srcPSDarwin,
	Collect: func(ctx context.Context, h Host) ([]model.Process, error) {
		return runPS(ctx, h, srcPSDarwin, ParsePSDarwin, "ps", "-eo", psDarwinFormat)
	},
}

func runPS(ctx context.Context, h Host, source string, parse func(string) []model.Process, name string, args ...string) ([]model.Process, error) {
	res := h.Run(ctx, name, args...)
	if !res.Succeeded {
		return nil, res.unavailable()
	}
	procs := parse(res.Stdout)
	if len(procs) == 0 {
		return nil, parseErr(source, "no process rows")
	}
	return procs, nil
}

var procUptimeSource = Source[string]{
	Name: srcProcUptime,
	Collect: func(ctx context.Context, h Host) (string, error) {
		raw, err := h.ReadFile("/proc/uptime")
		if err != nil {
			return "", err
		}
		d, err := ParseProcUptime(raw)
		if err != nil {
			return "", err
		}
		return FormatUptime(d), nil
	},
}

var uptimeCommandSource = Source[string]{
	Name: srcUptimeCmd,
	Collect: func(ctx context.Context, h Host) (string, error) {
		res := h.Run(ctx, "uptime")
		if !res.Succeeded {
			return "", res.unavailable()
		}
		return parseUptimeCommand(res.Stdout)
	},
}

// hostFiles adapts the injected capabilities so failures read as ErrSourceUnavailable.
type hostFiles struct {
	runner  Runner
	read    FileReader
	statfs  StatFS
	stats   HostStats
	timeout time.Duration
}

func (h hostFiles) Run(ctx context.Context, name string, args ...string) Result {
	return h.runner.Run(ctx, name, args...)
}

func (h hostFiles) ReadFile(path string) (string, error) {
	s, err := h.read(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return s, nil
}

func (h hostFiles) Stats() HostStats { return h.stats }

// Statfs gives up after the command timeout. A call stuck in the kernel
// cannot be interrupted; its goroutine finishes whenever the mount answers.
func (h hostFiles) Statfs(ctx context.Context, path string) (FSStat, error) {
	timeout := h.timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		st  FSStat
		err error
	}
	done := make(chan result, 1)
	go func() {
		st, err := h.statfs(path)
		done <- result{st, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return FSStat{}, fmt.Errorf("%w: statfs %s: %w", ErrSourceUnavailable, path, r.err)
		}
		return r.st, nil
	case <-ctx.Done():
		return FSStat{}, fmt.Errorf("%w: statfs %s: %w", ErrSourceUnavailable, path, ctx.Err())
	}
}
