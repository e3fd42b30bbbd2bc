package collector

import (
	"strconv"
	"strings"

	"github.com/wicsp/hostsnap/util"
)

const (
	srcProcStat      = "proc-stat"
	srcLoadavg       = "proc-loadavg"
	srcTop           = "top"
	srcSysctlLoadavg = "sysctl vm.loadavg"
)

// ProcStat holds busy percentages derived from cumulative /proc/stat counters.
type ProcStat struct {
	Percent float64
	Cores   []float64 // one entry per cpuN line, in file order
}

// ParseProcStat parses /proc/stat. The aggregate "cpu" line gives Percent;
// each "cpuN" line gives one core. Counters are cumulative since boot.
func ParseProcStat(raw string) (ProcStat, error) {
	var st ProcStat
	var sawTotal bool
	for _, line := range util.SplitLines(raw) {
		if !strings.HasPrefix(line, "cpu") {
			continue
		}
		fields := strings.Fields(line)
		pct, err := busyPercent(fields[1:])
		if fields[0] == "cpu" {
			if err != nil {
				return ProcStat{}, parseErr(srcProcStat, "aggregate line: %v", err)
			}
			st.Percent = pct
			sawTotal = true
			continue
		}
		if err != nil {
			return ProcStat{}, parseErr(srcProcStat, "%s line: %v", fields[0], err)
		}
		st.Cores = append(st.Cores, pct)
	}
	if !sawTotal {
		return ProcStat{}, parseErr(srcProcStat, "aggregate cpu line missing")
	}
	return st, nil
}

// busyPercent applies 100 - idle/sum*100 to "user nice system idle ..." counters.
func busyPercent(counters []string) (float64, error) {
	if len(counters) < 4 {
		return 0, strconv.ErrSyntax
	}
	var sum, idle float64
	for i, f := range counters {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, err
		}
		sum += v
		if i == 3 {
			idle = v
		}
	}
	if sum <= 0 {
		return 0, strconv.ErrRange
	}
	return 100 - idle/sum*100, nil
}

// ParseLoadavg parses the first three fields of /proc/loadavg.
func ParseLoadavg(raw string) ([3]float64, error) {
	return parseLoad3(srcLoadavg, strings.Fields(raw))
}

// ParseSysctlLoadavg parses `sysctl -n vm.loadavg` output such as "{ 1.52 1.61 1.70 }".
func ParseSysctlLoadavg(raw string) ([3]float64, error) {
	s := strings.NewReplacer("{", " ", "}", " ", "[", " ", "]", " ").Replace(raw)
	if _, after, ok := strings.Cut(s, ":"); ok {
		s = after
	}
	return parseLoad3(srcSysctlLoadavg, strings.Fields(s))
}

func parseLoad3(source string, fields []string) ([3]float64, error) {
	var out [3]float64
	if len(fields) < 3 {
		return out, parseErr(source, "want 3 load values, got %d fields", len(fields))
	}
	for i := range out {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return [3]float64{}, parseErr(source, "load value %d is not a number", i+1)
		}
		out[i] = v
	}
	return out, nil
}

// ParseTopCPU finds the "CPU usage" summary line of macOS `top -l 1 -n 0`:
//
//	CPU usage: 5.26% user, 10.52% sys, 84.21% idle
//
// and returns user + sys.
func ParseTopCPU(raw string) (float64, error) {
	for _, line := range util.SplitLines(raw) {
		if !strings.Contains(line, "CPU usage") {
			continue
		}
		_, body, ok := strings.Cut(line, ":")
		if !ok {
			return 0, parseErr(srcTop, "CPU usage line has no values")
		}
		parts := strings.Split(body, ",")
		if len(parts) < 3 {
			return 0, parseErr(srcTop, "want user, sys, idle; got %d parts", len(parts))
		}
		var vals [3]float64
		for i := range vals {
			fields := strings.Fields(parts[i])
			if len(fields) == 0 {
				return 0, parseErr(srcTop, "empty CPU usage part %d", i+1)
			}
			v, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "%"), 64)
			if err != nil {
				return 0, parseErr(srcTop, "CPU usage part %d is not a percentage", i+1)
			}
			vals[i] = v
		}
		return vals[0] + vals[1], nil
	}
	return 0, parseErr(srcTop, "no CPU usage line")
}
