package collector

import (
	"strconv"
	"strings"

	"github.com/wicsp/hostsnap/model"
	"github.com/wicsp/hostsnap/util"
)

// Source names used in logs and ParseErrors.
const (
	srcMeminfo       = "proc-meminfo"
	srcVMStat        = "vm_stat"
	srcSysctlMemsize = "sysctl hw.memsize"
)

// ParseMeminfo parses /proc/meminfo ("KEY:  VALUE kB" lines).
// MemAvailable is estimated as MemFree+Buffers+Cached on kernels that lack it.
func ParseMeminfo(raw string) (model.MemoryUsage, error) {
	kv := util.ParseKeyValueLines(util.SplitLines(raw))

	total, ok := meminfoKB(kv, "MemTotal")
	if !ok {
		return model.MemoryUsage{}, parseErr(srcMeminfo, "MemTotal missing or malformed")
	}
	if total == 0 {
		return model.MemoryUsage{}, parseErr(srcMeminfo, "MemTotal is zero")
	}

	avail, ok := meminfoKB(kv, "MemAvailable")
	if !ok {
		free, ok := meminfoKB(kv, "MemFree")
		if !ok {
			return model.MemoryUsage{}, parseErr(srcMeminfo, "neither MemAvailable nor MemFree present")
		}
		buffers, _ := meminfoKB(kv, "Buffers")
		cached, _ := meminfoKB(kv, "Cached")
		avail = free + buffers + cached
	}
	return model.NewMemoryUsage(total, avail), nil
}

// meminfoKB parses a value like "1234 kB" and returns bytes.
func meminfoKB(kv map[string]string, key string) (uint64, bool) {
	v, present := kv[key]
	if !present {
		return 0, false
	}
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return n * 1024, true
}

// VMStat holds the vm_stat counters used to approximate available memory.
type VMStat struct {
	PageSize      uint64
	PagesFree     uint64
	PagesInactive uint64
}

// Available approximates reclaimable memory as free plus inactive pages.
func (v VMStat) Available() uint64 {
	return (v.PagesFree + v.PagesInactive) * v.PageSize
}

const defaultPageSize = 4096

// ParseVMStat parses macOS vm_stat output:
//
//	Mach Virtual Memory Statistics: (page size of 16384 bytes)
//	Pages free:                               12345.
//	Pages inactive:                          678910.
func ParseVMStat(raw string) (VMStat, error) {
	st := VMStat{PageSize: defaultPageSize}
	var sawFree bool
	for _, line := range util.SplitLines(raw) {
		if idx := strings.Index(line, "page size of"); idx >= 0 {
			fields := strings.Fields(line[idx+len("page size of"):])
			if len(fields) > 0 {
				if n, err := strconv.ParseUint(fields[0], 10, 64); err == nil && n > 0 {
					st.PageSize = n
				}
			}
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key != "Pages free" && key != "Pages inactive" {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(val), "."), 10, 64)
		if err != nil {
			return VMStat{}, parseErr(srcVMStat, "bad %q counter", key)
		}
		if key == "Pages free" {
			st.PagesFree = n
			sawFree = true
		} else {
			st.PagesInactive = n
		}
	}
	if !sawFree {
		return VMStat{}, parseErr(srcVMStat, `"Pages free" missing`)
	}
	return st, nil
}

// ParseSysctlUint parses a scalar sysctl value, with or without the "name:" prefix.
func ParseSysctlUint(raw string) (uint64, error) {
	s := strings.TrimSpace(raw)
	if _, after, ok := strings.Cut(s, ":"); ok {
		s = strings.TrimSpace(after)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, parseErr(srcSysctlMemsize, "not an unsigned integer")
	}
	return n, nil
}
