package collector

import (
	"context"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/wicsp/hostsnap/model"
	"github.com/wicsp/hostsnap/util"
)

const srcProcMounts = "proc-mounts+statfs"

// pseudoFS lists filesystem types that are not block-backed and are skipped.
var pseudoFS = map[string]bool{
	"sysfs": true, "proc": true, "devtmpfs": true, "tmpfs": true,
	"cgroup": true, "cgroup2": true, "debugfs": true, "tracefs": true,
	"securityfs": true, "hugetlbfs": true, "mqueue": true, "fusectl": true,
	"configfs": true, "pstore": true, "bpf": true, "ramfs": true,
	"rpc_pipefs": true, "nsfs": true, "autofs": true, "efivarfs": true,
	"devpts": true, "binfmt_misc": true,
}

// FSStat is the block accounting of one mounted filesystem, in bytes.
type FSStat struct {
	Total uint64
	Free  uint64 // free including root-reserved blocks
	Avail uint64 // free to unprivileged users
}

// StatFS reports block usage for the filesystem mounted at path.
type StatFS func(path string) (FSStat, error)

func unixStatfs(path string) (FSStat, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return FSStat{}, err
	}
	bsize := uint64(st.Bsize)
	return FSStat{
		Total: uint64(st.Blocks) * bsize,
		Free:  uint64(st.Bfree) * bsize,
		Avail: uint64(st.Bavail) * bsize,
	}, nil
}

// MountEntry is one line of /proc/mounts.
type MountEntry struct {
	Device     string
	Mountpoint string
	FSType     string
}

// ParseProcMounts parses /proc/mounts. Octal escapes such as "\040" in
// mountpoints are decoded. Short lines are dropped.
func ParseProcMounts(raw string) []MountEntry {
	var out []MountEntry
	for _, line := range util.SplitLines(raw) {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		out = append(out, MountEntry{
			Device:     unescapeMount(fields[0]),
			Mountpoint: unescapeMount(fields[1]),
			FSType:     fields[2],
		})
	}
	return out
}

// unescapeMount decodes the kernel's \ooo escapes for space, tab, newline and backslash.
func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`).Replace(s)
}

// diskFromStat builds a row the way df does: Used excludes reserved blocks
// and Percent is used / (used + avail).
func diskFromStat(m MountEntry, st FSStat) model.DiskUsage {
	used := uint64(0)
	if st.Total > st.Free {
		used = st.Total - st.Free
	}
	d := model.DiskUsage{
		Device:     m.Device,
		Mountpoint: m.Mountpoint,
		Filesystem: m.FSType,
		Total:      st.Total,
		Used:       used,
		Free:       st.Avail,
	}
	if denom := used + st.Avail; denom > 0 {
		d.Percent = float64(used) / float64(denom) * 100
	}
	return d
}

// procMountsSource reads the Linux mount table and stats every real,
// device-backed mount. It is the fallback when df is missing or unparsable.
var procMountsSource = Source[[]model.DiskUsage]{
	Name: srcProcMounts,
	Collect: func(ctx context.Context, h Host) ([]model.DiskUsage, error) {
		raw, err := h.ReadFile("/proc/mounts")
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool)
		var disks []model.DiskUsage
		for _, m := range ParseProcMounts(raw) {
			if pseudoFS[m.FSType] || !strings.HasPrefix(m.Device, "/") || seen[m.Device] {
				continue
			}
			st, err := h.Statfs(ctx, m.Mountpoint)
			if err != nil || st.Total == 0 {
				continue
			}
			seen[m.Device] = true
			disks = append(disks, diskFromStat(m, st))
		}
		if len(disks) == 0 {
			return nil, parseErr(srcProcMounts, "no device-backed mounts")
		}
		return disks, nil
	},
}
