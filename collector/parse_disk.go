package collector

import (
	"strconv"
	"strings"

	"github.com/wicsp/hostsnap/model"
	"github.com/wicsp/hostsnap/util"
)

const srcDF = "df"

// ParseDF parses `df -kP` style output. The header row is skipped and each
// data row reads "device total_kb used_kb free_kb pct% mountpoint".
// Device names and mountpoints containing spaces are re-joined around the
// numeric columns. Rows that do not fit are dropped.
func ParseDF(raw string) []model.DiskUsage {
	lines := util.SplitLines(raw)
	if len(lines) == 0 {
		return nil
	}
	var disks []model.DiskUsage
	for _, line := range lines[1:] {
		if d, ok := parseDFRow(strings.Fields(line)); ok {
			disks = append(disks, d)
		}
	}
	return disks
}

func parseDFRow(fields []string) (model.DiskUsage, bool) {
	if len(fields) < 6 {
		return model.DiskUsage{}, false
	}
	// Find the capacity column: the first "N%" preceded by three integers.
	for i := 4; i < len(fields)-1; i++ {
		if !strings.HasSuffix(fields[i], "%") {
			continue
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(fields[i], "%"), 64)
		if err != nil {
			continue
		}
		var kb [3]uint64
		ok := true
		for j := range kb {
			kb[j], err = strconv.ParseUint(fields[i-3+j], 10, 64)
			if err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		return model.DiskUsage{
			Device:     strings.Join(fields[:i-3], " "),
			Total:      kb[0] * 1024,
			Used:       kb[1] * 1024,
			Free:       kb[2] * 1024,
			Percent:    pct,
			Mountpoint: strings.Join(fields[i+1:], " "),
		}, true
	}
	return model.DiskUsage{}, false
}
