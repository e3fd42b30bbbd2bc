package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	srcProcUptime = "proc-uptime"
	srcUptimeCmd  = "uptime"
)

// ParseProcUptime parses the first field of /proc/uptime (seconds since boot).
func ParseProcUptime(raw string) (time.Duration, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, parseErr(srcProcUptime, "empty")
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || secs < 0 {
		return 0, parseErr(srcProcUptime, "uptime is not a non-negative number")
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// FormatUptime renders d as "H:MM:SS" or "N day(s), H:MM:SS".
// Sub-second precision is dropped.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	rem := total % 86400
	hms := fmt.Sprintf("%d:%02d:%02d", rem/3600, rem%3600/60, rem%60)
	switch days {
	case 0:
		return hms
	case 1:
		return "1 day, " + hms
	default:
		return fmt.Sprintf("%d days, %s", days, hms)
	}
}

// parseUptimeCommand keeps the raw `uptime` text, which is already human readable.
func parseUptimeCommand(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", parseErr(srcUptimeCmd, "empty output")
	}
	return s, nil
}
