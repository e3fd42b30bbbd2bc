package collector

import (
	"path"
	"strconv"
	"strings"

	"github.com/wicsp/hostsnap/model"
	"github.com/wicsp/hostsnap/util"
)

const (
	srcPSLinux  = "ps aux"
	srcPSDarwin = "ps -eo"
)

// psDarwinFormat is the column list requested from BSD ps.
const psDarwinFormat = "user,pid,pcpu,pmem,state,start,comm,command"

// psRow is one split ps line before it becomes a model.Process.
type psRow struct {
	user, pid, cpu, mem, status, start, name, cmd string
}

// ParsePSLinux parses `ps aux`:
//
//	USER PID %CPU %MEM VSZ RSS TTY STAT START TIME COMMAND
//
// COMMAND is the free-text tail. The name is the base of its first word.
func ParsePSLinux(raw string) []model.Process {
	return parsePS(raw, 11, func(p []string) psRow {
		return psRow{
			user: p[0], pid: p[1], cpu: p[2], mem: p[3],
			status: p[7], start: p[8], cmd: p[10],
			name: commandName(p[10]),
		}
	})
}

// ParsePSDarwin parses `ps -eo user,pid,pcpu,pmem,state,start,comm,command`.
// comm is the executable path and may contain spaces
// ("/Applications/Google Chrome.app/..."), so it is not a fixed column; see splitComm.
func ParsePSDarwin(raw string) []model.Process {
	return parsePS(raw, 8, func(p []string) psRow {
		name, cmd := splitComm(p[6], p[7])
		return psRow{
			user: p[0], pid: p[1], cpu: p[2], mem: p[3],
			status: p[4], start: p[5], name: name, cmd: cmd,
		}
	})
}

// splitComm re-splits the comm and command columns. The command line
// normally starts with the same executable path as comm, so the first
// prefix of the tail that the remainder repeats is taken as comm. When none
// repeats, the whitespace split stands.
func splitComm(first, rest string) (comm, cmd string) {
	tail := first + " " + rest
	for i := len(first); i < len(tail); i++ {
		if tail[i] != ' ' {
			continue
		}
		candidate := tail[:i]
		remainder := strings.TrimLeft(tail[i:], " ")
		if remainder != "" && strings.HasPrefix(remainder, candidate) {
			return candidate, remainder
		}
	}
	return first, rest
}

// parsePS skips the header, splits every row into exactly arity fields and
// drops rows that are short or carry non-numeric pid/cpu/mem columns.
// The first row wins when a pid repeats.
func parsePS(raw string, arity int, layout func([]string) psRow) []model.Process {
	lines := util.SplitLines(raw)
	if len(lines) == 0 {
		return nil
	}
	seen := make(map[int]bool)
	var procs []model.Process
	for _, line := range lines[1:] {
		parts := util.FieldsN(line, arity)
		if len(parts) < arity {
			continue
		}
		row := layout(parts)
		pid, err := strconv.Atoi(row.pid)
		if err != nil || pid < 0 || seen[pid] {
			continue
		}
		cpu, err := strconv.ParseFloat(row.cpu, 64)
		if err != nil {
			continue
		}
		mem, err := strconv.ParseFloat(row.mem, 64)
		if err != nil {
			continue
		}
		seen[pid] = true

		p := model.Process{
			PID:           pid,
			Name:          row.name,
			Cmd:           row.cmd,
			CPUPercent:    cpu,
			MemoryPercent: mem,
			Status:        row.status,
			User:          row.user,
		}
		if row.start != "" {
			start := row.start
			p.Created = &start
		}
		procs = append(procs, p)
	}
	return procs
}

func commandName(cmd string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	if first == "" {
		return ""
	}
	// Kernel threads look like "[kworker/0:1]"; keep them whole.
	if strings.HasPrefix(first, "[") {
		return first
	}
	return path.Base(first)
}
