package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultMaxRead caps pseudo-file reads when no explicit limit is given.
const DefaultMaxRead = 8 << 20

// ReadFileString reads at most max bytes of a file and returns them as a string.
// A max <= 0 uses DefaultMaxRead.
func ReadFileString(path string, max int64) (string, error) {
	if max <= 0 {
		max = DefaultMaxRead
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, max))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// SplitLines splits text into lines, dropping a trailing empty line.
func SplitLines(s string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(s))
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// ParseKeyValueLines parses lines with "key: value" or "key value" format.
func ParseKeyValueLines(lines []string) map[string]string {
	m := make(map[string]string)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Try "key: value" first, then "key value"
		var key, val string
		if idx := strings.Index(line, ":"); idx >= 0 {
			key = strings.TrimSpace(line[:idx])
			val = strings.TrimSpace(line[idx+1:])
		} else {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				key = fields[0]
				val = strings.Join(fields[1:], " ")
			} else if len(fields) == 1 {
				key = fields[0]
			}
		}
		if key != "" {
			m[key] = val
		}
	}
	return m
}

// FieldsN splits s around runs of whitespace into at most n fields.
// The last field holds the unsplit remainder with its inner spacing intact,
// which keeps free-text tails such as command lines whole.
func FieldsN(s string, n int) []string {
	if n <= 0 {
		return nil
	}
	var out []string
	s = strings.TrimLeft(s, " \t")
	for s != "" {
		if len(out) == n-1 {
			out = append(out, strings.TrimRight(s, " \t\r\n"))
			break
		}
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			out = append(out, strings.TrimRight(s, "\r\n"))
			break
		}
		out = append(out, s[:end])
		s = strings.TrimLeft(s[end:], " \t")
	}
	return out
}
