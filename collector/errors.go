package collector

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means a binary or pseudo-file is missing, failed or timed out.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrParse means captured text did not match the expected grammar.
	ErrParse = errors.New("parse failure")
	// ErrUnsupportedPlatform means no source chain exists for (OS, metric).
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrPermissionDenied means the OS rejected a signal.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrProcessNotFound means the target pid was gone at signal time.
	ErrProcessNotFound = errors.New("process not found")
)

// ParseError names the source whose output could not be parsed.
// The raw payload is deliberately not kept.
type ParseError struct {
	Source string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Source, e.Reason)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func parseErr(source, format string, args ...any) error {
	return &ParseError{Source: source, Reason: fmt.Sprintf(format, args...)}
}
