package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/wicsp/hostsnap/collector"
)

// Process exit codes.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitUsage            = 2
	ExitNoSuchProcess    = 3
	ExitPermissionDenied = 4
	ExitNoMatch          = 5
)

// errNoMatch is returned by find when nothing matched.
var errNoMatch = errors.New("no matching processes")

// exitError carries an explicit exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: ExitUsage, err: err}
}

// usageArgs marks positional-argument failures as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// ExitCode maps an error returned by Run onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	switch {
	case errors.Is(err, collector.ErrProcessNotFound):
		return ExitNoSuchProcess
	case errors.Is(err, collector.ErrPermissionDenied):
		return ExitPermissionDenied
	case errors.Is(err, errNoMatch):
		return ExitNoMatch
	}
	return ExitFailure
}
