package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultCommandTimeout = 5 * time.Second
	DefaultMaxOutput      = 8 << 20

	maxStderr = 4096
)

// Runner executes an external command and captures its output.
// Implementations never return a Go error: failures are reported in Result.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// Result is the outcome of one command execution.
type Result struct {
	Stdout    string
	ExitCode  int // -1 when the process never ran or was killed on timeout
	Succeeded bool
	Truncated bool // stdout exceeded the output bound
	Err       error
}

// unavailable wraps a failed result as ErrSourceUnavailable.
func (r Result) unavailable() error {
	if r.Err == nil {
		return ErrSourceUnavailable
	}
	return fmt.Errorf("%w: %w", ErrSourceUnavailable, r.Err)
}

// ExecRunner runs commands with os/exec under a mandatory timeout and output bound.
type ExecRunner struct {
	Timeout   time.Duration
	MaxOutput int64
	Log       zerolog.Logger
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	maxOut := r.MaxOutput
	if maxOut <= 0 {
		maxOut = DefaultMaxOutput
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := &limitedBuffer{max: maxOut}
	stderr := &limitedBuffer{max: maxStderr}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Don't hang on grandchildren still holding the pipes after a kill.
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:    stdout.String(),
		Truncated: stdout.truncated,
	}
	if res.Truncated {
		// Drop the partial last line so line parsers never see half a row.
		if idx := strings.LastIndexByte(res.Stdout, '\n'); idx >= 0 {
			res.Stdout = res.Stdout[:idx+1]
		}
	}

	switch {
	case ctx.Err() != nil:
		res.ExitCode = -1
		res.Err = fmt.Errorf("run %s: aborted after %s: %w", name, timeout, ctx.Err())
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			res.Err = fmt.Errorf("run %s: exit status %d: %s", name, res.ExitCode, strings.TrimSpace(stderr.String()))
		} else {
			res.ExitCode = -1
			res.Err = fmt.Errorf("run %s: %w", name, err)
		}
	default:
		res.Succeeded = true
	}

	r.Log.Debug().
		Str("command", name).
		Strs("args", args).
		Int("exit_code", res.ExitCode).
		Bool("truncated", res.Truncated).
		Dur("took", time.Since(start)).
		Msg("command finished")
	return res
}

// limitedBuffer keeps the first max bytes and silently drops the rest,
// so a chatty child never blocks on a full pipe.
type limitedBuffer struct {
	buf       bytes.Buffer
	max       int64
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	room := b.max - int64(b.buf.Len())
	if room <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if int64(len(p)) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }
