// Package invoke runs the external OpenAFS administration tools with a
// bounded timeout and classifies their failures.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Kind classifies an invocation failure.
type Kind int

const (
	// KindTimeout means the tool did not finish within the bound; the
	// process was killed and any partial output discarded.
	KindTimeout Kind = iota
	// KindNotFound means the external binary is absent from PATH.
	KindNotFound
	// KindNonZeroExit means the tool ran but reported failure.
	KindNonZeroExit
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "tool-not-found"
	default:
		return "non-zero-exit"
	}
}

// Error is a typed invocation failure. Stderr is populated for
// KindNonZeroExit to aid diagnostics.
type Error struct {
	Kind   Kind
	Cmd    string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Cmd, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Runner executes one status-query command against one target. Fake
// implementations stand in for the AFS tools in tests.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error)
}

// ExecRunner runs commands as subprocesses. Each call spawns exactly one
// process; there is no shared mutable state, so concurrent use is safe.
type ExecRunner struct {
	log *logrus.Logger
}

// NewExecRunner creates a subprocess runner.
func NewExecRunner(log *logrus.Logger) *ExecRunner {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &ExecRunner{log: log}
}

// Run executes name with args, returning captured stdout. The timeout
// must be positive; on expiry the process is killed and a KindTimeout
// Error returned.
func (r *ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	if timeout <= 0 {
		return "", fmt.Errorf("invoke: timeout must be positive, got %v", timeout)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmdline := name + " " + strings.Join(args, " ")
	r.log.WithField("cmd", cmdline).Debug("Running tool")

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Don't let an orphaned child of a killed tool hold the output pipes
	// open past the deadline.
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	switch {
	case err == nil:
		return stdout.String(), nil
	case ctx.Err() != nil:
		return "", &Error{Kind: KindTimeout, Cmd: cmdline, Err: ctx.Err()}
	case errors.Is(err, exec.ErrNotFound):
		return "", &Error{Kind: KindNotFound, Cmd: cmdline, Err: err}
	default:
		return "", &Error{Kind: KindNonZeroExit, Cmd: cmdline, Stderr: stderr.String(), Err: err}
	}
}
