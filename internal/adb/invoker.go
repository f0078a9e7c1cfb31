package adb

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Failure classifies why an invocation never produced a real exit status.
type Failure int

const (
	// FailureNone means the binary ran to completion (possibly with a
	// nonzero exit status).
	FailureNone Failure = iota
	// FailureNotFound means the adb binary could not be located.
	FailureNotFound
	// FailureTimeout means the invocation was killed at its deadline.
	FailureTimeout
)

// Exit status sentinels for invocations that never really exited,
// matching the conventional shell codes for timeout and command-not-found.
const (
	exitTimeout  = 124
	exitNotFound = 127
)

// Result is the outcome of a single adb invocation.
type Result struct {
	// ID identifies the invocation in logs.
	ID       string
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Failure  Failure
}

// Out returns stdout decoded permissively: invalid byte sequences are
// replaced rather than rejected, since adb output encoding is not reliable.
func (r Result) Out() string {
	return string(bytes.ToValidUTF8(r.Stdout, []byte("�")))
}

// Err returns stderr decoded the same way as Out.
func (r Result) Err() string {
	return string(bytes.ToValidUTF8(r.Stderr, []byte("�")))
}

// Ok reports whether the invocation ran and exited zero.
func (r Result) Ok() bool {
	return r.Failure == FailureNone && r.ExitCode == 0
}

// Runner executes the adb binary with the given arguments. The context
// carries the deadline; implementations must kill the child when it fires.
type Runner interface {
	Run(ctx context.Context, args ...string) Result
}

// ExecRunner runs a real adb binary via os/exec. One child process per
// call, no retries; retry policy belongs to callers.
type ExecRunner struct {
	path string
	log  *zap.Logger
}

// NewRunner returns a Runner invoking the binary at path (normally "adb",
// resolved through PATH).
func NewRunner(path string, log *zap.Logger) *ExecRunner {
	return &ExecRunner{path: path, log: log}
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) Result {
	id := uuid.NewString()
	start := time.Now()

	cmd := exec.CommandContext(ctx, r.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		ID:     id,
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Stdout = nil
		res.Stderr = []byte("timeout")
		res.ExitCode = exitTimeout
		res.Failure = FailureTimeout
	case errors.Is(err, exec.ErrNotFound):
		res.Stderr = []byte("adb-not-found")
		res.ExitCode = exitNotFound
		res.Failure = FailureNotFound
	case err != nil:
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			res.ExitCode = exit.ExitCode()
		} else {
			// Startup failures other than not-found (permissions etc).
			res.Stderr = []byte(err.Error())
			res.ExitCode = 1
		}
	}

	r.log.Debug("adb invocation",
		zap.String("id", id),
		zap.Strings("args", args),
		zap.Int("exit", res.ExitCode),
		zap.Int("failure", int(res.Failure)),
		zap.Duration("took", time.Since(start)),
	)
	return res
}
