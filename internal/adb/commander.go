package adb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Default per-invocation deadlines. Screencap inside the live stream uses
// a shorter deadline than a one-shot screenshot so a wedged capture does
// not stall the stream for long.
const (
	CommandTimeout       = 15 * time.Second
	ScreenshotTimeout    = 10 * time.Second
	StreamCaptureTimeout = 6 * time.Second
)

// ErrCaptureTimeout reports that a screencap invocation hit its deadline.
var ErrCaptureTimeout = errors.New("screencap timed out")

// Targeter supplies the live device selector. It is read on every call,
// never cached, so retargeting takes effect immediately.
type Targeter interface {
	Target() string
}

// Commander formats adb argument lists for the device operations the
// panel exposes and delegates execution to a Runner.
type Commander struct {
	run    Runner
	target Targeter
	log    *zap.Logger
}

// NewCommander binds a Runner to the session target.
func NewCommander(run Runner, target Targeter, log *zap.Logger) *Commander {
	return &Commander{run: run, target: target, log: log}
}

func (c *Commander) invoke(ctx context.Context, timeout time.Duration, args ...string) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.run.Run(ctx, args...)
}

// Connect asks the adb server to connect to the current target.
func (c *Commander) Connect(ctx context.Context) Result {
	return c.invoke(ctx, CommandTimeout, "connect", c.target.Target())
}

// Devices lists devices known to the adb server.
func (c *Commander) Devices(ctx context.Context) Result {
	return c.invoke(ctx, CommandTimeout, "devices")
}

// SendKey injects a single keyevent on the current target.
func (c *Commander) SendKey(ctx context.Context, code int) Result {
	return c.invoke(ctx, CommandTimeout,
		"-s", c.target.Target(), "shell", "input", "keyevent", strconv.Itoa(code))
}

// Reboot reboots the current target.
func (c *Commander) Reboot(ctx context.Context) Result {
	return c.invoke(ctx, CommandTimeout, "-s", c.target.Target(), "reboot")
}

// Screencap captures one still frame as raw PNG bytes. It returns
// ErrCaptureTimeout when the invocation hit its deadline and a plain
// error for every other way a capture can fail. No retries here.
func (c *Commander) Screencap(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res := c.invoke(ctx, timeout, "-s", c.target.Target(), "exec-out", "screencap", "-p")
	switch {
	case res.Failure == FailureTimeout:
		return nil, ErrCaptureTimeout
	case res.Failure == FailureNotFound:
		return nil, fmt.Errorf("screencap: %s", res.Err())
	case res.ExitCode != 0:
		return nil, fmt.Errorf("screencap exited %d: %s", res.ExitCode, res.Err())
	case len(res.Stdout) == 0:
		return nil, errors.New("screencap returned no data")
	}
	c.log.Debug("screencap", zap.String("id", res.ID), zap.Int("bytes", len(res.Stdout)))
	return res.Stdout, nil
}
