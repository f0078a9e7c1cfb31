package supervisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tvpanel/internal/adb"
	"tvpanel/internal/events"
)

type deviceCommander interface {
	Connect(ctx context.Context) adb.Result
	Devices(ctx context.Context) adb.Result
}

type targetReader interface {
	Target() string
}

// ReconnectOptions tunes the poll cadence. Zero values pick the defaults.
type ReconnectOptions struct {
	// PollInterval separates consecutive device checks.
	PollInterval time.Duration
	// SettleDelay is the pause after issuing a connect, giving the adb
	// server time to register the device before the next check.
	SettleDelay time.Duration
}

const (
	defaultPollInterval = 5 * time.Second
	defaultSettleDelay  = 2 * time.Second
)

// Reconnect keeps the adb server connected to the configured device.
// Each cycle lists devices; when the live target is missing it issues a
// connect. Failed invocations are logged and swallowed: a flaky network
// must never kill the loop.
type Reconnect struct {
	cmd    deviceCommander
	target targetReader
	hub    *events.Hub
	log    *zap.Logger
	poll   time.Duration
	settle time.Duration
}

func NewReconnect(cmd deviceCommander, target targetReader, hub *events.Hub, log *zap.Logger, opts ReconnectOptions) *Reconnect {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaultSettleDelay
	}
	return &Reconnect{
		cmd:    cmd,
		target: target,
		hub:    hub,
		log:    log,
		poll:   opts.PollInterval,
		settle: opts.SettleDelay,
	}
}

// Run loops until ctx is cancelled. It re-reads the target every cycle,
// so retargeting mid-flight redirects the loop within one interval.
func (r *Reconnect) Run(ctx context.Context) {
	r.log.Info("reconnect supervisor started", zap.Duration("poll", r.poll))
	for {
		r.cycle(ctx)
		if !sleep(ctx, r.poll) {
			r.log.Info("reconnect supervisor stopped")
			return
		}
	}
}

func (r *Reconnect) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	target := r.target.Target()
	res := r.cmd.Devices(ctx)
	if !res.Ok() {
		r.log.Warn("devices check failed",
			zap.String("id", res.ID),
			zap.Int("exit", res.ExitCode),
			zap.String("stderr", res.Err()))
	}
	if strings.Contains(res.Out(), target) {
		return
	}

	cres := r.cmd.Connect(ctx)
	if cres.Ok() {
		r.log.Info("connect attempted", zap.String("target", target), zap.String("out", strings.TrimSpace(cres.Out())))
	} else {
		r.log.Warn("connect failed",
			zap.String("target", target),
			zap.Int("exit", cres.ExitCode),
			zap.String("stderr", cres.Err()))
	}
	r.hub.Publish("info", fmt.Sprintf("reconnect: %s (exit %d)", target, cres.ExitCode))
	sleep(ctx, r.settle)
}

// sleep waits for d, returning false when ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
