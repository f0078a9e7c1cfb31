package supervisor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tvpanel/internal/adb"
	"tvpanel/internal/events"
	"tvpanel/internal/session"
)

type fakeCommander struct {
	mu       sync.Mutex
	devices  adb.Result
	connect  adb.Result
	connects int
}

func (f *fakeCommander) Devices(context.Context) adb.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.devices
}

func (f *fakeCommander) Connect(context.Context) adb.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return f.connect
}

func (f *fakeCommander) connectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func testOptions() ReconnectOptions {
	return ReconnectOptions{PollInterval: 5 * time.Millisecond, SettleDelay: time.Millisecond}
}

func TestReconnectKeepsLoopingOnTimeouts(t *testing.T) {
	// An invoker that always times out: empty stdout every cycle, so the
	// target is never listed and a connect is attempted on each pass.
	fake := &fakeCommander{
		devices: adb.Result{Failure: adb.FailureTimeout, ExitCode: 124, Stderr: []byte("timeout")},
		connect: adb.Result{Failure: adb.FailureTimeout, ExitCode: 124, Stderr: []byte("timeout")},
	}
	state := session.New("1.2.3.4", 5555)
	r := NewReconnect(fake, state, nil, zap.NewNop(), testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	require.Eventually(t, func() bool { return fake.connectCount() >= 3 },
		2*time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestReconnectSkipsConnectWhenDevicePresent(t *testing.T) {
	fake := &fakeCommander{
		devices: adb.Result{Stdout: []byte("List of devices attached\n1.2.3.4:5555\tdevice\n")},
	}
	state := session.New("1.2.3.4", 5555)
	r := NewReconnect(fake, state, nil, zap.NewNop(), testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	assert.Zero(t, fake.connectCount())
}

func TestReconnectFollowsRetarget(t *testing.T) {
	// The listed device matches the initial target, so the loop idles.
	// Changing the session host must make it start connecting within one
	// polling interval, without a restart.
	fake := &fakeCommander{
		devices: adb.Result{Stdout: []byte("List of devices attached\n1.2.3.4:5555\tdevice\n")},
	}
	state := session.New("1.2.3.4", 5555)
	r := NewReconnect(fake, state, events.NewHub(), zap.NewNop(), testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	time.Sleep(25 * time.Millisecond)
	require.Zero(t, fake.connectCount())

	_, err := state.SetHost("192.168.0.5")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return fake.connectCount() >= 1 },
		2*time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestReconnectStopsOnCancel(t *testing.T) {
	fake := &fakeCommander{}
	state := session.New("1.2.3.4", 5555)
	r := NewReconnect(fake, state, nil, zap.NewNop(), testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop after cancellation")
	}
}
