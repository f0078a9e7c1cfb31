package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefault(t *testing.T) {
	t.Setenv("TV_IP", "")

	cfg := Default()
	assert.Equal(t, ":8000", cfg.Listen)
	assert.Equal(t, "adb", cfg.ADBPath)
	assert.Equal(t, "10.0.110.253", cfg.Device.Host)
	assert.Equal(t, 5555, cfg.Device.Port)
}

func TestDefaultHonorsTVIPEnv(t *testing.T) {
	t.Setenv("TV_IP", "192.168.0.9")

	cfg := Default()
	assert.Equal(t, "192.168.0.9", cfg.Device.Host)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	t.Setenv("TV_IP", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	t.Setenv("TV_IP", "")
	path := filepath.Join(t.TempDir(), "panel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9000\"\ndevice:\n  host: 192.168.0.5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "192.168.0.5", cfg.Device.Host)
	// Unset keys keep their defaults; the port never comes from the file's absence.
	assert.Equal(t, "adb", cfg.ADBPath)
	assert.Equal(t, 5555, cfg.Device.Port)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	t.Setenv("TV_IP", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "panel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device:\n  host: 1.2.3.4\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan Config, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, path, zap.NewNop(), func(c Config) { applied <- c })
	}()

	// Give the watcher a moment to register before touching the file.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("device:\n  host: 192.168.0.5\n"), 0o644))

	select {
	case cfg := <-applied:
		assert.Equal(t, "192.168.0.5", cfg.Device.Host)
	case <-time.After(3 * time.Second):
		t.Fatal("config change never applied")
	}

	cancel()
	<-done
}
