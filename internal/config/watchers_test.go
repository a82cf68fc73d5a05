package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/prognos-core/pkg/logger"
)

func TestConfigWatcher_NotifiesOnFileWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o644))

	w := NewConfigWatcher(path, logger.New("fatal"))
	var notified atomic.Int32
	w.RegisterWatcher(func(cfg *Config) {
		if cfg != nil {
			notified.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()

	// Give the watcher a moment to register before the first write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))

	require.Eventually(t, func() bool { return notified.Load() > 0 },
		5*time.Second, 20*time.Millisecond, "callback should fire after a config write")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}

func TestConfigWatcher_StopEndsWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o644))

	w := NewConfigWatcher(path, logger.New("fatal"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	w.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
