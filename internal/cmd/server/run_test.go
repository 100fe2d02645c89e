package serverrun

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	cfgpkg "github.com/labelwire/labelwire/internal/config"
	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
)

func TestGetenvDefault(t *testing.T) {
	_ = os.Setenv("LW_TEST_VAR", "env_value")
	t.Cleanup(func() { _ = os.Unsetenv("LW_TEST_VAR") })
	if got := getenvDefault("LW_TEST_VAR", "default"); got != "env_value" {
		t.Fatalf("got %q", got)
	}
	if got := getenvDefault("LW_TEST_VAR_NOT_SET", "default"); got != "default" {
		t.Fatalf("got %q", got)
	}
}

func TestDataDirFallback(t *testing.T) {
	opts := Options{DataDir: ""}
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.DataDir == "" {
		t.Fatal("DataDir should be set after fallback")
	}
	store := filepath.Join(opts.DataDir, "store")
	if filepath.Dir(store) != opts.DataDir {
		t.Fatalf("store dir %q not under data dir %q", store, opts.DataDir)
	}
}

// TestRunIntegration verifies Run starts and shuts down cleanly. Minimal since
// Run binds a real listener.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := cfgpkg.Default()
	cfg.MailboxDir = t.TempDir()
	opts := Options{
		DataDir:  t.TempDir(),
		HTTPAddr: "127.0.0.1:0",
		Fsync:    pebblestore.FsyncModeNever,
		Config:   cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := Run(ctx, opts); err != nil && err != context.DeadlineExceeded && err != context.Canceled {
		t.Fatalf("run: %v", err)
	}
}
