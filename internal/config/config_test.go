package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.BatchSize != 10 {
		t.Fatalf("batch size default")
	}
	if cfg.CronSpec != "*/15 * * * *" {
		t.Fatalf("cron default: %q", cfg.CronSpec)
	}
	if cfg.InboundMode != InboundModeWebhook {
		t.Fatalf("inbound mode default")
	}
	if cfg.StoreBackend != StoreBackendPebble {
		t.Fatalf("store backend default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "labelwire.json")
	data := []byte(`{"instanceTag":"desk-1","channelUrl":"https://hub.example/chat","batchSize":5}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InstanceTag != "desk-1" {
		t.Fatalf("instance tag: %q", cfg.InstanceTag)
	}
	if cfg.BatchSize != 5 {
		t.Fatalf("batch size: %d", cfg.BatchSize)
	}
	// untouched fields keep defaults
	if cfg.RateLimitMs != 1100 {
		t.Fatalf("rate limit default preserved: %d", cfg.RateLimitMs)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "labelwire.yaml")
	data := []byte("instanceTag: desk-2\nstoreBackend: postgres\npostgresDsn: postgres://localhost/lw\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InstanceTag != "desk-2" {
		t.Fatalf("instance tag: %q", cfg.InstanceTag)
	}
	if cfg.StoreBackend != StoreBackendPostgres {
		t.Fatalf("store backend: %q", cfg.StoreBackend)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.StoreBackend = StoreBackendPostgres
	if err := cfg.Validate(); err == nil {
		t.Fatalf("postgres without dsn should fail")
	}
	cfg.PostgresDSN = "postgres://localhost/lw"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid postgres config: %v", err)
	}

	cfg = Default()
	cfg.InboundMode = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("unknown inbound mode should fail")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("LW_INSTANCE_TAG", "env-tag")
	os.Setenv("LW_BATCH_SIZE", "3")
	t.Cleanup(func() {
		os.Unsetenv("LW_INSTANCE_TAG")
		os.Unsetenv("LW_BATCH_SIZE")
	})
	FromEnv(&cfg)
	if cfg.InstanceTag != "env-tag" {
		t.Fatalf("env override tag")
	}
	if cfg.BatchSize != 3 {
		t.Fatalf("env override batch size")
	}
}
