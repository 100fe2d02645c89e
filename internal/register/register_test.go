package register

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labelwire/labelwire/internal/auditlog"
	"github.com/labelwire/labelwire/internal/channel"
	"github.com/labelwire/labelwire/internal/config"
	"github.com/labelwire/labelwire/internal/protocol"
	"github.com/labelwire/labelwire/internal/settings"
	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
	"github.com/labelwire/labelwire/pkg/log"
)

func TestRegisterAnnouncesAndPersists(t *testing.T) {
	var text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &p)
		text = p["text"]
	}))
	defer srv.Close()

	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	st := settings.New(db)
	audit, err := auditlog.Open(db)
	if err != nil {
		t.Fatalf("open audit: %v", err)
	}

	cfg := config.Default()
	cfg.InstanceTag = "desk-1"
	cfg.AccountIdentity = "agent@example.com"
	cfg.CallbackURL = "http://desk-1.local/webhook"
	cfg.ChannelURL = srv.URL

	logger := log.NewLogger(log.WithOutput(log.NullOutput{}))
	d := channel.NewDispatcher(cfg.ChannelURL, logger)

	rec, err := Register(context.Background(), cfg, d, st, audit, logger)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.RegisteredAtMs == 0 || rec.InstanceTag != "desk-1" {
		t.Fatalf("record = %+v", rec)
	}

	if !strings.HasPrefix(text, "desk-1: "+protocol.TypeRegister) {
		t.Fatalf("announcement = %q", text)
	}
	if !strings.Contains(text, "callback: http://desk-1.local/webhook") {
		t.Fatalf("announcement lacks callback: %q", text)
	}

	// Idempotent re-register.
	if _, err := Register(context.Background(), cfg, d, st, audit, logger); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}

func TestRegisterChannelFailure(t *testing.T) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	st := settings.New(db)
	audit, _ := auditlog.Open(db)

	cfg := config.Default()
	cfg.InstanceTag = "desk-1"
	cfg.ChannelURL = "http://127.0.0.1:1/hook"

	logger := log.NewLogger(log.WithOutput(log.NullOutput{}))
	if _, err := Register(context.Background(), cfg, channel.NewDispatcher(cfg.ChannelURL, logger), st, audit, logger); err == nil {
		t.Fatalf("register succeeded against closed port")
	}

	rec, err := st.Registration()
	if err != nil {
		t.Fatalf("registration: %v", err)
	}
	if rec.RegisteredAtMs != 0 {
		t.Fatalf("failed register persisted: %+v", rec)
	}
}
