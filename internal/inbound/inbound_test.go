package inbound

import (
	"context"
	"testing"

	"github.com/labelwire/labelwire/internal/config"
)

func TestUnknownMode(t *testing.T) {
	if _, err := New("carrier-pigeon", nil); err == nil {
		t.Fatalf("unknown mode accepted")
	}
}

func TestListenerNotImplemented(t *testing.T) {
	r, err := New(config.InboundModeListener, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	resp := r.Receive(context.Background(), []byte(`{"action":"ping"}`))
	if resp.Success || resp.Error == "" {
		t.Fatalf("resp = %+v", resp)
	}
}
