package protocol

import "testing"

func TestDecodeWebhookPing(t *testing.T) {
	p, kind, err := DecodeWebhook([]byte(`{"action":"ping"}`))
	if err != nil || kind != WebhookPing {
		t.Fatalf("ping: %v %v %+v", kind, err, p)
	}
}

func TestDecodeWebhookUpdateLabels(t *testing.T) {
	p, kind, err := DecodeWebhook([]byte(`{"action":"update_labels","emailId":"m-1","labels":"A, B"}`))
	if err != nil || kind != WebhookUpdateLabels {
		t.Fatalf("update_labels: %v %v", kind, err)
	}
	if p.EmailID != "m-1" || p.Labels != "A, B" {
		t.Fatalf("payload: %+v", p)
	}
}

func TestDecodeWebhookLegacy(t *testing.T) {
	p, kind, err := DecodeWebhook([]byte(`{"emailId":"m-2","labels":"C"}`))
	if err != nil || kind != WebhookUpdateLabels {
		t.Fatalf("legacy: %v %v", kind, err)
	}
	if p.EmailID != "m-2" {
		t.Fatalf("payload: %+v", p)
	}
}

func TestDecodeWebhookUnknown(t *testing.T) {
	if _, kind, err := DecodeWebhook([]byte(`{"action":"reboot"}`)); err == nil || kind != WebhookUnknown {
		t.Fatalf("unknown action should error")
	}
	if _, _, err := DecodeWebhook([]byte(`{}`)); err == nil {
		t.Fatalf("empty payload should error")
	}
	if _, _, err := DecodeWebhook([]byte(`not json`)); err == nil {
		t.Fatalf("bad json should error")
	}
}
