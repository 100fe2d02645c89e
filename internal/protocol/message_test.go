package protocol

import (
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := Message{
		InstanceTag: "desk-1",
		ItemID:      "m-42",
		Type:        TypeEmailReady,
		Body:        "Subject: hello\nFrom: a@b.c",
	}
	raw := m.Encode()
	got, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.InstanceTag != "desk-1" || got.ItemID != "m-42" || got.Type != TypeEmailReady {
		t.Fatalf("header mismatch: %+v", got)
	}
	if got.Body != m.Body {
		t.Fatalf("body mismatch: %q", got.Body)
	}
}

func TestDecodeBodyWithColons(t *testing.T) {
	raw := "desk-1:m-7 EMAIL_READY\nReply as: desk-1:m-7 LABEL_RESPONSE\nNote: colons everywhere"
	m, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.ItemID != "m-7" {
		t.Fatalf("item id: %q", m.ItemID)
	}
	if !strings.Contains(m.Body, "desk-1:m-7 LABEL_RESPONSE") {
		t.Fatalf("body lost colon content: %q", m.Body)
	}
}

func TestDecodeWithoutItemID(t *testing.T) {
	m, err := DecodeMessage("desk-1: REGISTER\ncallback=https://example.test/webhook")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.ItemID != "" || m.Type != TypeRegister {
		t.Fatalf("register parse: %+v", m)
	}
}

func TestDecodeWithStatus(t *testing.T) {
	m, err := DecodeMessage("desk-1:m-9 CONFIRM_COMPLETE done")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Status != "done" {
		t.Fatalf("status: %q", m.Status)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "no separator here", "tag: NOT_A_TYPE", "tag:item"} {
		if _, err := DecodeMessage(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseLabels(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"A, B, NONE, , C", []string{"A", "B", "C"}},
		{"none", nil},
		{"", nil},
		{"  Urgent  ", []string{"Urgent"}},
		{"NoNe, Finance", []string{"Finance"}},
	}
	for _, c := range cases {
		got := ParseLabels(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("ParseLabels(%q) = %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("ParseLabels(%q) = %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestTruncateContext(t *testing.T) {
	if got := TruncateContext("short", 10); got != "short" {
		t.Fatalf("no-op truncate: %q", got)
	}
	got := TruncateContext(strings.Repeat("x", 50), 10)
	if !strings.HasPrefix(got, strings.Repeat("x", 10)) || !strings.HasSuffix(got, TruncationMarker) {
		t.Fatalf("truncate: %q", got)
	}
	if got := TruncateContext("anything", 0); got != "anything" {
		t.Fatalf("max 0 disables: %q", got)
	}
}
