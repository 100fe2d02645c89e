package channel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labelwire/labelwire/internal/protocol"
	"github.com/labelwire/labelwire/pkg/log"
)

func testLogger() log.Logger {
	return log.NewLogger(log.WithOutput(log.NullOutput{}))
}

func TestSendPostsTextPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, testLogger())
	msg := protocol.Message{InstanceTag: "desk-1", ItemID: "it-1", Type: protocol.TypeEmailReady, Body: "Subject: hello"}
	if !d.Send(context.Background(), msg) {
		t.Fatalf("Send reported failure")
	}
	if !strings.HasPrefix(got["text"], "desk-1:it-1 EMAIL_READY") {
		t.Fatalf("text = %q", got["text"])
	}
}

func TestSendSwallowsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, testLogger())
	if d.SendText(context.Background(), "hello") {
		t.Fatalf("delivery reported success on 502")
	}
}

func TestSendUnreachableChannel(t *testing.T) {
	d := NewDispatcher("http://127.0.0.1:1/hook", testLogger())
	if d.SendText(context.Background(), "hello") {
		t.Fatalf("delivery reported success against closed port")
	}
}

func TestSendEmptyURL(t *testing.T) {
	d := NewDispatcher("", testLogger())
	if d.SendText(context.Background(), "hello") {
		t.Fatalf("delivery reported success without a URL")
	}
}

func TestSendFollowsURLChanges(t *testing.T) {
	var aHits, bHits int
	a := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { aHits++ }))
	defer a.Close()
	b := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { bHits++ }))
	defer b.Close()

	url := a.URL
	d := NewDispatcherFunc(func() string { return url }, testLogger())

	if !d.SendText(context.Background(), "one") {
		t.Fatalf("first delivery failed")
	}
	// A reconfigured URL takes effect on the next delivery.
	url = b.URL
	if !d.SendText(context.Background(), "two") {
		t.Fatalf("second delivery failed")
	}
	if aHits != 1 || bHits != 1 {
		t.Fatalf("hits = %d/%d, want one each", aHits, bHits)
	}
}

func TestTestConnection(t *testing.T) {
	var text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &p)
		text = p["text"]
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, testLogger())
	if err := d.TestConnection(context.Background(), "desk-1"); err != nil {
		t.Fatalf("test connection: %v", err)
	}
	if !strings.Contains(text, protocol.TypeTestChat) {
		t.Fatalf("message text = %q", text)
	}
}
