package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(WarnLevel), WithFormatter(&TextFormatter{}), WithOutput(NewWriterOutput(&buf)))
	l.Info("hidden")
	l.Warn("visible")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be gated: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn should pass: %q", out)
	}
}

func TestWithFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithFormatter(&TextFormatter{}), WithOutput(NewWriterOutput(&buf)))
	l = l.With(Component("queue"), Str("item", "m-1"))
	l.Info("stored")
	out := buf.String()
	if !strings.Contains(out, "component=queue") || !strings.Contains(out, "item=m-1") {
		t.Fatalf("fields missing: %q", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithFormatter(&JSONFormatter{}), WithOutput(NewWriterOutput(&buf)))
	l.Info("hello", Int("n", 2))
	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"n":2`) {
		t.Fatalf("json output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("debug"); err != nil || lvl != DebugLevel {
		t.Fatalf("debug: %v %v", lvl, err)
	}
	if _, err := ParseLevel("noise"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
