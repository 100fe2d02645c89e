package scheduler

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/labelwire/labelwire/internal/mailbox"
)

// scanFilter wraps a compiled CEL program deciding which scanned messages are
// eligible for the queue. When disabled, Eval always returns true.
type scanFilter struct {
	prog    cel.Program
	enabled bool
}

func newScanFilter(expr string) (scanFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return scanFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("subject", cel.StringType),
		cel.Variable("source", cel.StringType),
		cel.Variable("body", cel.StringType),
		// Time since the message arrived, for windowed filters
		cel.Variable("age_ms", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return scanFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return scanFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return scanFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return scanFilter{}, err
	}
	return scanFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against a scanned message. When
// disabled, returns true. Evaluation errors reject the message.
func (f scanFilter) Eval(e mailbox.Email, nowMs int64) bool {
	if !f.enabled {
		return true
	}
	age := nowMs - e.ReceivedAtMs
	if age < 0 {
		age = 0
	}
	out, _, err := f.prog.Eval(map[string]any{
		"subject": e.Subject,
		"source":  e.Source,
		"body":    e.Body,
		"age_ms":  age,
		"now_ms":  time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
