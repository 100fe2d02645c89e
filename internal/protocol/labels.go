package protocol

import "strings"

// NoneSentinel is the oracle's "apply nothing" token.
const NoneSentinel = "NONE"

// TruncationMarker is appended to item context cut at the configured limit.
const TruncationMarker = "... [truncated]"

// ParseLabels splits a comma-separated oracle reply into label names. Tokens
// are trimmed; empty tokens and the NONE sentinel (case-insensitive) are
// dropped. An empty result is a legitimate "apply nothing" outcome.
func ParseLabels(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, NoneSentinel) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// TruncateContext bounds free-text context at max characters, appending a
// marker when cut. max <= 0 leaves the text unchanged.
func TruncateContext(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + TruncationMarker
}
