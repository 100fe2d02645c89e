package protocol

import (
	"encoding/json"
	"fmt"
)

// Webhook actions recognized on the inbound channel.
const (
	ActionPing         = "ping"
	ActionUpdateLabels = "update_labels"
)

// WebhookPayload is the JSON body of an inbound webhook call. The legacy form
// omits action and carries only emailId/labels.
type WebhookPayload struct {
	Action  string `json:"action,omitempty"`
	EmailID string `json:"emailId,omitempty"`
	Labels  string `json:"labels,omitempty"`
	TestID  string `json:"testId,omitempty"`
}

// WebhookKind classifies a decoded payload.
type WebhookKind int

const (
	WebhookUnknown WebhookKind = iota
	WebhookPing
	WebhookUpdateLabels
)

// DecodeWebhook parses and classifies an inbound webhook body. Legacy payloads
// with a bare labels field and no action classify as update_labels.
func DecodeWebhook(body []byte) (WebhookPayload, WebhookKind, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return WebhookPayload{}, WebhookUnknown, fmt.Errorf("decode webhook payload: %w", err)
	}
	switch p.Action {
	case ActionPing:
		return p, WebhookPing, nil
	case ActionUpdateLabels:
		return p, WebhookUpdateLabels, nil
	case "":
		if p.Labels != "" {
			return p, WebhookUpdateLabels, nil
		}
	}
	return p, WebhookUnknown, fmt.Errorf("unknown webhook action %q", p.Action)
}
