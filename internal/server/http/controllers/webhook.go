package controllers

import (
	"io"
	"net/http"

	"github.com/labelwire/labelwire/internal/runtime"
)

// maxWebhookBody bounds inbound payload size.
const maxWebhookBody = 1 << 20

// WebhookController receives label decisions from the Hub. Responses are
// always HTTP 200; failures are reported in the JSON body.
type WebhookController struct {
	rt *runtime.Runtime
}

// NewWebhookController creates a new webhook controller.
func NewWebhookController(rt *runtime.Runtime) *WebhookController {
	return &WebhookController{rt: rt}
}

// RegisterRoutes registers the webhook endpoint with the mux.
func (c *WebhookController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", c.handleWebhook)
}

func (c *WebhookController) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, map[string]any{"success": false, "error": "read body: " + err.Error()})
		return
	}
	resp := c.rt.Receiver().Receive(r.Context(), body)
	writeJSON(w, resp)
}
