package controllers

import (
	"net/http"
	"time"

	"github.com/labelwire/labelwire/internal/runtime"
)

// GeneralController handles general HTTP endpoints like health and audit.
type GeneralController struct {
	rt *runtime.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers general endpoints with the mux.
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", c.handleHealth)
	mux.HandleFunc("/v1/audit", c.handleAudit)
}

func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		status = "not_serving"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, map[string]string{
		"status":    status,
		"instance":  c.rt.Config().InstanceTag,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *GeneralController) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 50
	}
	items, err := c.rt.Audit().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	type entry struct {
		Seq         uint64 `json:"seq"`
		TimestampMs int64  `json:"timestampMs"`
		ItemID      string `json:"itemId"`
		Action      string `json:"action"`
		Details     string `json:"details,omitempty"`
		Result      string `json:"result,omitempty"`
	}
	out := make([]entry, 0, len(items))
	for _, it := range items {
		out = append(out, entry{
			Seq:         it.Seq,
			TimestampMs: it.Entry.TimestampMs,
			ItemID:      it.Entry.ItemID,
			Action:      it.Entry.Action,
			Details:     it.Entry.Details,
			Result:      it.Entry.Result,
		})
	}
	writeJSON(w, map[string]any{"entries": out})
}
