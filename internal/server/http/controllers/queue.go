package controllers

import (
	"net/http"

	"github.com/labelwire/labelwire/internal/queue"
	"github.com/labelwire/labelwire/internal/register"
	"github.com/labelwire/labelwire/internal/runtime"
	"github.com/labelwire/labelwire/pkg/log"
)

// QueueController exposes queue inspection and control endpoints used by the
// CLI and operators.
type QueueController struct {
	rt     *runtime.Runtime
	logger log.Logger
}

// NewQueueController creates a new queue controller.
func NewQueueController(rt *runtime.Runtime, logger log.Logger) *QueueController {
	return &QueueController{rt: rt, logger: logger}
}

// RegisterRoutes registers queue endpoints with the mux.
func (c *QueueController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/queue", c.handleList)
	mux.HandleFunc("/v1/kick", c.handleKick)
	mux.HandleFunc("/v1/register", c.handleRegister)
}

func (c *QueueController) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()
	var items []queue.Item
	for _, status := range []queue.Status{queue.StatusPosted, queue.StatusQueued, queue.StatusError} {
		found, err := c.rt.Store().FindByStatus(ctx, status)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, found...)
	}
	writeJSON(w, map[string]any{"items": items})
}

// handleKick requests an immediate work pass.
func (c *QueueController) handleKick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	c.rt.Scheduler().Kick()
	writeJSON(w, map[string]any{"success": true})
}

// handleRegister re-runs the channel handshake.
func (c *QueueController) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rec, err := register.Register(r.Context(), c.rt.Config(), c.rt.Dispatcher(), c.rt.Settings(), c.rt.Audit(), c.logger)
	if err != nil {
		writeJSON(w, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, map[string]any{"success": true, "registeredAtMs": rec.RegisteredAtMs})
}
