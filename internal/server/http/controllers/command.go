package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/labelwire/labelwire/internal/protocol"
	"github.com/labelwire/labelwire/internal/runtime"
)

// Commands accepted on the command endpoint.
const (
	CommandGetLabels    = "GET_LABELS"
	CommandApplyLabels  = "APPLY_LABELS"
	CommandRemoveLabels = "REMOVE_LABELS"
	CommandSyncLabels   = "SYNC_LABELS"
)

var validCommands = []string{CommandGetLabels, CommandApplyLabels, CommandRemoveLabels, CommandSyncLabels}

// CommandController exposes direct label operations for operators and tooling.
type CommandController struct {
	rt *runtime.Runtime
}

// NewCommandController creates a new command controller.
func NewCommandController(rt *runtime.Runtime) *CommandController {
	return &CommandController{rt: rt}
}

// RegisterRoutes registers the command endpoint with the mux.
func (c *CommandController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/command", c.handleCommand)
}

type commandRequest struct {
	Command string `json:"command"`
	EmailID string `json:"emailId,omitempty"`
	Labels  string `json:"labels,omitempty"`
}

func (c *CommandController) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, map[string]any{"success": false, "error": "decode request: " + err.Error(), "validCommands": validCommands})
		return
	}

	ctx := r.Context()
	switch req.Command {
	case CommandGetLabels:
		labels, err := c.rt.Labels().Inventory(ctx)
		if err != nil {
			writeJSON(w, map[string]any{"success": false, "error": err.Error()})
			return
		}
		writeJSON(w, map[string]any{"success": true, "labels": labels})
	case CommandSyncLabels:
		labels, err := c.rt.Labels().Sync(ctx)
		if err != nil {
			writeJSON(w, map[string]any{"success": false, "error": err.Error()})
			return
		}
		writeJSON(w, map[string]any{"success": true, "labels": labels})
	case CommandApplyLabels:
		c.runLabelOp(w, r, req, true)
	case CommandRemoveLabels:
		c.runLabelOp(w, r, req, false)
	default:
		writeJSON(w, map[string]any{
			"success":       false,
			"error":         "unknown command " + req.Command,
			"validCommands": validCommands,
		})
	}
}

func (c *CommandController) runLabelOp(w http.ResponseWriter, r *http.Request, req commandRequest, apply bool) {
	if req.EmailID == "" {
		writeJSON(w, map[string]any{"success": false, "error": "emailId is required"})
		return
	}
	names := protocol.ParseLabels(req.Labels)
	if len(names) == 0 {
		writeJSON(w, map[string]any{"success": false, "error": "labels is required"})
		return
	}
	op := c.rt.Labels().Apply
	if !apply {
		op = c.rt.Labels().Remove
	}
	out := op(r.Context(), req.EmailID, names)
	writeJSON(w, map[string]any{
		"success": out.OK(),
		"message": out.Summary(),
	})
}
