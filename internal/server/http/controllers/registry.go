package controllers

import (
	"net/http"

	"github.com/labelwire/labelwire/internal/runtime"
	"github.com/labelwire/labelwire/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes.
type ControllerRegistry struct {
	general *GeneralController
	webhook *WebhookController
	command *CommandController
	queue   *QueueController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, logger log.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		webhook: NewWebhookController(rt),
		command: NewCommandController(rt),
		queue:   NewQueueController(rt, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.webhook.RegisterRoutes(mux)
	r.command.RegisterRoutes(mux)
	r.queue.RegisterRoutes(mux)
}
