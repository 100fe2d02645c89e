package reconcile

import (
	"context"
	"fmt"

	"github.com/labelwire/labelwire/internal/auditlog"
	"github.com/labelwire/labelwire/internal/channel"
	"github.com/labelwire/labelwire/internal/config"
	"github.com/labelwire/labelwire/internal/labels"
	"github.com/labelwire/labelwire/internal/protocol"
	"github.com/labelwire/labelwire/internal/queue"
	"github.com/labelwire/labelwire/pkg/log"
)

// Advancer dispatches the next queued item when the in-flight slot is free.
// The scheduler satisfies this.
type Advancer interface {
	Advance(ctx context.Context, cfg config.Config) error
}

// Response is the in-body result of an inbound delivery. HTTP transport always
// answers 200; failures live here.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	TestID  string `json:"testId,omitempty"`
	ItemID  string `json:"emailId,omitempty"`
}

// Reconciler applies the oracle's label decisions to queue items: parse the
// reply, label the mailbox message, confirm on the channel, delete the item,
// and chain-advance the queue.
type Reconciler struct {
	loadConfig func() (config.Config, error)
	store      queue.Store
	labels     *labels.Service
	dispatcher *channel.Dispatcher
	advancer   Advancer
	audit      *auditlog.Log
	logger     log.Logger
}

// Options collects the reconciler's collaborators.
type Options struct {
	LoadConfig func() (config.Config, error)
	Store      queue.Store
	Labels     *labels.Service
	Dispatcher *channel.Dispatcher
	Advancer   Advancer
	Audit      *auditlog.Log
	Logger     log.Logger
}

// New builds a Reconciler.
func New(opts Options) *Reconciler {
	return &Reconciler{
		loadConfig: opts.LoadConfig,
		store:      opts.Store,
		labels:     opts.Labels,
		dispatcher: opts.Dispatcher,
		advancer:   opts.Advancer,
		audit:      opts.Audit,
		logger:     opts.Logger.WithComponent("reconcile"),
	}
}

// HandleWebhook processes one inbound webhook body and returns the in-body
// response. It never returns an error: malformed or unknown input becomes a
// Success=false response.
func (r *Reconciler) HandleWebhook(ctx context.Context, body []byte) Response {
	payload, kind, err := protocol.DecodeWebhook(body)
	if err != nil {
		r.logger.Warn("rejected inbound payload", log.Err(err))
		return Response{Success: false, Error: err.Error()}
	}
	switch kind {
	case protocol.WebhookPing:
		r.auditEntry(ctx, auditlog.SystemItem, "ping", payload.TestID, "pong")
		return Response{Success: true, Message: "pong", TestID: payload.TestID}
	case protocol.WebhookUpdateLabels:
		return r.resolve(ctx, payload)
	default:
		return Response{Success: false, Error: fmt.Sprintf("unknown webhook action %q", payload.Action)}
	}
}

// resolve runs the resolution routine for one label decision.
func (r *Reconciler) resolve(ctx context.Context, payload protocol.WebhookPayload) Response {
	cfg, err := r.loadConfig()
	if err != nil {
		r.logger.Error("load config", log.Err(err))
		return Response{Success: false, Error: "configuration unavailable"}
	}

	item, err := r.findTarget(ctx, payload.EmailID)
	if err != nil {
		r.logger.Warn("no item for label decision",
			log.Str("emailId", payload.EmailID), log.Err(err))
		return Response{Success: false, Error: err.Error()}
	}

	if err := r.store.SetLabels(ctx, item.ID, payload.Labels); err != nil {
		r.logger.Error("record label reply", log.Str("itemId", item.ID), log.Err(err))
	}

	names := protocol.ParseLabels(payload.Labels)
	res := r.labels.Apply(ctx, item.ID, names)

	if len(res.Failed) > 0 {
		// Mailbox write failed: park the item for review, keep the queue moving.
		if err := r.store.UpdateStatus(ctx, item.ID, queue.StatusError, 0); err != nil {
			r.logger.Error("park item in error", log.Str("itemId", item.ID), log.Err(err))
		}
		r.auditEntry(ctx, item.ID, "resolve", payload.Labels, "error: "+res.Summary())
		r.advance(ctx, cfg)
		return Response{Success: false, ItemID: item.ID, Error: res.Summary()}
	}

	// A decision that surfaced no labels (for example a NONE reply) still has
	// to mark the message decided, or the next scan would readmit it.
	if len(res.Applied) == 0 {
		if err := r.labels.MarkDecided(ctx, item.ID); err != nil {
			r.logger.Error("mark message decided", log.Str("itemId", item.ID), log.Err(err))
		}
	}

	confirm := protocol.Message{
		InstanceTag: cfg.InstanceTag,
		ItemID:      item.ID,
		Type:        protocol.TypeConfirmComplete,
		Body:        res.Summary(),
	}
	r.dispatcher.Send(ctx, confirm)

	if err := r.store.Delete(ctx, item.ID); err != nil {
		r.logger.Error("delete resolved item", log.Str("itemId", item.ID), log.Err(err))
	}
	r.logger.Info("item resolved", log.Str("itemId", item.ID), log.Str("labels", payload.Labels))
	r.auditEntry(ctx, item.ID, "resolve", payload.Labels, res.Summary())

	r.advance(ctx, cfg)
	return Response{Success: true, ItemID: item.ID, Message: res.Summary()}
}

// findTarget resolves the item a decision refers to. A missing emailId falls
// back to the first in-flight item without a recorded reply, for oracles that
// echo only labels.
func (r *Reconciler) findTarget(ctx context.Context, emailID string) (queue.Item, error) {
	if emailID != "" {
		item, err := r.store.Get(ctx, emailID)
		if err == queue.ErrNotFound {
			return queue.Item{}, fmt.Errorf("no stored item with id %q", emailID)
		}
		return item, err
	}
	posted, err := r.store.FindByStatus(ctx, queue.StatusPosted)
	if err != nil {
		return queue.Item{}, err
	}
	for _, item := range posted {
		if item.Labels == "" {
			return item, nil
		}
	}
	return queue.Item{}, fmt.Errorf("no in-flight item awaiting labels")
}

func (r *Reconciler) advance(ctx context.Context, cfg config.Config) {
	if err := r.advancer.Advance(ctx, cfg); err != nil {
		r.logger.Error("chained advancement failed", log.Err(err))
	}
}

func (r *Reconciler) auditEntry(ctx context.Context, itemID, action, details, result string) {
	if _, err := r.audit.Append(ctx, auditlog.Entry{
		ItemID:  itemID,
		Action:  action,
		Details: details,
		Result:  result,
	}); err != nil {
		r.logger.Warn("audit append failed", log.Err(err))
	}
}
