// Package inbound selects how label decisions reach this instance. The
// webhook variant hands HTTP bodies to the reconciler; the listener variant is
// a placeholder for a polling transport and reports not-implemented.
package inbound

import (
	"context"
	"fmt"

	"github.com/labelwire/labelwire/internal/config"
	"github.com/labelwire/labelwire/internal/reconcile"
)

// Receiver handles one inbound delivery body and returns the in-body response.
type Receiver interface {
	Mode() string
	Receive(ctx context.Context, body []byte) reconcile.Response
}

// New returns the receiver for the configured inbound mode.
func New(mode string, rec *reconcile.Reconciler) (Receiver, error) {
	switch mode {
	case config.InboundModeWebhook:
		return &webhookReceiver{rec: rec}, nil
	case config.InboundModeListener:
		return &listenerReceiver{}, nil
	default:
		return nil, fmt.Errorf("inbound: unknown mode %q", mode)
	}
}

type webhookReceiver struct {
	rec *reconcile.Reconciler
}

func (w *webhookReceiver) Mode() string { return config.InboundModeWebhook }

func (w *webhookReceiver) Receive(ctx context.Context, body []byte) reconcile.Response {
	return w.rec.HandleWebhook(ctx, body)
}

type listenerReceiver struct{}

func (l *listenerReceiver) Mode() string { return config.InboundModeListener }

func (l *listenerReceiver) Receive(ctx context.Context, body []byte) reconcile.Response {
	return reconcile.Response{Success: false, Error: "listener inbound mode is not implemented"}
}
