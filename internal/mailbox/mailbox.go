package mailbox

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a message id does not exist in the mailbox.
var ErrNotFound = errors.New("mailbox: message not found")

// ErrUnknownLabel is returned when a label is not part of the mailbox inventory.
var ErrUnknownLabel = errors.New("mailbox: unknown label")

// Email is one message as seen by the scanner.
type Email struct {
	ID           string   `json:"id"`
	Subject      string   `json:"subject"`
	Source       string   `json:"from"`
	ReceivedAtMs int64    `json:"receivedAtMs"`
	Body         string   `json:"body"`
	Labels       []string `json:"labels,omitempty"`
}

// Labeled reports whether the message already carries at least one label.
func (e Email) Labeled() bool { return len(e.Labels) > 0 }

// Mailbox is the external message store the runtime labels against.
type Mailbox interface {
	// Scan returns messages with no labeling decision yet, oldest first.
	Scan(ctx context.Context) ([]Email, error)
	// ListLabels returns the inventory of labels the mailbox accepts.
	ListLabels(ctx context.Context) ([]string, error)
	// ApplyLabel attaches a label to a message. Applying a label the message
	// already carries is a no-op.
	ApplyLabel(ctx context.Context, id, label string) error
	// RemoveLabel detaches a label from a message. Removing an absent label is
	// a no-op.
	RemoveLabel(ctx context.Context, id, label string) error
	// MarkDecided records a labeling decision that attached no labels, so the
	// message stops appearing in Scan. Marking a decided message is a no-op.
	MarkDecided(ctx context.Context, id string) error
}
