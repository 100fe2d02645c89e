package labels

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labelwire/labelwire/internal/mailbox"
	"github.com/labelwire/labelwire/internal/settings"
	"github.com/labelwire/labelwire/pkg/log"
)

// Service manages the label inventory and applies labels to messages with an
// inter-message rate limit toward the mailbox backend.
type Service struct {
	box      mailbox.Mailbox
	settings *settings.Store
	logger   log.Logger

	rateLimit time.Duration
	sleep     func(ctx context.Context, d time.Duration) // test seam
}

// New returns a label service. rateLimitMs spaces out consecutive label writes
// against the mailbox; zero disables the pause.
func New(box mailbox.Mailbox, st *settings.Store, rateLimitMs int, logger log.Logger) *Service {
	return &Service{
		box:       box,
		settings:  st,
		logger:    logger.WithComponent("labels"),
		rateLimit: time.Duration(rateLimitMs) * time.Millisecond,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Inventory returns the cached label list, syncing from the mailbox when no
// cache exists yet.
func (s *Service) Inventory(ctx context.Context) ([]string, error) {
	c, err := s.settings.Labels()
	if err != nil {
		return nil, err
	}
	if c.FetchedAtMs != 0 {
		return c.Labels, nil
	}
	return s.Sync(ctx)
}

// Sync refreshes the inventory from the mailbox and stores the snapshot.
func (s *Service) Sync(ctx context.Context) ([]string, error) {
	labels, err := s.box.ListLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("labels: sync: %w", err)
	}
	if _, err := s.settings.SetLabels(labels); err != nil {
		return nil, err
	}
	s.logger.Info("label inventory synced", log.Int("count", len(labels)))
	return labels, nil
}

// Result reports per-label outcomes of an apply or remove pass.
type Result struct {
	Applied  []string
	NotFound []string
	Failed   map[string]string
}

// OK reports whether every requested label succeeded.
func (r Result) OK() bool { return len(r.NotFound) == 0 && len(r.Failed) == 0 }

// Summary renders a short human-readable outcome line.
func (r Result) Summary() string {
	var parts []string
	if len(r.Applied) > 0 {
		parts = append(parts, "applied: "+strings.Join(r.Applied, ", "))
	}
	if len(r.NotFound) > 0 {
		parts = append(parts, "not found: "+strings.Join(r.NotFound, ", "))
	}
	if len(r.Failed) > 0 {
		keys := make([]string, 0, len(r.Failed))
		for k := range r.Failed {
			keys = append(keys, k)
		}
		parts = append(parts, "failed: "+strings.Join(keys, ", "))
	}
	if len(parts) == 0 {
		return "no labels requested"
	}
	return strings.Join(parts, "; ")
}

// Apply attaches each label to the message, pausing rateLimit between writes.
// Unknown labels are reported in NotFound; other errors in Failed. The pass
// continues past individual failures.
func (s *Service) Apply(ctx context.Context, id string, names []string) Result {
	return s.each(ctx, id, names, s.box.ApplyLabel)
}

// MarkDecided records that the message received a decision attaching no
// labels, so it stops showing up as scannable work.
func (s *Service) MarkDecided(ctx context.Context, id string) error {
	return s.box.MarkDecided(ctx, id)
}

// Remove detaches each label from the message with the same pacing and
// partial-success behavior as Apply.
func (s *Service) Remove(ctx context.Context, id string, names []string) Result {
	return s.each(ctx, id, names, s.box.RemoveLabel)
}

func (s *Service) each(ctx context.Context, id string, names []string, op func(context.Context, string, string) error) Result {
	res := Result{Failed: map[string]string{}}
	for i, name := range names {
		if i > 0 {
			s.sleep(ctx, s.rateLimit)
		}
		if err := ctx.Err(); err != nil {
			res.Failed[name] = err.Error()
			continue
		}
		err := op(ctx, id, name)
		switch {
		case err == nil:
			res.Applied = append(res.Applied, name)
		case errors.Is(err, mailbox.ErrUnknownLabel):
			s.logger.Warn("label not in inventory", log.Str("itemId", id), log.Str("label", name))
			res.NotFound = append(res.NotFound, name)
		default:
			s.logger.Error("label operation failed", log.Str("itemId", id), log.Str("label", name), log.Err(err))
			res.Failed[name] = err.Error()
		}
	}
	return res
}
