package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/labelwire/labelwire/internal/auditlog"
	"github.com/labelwire/labelwire/internal/channel"
	"github.com/labelwire/labelwire/internal/config"
	"github.com/labelwire/labelwire/internal/labels"
	"github.com/labelwire/labelwire/internal/mailbox"
	"github.com/labelwire/labelwire/internal/protocol"
	"github.com/labelwire/labelwire/internal/queue"
	"github.com/labelwire/labelwire/pkg/log"
)

// leaseTTL bounds how long one dispatch critical section may hold the lease.
const leaseTTL = 30 * time.Second

// Scheduler owns the periodic and on-demand work passes: reclaim stale
// in-flight items, scan the mailbox into the queue, and dispatch the oldest
// queued item when nothing is in flight.
type Scheduler struct {
	loadConfig func() (config.Config, error)
	store      queue.Store
	lease      *queue.DispatchLease
	dispatcher *channel.Dispatcher
	box        mailbox.Mailbox
	labels     *labels.Service
	audit      *auditlog.Log
	logger     log.Logger

	owner string
	kick  chan struct{}
	nowMs func() int64

	filterExpr string
	filter     scanFilter
}

// Options collects the scheduler's collaborators.
type Options struct {
	LoadConfig func() (config.Config, error)
	Store      queue.Store
	Lease      *queue.DispatchLease
	Dispatcher *channel.Dispatcher
	Mailbox    mailbox.Mailbox
	Labels     *labels.Service
	Audit      *auditlog.Log
	Logger     log.Logger
	// Owner names this scheduler in the dispatch lease record.
	Owner string
}

// New builds a Scheduler. The config loader runs once per pass so on-disk
// config edits take effect without a restart.
func New(opts Options) *Scheduler {
	return &Scheduler{
		loadConfig: opts.LoadConfig,
		store:      opts.Store,
		lease:      opts.Lease,
		dispatcher: opts.Dispatcher,
		box:        opts.Mailbox,
		labels:     opts.Labels,
		audit:      opts.Audit,
		logger:     opts.Logger.WithComponent("scheduler"),
		owner:      opts.Owner,
		kick:       make(chan struct{}, 1),
		nowMs:      func() int64 { return time.Now().UnixMilli() },
	}
}

// Kick requests an on-demand pass. Kicks coalesce while a pass is pending.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Trigger exposes the kick channel for external wakers (mailbox watcher).
func (s *Scheduler) Trigger() chan<- struct{} { return s.kick }

// Run blocks, executing a pass at startup, on each cron fire, and on each
// kick, until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return fmt.Errorf("scheduler: load config: %w", err)
	}
	c := cron.New()
	if _, err := c.AddFunc(cfg.CronSpec, s.Kick); err != nil {
		return fmt.Errorf("scheduler: cron spec %q: %w", cfg.CronSpec, err)
	}
	c.Start()
	defer c.Stop()

	s.Kick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.kick:
			if err := s.Tick(ctx); err != nil {
				s.logger.Error("work pass failed", log.Err(err))
			}
		}
	}
}

// Tick runs one full pass: reload config, reclaim stale in-flight items, scan
// the mailbox, dispatch, and trim the audit log.
func (s *Scheduler) Tick(ctx context.Context) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return fmt.Errorf("scheduler: load config: %w", err)
	}
	if err := s.reclaimStale(ctx, cfg); err != nil {
		return err
	}
	if err := s.scanAndEnqueue(ctx, cfg); err != nil {
		return err
	}
	if err := s.Advance(ctx, cfg); err != nil {
		return err
	}
	if _, err := s.audit.TrimToRetention(ctx, cfg.AuditRetention); err != nil {
		s.logger.Warn("audit trim failed", log.Err(err))
	}
	return nil
}

// reclaimStale reverts posted items whose in-flight timeout elapsed back to
// queued, or parks them in error once the attempt budget is spent.
func (s *Scheduler) reclaimStale(ctx context.Context, cfg config.Config) error {
	if cfg.InFlightTimeoutMin <= 0 {
		return nil
	}
	posted, err := s.store.FindByStatus(ctx, queue.StatusPosted)
	if err != nil {
		return err
	}
	now := s.nowMs()
	timeout := int64(cfg.InFlightTimeoutMin) * 60_000
	for _, item := range posted {
		if item.PostedAtMs == 0 || now-item.PostedAtMs < timeout {
			continue
		}
		if item.Attempts >= cfg.MaxDispatchAttempts {
			if err := s.store.UpdateStatus(ctx, item.ID, queue.StatusError, 0); err != nil {
				return err
			}
			s.logger.Warn("in-flight item exhausted attempts",
				log.Str("itemId", item.ID), log.Int("attempts", item.Attempts))
			s.auditEntry(ctx, item.ID, "reclaim", "attempts exhausted", "error")
			continue
		}
		if err := s.store.UpdateStatus(ctx, item.ID, queue.StatusQueued, 0); err != nil {
			return err
		}
		s.logger.Info("reclaimed stale in-flight item",
			log.Str("itemId", item.ID), log.Int("attempts", item.Attempts))
		s.auditEntry(ctx, item.ID, "reclaim", "timeout, requeued", "queued")
	}
	return nil
}

// scanAndEnqueue pulls unlabeled messages from the mailbox and inserts up to
// BatchSize new items, skipping ids already stored.
func (s *Scheduler) scanAndEnqueue(ctx context.Context, cfg config.Config) error {
	if cfg.ScanFilter != s.filterExpr {
		f, err := newScanFilter(cfg.ScanFilter)
		if err != nil {
			return fmt.Errorf("scheduler: scan filter: %w", err)
		}
		s.filterExpr, s.filter = cfg.ScanFilter, f
	}

	emails, err := s.box.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: scan: %w", err)
	}
	now := s.nowMs()
	added := 0
	for _, e := range emails {
		if added >= cfg.BatchSize {
			break
		}
		if !s.filter.Eval(e, now) {
			continue
		}
		item := queue.Item{
			ID:          e.ID,
			Subject:     e.Subject,
			Source:      e.Source,
			CreatedAtMs: e.ReceivedAtMs,
			Context:     protocol.TruncateContext(e.Body, cfg.ContextMaxChars),
			Status:      queue.StatusQueued,
		}
		inserted, err := s.store.EnqueueIfAbsent(ctx, item)
		if err != nil {
			return err
		}
		if !inserted {
			continue
		}
		added++
		s.auditEntry(ctx, e.ID, "enqueue", e.Subject, "queued")
	}
	if added > 0 {
		s.logger.Info("mailbox scan complete", log.Int("enqueued", added), log.Int("scanned", len(emails)))
	}
	return nil
}

// Advance dispatches the oldest queued item when nothing is posted. The
// select-and-mark step runs under the dispatch lease so a concurrent pass
// (tick vs. chained advancement) cannot post two items.
func (s *Scheduler) Advance(ctx context.Context, cfg config.Config) error {
	posted, err := s.store.FindByStatus(ctx, queue.StatusPosted)
	if err != nil {
		return err
	}
	if len(posted) > 0 {
		return nil
	}

	ok, err := s.lease.Acquire(ctx, s.owner, leaseTTL, s.nowMs())
	if err != nil {
		return err
	}
	if !ok {
		// Another pass holds the lease; it will dispatch.
		return nil
	}
	defer func() {
		if err := s.lease.Release(ctx, s.owner); err != nil {
			s.logger.Warn("lease release failed", log.Err(err))
		}
	}()

	// Re-check under the lease.
	posted, err = s.store.FindByStatus(ctx, queue.StatusPosted)
	if err != nil {
		return err
	}
	if len(posted) > 0 {
		return nil
	}

	item, err := queue.FirstByStatus(ctx, s.store, queue.StatusQueued)
	if err == queue.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	now := s.nowMs()
	if err := s.store.UpdateStatus(ctx, item.ID, queue.StatusPosted, now); err != nil {
		return err
	}

	inventory, err := s.labels.Inventory(ctx)
	if err != nil {
		s.logger.Warn("label inventory unavailable for dispatch", log.Err(err))
	}
	msg := protocol.Message{
		InstanceTag: cfg.InstanceTag,
		ItemID:      item.ID,
		Type:        protocol.TypeEmailReady,
		Body:        readyBody(item, inventory, cfg.InstanceTag),
	}
	delivered := s.dispatcher.Send(ctx, msg)
	result := "delivered"
	if !delivered {
		// Item stays posted; the in-flight timeout reclaims it if no reply.
		result = "delivery failed"
	}
	s.logger.Info("dispatched item", log.Str("itemId", item.ID), log.Bool("delivered", delivered))
	s.auditEntry(ctx, item.ID, "dispatch", item.Subject, result)
	return nil
}

// readyBody renders the EMAIL_READY payload: the item's context, the label
// inventory, and reply instructions for the oracle.
func readyBody(item queue.Item, inventory []string, instanceTag string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", item.Subject)
	fmt.Fprintf(&b, "From: %s\n\n", item.Source)
	b.WriteString(item.Context)
	b.WriteString("\n\n")
	if len(inventory) > 0 {
		fmt.Fprintf(&b, "Available labels: %s\n", strings.Join(inventory, ", "))
	}
	fmt.Fprintf(&b, "Reply with %s:%s LABEL_RESPONSE followed by comma-separated labels, or %s.",
		instanceTag, item.ID, protocol.NoneSentinel)
	return b.String()
}

func (s *Scheduler) auditEntry(ctx context.Context, itemID, action, details, result string) {
	if _, err := s.audit.Append(ctx, auditlog.Entry{
		ItemID:  itemID,
		Action:  action,
		Details: details,
		Result:  result,
	}); err != nil {
		s.logger.Warn("audit append failed", log.Err(err))
	}
}
