package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/labelwire/labelwire/internal/auditlog"
	"github.com/labelwire/labelwire/internal/channel"
	cfgpkg "github.com/labelwire/labelwire/internal/config"
	"github.com/labelwire/labelwire/internal/inbound"
	"github.com/labelwire/labelwire/internal/labels"
	"github.com/labelwire/labelwire/internal/mailbox"
	"github.com/labelwire/labelwire/internal/queue"
	"github.com/labelwire/labelwire/internal/reconcile"
	"github.com/labelwire/labelwire/internal/scheduler"
	"github.com/labelwire/labelwire/internal/settings"
	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
	"github.com/labelwire/labelwire/pkg/id"
	"github.com/labelwire/labelwire/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	// ConfigPath, when set, is re-read at the start of every work pass so
	// on-disk edits apply without a restart. Config is the fallback.
	ConfigPath string
	Config     cfgpkg.Config
	Logger     log.Logger
}

// Runtime wires storage, config, and services for a single labeling instance.
type Runtime struct {
	db         *pebblestore.DB
	loadConfig func() (cfgpkg.Config, error)
	config     cfgpkg.Config
	logger     log.Logger

	store      queue.Store
	lease      *queue.DispatchLease
	audit      *auditlog.Log
	settings   *settings.Store
	box        *mailbox.Maildir
	dispatcher *channel.Dispatcher
	labels     *labels.Service
	scheduler  *scheduler.Scheduler
	reconciler *reconcile.Reconciler
	receiver   inbound.Receiver
}

// Open initializes storage and wires the service graph.
func Open(opts Options) (*Runtime, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewLogger()
	}
	loadConfig := func() (cfgpkg.Config, error) { return opts.Config, nil }
	if opts.ConfigPath != "" {
		path := opts.ConfigPath
		loadConfig = func() (cfgpkg.Config, error) { return cfgpkg.Load(path) }
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("runtime: load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runtime: config: %w", err)
	}

	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync})
	if err != nil {
		return nil, err
	}

	rt := &Runtime{db: db, loadConfig: loadConfig, config: cfg, logger: opts.Logger}
	if err := rt.wire(cfg); err != nil {
		db.Close()
		return nil, err
	}
	return rt, nil
}

func (r *Runtime) wire(cfg cfgpkg.Config) error {
	store, err := queue.OpenStore(cfg, r.db)
	if err != nil {
		return err
	}
	r.store = store
	r.lease = queue.NewDispatchLease(r.db)

	r.audit, err = auditlog.Open(r.db)
	if err != nil {
		return err
	}
	r.settings = settings.New(r.db)

	r.box, err = mailbox.OpenMaildir(cfg.MailboxDir)
	if err != nil {
		return err
	}

	// Resolve the channel URL through loadConfig so edits to the config file
	// take effect on the next delivery rather than the next restart.
	r.dispatcher = channel.NewDispatcherFunc(func() string {
		c, err := r.loadConfig()
		if err != nil {
			r.logger.Error("load config for channel delivery", log.Err(err))
			return ""
		}
		return c.ChannelURL
	}, r.logger)
	r.labels = labels.New(r.box, r.settings, cfg.RateLimitMs, r.logger)

	// Unique per process so a crashed instance's lease expires instead of
	// being silently reused.
	owner := fmt.Sprintf("%s/%s", cfg.InstanceTag, id.NewGenerator().Next().String())
	r.scheduler = scheduler.New(scheduler.Options{
		LoadConfig: r.loadConfig,
		Store:      r.store,
		Lease:      r.lease,
		Dispatcher: r.dispatcher,
		Mailbox:    r.box,
		Labels:     r.labels,
		Audit:      r.audit,
		Logger:     r.logger,
		Owner:      owner,
	})
	r.reconciler = reconcile.New(reconcile.Options{
		LoadConfig: r.loadConfig,
		Store:      r.store,
		Labels:     r.labels,
		Dispatcher: r.dispatcher,
		Advancer:   r.scheduler,
		Audit:      r.audit,
		Logger:     r.logger,
	})
	r.receiver, err = inbound.New(cfg.InboundMode, r.reconciler)
	return err
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Warn("close queue store", log.Err(err))
		}
	}
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth verifies the storage layer is reachable.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// Config returns the configuration the runtime started with.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// DB exposes the underlying store (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Store returns the queue store.
func (r *Runtime) Store() queue.Store { return r.store }

// Audit returns the audit log.
func (r *Runtime) Audit() *auditlog.Log { return r.audit }

// Settings returns the settings store.
func (r *Runtime) Settings() *settings.Store { return r.settings }

// Mailbox returns the mailbox backend.
func (r *Runtime) Mailbox() *mailbox.Maildir { return r.box }

// Dispatcher returns the outbound channel dispatcher.
func (r *Runtime) Dispatcher() *channel.Dispatcher { return r.dispatcher }

// Labels returns the label service.
func (r *Runtime) Labels() *labels.Service { return r.labels }

// Scheduler returns the work scheduler.
func (r *Runtime) Scheduler() *scheduler.Scheduler { return r.scheduler }

// Receiver returns the configured inbound receiver.
func (r *Runtime) Receiver() inbound.Receiver { return r.receiver }
