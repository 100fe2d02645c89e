package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	cfgpkg "github.com/labelwire/labelwire/internal/config"
	"github.com/labelwire/labelwire/internal/mailbox"
	"github.com/labelwire/labelwire/internal/runtime"
	httpserver "github.com/labelwire/labelwire/internal/server/http"
	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
	logpkg "github.com/labelwire/labelwire/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type Options struct {
	DataDir    string
	HTTPAddr   string
	ConfigPath string
	Fsync      pebblestore.FsyncMode
	Config     cfgpkg.Config
}

// Run starts the HTTP server, scheduler, and mailbox watcher and blocks until
// ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context: layer a
	// local signal context over the provided one.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	storeDir := filepath.Join(opts.DataDir, "store")

	// Process-wide logger from env; defaults: level=info, format=text.
	logCfg := &logpkg.Config{
		Level:  getenvDefault("LW_LOG_LEVEL", "info"),
		Format: getenvDefault("LW_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(logCfg)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(logCfg.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	// Redirect stdlib logs (e.g. Pebble) to our logger.
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(runtime.Options{
		DataDir:    storeDir,
		Fsync:      opts.Fsync,
		ConfigPath: opts.ConfigPath,
		Config:     opts.Config,
		Logger:     procLogger,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.Config()
	procLogger.Info("starting labelwire",
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("instance", cfg.InstanceTag),
		logpkg.Str("mailbox", cfg.MailboxDir),
		logpkg.Str("cron", cfg.CronSpec),
		logpkg.Str("level", logCfg.Level),
		logpkg.Str("format", logCfg.Format),
	)

	hsrv := httpserver.New(rt, procLogger)

	watcher, err := mailbox.WatchDir(cfg.MailboxDir, rt.Scheduler().Trigger(), procLogger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server", logpkg.Err(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := rt.Scheduler().Run(sctx); err != nil && sctx.Err() == nil {
			procLogger.Error("scheduler", logpkg.Err(err))
		}
	}()

	<-sctx.Done()
	// Shut the server down before the runtime/DB to avoid races.
	hsrv.Close()
	wg.Wait()
	return nil
}
