package mailbox

import (
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/labelwire/labelwire/pkg/log"
)

// Watcher observes a maildir for new or rewritten message files and kicks the
// scheduler's on-demand trigger. Kicks coalesce: a full channel means a pass
// is already pending.
type Watcher struct {
	fs     *fsnotify.Watcher
	kick   chan<- struct{}
	logger log.Logger
	done   chan struct{}
}

// WatchDir starts watching dir and sends on kick when message files change.
func WatchDir(dir string, kick chan<- struct{}, logger log.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, err
	}
	w := &Watcher{
		fs:     fs,
		kick:   kick,
		logger: logger.WithComponent("mailbox.watcher"),
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !interesting(ev) {
				continue
			}
			w.logger.Debug("mailbox change", log.Str("file", ev.Name), log.Str("op", ev.Op.String()))
			select {
			case w.kick <- struct{}{}:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("mailbox watch error", log.Err(err))
		}
	}
}

func interesting(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := ev.Name
	if !strings.HasSuffix(name, messageExt) {
		return false
	}
	// Sidecar and inventory writes are our own output, not new mail.
	if strings.HasSuffix(name, labelsSidecar+messageExt) || strings.HasSuffix(name, inventoryFile) {
		return false
	}
	return true
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}
