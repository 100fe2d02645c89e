package queue

import (
	"fmt"

	"github.com/labelwire/labelwire/internal/config"
	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
)

// OpenStore builds the queue store selected by configuration. The embedded
// pebble DB is passed in either way; the dispatch lease and the rest of the
// runtime always live there.
func OpenStore(cfg config.Config, db *pebblestore.DB) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPebble, "":
		return OpenPebbleStore(db)
	case config.StoreBackendPostgres:
		return OpenPostgresStore(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
