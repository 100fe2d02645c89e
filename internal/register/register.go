// Package register performs the channel handshake announcing this instance,
// its callback address, and the mailbox account it labels for.
package register

import (
	"context"
	"fmt"

	"github.com/labelwire/labelwire/internal/auditlog"
	"github.com/labelwire/labelwire/internal/channel"
	"github.com/labelwire/labelwire/internal/config"
	"github.com/labelwire/labelwire/internal/protocol"
	"github.com/labelwire/labelwire/internal/settings"
	"github.com/labelwire/labelwire/pkg/log"
)

// Register posts the REGISTER announcement and records the handshake locally.
// Idempotent: re-running overwrites the stored record. There is no
// acknowledgment from the channel; delivery is the success criterion.
func Register(ctx context.Context, cfg config.Config, d *channel.Dispatcher, st *settings.Store, audit *auditlog.Log, logger log.Logger) (settings.Registration, error) {
	msg := protocol.Message{
		InstanceTag: cfg.InstanceTag,
		Type:        protocol.TypeRegister,
		Body:        fmt.Sprintf("callback: %s\naccount: %s", cfg.CallbackURL, cfg.AccountIdentity),
	}
	if !d.Send(ctx, msg) {
		return settings.Registration{}, fmt.Errorf("register: channel did not accept announcement")
	}

	rec, err := st.MarkRegistered(cfg.InstanceTag, cfg.AccountIdentity)
	if err != nil {
		return settings.Registration{}, err
	}
	logger.Info("instance registered",
		log.Str("instance", cfg.InstanceTag), log.Str("account", cfg.AccountIdentity))
	if _, err := audit.Append(ctx, auditlog.Entry{
		Action:  "register",
		Details: cfg.CallbackURL,
		Result:  "announced",
	}); err != nil {
		logger.Warn("audit append failed", log.Err(err))
	}
	return rec, nil
}
