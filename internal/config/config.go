package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Inbound delivery variants. Webhook is the implemented path; Listener is a
// placeholder that reports not-implemented when selected.
const (
	InboundModeWebhook  = "webhook"
	InboundModeListener = "listener"
)

// Queue store backends.
const (
	StoreBackendPebble   = "pebble"
	StoreBackendPostgres = "postgres"
)

// Config is the top-level configuration loaded from file/env. Entry points
// receive it explicitly; each scheduler invocation works from the copy it was
// handed rather than ambient global state.
type Config struct {
	// InstanceTag identifies this worker on the chat channel.
	InstanceTag string `json:"instanceTag" yaml:"instanceTag"`
	// AccountIdentity is the mailbox account this worker labels for.
	AccountIdentity string `json:"accountIdentity" yaml:"accountIdentity"`
	// ChannelURL is the Hub's chat channel endpoint for outbound posts.
	ChannelURL string `json:"channelUrl" yaml:"channelUrl"`
	// CallbackURL is this instance's webhook address as seen by the Hub.
	CallbackURL string `json:"callbackUrl" yaml:"callbackUrl"`

	// BatchSize bounds how many mailbox items one scan may enqueue.
	BatchSize int `json:"batchSize" yaml:"batchSize"`
	// RateLimitMs is the inter-label sleep during batch label application.
	RateLimitMs int `json:"rateLimitMs" yaml:"rateLimitMs"`
	// CronSpec drives the periodic scheduler tick.
	CronSpec string `json:"cronSpec" yaml:"cronSpec"`
	// InFlightTimeoutMin reverts a stale posted item back to queued after this
	// many minutes. Zero disables the timeout.
	InFlightTimeoutMin int `json:"inFlightTimeoutMin" yaml:"inFlightTimeoutMin"`
	// MaxDispatchAttempts bounds how often a reclaimed item is re-dispatched
	// before it is parked in the error state.
	MaxDispatchAttempts int `json:"maxDispatchAttempts" yaml:"maxDispatchAttempts"`
	// ContextMaxChars truncates item bodies sent to the oracle.
	ContextMaxChars int `json:"contextMaxChars" yaml:"contextMaxChars"`
	// AuditRetention keeps the most recent N audit entries.
	AuditRetention int `json:"auditRetention" yaml:"auditRetention"`

	// InboundMode selects how label decisions arrive: webhook or listener.
	InboundMode string `json:"inboundMode" yaml:"inboundMode"`
	// StoreBackend selects the queue store: pebble or postgres.
	StoreBackend string `json:"storeBackend" yaml:"storeBackend"`
	// PostgresDSN is required when StoreBackend is postgres.
	PostgresDSN string `json:"postgresDsn" yaml:"postgresDsn"`
	// MailboxDir is the local maildir-style item source directory.
	MailboxDir string `json:"mailboxDir" yaml:"mailboxDir"`
	// ScanFilter is an optional CEL expression over item metadata deciding
	// queue eligibility (e.g. `source != "noreply@example.com"`).
	ScanFilter string `json:"scanFilter" yaml:"scanFilter"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		InstanceTag:         "labelwire",
		BatchSize:           10,
		RateLimitMs:         1100,
		CronSpec:            "*/15 * * * *",
		InFlightTimeoutMin:  60,
		MaxDispatchAttempts: 3,
		ContextMaxChars:     10000,
		AuditRetention:      500,
		InboundMode:         InboundModeWebhook,
		StoreBackend:        StoreBackendPebble,
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is
// empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations the runtime cannot serve.
func (c Config) Validate() error {
	switch c.InboundMode {
	case InboundModeWebhook, InboundModeListener:
	default:
		return fmt.Errorf("invalid inboundMode %q", c.InboundMode)
	}
	switch c.StoreBackend {
	case StoreBackendPebble:
	case StoreBackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("storeBackend postgres requires postgresDsn")
		}
	default:
		return fmt.Errorf("invalid storeBackend %q", c.StoreBackend)
	}
	if c.BatchSize <= 0 {
		return errors.New("batchSize must be positive")
	}
	return nil
}
