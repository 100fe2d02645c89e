package config

import (
	"os"
	"strconv"
)

// FromEnv overlays LW_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("LW_INSTANCE_TAG", &cfg.InstanceTag)
	str("LW_ACCOUNT_IDENTITY", &cfg.AccountIdentity)
	str("LW_CHANNEL_URL", &cfg.ChannelURL)
	str("LW_CALLBACK_URL", &cfg.CallbackURL)
	str("LW_CRON_SPEC", &cfg.CronSpec)
	str("LW_INBOUND_MODE", &cfg.InboundMode)
	str("LW_STORE_BACKEND", &cfg.StoreBackend)
	str("LW_POSTGRES_DSN", &cfg.PostgresDSN)
	str("LW_MAILBOX_DIR", &cfg.MailboxDir)
	str("LW_SCAN_FILTER", &cfg.ScanFilter)

	num("LW_BATCH_SIZE", &cfg.BatchSize)
	num("LW_RATE_LIMIT_MS", &cfg.RateLimitMs)
	num("LW_IN_FLIGHT_TIMEOUT_MIN", &cfg.InFlightTimeoutMin)
	num("LW_MAX_DISPATCH_ATTEMPTS", &cfg.MaxDispatchAttempts)
	num("LW_CONTEXT_MAX_CHARS", &cfg.ContextMaxChars)
	num("LW_AUDIT_RETENTION", &cfg.AuditRetention)
}
