// Package scheduler drives the work loop: a cron-scheduled periodic pass plus
// on-demand kicks from the mailbox watcher, CLI, and webhook handling. Each
// pass reloads config, reclaims stale in-flight items, scans the mailbox into
// the queue, and dispatches at most one item under the dispatch lease.
package scheduler
