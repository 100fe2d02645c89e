// Package queue implements the persistent work queue driving labelwire's
// single-item-at-a-time labeling loop.
//
// # Lifecycle
//
//	queued -> posted -> deleted (on successful resolution)
//	                 -> error   (resolution failed; kept for manual review)
//	posted -> queued           (stale in-flight reclaim, attempt counter bumped)
//
// At most one item store-wide is posted at any time. The Scheduler enforces
// this by checking for an existing posted item and guarding the
// select-and-mark critical section with a DispatchLease.
//
// # Backends
//
// Two Store implementations exist, selected by configuration: PebbleStore in
// the embedded ordered store (insertion-ordered seq keys plus an id index)
// and PostgresStore (bigserial FIFO table). Items deduplicate by external id
// in both.
package queue
