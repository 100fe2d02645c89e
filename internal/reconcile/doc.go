// Package reconcile turns inbound label decisions into queue transitions:
// apply labels to the mailbox, confirm on the channel, delete the item, and
// advance the queue to the next one.
package reconcile
