// Package auditlog keeps the append-only audit trail of queue actions:
// enqueues, dispatches, webhook receipts, label applications, and failures.
// Entries are crc-checked records under big-endian sequence keys; a retention
// pass keeps only the most recent N.
package auditlog
