// Package mailbox abstracts the message store the runtime scans and labels.
// The local implementation is a maildir-style directory of JSON messages with
// label sidecars; an fsnotify watcher turns new deliveries into scheduler
// kicks.
package mailbox
