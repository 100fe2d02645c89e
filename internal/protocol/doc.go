// Package protocol implements the wire formats labelwire speaks: the
// line-oriented chat message codec used on the outbound channel, the JSON
// webhook payloads used on the inbound path, and oracle label-list parsing.
package protocol
