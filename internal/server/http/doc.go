// Package httpserver exposes the instance's HTTP endpoints: health, the
// inbound webhook, the command API, and queue inspection for the CLI.
package httpserver
