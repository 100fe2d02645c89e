// Package config loads and validates labelwire configuration from file and
// environment. Entry points receive a Config explicitly; ticks reload it once
// per invocation instead of reading ambient global state.
package config
