// Package log provides labelwire's structured logging facade and utilities.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that preserves the
// formatter/outputs pipeline, so output stays consistent across the codebase
// while the slog ecosystem remains available.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("scheduler"))
//	l.Info("tick complete", log.Int("enqueued", 3))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting JSON
// or text formatting.
//
// # Interop
//
// To integrate with libraries expecting *log.Logger, use ToStdLogger or
// RedirectStdLog.
package log
