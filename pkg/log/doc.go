// Package log provides eventcore's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that preserves our existing
// formatter/outputs pipeline. This allows adoption of the slog ecosystem
// while keeping consistent output and behavior across the codebase.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("topicrepo"), log.Str("topic", "orders.created"))
//	l.Info("batch published", log.Int("items", 8))
//
// # Interop
//
// RedirectStdLog routes output from the standard library "log" package
// (used internally by dependencies such as Pebble) through a Logger.
package log
