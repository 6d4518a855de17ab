// Package logging provides structured logging for deckwatch using zap.
//
// Logging is silent by default so that CLI output stays clean. Set the
// DECKWATCH_LOG_LEVEL environment variable (debug, info, warn, error) or
// pass an explicit level to Initialize to enable console logging on stderr.
//
// The package exposes package-level helpers (Info, Debug, Warn, Error) that
// delegate to a shared *zap.Logger, plus protocol-debugging helpers that
// hex-dump raw datagrams and decoded state emits at debug level.
package logging
