// Package logging provides structured logging for roomclimate.
//
// This package wraps Go's standard log/slog package so the registry, the
// control loop and the infrastructure clients all emit the same shape of
// entry.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Component("control").Info("cycle complete", "rooms", 12)
//
// Attributes whose key contains password, secret, token or authorization are
// written as "[REDACTED]". That is a backstop: do not pass credentials to
// the logger in the first place. Debug level also records the source line.
package logging
