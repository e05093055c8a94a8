// Package observability wires structured logging (zap), pipeline metrics
// (prometheus client_golang), and distributed tracing (OpenTelemetry OTLP).
package observability

import "go.uber.org/zap"

// NewLogger builds a zap.Logger configured for environment at logLevel,
// using zap's production-vs-development config split.
func NewLogger(environment, logLevel string) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	switch logLevel {
	case "trace", "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}
