// Package log provides application-level logging defaults for services.
//
// This package creates and configures loggers with appropriate settings based
// on the environment (production or non-production) and service name:
//
// - In non-production environments: Debug level with readable text output
// - In production environments: Info level with structured JSON output and a
//   blocking overflow strategy so entries are never dropped under pressure
// - Service name and environment included as additional fields in all log entries
//
// This package is intended to be the primary entry point for applications using
// the logger package, providing a simple way to create well-configured loggers
// for different environments.
//
// Usage:
//
//	log, err := log.New("development", "user-service")
//	if err != nil {
//		panic(err)
//	}
//
//	log.Info("Service started successfully")
//	log.WithField("user", userID).Debug("User authenticated")
package log

import (
	"os"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/transitlog"
	"github.com/hyp3rd/transitlog/internal/constants"
)

// New creates a logger instance with sensible defaults for the specified
// environment and service. Non-production environments get debug level with
// colored text output; everything else gets info level JSON output with a
// blocking overflow strategy. The service and environment names are attached
// to every entry as structured fields.
func New(environment, service string) (transitlog.Logger, error) {
	cfg := transitlog.DefaultConfig()
	cfg.Output = os.Stdout

	if environment == constants.NonProductionEnvironment {
		cfg.Level = transitlog.DebugLevel
		cfg.EnableJSON = false
	} else {
		cfg.Level = transitlog.InfoLevel
		cfg.EnableJSON = true
		cfg.Color.Enable = false
		cfg.OverflowStrategy = transitlog.OverflowBlock
	}

	cfg.AdditionalFields = []transitlog.Field{
		{Key: "service", Value: service},
		{Key: "environment", Value: environment},
	}

	log, err := transitlog.New(cfg)
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to create logger")
	}

	return log, nil
}
