// Package logging builds the application's structured logger, optionally
// configured from the document's "log" section.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kyrelabs/keel/config"
)

// Key is the configuration section consulted by FromDocument.
const Key = "log"

// Config is the optional "log" section of the configuration document.
type Config struct {
	// Level is a zap level name ("debug", "info", "warn", ...). Empty means "info".
	Level string `toml:"level" yaml:"level"`
	// Encoding is "json" or "console". Empty means "json".
	Encoding string `toml:"encoding" yaml:"encoding"`
	// Development switches to zap's development defaults (console encoding,
	// debug level, stacktraces on warnings).
	Development bool `toml:"development" yaml:"development"`
}

// New creates a production-ready structured logger configured for JSON output.
func New() (*zap.Logger, error) {
	return build(Config{})
}

// FromDocument builds a logger from the document's "log" section, falling back
// to New's defaults when the document or the section is absent.
func FromDocument(doc *config.Document) (*zap.Logger, error) {
	if doc == nil || !doc.Has(Key) {
		return New()
	}
	section, err := config.Section[Config](doc, Key)
	if err != nil {
		return nil, err
	}
	return build(section)
}

func build(c Config) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if c.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	if c.Encoding != "" {
		cfg.Encoding = c.Encoding
	}
	if c.Level != "" {
		level, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.DisableStacktrace = false

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
