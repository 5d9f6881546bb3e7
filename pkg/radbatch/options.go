package radbatch

import (
	logAdapter "github.com/bft-labs/radbatch/internal/adapters/log"
	"github.com/bft-labs/radbatch/internal/ports"
)

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// Extractor computes the features of one image/mask pair.
type Extractor = ports.Extractor

// Option configures optional behavior of a Batch.
type Option func(*options)

type options struct {
	logger       ports.Logger
	eventHandler EventHandler
	extractor    ports.Extractor
	host         *HostInfo
	version      string
}

func defaultOptions() options {
	return options{
		logger:  logAdapter.NewNoopLogger(),
		version: "dev",
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, or nil, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventHandler sets a handler for per-case events.
// Events are called synchronously from the batch loop.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithExtractor replaces the backend selected by Config.Extractor.
// The caller owns its resources; Close does not release them.
func WithExtractor(e Extractor) Option {
	return func(o *options) {
		o.extractor = e
	}
}

// WithHostInfo records h in the run status instead of probing the machine.
func WithHostInfo(h HostInfo) Option {
	return func(o *options) {
		o.host = &h
	}
}

// WithVersion sets the version reported in the diagnostic features.
func WithVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.version = v
		}
	}
}
