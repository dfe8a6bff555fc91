package settings

import "time"

// LogEvent describes a store or filter operation for logging.
type LogEvent struct {
	Op       string
	Key      string
	Hook     string
	Engine   string
	Duration time.Duration
	Err      error
}

// Logger records store events. Implementations adapt to whatever logging
// stack hosts the store.
type Logger interface {
	LogOperation(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogOperation implements Logger.
func (f LoggerFunc) LogOperation(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogOperation(LogEvent) {}

// WithLogger attaches a logger to the Store.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
