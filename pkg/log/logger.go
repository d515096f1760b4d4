package log

// Logger is the interface applications implement to receive hardware trace
// events. Pass nil or NoopLogger to disable tracing.
type Logger interface {
	// Log records a trace event. Implementations must be thread-safe.
	// The event should be processed quickly or queued; blocking stalls
	// the attach path.
	Log(event Event)
}

// NoopLogger discards all events. Use when tracing is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}

// OrNoop returns l, or NoopLogger when l is nil. Callers use it so a nil
// Logger in a config struct never has to be checked at each event site.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

// TeeLogger fans every event out to multiple loggers.
type TeeLogger struct {
	loggers []Logger
}

// Tee returns a logger that forwards each event to every non-nil logger
// in loggers, in order.
func Tee(loggers ...Logger) *TeeLogger {
	t := &TeeLogger{}
	for _, l := range loggers {
		if l != nil {
			t.loggers = append(t.loggers, l)
		}
	}
	return t
}

// Log forwards the event to every underlying logger.
func (t *TeeLogger) Log(event Event) {
	for _, l := range t.loggers {
		l.Log(event)
	}
}

var _ Logger = (*TeeLogger)(nil)
