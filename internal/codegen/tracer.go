package codegen

import "go.uber.org/zap"

// Tracer is the sink for register-assignment diagnostics. With tracing off it
// wraps a no-op logger, so trace calls on the hot path cost a branch and
// nothing else.
type Tracer struct {
	log     *zap.SugaredLogger
	enabled bool
}

// NewTracer returns a Tracer writing through the given logger. A nil logger
// disables tracing.
func NewTracer(logger *zap.Logger) *Tracer {
	if logger == nil {
		return &Tracer{log: zap.NewNop().Sugar()}
	}
	return &Tracer{log: logger.Sugar(), enabled: true}
}

// Enabled reports whether trace output is being recorded.
func (t *Tracer) Enabled() bool { return t.enabled }

// Tracef records one register-assignment diagnostic line.
func (t *Tracer) Tracef(format string, args ...interface{}) {
	if t.enabled {
		t.log.Debugf(format, args...)
	}
}
