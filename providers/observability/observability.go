package observability

import (
	"context"
	"time"
)

// Provider bundles the three signals chatlog emits while it loads, queries
// and exports a transcript. Every consumer accepts a nil Provider and then
// emits nothing.
type Provider interface {
	Tracer
	Metrics
	Logger
}

// Tracer opens spans around operations such as a load or an export.
type Tracer interface {
	// StartSpan returns a context carrying the new span.
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is one traced operation. End must be called exactly once.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	SetStatus(code StatusCode, description string)
	RecordError(err error)
	AddEvent(name string, attrs ...Attribute)
}

// StatusCode is the outcome recorded on a span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// Metrics hands out named instruments. Asking twice for the same name
// returns the same instrument.
type Metrics interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// Counter only goes up: skipped tool calls, failed token counts.
type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

// Histogram records a distribution of values.
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// Logger writes structured records. Trace sits below Debug.
type Logger interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute is a key/value pair attached to spans, metrics and log records.
// Keys should come from the Attr constants in semconv.go.
type Attribute struct {
	Key   string
	Value any
}

func attr(key string, value any) Attribute { return Attribute{Key: key, Value: value} }

func String(key, value string) Attribute                 { return attr(key, value) }
func Int(key string, value int) Attribute                { return attr(key, value) }
func Int64(key string, value int64) Attribute            { return attr(key, value) }
func Float64(key string, value float64) Attribute        { return attr(key, value) }
func Bool(key string, value bool) Attribute              { return attr(key, value) }
func Duration(key string, value time.Duration) Attribute { return attr(key, value) }

// Error stores err's message under AttrError; a nil error stores "".
func Error(err error) Attribute {
	if err == nil {
		return attr(AttrError, "")
	}
	return attr(AttrError, err.Error())
}
