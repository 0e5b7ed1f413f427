// Package observability defines the interfaces and semantic conventions used
// for tracing, metrics collection, and structured logging throughout chatlog.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics],
// and [Logger] into a single injectable dependency. The history engine takes
// one through its options; stores and the CLI propagate one through a
// [context.Context] using [ContextWithObserver] and [ContextWithSpan].
//
// The semconv.go file contains the attribute-key, span, event and metric
// names that should be used when recording observations.
package observability
