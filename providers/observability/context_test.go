package observability

import (
	"context"
	"testing"
)

type mockSpan struct{ name string }

func (m *mockSpan) End()                                          {}
func (m *mockSpan) SetAttributes(attrs ...Attribute)              {}
func (m *mockSpan) SetStatus(code StatusCode, description string) {}
func (m *mockSpan) RecordError(err error)                         {}
func (m *mockSpan) AddEvent(name string, attrs ...Attribute)      {}

type mockProvider struct{}

func (m *mockProvider) StartSpan(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, &mockSpan{}
}
func (m *mockProvider) Counter(_ string) Counter                          { return nil }
func (m *mockProvider) Histogram(_ string) Histogram                      { return nil }
func (m *mockProvider) Trace(_ context.Context, _ string, _ ...Attribute) {}
func (m *mockProvider) Debug(_ context.Context, _ string, _ ...Attribute) {}
func (m *mockProvider) Info(_ context.Context, _ string, _ ...Attribute)  {}
func (m *mockProvider) Warn(_ context.Context, _ string, _ ...Attribute)  {}
func (m *mockProvider) Error(_ context.Context, _ string, _ ...Attribute) {}

//nolint:staticcheck // intentionally passing a nil context
func TestSpanFromContext_Nil(t *testing.T) {
	if span := SpanFromContext(nil); span != nil {
		t.Errorf("Expected nil span from nil context, got %v", span)
	}
}

func TestSpanFromContext_Empty(t *testing.T) {
	if span := SpanFromContext(context.Background()); span != nil {
		t.Errorf("Expected nil span from empty context, got %v", span)
	}
}

func TestContextWithSpan_RoundTrip(t *testing.T) {
	span := &mockSpan{name: "export"}
	ctx := ContextWithSpan(context.Background(), span)

	got, ok := SpanFromContext(ctx).(*mockSpan)
	if !ok || got != span {
		t.Fatalf("Expected the stored span back, got %v", SpanFromContext(ctx))
	}
}

//nolint:staticcheck // intentionally passing a nil context
func TestContextWithSpan_NilContext(t *testing.T) {
	ctx := ContextWithSpan(nil, &mockSpan{})
	if ctx == nil {
		t.Fatal("Expected a non-nil context")
	}
	if SpanFromContext(ctx) == nil {
		t.Error("Expected span to be retrievable from context created from nil")
	}
}

func TestContextWithObserver_RoundTrip(t *testing.T) {
	observer := &mockProvider{}
	ctx := ContextWithObserver(context.Background(), observer)

	if got := ObserverFromContext(ctx); got != observer {
		t.Errorf("Expected stored observer, got %v", got)
	}
}

func TestObserverFromContext_Missing(t *testing.T) {
	if got := ObserverFromContext(context.Background()); got != nil {
		t.Errorf("Expected nil observer, got %v", got)
	}
	ctx := ContextWithSpan(context.Background(), &mockSpan{})
	if got := ObserverFromContext(ctx); got != nil {
		t.Errorf("Span key must not satisfy observer lookup, got %v", got)
	}
}
