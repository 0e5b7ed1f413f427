package observability

import (
	"errors"
	"testing"
	"time"
)

func TestAttributeConstructors(t *testing.T) {
	tests := []struct {
		name      string
		attr      Attribute
		wantKey   string
		wantValue any
	}{
		{"string", String("key", "value"), "key", "value"},
		{"int", Int("count", 42), "count", 42},
		{"int64", Int64("big", 9223372036854775807), "big", int64(9223372036854775807)},
		{"float64", Float64("ratio", 3.5), "ratio", 3.5},
		{"bool", Bool("flag", true), "flag", true},
		{"duration", Duration("latency", 5*time.Second), "latency", 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value != tt.wantValue {
				t.Errorf("value = %v, want %v", tt.attr.Value, tt.wantValue)
			}
		})
	}
}

func TestAttribute_Error(t *testing.T) {
	attr := Error(errors.New("test error"))
	if attr.Key != AttrError {
		t.Errorf("Expected key %q, got %q", AttrError, attr.Key)
	}
	if attr.Value != "test error" {
		t.Errorf("Expected value 'test error', got '%v'", attr.Value)
	}

	nilAttr := Error(nil)
	if nilAttr.Value != "" {
		t.Errorf("Expected empty value for nil error, got '%v'", nilAttr.Value)
	}
}
