package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsTherapyContent(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"entry", "I felt small today",
		"memories", []interface{}{"fell off bike"},
		"password", "hunter2",
		"session_type", "inner-child-healing",
	})
	if len(out) != 8 {
		t.Fatalf("expected 8 kv items, got %d", len(out))
	}
	for _, i := range []int{1, 3, 5} {
		if out[i] != "[REDACTED]" {
			t.Fatalf("value for %v not redacted: %v", out[i-1], out[i])
		}
	}
	if out[7] != "inner-child-healing" {
		t.Fatalf("non-sensitive value changed: %v", out[7])
	}
}

func TestSanitizeKVsHashesIdentifiers(t *testing.T) {
	out := sanitizeKVs([]interface{}{"patient_id", "5f2b", "dangling"})
	got, ok := out[1].(string)
	if !ok || !strings.HasPrefix(got, "hash:") {
		t.Fatalf("expected hashed patient_id, got %v", out[1])
	}
	if out[2] != "dangling" {
		t.Fatalf("odd trailing key should pass through, got %v", out[2])
	}
}
