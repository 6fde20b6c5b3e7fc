package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"student_id", "s-100",
		"api_key", "sk-live",
		"question_id", "PHY-1",
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("len=%d want 7: %v", len(out), out)
	}
	if h, _ := out[1].(string); !strings.HasPrefix(h, "hash:") || strings.Contains(h, "s-100") {
		t.Fatalf("student_id not hashed: %v", out[1])
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("api_key not redacted: %v", out[3])
	}
	if out[5] != "PHY-1" {
		t.Fatalf("question_id changed: %v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key lost: %v", out[6])
	}
}

func TestHashValueStable(t *testing.T) {
	if hashValue("abc") != hashValue("abc") {
		t.Fatalf("hash not stable")
	}
	if hashValue("") != "" {
		t.Fatalf("empty value should hash to empty")
	}
}
