package app

import (
	"testing"
	"time"

	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

func TestLoadConfigAttempts(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 3},
		{"1", 1},
		{"0", 1},
		{"-2", 1},
		{"5", 5},
	}
	for _, tc := range cases {
		t.Run("attempts="+tc.raw, func(t *testing.T) {
			t.Setenv("REASONING_MAX_ATTEMPTS", tc.raw)
			if got := LoadConfig(logger.Nop()).Reasoning.MaxAttempts; got != tc.want {
				t.Fatalf("MaxAttempts=%d want %d", got, tc.want)
			}
		})
	}
}

func TestLoadConfigFlightTimeout(t *testing.T) {
	t.Setenv("GRADING_FLIGHT_TIMEOUT_SECONDS", "90")
	cfg := LoadConfig(logger.Nop())
	if cfg.FlightTimeout != 90*time.Second {
		t.Fatalf("FlightTimeout=%s want 90s", cfg.FlightTimeout)
	}
	if cfg.Reasoning.RetryBase != 4*time.Second || cfg.Reasoning.RetryMax != 10*time.Second {
		t.Fatalf("retry delays=%s/%s", cfg.Reasoning.RetryBase, cfg.Reasoning.RetryMax)
	}
}
