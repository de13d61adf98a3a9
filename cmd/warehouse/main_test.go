package main

import (
	"testing"
	"time"

	"warehouse/internal/config"
)

func TestRunTimestamp(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600)) }

	got, err := runTimestamp("", now)
	if err != nil || !got.Equal(now()) || got.Location() != time.UTC {
		t.Fatalf("runTimestamp(\"\") = %v, %v; want now in UTC", got, err)
	}
	got, err = runTimestamp("2024-11-03T15:20:00+01:00", now)
	if err != nil {
		t.Fatalf("runTimestamp: %v", err)
	}
	if want := time.Date(2024, 11, 3, 14, 20, 0, 0, time.UTC); !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("runTimestamp = %v, want %v", got, want)
	}
	if _, err := runTimestamp("yesterday", now); err == nil {
		t.Fatal("runTimestamp(yesterday) err = nil")
	}
}

func TestSetupMetrics_DisabledAndUnknownAreNop(t *testing.T) {
	for _, backend := range []string{"", "none", "graphite"} {
		flush := setupMetrics(config.Run{Job: "test", Metrics: config.Metrics{Backend: backend}}, true)
		if flush == nil {
			t.Fatalf("setupMetrics(%q) returned nil flush", backend)
		}
		flush()
	}
}
