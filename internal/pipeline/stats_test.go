package pipeline

import (
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for i, ms := range []int{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, i+1, i%2)
	}

	snap := stats.Snapshot()
	if snap.Jobs != 5 {
		t.Fatalf("expected jobs=5, got %d", snap.Jobs)
	}
	if snap.Declarations != 15 {
		t.Fatalf("expected declarations=15, got %d", snap.Declarations)
	}
	if snap.Warnings != 2 {
		t.Fatalf("expected warnings=2, got %d", snap.Warnings)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	now := time.Now()
	stats := NewStats(10 * time.Millisecond)
	stats.now = func() time.Time { return now }
	stats.Record(100*time.Millisecond, 1, 0)

	now = now.Add(25 * time.Millisecond)
	snap := stats.Snapshot()
	if snap.Jobs != 0 {
		t.Fatalf("expected jobs=0 after prune, got %d", snap.Jobs)
	}

	stats.Record(200*time.Millisecond, 3, 1)
	snap = stats.Snapshot()
	if snap.Jobs != 1 {
		t.Fatalf("expected jobs=1 for fresh sample, got %d", snap.Jobs)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
	if snap.Declarations != 3 || snap.Warnings != 1 {
		t.Fatalf("expected 3 declarations and 1 warning, got %d and %d", snap.Declarations, snap.Warnings)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(-10*time.Millisecond, 0, 0)
	snap := stats.Snapshot()
	if snap.Jobs != 1 {
		t.Fatalf("expected jobs=1, got %d", snap.Jobs)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
}

func TestStatsEmptySnapshot(t *testing.T) {
	if snap := NewStats(0).Snapshot(); snap != (StatsSnapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}
