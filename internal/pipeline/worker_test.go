package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/docnest/internal/config"
	"github.com/dgallion1/docnest/internal/diag"
)

const widgetJS = `/**
 * @cfg {Object} data Group data.
 * @cfg {String} data.title Group title.
 * @cfg {String} missing.name Lost.
 * @param {Object} opts Options.
 * @param {Boolean} opts.silent Quiet mode.
 */
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_ProcessNestsDeclarations(t *testing.T) {
	stats := NewStats(time.Hour)
	w := NewWorker(discardLogger(), WorkerConfig{}, stats)
	job := NewJob("widget.js", "", "", []byte(widgetJS))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Declarations != 4 {
		t.Errorf("expected 4 surviving declarations, got %d", snap.Progress.Declarations)
	}
	if snap.Progress.Warnings != 1 {
		t.Errorf("expected 1 warning, got %d", snap.Progress.Warnings)
	}
	if job.FileData() != nil {
		t.Error("expected upload to be released after parsing")
	}

	tree, warnings := job.Result()
	tags := tree.Comments[0].Tags
	if len(tags) != 2 {
		t.Fatalf("expected 2 root declarations, got %d", len(tags))
	}
	if tags[0].Name != "data" || len(tags[0].Children) != 1 || tags[0].Children[0].Name != "title" {
		t.Errorf("expected data > title, got %+v", tags[0])
	}
	if tags[1].Name != "opts" || len(tags[1].Children) != 1 || tags[1].Children[0].Name != "silent" {
		t.Errorf("expected opts > silent, got %+v", tags[1])
	}
	if warnings[0].Code != diag.CodeSubproperty || warnings[0].File != "widget.js" || warnings[0].Line != 1 {
		t.Errorf("unexpected warning %+v", warnings[0])
	}

	if got := stats.Snapshot(); got.Jobs != 1 || got.Declarations != 4 || got.Warnings != 1 {
		t.Errorf("unexpected stats %+v", got)
	}
}

func TestWorker_MalformedHeadOptIn(t *testing.T) {
	src := `[{"name": "a.b"}, {"name": "c"}]`

	quiet := NewJob("recs.json", "", "", []byte(src))
	NewWorker(discardLogger(), WorkerConfig{}, nil).Process(context.Background(), quiet)
	if snap := quiet.Snapshot(); snap.Progress.Declarations != 1 || snap.Progress.Warnings != 0 {
		t.Errorf("expected 1 declaration and no warnings, got %+v", snap.Progress)
	}

	loud := NewJob("recs.json", "", "", []byte(src))
	NewWorker(discardLogger(), WorkerConfig{WarnMalformedHead: true}, nil).Process(context.Background(), loud)
	_, warnings := loud.Result()
	if len(warnings) != 1 || warnings[0].Code != diag.CodeMalformedHead {
		t.Errorf("expected one malformed_head warning, got %+v", warnings)
	}
}

func TestWorker_DiagnosticLimit(t *testing.T) {
	src := `[{"name": "x"}, {"name": "a.b"}, {"name": "c.d"}, {"name": "e.f"}]`
	job := NewJob("recs.json", "", "", []byte(src))
	stats := NewStats(time.Hour)
	NewWorker(discardLogger(), WorkerConfig{MaxDiagnostics: 2}, stats).Process(context.Background(), job)

	_, warnings := job.Result()
	if len(warnings) != 2 {
		t.Errorf("expected warnings capped at 2, got %d", len(warnings))
	}
	if got := stats.Snapshot().Warnings; got != 3 {
		t.Errorf("expected stats to count all 3 warnings, got %d", got)
	}
}

func TestWorker_Failures(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		phase    string
	}{
		{"unsupported", "notes.docx", "x", "parsing"},
		{"bad json", "recs.json", "{", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewJob(tt.filename, "", "", []byte(tt.data))
			NewWorker(discardLogger(), WorkerConfig{}, nil).Process(context.Background(), job)
			snap := job.Snapshot()
			if snap.Status != StatusFailed {
				t.Fatalf("expected failed, got %q", snap.Status)
			}
			if snap.Phase != tt.phase {
				t.Errorf("expected phase %q, got %q", tt.phase, snap.Phase)
			}
			if len(snap.Progress.Errors) == 0 {
				t.Error("expected an error to be recorded")
			}
		})
	}
}

func TestWorker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job := NewJob("widget.js", "", "", []byte(widgetJS))
	NewWorker(discardLogger(), WorkerConfig{}, nil).Process(ctx, job)
	if snap := job.Snapshot(); snap.Status != StatusFailed || snap.Phase != "cancelled" {
		t.Errorf("expected cancelled failure, got %q/%q", snap.Status, snap.Phase)
	}
}

func TestOrchestrator_ProcessesSubmittedJobs(t *testing.T) {
	cfg := config.Default()
	cfg.WorkerCount = 2
	o := NewOrchestrator(cfg, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("widget.js", "Widget", "", []byte(widgetJS))
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected job to be registered")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Done() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for job")
		}
		time.Sleep(5 * time.Millisecond)
	}
	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", snap.Status)
	}
	if snap.Title != "Widget" {
		t.Errorf("expected submitted title to win, got %q", snap.Title)
	}
	if o.Stats().Snapshot().Jobs != 1 {
		t.Errorf("expected one job in stats")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Default()
	cfg.MaxQueueSize = 1
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(cfg, discardLogger())

	if err := o.Submit(NewJob("a.js", "", "", nil)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
	second := NewJob("b.js", "", "", nil)
	err := o.Submit(second)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if snap := second.Snapshot(); snap.Status != StatusFailed || snap.Phase != "queue_full" {
		t.Errorf("expected rejected job to be failed, got %q/%q", snap.Status, snap.Phase)
	}
	o.Stop()
	o.Stop()
}
