package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docnest/internal/diag"
	"github.com/dgallion1/docnest/internal/parser"
	"github.com/dgallion1/docnest/internal/subprop"
)

// WorkerConfig holds the nesting options a worker applies to every job.
type WorkerConfig struct {
	WarnMalformedHead bool
	MaxDiagnostics    int
}

// Worker processes a single document job.
type Worker struct {
	log   *slog.Logger
	cfg   WorkerConfig
	stats *Stats
}

func NewWorker(log *slog.Logger, cfg WorkerConfig, stats *Stats) *Worker {
	return &Worker{log: log, cfg: cfg, stats: stats}
}

// Process parses the job's upload and nests every comment's declarations.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	start := time.Now()

	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "cancelled")
		return
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.releaseFileData()
	if job.Title != "" {
		tree.Title = job.Title
	}
	log.Info("parsed document", "comments", len(tree.Comments))

	// Phase 2: Nest
	job.SetStatus(StatusNesting, "nesting")
	bag := diag.NewBag(w.cfg.MaxDiagnostics)
	n := subprop.Nester{
		Sink:              diag.Multi{bag, diag.SlogSink{Log: log}},
		WarnMalformedHead: w.cfg.WarnMalformedHead,
	}
	decls := n.NestTree(tree)
	bag.Sort()
	warnings := bag.Items()
	if dropped := bag.Dropped(); dropped > 0 {
		log.Warn("diagnostics truncated", "kept", len(warnings), "dropped", dropped)
	}

	job.SetResult(tree, decls, warnings)
	job.SetStatus(StatusCompleted, "done")

	elapsed := time.Since(start)
	if w.stats != nil {
		w.stats.Record(elapsed, decls, len(warnings)+bag.Dropped())
	}
	log.Info("nesting complete",
		"declarations", decls,
		"warnings", len(warnings),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}
