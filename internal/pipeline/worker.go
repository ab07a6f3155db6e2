package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Worker runs queued jobs through a Runner.
type Worker struct {
	runner *Runner
	log    *slog.Logger
}

func NewWorker(runner *Runner, log *slog.Logger) *Worker {
	return &Worker{runner: runner, log: log}
}

// Process runs one job to completion and records the outcome on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()

	m, err := w.runner.Run(ctx, job.FileData(), job.Options(), job)
	if err != nil {
		log.Error("split failed", "kind", KindOf(err), "error", err)
		job.Fail(err)
		return
	}

	job.Complete(m)
	log.Info("split completed",
		"students", m.TotalStudents,
		"orphans", len(m.OrphanPages),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
