package importer

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrRunnerStopped is returned when a job is submitted after shutdown.
var ErrRunnerStopped = errors.New("import runner stopped")

type job struct {
	ctx      context.Context
	taskID   string
	filePath string
	result   chan jobResult
}

type jobResult struct {
	processed int
	err       error
}

// Runner confines import work to a fixed pool of workers. Submitting callers
// block until their import finishes, so the upload request stays synchronous
// while concurrent imports never exceed the worker count.
type Runner struct {
	pipeline *Pipeline
	jobs     chan job
	group    *errgroup.Group
	logger   *logrus.Entry
}

func NewRunner(pipeline *Pipeline, workers int, logger *logrus.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		pipeline: pipeline,
		jobs:     make(chan job, workers),
		group:    &errgroup.Group{},
		logger:   logger.WithField("component", "import-runner").WithField("workers", workers),
	}
}

// Start launches the workers. They drain the job channel until Stop closes it
// or ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	workers := cap(r.jobs)
	for i := 0; i < workers; i++ {
		r.group.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case j, ok := <-r.jobs:
					if !ok {
						return nil
					}
					processed, err := r.pipeline.Run(j.ctx, j.taskID, j.filePath)
					j.result <- jobResult{processed: processed, err: err}
				}
			}
		})
	}
	r.logger.Info("Import workers started")
}

// Stop closes the job queue and waits for in-flight imports to finish.
func (r *Runner) Stop() {
	close(r.jobs)
	if err := r.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.WithError(err).Warn("Import workers exited with error")
	}
	r.logger.Info("Import workers stopped")
}

// Run hands the file to a worker and blocks until the import finishes,
// returning the processed row count and the pipeline error, if any.
func (r *Runner) Run(ctx context.Context, taskID, filePath string) (int, error) {
	j := job{ctx: ctx, taskID: taskID, filePath: filePath, result: make(chan jobResult, 1)}

	select {
	case r.jobs <- j:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case res := <-j.result:
		return res.processed, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
