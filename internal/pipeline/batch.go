package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ironsheep/pcb-toolpath/internal/gcode"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// Job is one independent pipeline run.
type Job struct {
	// Name identifies the job in results and logs, typically the input path.
	Name      string
	Input     []byte
	Operation profile.Operation
	Profile   *profile.Profile

	// Timeout, when positive, bounds this job alone.
	Timeout time.Duration
}

// Result is the outcome of one Job.
type Result struct {
	Name     string
	Toolpath *gcode.Toolpath
	Err      error
}

// RunBatch runs jobs on at most workers goroutines and returns one Result
// per job, in job order. workers <= 0 uses one worker per CPU. A failing
// job does not stop the others; cancelling ctx fails the jobs not yet
// finished with ctx.Err().
func (pl *Pipeline) RunBatch(ctx context.Context, jobs []Job, workers int) []Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(jobs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for i, job := range jobs {
		results[i].Name = job.Name
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, job Job) {
			defer wg.Done()
			defer func() { <-sem }()

			jobCtx := ctx
			if job.Timeout > 0 {
				var cancel context.CancelFunc
				jobCtx, cancel = context.WithTimeout(ctx, job.Timeout)
				defer cancel()
			}

			tp, err := pl.RunContext(jobCtx, job.Input, job.Operation, job.Profile)
			if err != nil {
				pl.logger.Warn("job failed", "job", job.Name, "operation", job.Operation, "error", err)
			}
			results[i].Toolpath = tp
			results[i].Err = err
		}(i, job)
	}

	wg.Wait()
	return results
}

// RunBatch runs jobs with the default pipeline.
func RunBatch(ctx context.Context, jobs []Job, workers int) []Result {
	return defaultPipeline.RunBatch(ctx, jobs, workers)
}
