// Package startup runs the informational preload tasks of the client before
// it is considered ready.
package startup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"samayog/utils"
)

// Task is one preload step. Its error is logged, never returned to the
// caller of Run.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result records how one task ended.
type Result struct {
	Name    string
	Err     error
	Elapsed time.Duration
}

// Report is the outcome of a preload run.
type Report struct {
	Results []Result
	Elapsed time.Duration
}

// Failed returns the names of tasks that did not succeed.
func (r Report) Failed() []string {
	var names []string
	for _, res := range r.Results {
		if res.Err != nil {
			names = append(names, res.Name)
		}
	}
	return names
}

// Preloader runs tasks concurrently and holds the join open for at least
// MinDuration.
type Preloader struct {
	MinDuration time.Duration
	// TaskTimeout bounds each task when positive.
	TaskTimeout time.Duration
	Logger      *zap.Logger
}

// Run starts every task, waits for all of them and for MinDuration, and
// reports the outcome. A failing or panicking task does not affect the
// others. When ctx ends first, Run stops waiting and records ctx.Err() for
// every task still running.
func (p *Preloader) Run(ctx context.Context, tasks ...Task) Report {
	logger := utils.OrNop(p.Logger)
	start := time.Now()

	floor := time.NewTimer(p.MinDuration)
	defer floor.Stop()

	type outcome struct {
		index  int
		result Result
	}
	// Buffered so tasks that outlive Run can still deliver and exit.
	done := make(chan outcome, len(tasks))
	for i, task := range tasks {
		go func(i int, task Task) {
			taskStart := time.Now()
			err := p.runTask(ctx, task)
			done <- outcome{index: i, result: Result{Name: task.Name, Err: err, Elapsed: time.Since(taskStart)}}
		}(i, task)
	}

	results := make([]Result, len(tasks))
	finished := make([]bool, len(tasks))
collect:
	for pending := len(tasks); pending > 0; pending-- {
		select {
		case o := <-done:
			results[o.index] = o.result
			finished[o.index] = true
			logTask(logger, o.result)
		case <-ctx.Done():
			for i, task := range tasks {
				if !finished[i] {
					results[i] = Result{Name: task.Name, Err: ctx.Err(), Elapsed: time.Since(start)}
					logTask(logger, results[i])
				}
			}
			break collect
		}
	}

	select {
	case <-floor.C:
	case <-ctx.Done():
	}

	report := Report{Results: results, Elapsed: time.Since(start)}
	logger.Info("startup: preload finished",
		zap.Int("tasks", len(tasks)),
		zap.Strings("failed", report.Failed()),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report
}

func logTask(logger *zap.Logger, res Result) {
	if res.Err != nil {
		logger.Warn("startup: preload task failed",
			zap.String("task", res.Name), zap.Duration("elapsed", res.Elapsed), zap.Error(res.Err))
		return
	}
	logger.Debug("startup: preload task done",
		zap.String("task", res.Name), zap.Duration("elapsed", res.Elapsed))
}

func (p *Preloader) runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if task.Run == nil {
		return nil
	}
	if p.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.TaskTimeout)
		defer cancel()
	}
	return task.Run(ctx)
}
