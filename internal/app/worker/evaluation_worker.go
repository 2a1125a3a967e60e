package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"
	"daily_judge/internal/domain/verdict"
	"daily_judge/internal/platform/queue"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const statLockPrefix = "stat_lock:"

type Evaluator interface {
	Evaluate(ctx context.Context, job *model.EvaluationJob) (*verdict.Report, *model.SubmissionStat, error)
}

type JobQueue interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	Requeue(ctx context.Context, jobID string) error
}

type Options struct {
	PopTimeout   time.Duration
	LockTTL      time.Duration
	MaxRequeue   int
	RequeueDelay time.Duration
}

// EvaluationWorker drains the evaluation queue one job at a time. Jobs for
// the same (user, problem) pair never run concurrently: each holds the
// stat lock while it evaluates.
type EvaluationWorker struct {
	rdb       *redis.Client
	queue     JobQueue
	jobs      repository.EvaluationJobRepository
	evaluator Evaluator
	opts      Options
	logger    *log.Entry
}

func NewEvaluationWorker(rdb *redis.Client, q JobQueue, jobs repository.EvaluationJobRepository, evaluator Evaluator, opts Options) *EvaluationWorker {
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 5 * time.Second
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	if opts.MaxRequeue <= 0 {
		opts.MaxRequeue = 20
	}
	return &EvaluationWorker{
		rdb:       rdb,
		queue:     q,
		jobs:      jobs,
		evaluator: evaluator,
		opts:      opts,
		logger:    log.WithField("from", "evaluation worker"),
	}
}

// Run processes jobs until ctx is cancelled.
func (w *EvaluationWorker) Run(ctx context.Context) {
	w.logger.Info("evaluation worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info("evaluation worker stopping")
			return
		}
		if _, err := w.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Errorf("queue error: %v", err)
			sleep(ctx, time.Second)
		}
	}
}

// ProcessNext pops one job id and handles it. It reports false when the
// queue stayed empty for the pop timeout.
func (w *EvaluationWorker) ProcessNext(ctx context.Context) (bool, error) {
	jobID, err := w.queue.Pop(ctx, w.opts.PopTimeout)
	if err != nil {
		if errors.Is(err, queue.ErrEmpty) {
			return false, nil
		}
		return false, fmt.Errorf("pop evaluation job: %w", err)
	}
	w.handle(ctx, jobID)
	return true, nil
}

func (w *EvaluationWorker) handle(ctx context.Context, jobID string) {
	logger := w.logger.WithField("job", jobID)

	job, err := w.jobs.FindByID(ctx, jobID)
	if err != nil {
		// expired or never stored
		logger.Warnf("dropping job: %v", err)
		return
	}
	if job.Done() {
		logger.Infof("job already %s", job.Status)
		return
	}

	lockKey := statLockPrefix + model.StatID(job.UserID, job.ProblemID)
	lock, ok, err := queue.TryLock(ctx, w.rdb, lockKey, w.opts.LockTTL)
	if err != nil {
		logger.Errorf("lock %s: %v", lockKey, err)
		w.requeue(ctx, job, logger)
		return
	}
	if !ok {
		logger.Infof("%s is busy", lockKey)
		w.requeue(ctx, job, logger)
		return
	}
	defer func() {
		released, err := lock.Release(context.WithoutCancel(ctx))
		switch {
		case err != nil:
			logger.Errorf("release %s: %v", lockKey, err)
		case !released:
			logger.Warnf("%s expired before release", lockKey)
		}
	}()

	job.Status = model.JobStatusProcessing
	if err := w.jobs.Save(ctx, job); err != nil {
		logger.Errorf("mark processing: %v", err)
	}

	report, stat, err := w.evaluator.Evaluate(ctx, job)
	if err != nil && ctx.Err() != nil {
		logger.Warnf("interrupted by shutdown: %v", err)
		w.putBack(ctx, job, logger)
		return
	}
	if err != nil {
		logger.Errorf("evaluation failed: %v", err)
		w.fail(ctx, job, common.PublicMessage(err), logger)
		return
	}

	job.Status = model.JobStatusCompleted
	job.Report = report
	job.Stat = stat
	job.Error = ""
	if err := w.jobs.Save(context.WithoutCancel(ctx), job); err != nil {
		logger.Errorf("mark completed: %v", err)
		return
	}
	logger.WithFields(log.Fields{
		"success": report.Success,
		"passed":  report.Passed,
		"total":   report.Total,
	}).Info("job completed")
}

// requeue puts a job that could not take its lock back on the queue, or
// fails it once it has been requeued MaxRequeue times.
func (w *EvaluationWorker) requeue(ctx context.Context, job *model.EvaluationJob, logger *log.Entry) {
	job.Requeues++
	if job.Requeues > w.opts.MaxRequeue {
		w.fail(ctx, job, "another submission for this problem is still being evaluated", logger)
		return
	}
	if err := w.jobs.Save(ctx, job); err != nil {
		logger.Errorf("save requeue count: %v", err)
	}
	if w.opts.RequeueDelay > 0 {
		sleep(ctx, w.opts.RequeueDelay)
	}
	if err := w.queue.Requeue(context.WithoutCancel(ctx), job.ID); err != nil {
		logger.Errorf("requeue: %v", err)
		return
	}
	logger.Infof("requeued (%d/%d)", job.Requeues, w.opts.MaxRequeue)
}

// putBack queues an interrupted job again as it was, without counting a
// requeue.
func (w *EvaluationWorker) putBack(ctx context.Context, job *model.EvaluationJob, logger *log.Entry) {
	ctx = context.WithoutCancel(ctx)
	job.Status = model.JobStatusQueued
	if err := w.jobs.Save(ctx, job); err != nil {
		logger.Errorf("mark queued: %v", err)
	}
	if err := w.queue.Requeue(ctx, job.ID); err != nil {
		logger.Errorf("requeue: %v", err)
		return
	}
	logger.Info("job put back on the queue")
}

func (w *EvaluationWorker) fail(ctx context.Context, job *model.EvaluationJob, msg string, logger *log.Entry) {
	job.Status = model.JobStatusFailed
	job.Error = msg
	if err := w.jobs.Save(context.WithoutCancel(ctx), job); err != nil {
		logger.Errorf("mark failed: %v", err)
	}
}

// sleep waits for d and reports whether ctx is still alive.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
