package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// JobQueue hands job ids to the evaluation worker.
type JobQueue interface {
	Push(ctx context.Context, jobID string) error
}

type SubmissionService struct {
	jobRepo           repository.EvaluationJobRepository
	userRepo          repository.UserRepository
	queue             JobQueue
	problems          *ProblemService
	progress          *ProgressService
	defaultLanguageID int
	logger            *log.Entry
}

func NewSubmissionService(
	jobRepo repository.EvaluationJobRepository,
	userRepo repository.UserRepository,
	queue JobQueue,
	problems *ProblemService,
	progress *ProgressService,
	defaultLanguageID int,
) *SubmissionService {
	if defaultLanguageID == 0 {
		defaultLanguageID = model.DefaultLanguageID
	}
	return &SubmissionService{
		jobRepo:           jobRepo,
		userRepo:          userRepo,
		queue:             queue,
		problems:          problems,
		progress:          progress,
		defaultLanguageID: defaultLanguageID,
		logger:            log.WithField("from", "submission service"),
	}
}

type SubmitRequest struct {
	ProblemID      string `json:"problem_id" validate:"required"`
	Code           string `json:"code" validate:"required"`
	LanguageID     int    `json:"language_id" validate:"gte=0"`
	ElapsedSeconds int    `json:"elapsed_seconds" validate:"gte=0"`
}

// Submit validates the submission and queues it for evaluation. The returned
// job is in the Queued state.
func (s *SubmissionService) Submit(ctx context.Context, userID string, req SubmitRequest) (*model.EvaluationJob, error) {
	if err := common.ValidateInput(req); err != nil {
		return nil, err
	}
	languageID := req.LanguageID
	if languageID == 0 {
		languageID = s.defaultLanguageID
	}
	if _, ok := model.LookupLanguage(languageID); !ok {
		return nil, fmt.Errorf("%w: unsupported language %d", common.ErrValidation, languageID)
	}

	problem, err := s.problems.Get(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}
	if len(problem.TestCases) == 0 {
		return nil, fmt.Errorf("%w: problem %s has no test cases", common.ErrValidation, problem.ID)
	}

	now := time.Now().UTC()
	job := &model.EvaluationJob{
		ID:             uuid.NewString(),
		UserID:         userID,
		ProblemID:      problem.ID,
		LanguageID:     languageID,
		Code:           req.Code,
		ElapsedSeconds: req.ElapsedSeconds,
		Status:         model.JobStatusQueued,
		CreatedAt:      now,
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, common.Errorf("failed to store evaluation job: %w", err)
	}
	if err := s.queue.Push(ctx, job.ID); err != nil {
		return nil, common.Errorf("failed to enqueue evaluation job: %w", err)
	}

	s.logger.Infof("job %s queued for user %s on %s", job.ID, userID, problem.ID)
	return job, nil
}

// GetJob returns a job to its owner or to staff.
func (s *SubmissionService) GetJob(ctx context.Context, actorID, jobID string) (*model.EvaluationJob, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("job %q: %w", jobID, common.ErrNotFound)
		}
		return nil, common.Errorf("failed to load job: %w", err)
	}
	if job.UserID == actorID {
		return job, nil
	}

	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrForbidden
		}
		return nil, common.Errorf("failed to load user: %w", err)
	}
	if !actor.IsStaff() {
		return nil, fmt.Errorf("job %q: %w", jobID, common.ErrNotFound)
	}
	return job, nil
}

// Visit records that the user opened a problem.
func (s *SubmissionService) Visit(ctx context.Context, userID, problemID string) (*model.SubmissionStat, error) {
	if _, err := s.problems.Get(ctx, problemID); err != nil {
		return nil, err
	}
	return s.progress.EnsureStat(ctx, userID, problemID)
}
