package service

import (
	"context"
	"time"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"
	"daily_judge/internal/domain/scoring"

	log "github.com/sirupsen/logrus"
)

// ProgressService owns the per (user, problem) stat records and the solved
// sets on user documents.
type ProgressService struct {
	statRepo repository.StatRepository
	userRepo repository.UserRepository
	now      func() time.Time
	logger   *log.Entry
}

func NewProgressService(statRepo repository.StatRepository, userRepo repository.UserRepository) *ProgressService {
	return &ProgressService{
		statRepo: statRepo,
		userRepo: userRepo,
		now:      time.Now,
		logger:   log.WithField("from", "progress service"),
	}
}

// SubmissionOutcome is one evaluated submission. EventID identifies the
// submission so that replaying it has no further effect.
type SubmissionOutcome struct {
	EventID        string
	UserID         string
	ProblemID      string
	Success        bool
	ElapsedSeconds int
}

// EnsureStat returns the stat record, creating a zeroed one on first visit.
func (s *ProgressService) EnsureStat(ctx context.Context, userID, problemID string) (*model.SubmissionStat, error) {
	stat, err := s.statRepo.Ensure(ctx, model.NewSubmissionStat(userID, problemID, s.now().UTC()))
	if err != nil {
		return nil, common.Errorf("failed to ensure stat record: %w", err)
	}
	return stat, nil
}

// RecordSubmission applies one submission to the stat record. Counters move
// on every submission; success and points only on a successful one. Success
// never reverts to false.
func (s *ProgressService) RecordSubmission(ctx context.Context, out SubmissionOutcome) (*model.SubmissionStat, error) {
	stat, err := s.EnsureStat(ctx, out.UserID, out.ProblemID)
	if err != nil {
		return nil, err
	}

	// Only the latest event is remembered: replaying an older job after a newer
	// one was recorded counts it again. The worker skips finished jobs.
	if out.EventID != "" && stat.LastEventID == out.EventID {
		s.logger.Infof("submission %s already recorded for %s", out.EventID, stat.ID)
		if stat.Success {
			// a previous run may have stopped before the solved set was updated
			if err := s.markSolved(ctx, out.UserID, out.ProblemID); err != nil {
				return nil, err
			}
		}
		return stat, nil
	}

	elapsed := max(out.ElapsedSeconds, 0)
	now := s.now().UTC()

	stat.ExecutionCount++
	stat.TotalExecutionTime += elapsed
	stat.LastExecutionTime = elapsed
	stat.LastSubmittedAt = &now
	stat.LastEventID = out.EventID
	if out.Success {
		stat.Success = true
		stat.Points = scoring.Score(stat.ExecutionCount, elapsed)
	}

	if err := s.statRepo.Save(ctx, stat); err != nil {
		return nil, common.Errorf("failed to save stat record: %w", err)
	}
	if out.Success {
		if err := s.markSolved(ctx, out.UserID, out.ProblemID); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(log.Fields{
		"stat":     stat.ID,
		"attempts": stat.ExecutionCount,
		"success":  out.Success,
		"points":   stat.Points,
	}).Info("submission recorded")
	return stat, nil
}

func (s *ProgressService) markSolved(ctx context.Context, userID, problemID string) error {
	if err := s.userRepo.AddSolvedProblem(ctx, userID, problemID); err != nil {
		return common.Errorf("failed to mark problem solved: %w", err)
	}
	return nil
}
