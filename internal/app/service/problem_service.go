package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"
	"daily_judge/internal/domain/testcase"

	"github.com/gosimple/slug"
	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	courses     *CourseService
	cache       *expirable.LRU[string, model.Problem]
	logger      *log.Entry
}

func NewProblemService(
	problemRepo repository.ProblemRepository,
	courses *CourseService,
	cacheSize int,
	cacheTTL time.Duration,
) *ProblemService {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	return &ProblemService{
		problemRepo: problemRepo,
		courses:     courses,
		cache:       expirable.NewLRU[string, model.Problem](cacheSize, nil, cacheTTL),
		logger:      log.WithField("from", "problem service"),
	}
}

type UpsertProblemRequest struct {
	ID                  string                  `json:"id"`
	Title               string                  `json:"title" validate:"required,max=200"`
	Statement           string                  `json:"statement" validate:"required"`
	Constraints         string                  `json:"constraints"`
	StarterCode         string                  `json:"starter_code"`
	StarterFunctionName string                  `json:"starter_function_name"`
	Examples            []model.Example         `json:"examples"`
	TestCases           testcase.List           `json:"test_cases" validate:"required,min=1"`
	Difficulty          model.ProblemDifficulty `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Category            string                  `json:"category"`
	Order               int                     `json:"order" validate:"gte=0"`
	Link                string                  `json:"link"`
	VideoID             string                  `json:"video_id"`
}

// RegisterExerciseRequest creates a problem and places it on a course day.
type RegisterExerciseRequest struct {
	UpsertProblemRequest
	Day int `json:"day" validate:"required,gte=1"`
}

// List returns every problem ordered by display order. Test cases are kept;
// callers decide what to expose.
func (s *ProblemService) List(ctx context.Context) ([]model.Problem, error) {
	problems, err := s.problemRepo.List(ctx)
	if err != nil {
		return nil, common.Errorf("failed to list problems: %w", err)
	}
	return problems, nil
}

func (s *ProblemService) Get(ctx context.Context, id string) (*model.Problem, error) {
	if p, ok := s.cache.Get(id); ok {
		return &p, nil
	}
	p, err := s.problemRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("problem %q: %w", id, common.ErrNotFound)
		}
		return nil, common.Errorf("failed to load problem: %w", err)
	}
	s.cache.Add(id, *p)
	return p, nil
}

func (s *ProblemService) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Upsert writes the problem, deriving its id from the title when none is
// given. An existing problem with the same id is overwritten.
func (s *ProblemService) Upsert(ctx context.Context, actorID string, req UpsertProblemRequest) (*model.Problem, error) {
	if err := common.ValidateInput(req); err != nil {
		return nil, err
	}
	if _, err := testcase.Prepare(req.TestCases); err != nil {
		return nil, err
	}

	id, err := problemID(req)
	if err != nil {
		return nil, err
	}

	problem := &model.Problem{
		ID:                  id,
		Title:               req.Title,
		Statement:           req.Statement,
		Constraints:         req.Constraints,
		StarterCode:         req.StarterCode,
		StarterFunctionName: req.StarterFunctionName,
		Examples:            req.Examples,
		TestCases:           req.TestCases,
		Difficulty:          req.Difficulty,
		Category:            req.Category,
		Order:               req.Order,
		Link:                req.Link,
		VideoID:             req.VideoID,
		CreatedByID:         actorID,
	}
	if err := s.problemRepo.Upsert(ctx, problem); err != nil {
		return nil, common.Errorf("failed to save problem: %w", err)
	}
	s.cache.Remove(id)

	s.logger.Infof("problem %s saved by %s", id, actorID)
	return problem, nil
}

// RegisterExercise saves the problem and assigns it to the given day of the
// course.
func (s *ProblemService) RegisterExercise(ctx context.Context, actorID, courseID string, req RegisterExerciseRequest) (*model.Problem, *model.Course, error) {
	if err := common.ValidateInput(req); err != nil {
		return nil, nil, err
	}
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	id, err := problemID(req.UpsertProblemRequest)
	if err != nil {
		return nil, nil, err
	}
	if current, ok := course.Days.Assignments()[id]; ok && current != req.Day {
		return nil, nil, fmt.Errorf("%w: problem %q is already assigned to day %d", common.ErrConflict, id, current)
	}

	problem, err := s.Upsert(ctx, actorID, req.UpsertProblemRequest)
	if err != nil {
		return nil, nil, err
	}
	course, err = s.courses.AssignProblem(ctx, courseID, req.Day, problem.ID)
	if err != nil {
		return problem, nil, err
	}
	return problem, course, nil
}

// problemID is the explicit id or, failing that, the slug of the title.
func problemID(req UpsertProblemRequest) (string, error) {
	id := req.ID
	if id == "" {
		id = slug.Make(req.Title)
	}
	if id == "" {
		return "", fmt.Errorf("%w: cannot derive a problem id from the title", common.ErrValidation)
	}
	return id, nil
}
