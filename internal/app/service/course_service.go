package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type CourseService struct {
	courseRepo  repository.CourseRepository
	problemRepo repository.ProblemRepository
	userRepo    repository.UserRepository
	// mu serialises layout edits made through this process.
	mu     sync.Mutex
	logger *log.Entry
}

func NewCourseService(
	courseRepo repository.CourseRepository,
	problemRepo repository.ProblemRepository,
	userRepo repository.UserRepository,
) *CourseService {
	return &CourseService{
		courseRepo:  courseRepo,
		problemRepo: problemRepo,
		userRepo:    userRepo,
		logger:      log.WithField("from", "course service"),
	}
}

type CreateCourseRequest struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Days        model.Days `json:"days"`
}

type SaveDaysRequest struct {
	Days model.Days `json:"days"`
}

type AssignProblemRequest struct {
	Day       int    `json:"day" validate:"required,gte=1"`
	ProblemID string `json:"problem_id" validate:"required"`
}

// CourseLayout is what the course editor works on: the days and the problems
// not yet placed on any day.
type CourseLayout struct {
	CourseID  string     `json:"course_id"`
	Available []string   `json:"available"`
	Days      model.Days `json:"days"`
}

type ProblemProgress struct {
	ProblemID string `json:"problem_id"`
	Solved    bool   `json:"solved"`
}

type DayProgress struct {
	Day      int               `json:"day"`
	Week     int               `json:"week"`
	Unlocked bool              `json:"unlocked"`
	Problems []ProblemProgress `json:"problems"`
}

type CourseProgress struct {
	CourseID string        `json:"course_id"`
	Title    string        `json:"title"`
	Solved   int           `json:"solved"`
	Total    int           `json:"total"`
	Days     []DayProgress `json:"days"`
}

func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	courses, err := s.courseRepo.List(ctx)
	if err != nil {
		return nil, common.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.courseRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("course %q: %w", id, common.ErrNotFound)
		}
		return nil, common.Errorf("failed to load course: %w", err)
	}
	return course, nil
}

// Create stores a new course. Referenced problems need not exist yet, so a
// course can be seeded before its problems.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*model.Course, error) {
	if err := common.ValidateInput(req); err != nil {
		return nil, err
	}
	days := req.Days.Renumbered()
	if err := days.Validate(); err != nil {
		return nil, err
	}

	course := &model.Course{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Days:        days,
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, common.Errorf("failed to create course: %w", err)
	}
	s.logger.Infof("course %s created with %d days", course.ID, len(course.Days))
	return course, nil
}

func (s *CourseService) Layout(ctx context.Context, courseID string) (*CourseLayout, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	problems, err := s.problemRepo.List(ctx)
	if err != nil {
		return nil, common.Errorf("failed to list problems: %w", err)
	}

	assigned := course.Days.Assignments()
	available := make([]string, 0, len(problems))
	for _, p := range problems {
		if _, ok := assigned[p.ID]; !ok {
			available = append(available, p.ID)
		}
	}
	return &CourseLayout{CourseID: course.ID, Available: available, Days: course.Days}, nil
}

// SaveDays replaces the course layout. Days are renumbered 1..n in the given
// order; every problem must exist and appear at most once.
func (s *CourseService) SaveDays(ctx context.Context, courseID string, days model.Days) (*model.Course, error) {
	days = days.Renumbered()
	if err := days.Validate(); err != nil {
		return nil, err
	}
	for pid := range days.Assignments() {
		if err := s.checkProblem(ctx, pid); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	course.Days = days
	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, common.Errorf("failed to save course days: %w", err)
	}
	return course, nil
}

func (s *CourseService) checkProblem(ctx context.Context, problemID string) error {
	if _, err := s.problemRepo.FindByID(ctx, problemID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: unknown problem %q", common.ErrValidation, problemID)
		}
		return common.Errorf("failed to check problem: %w", err)
	}
	return nil
}

// AddDay appends an empty day after the last one.
func (s *CourseService) AddDay(ctx context.Context, courseID string) (*model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	next := 1
	if n := len(course.Days); n > 0 {
		next = course.Days[n-1].Day + 1
	}
	course.Days = append(course.Days, model.Day{Day: next, Problems: []string{}})
	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, common.Errorf("failed to add course day: %w", err)
	}
	return course, nil
}

// AssignProblem places problemID on the given day, creating the day when it
// does not exist. Assigning a problem to the day it is already on is a no-op;
// assigning it to a second day is a conflict.
func (s *CourseService) AssignProblem(ctx context.Context, courseID string, day int, problemID string) (*model.Course, error) {
	if err := common.ValidateInput(AssignProblemRequest{Day: day, ProblemID: problemID}); err != nil {
		return nil, err
	}
	if err := s.checkProblem(ctx, problemID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if current, ok := course.Days.Assignments()[problemID]; ok {
		if current == day {
			return course, nil
		}
		return nil, fmt.Errorf("%w: problem %q is already assigned to day %d", common.ErrConflict, problemID, current)
	}

	placed := false
	for i := range course.Days {
		if course.Days[i].Day == day {
			course.Days[i].Problems = append(course.Days[i].Problems, problemID)
			placed = true
			break
		}
	}
	if !placed {
		course.Days = append(course.Days, model.Day{Day: day, Problems: []string{problemID}})
		sortDays(course.Days)
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, common.Errorf("failed to assign problem: %w", err)
	}
	s.logger.Infof("problem %s assigned to day %d of course %s", problemID, day, courseID)
	return course, nil
}

// StudentProgress reports, per day, which problems the user solved and
// whether the day is unlocked for them.
func (s *CourseService) StudentProgress(ctx context.Context, courseID, userID string) (*CourseProgress, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user %q: %w", userID, common.ErrNotFound)
		}
		return nil, common.Errorf("failed to load user: %w", err)
	}

	progress := &CourseProgress{
		CourseID: course.ID,
		Title:    course.Title,
		Days:     make([]DayProgress, 0, len(course.Days)),
	}
	for i, day := range course.Days {
		dp := DayProgress{
			Day:      day.Day,
			Week:     model.WeekOf(day.Day),
			Unlocked: course.Days.Unlocked(i, user.HasSolved),
			Problems: make([]ProblemProgress, 0, len(day.Problems)),
		}
		for _, pid := range day.Problems {
			solved := user.HasSolved(pid)
			if solved {
				progress.Solved++
			}
			progress.Total++
			dp.Problems = append(dp.Problems, ProblemProgress{ProblemID: pid, Solved: solved})
		}
		progress.Days = append(progress.Days, dp)
	}
	return progress, nil
}

func sortDays(days model.Days) {
	slices.SortStableFunc(days, func(a, b model.Day) int { return a.Day - b.Day })
}
