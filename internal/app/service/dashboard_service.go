package service

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"
)

type DashboardService struct {
	userRepo   repository.UserRepository
	statRepo   repository.StatRepository
	courseRepo repository.CourseRepository
}

func NewDashboardService(
	userRepo repository.UserRepository,
	statRepo repository.StatRepository,
	courseRepo repository.CourseRepository,
) *DashboardService {
	return &DashboardService{userRepo: userRepo, statRepo: statRepo, courseRepo: courseRepo}
}

type StudentsQuery struct {
	CourseID string
	Search   string
}

type DayDetail struct {
	Day   int                    `json:"day"`
	Mark  string                 `json:"mark"`
	Stats []model.SubmissionStat `json:"stats"`
}

type StudentDetail struct {
	Student model.StudentSummary `json:"student"`
	Days    []DayDetail          `json:"days"`
}

// Students summarises the students visible to the actor: a teacher sees
// their linked students, an admin sees every student.
func (s *DashboardService) Students(ctx context.Context, actor *model.User, q StudentsQuery) ([]model.StudentSummary, error) {
	course, err := s.course(ctx, q.CourseID)
	if err != nil {
		return nil, err
	}
	students, err := s.visibleStudents(ctx, actor)
	if err != nil {
		return nil, err
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		students = slices.DeleteFunc(students, func(u model.User) bool {
			return !strings.Contains(strings.ToLower(u.DisplayName), needle)
		})
	}
	return s.summarise(ctx, course, students)
}

// ByTeacher groups every student under their teacher.
func (s *DashboardService) ByTeacher(ctx context.Context, actor *model.User, q StudentsQuery) ([]model.TeacherGroup, error) {
	if actor.Role != model.RoleAdmin {
		return nil, common.ErrForbidden
	}
	summaries, err := s.Students(ctx, actor, q)
	if err != nil {
		return nil, err
	}

	teachers, err := s.userRepo.List(ctx, "")
	if err != nil {
		return nil, common.Errorf("failed to list users: %w", err)
	}
	names := make(map[string]string, len(teachers))
	for _, t := range teachers {
		names[t.ID] = t.DisplayName
	}

	var groups []model.TeacherGroup
	index := make(map[string]int)
	for _, st := range summaries {
		i, ok := index[st.TeacherID]
		if !ok {
			i = len(groups)
			index[st.TeacherID] = i
			groups = append(groups, model.TeacherGroup{TeacherID: st.TeacherID, TeacherName: names[st.TeacherID]})
		}
		groups[i].Students = append(groups[i].Students, st)
	}
	slices.SortFunc(groups, func(a, b model.TeacherGroup) int {
		return cmp.Compare(a.TeacherName, b.TeacherName)
	})
	return groups, nil
}

// Ranking orders the visible students by total points, then by problems
// solved. Tied students share a rank.
func (s *DashboardService) Ranking(ctx context.Context, actor *model.User, q StudentsQuery) ([]model.LeaderboardEntry, error) {
	summaries, err := s.Students(ctx, actor, q)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(summaries, func(a, b model.StudentSummary) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		if c := cmp.Compare(b.ProblemsSolved, a.ProblemsSolved); c != 0 {
			return c
		}
		return cmp.Compare(a.DisplayName, b.DisplayName)
	})

	entries := make([]model.LeaderboardEntry, len(summaries))
	for i, st := range summaries {
		rank := i + 1
		if i > 0 {
			prev := summaries[i-1]
			if prev.TotalPoints == st.TotalPoints && prev.ProblemsSolved == st.ProblemsSolved {
				rank = entries[i-1].Rank
			}
		}
		entries[i] = model.LeaderboardEntry{
			Rank:           rank,
			UserID:         st.UserID,
			DisplayName:    st.DisplayName,
			TotalPoints:    st.TotalPoints,
			ProblemsSolved: st.ProblemsSolved,
		}
	}
	return entries, nil
}

// StudentDetail returns one student's stats grouped by course day.
func (s *DashboardService) StudentDetail(ctx context.Context, actor *model.User, studentID, courseID string) (*StudentDetail, error) {
	student, err := s.userRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("student %q: %w", studentID, err)
	}
	if actor.Role == model.RoleTeacher && !slices.Contains(actor.Students, student.ID) {
		return nil, common.ErrForbidden
	}
	course, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	stats, err := s.statRepo.ListByUser(ctx, student.ID)
	if err != nil {
		return nil, common.Errorf("failed to list stats: %w", err)
	}

	summary := summarise(course, *student, stats)
	detail := &StudentDetail{Student: summary}
	if course == nil {
		return detail, nil
	}
	for i, day := range course.Days {
		dd := DayDetail{Day: day.Day, Mark: summary.Progress[i], Stats: []model.SubmissionStat{}}
		for _, st := range stats {
			if slices.Contains(day.Problems, st.ProblemID) {
				dd.Stats = append(dd.Stats, st)
			}
		}
		detail.Days = append(detail.Days, dd)
	}
	return detail, nil
}

// course loads the requested course, or the first one when no id is given.
// It returns nil when there are no courses at all.
func (s *DashboardService) course(ctx context.Context, courseID string) (*model.Course, error) {
	if courseID != "" {
		course, err := s.courseRepo.FindByID(ctx, courseID)
		if err != nil {
			return nil, fmt.Errorf("course %q: %w", courseID, err)
		}
		return course, nil
	}
	courses, err := s.courseRepo.List(ctx)
	if err != nil {
		return nil, common.Errorf("failed to list courses: %w", err)
	}
	if len(courses) == 0 {
		return nil, nil
	}
	return &courses[0], nil
}

func (s *DashboardService) visibleStudents(ctx context.Context, actor *model.User) ([]model.User, error) {
	var (
		users []model.User
		err   error
	)
	switch actor.Role {
	case model.RoleAdmin:
		users, err = s.userRepo.List(ctx, model.RoleStudent)
	case model.RoleTeacher:
		users, err = s.userRepo.ListByIDs(ctx, actor.Students)
	default:
		return nil, common.ErrForbidden
	}
	if err != nil {
		return nil, common.Errorf("failed to list students: %w", err)
	}
	return slices.DeleteFunc(users, func(u model.User) bool { return u.Role != model.RoleStudent }), nil
}

func (s *DashboardService) summarise(ctx context.Context, course *model.Course, students []model.User) ([]model.StudentSummary, error) {
	ids := make([]string, len(students))
	for i, u := range students {
		ids[i] = u.ID
	}
	stats, err := s.statRepo.ListByUsers(ctx, ids)
	if err != nil {
		return nil, common.Errorf("failed to list stats: %w", err)
	}
	byUser := make(map[string][]model.SubmissionStat, len(students))
	for _, st := range stats {
		byUser[st.UserID] = append(byUser[st.UserID], st)
	}

	out := make([]model.StudentSummary, 0, len(students))
	for _, u := range students {
		out = append(out, summarise(course, u, byUser[u.ID]))
	}
	return out, nil
}

// summarise computes the dashboard row of one student. A day is marked ✓
// when every attempted problem of the day is solved, X when none is, O when
// some are, and left empty when the student has no stats for it.
func summarise(course *model.Course, u model.User, stats []model.SubmissionStat) model.StudentSummary {
	sum := model.StudentSummary{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		TeacherID:   u.TeacherID,
		Progress:    []string{},
	}

	var attempts, seconds int
	for _, st := range stats {
		attempts += st.ExecutionCount
		seconds += st.TotalExecutionTime
		if st.Success {
			sum.TotalPoints += st.Points
			sum.ProblemsSolved++
		}
	}
	if n := len(stats); n > 0 {
		sum.AttemptsAvg = float64(attempts) / float64(n)
		sum.TimeAvg = float64(seconds) / float64(n)
	}
	if course == nil || len(course.Days) == 0 {
		return sum
	}

	dayOf := make(map[string]int)
	for i, day := range course.Days {
		for _, pid := range day.Problems {
			if _, ok := dayOf[pid]; !ok {
				dayOf[pid] = i
			}
		}
	}
	solved := make([]int, len(course.Days))
	seen := make([]int, len(course.Days))
	for _, st := range stats {
		i, ok := dayOf[st.ProblemID]
		if !ok {
			continue
		}
		seen[i]++
		if st.Success {
			solved[i]++
		}
	}

	sum.Progress = make([]string, len(course.Days))
	complete := 0
	for i := range course.Days {
		switch {
		case seen[i] == 0:
			sum.Progress[i] = model.DayMarkNone
		case solved[i] == seen[i]:
			sum.Progress[i] = model.DayMarkSolved
			complete++
		case solved[i] == 0:
			sum.Progress[i] = model.DayMarkFailed
		default:
			sum.Progress[i] = model.DayMarkPartial
		}
	}
	sum.PercentComplete = int(math.Round(float64(complete) / float64(len(course.Days)) * 100))
	return sum
}
