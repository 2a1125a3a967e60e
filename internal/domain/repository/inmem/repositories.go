package inmem

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"
)

type userRepository struct{ db *DB }

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(_ context.Context, user *model.User) error {
	if user.SolvedProblems == nil {
		user.SolvedProblems = []string{}
	}
	return r.db.insert(repository.TableUsers, user.ID, user)
}

func (r *userRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	user := &model.User{}
	if err := r.db.get(repository.TableUsers, id, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	users, err := all[model.User](r.db, repository.TableUsers)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *userRepository) List(_ context.Context, role model.Role) ([]model.User, error) {
	users, err := all[model.User](r.db, repository.TableUsers)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (r *userRepository) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	users, err := all[model.User](r.db, repository.TableUsers)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if slices.Contains(ids, u.ID) {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func sortUsers(users []model.User) {
	sort.SliceStable(users, func(i, j int) bool { return users[i].DisplayName < users[j].DisplayName })
}

func (r *userRepository) AddSolvedProblem(_ context.Context, userID, problemID string) error {
	var user model.User
	return r.db.update(repository.TableUsers, userID, &user, func() error {
		if !slices.Contains(user.SolvedProblems, problemID) {
			user.SolvedProblems = append(user.SolvedProblems, problemID)
			user.UpdatedAt = time.Now().UTC()
		}
		return nil
	})
}

func (r *userRepository) AddStudent(_ context.Context, teacherID, studentID string) error {
	var teacher model.User
	return r.db.update(repository.TableUsers, teacherID, &teacher, func() error {
		if !slices.Contains(teacher.Students, studentID) {
			teacher.Students = append(teacher.Students, studentID)
			teacher.UpdatedAt = time.Now().UTC()
		}
		return nil
	})
}

type problemRepository struct{ db *DB }

func NewProblemRepository(db *DB) repository.ProblemRepository {
	return &problemRepository{db: db}
}

func (r *problemRepository) Upsert(_ context.Context, p *model.Problem) error {
	p.UpdatedAt = time.Now().UTC()
	return r.db.put(repository.TableProblems, p.ID, p)
}

func (r *problemRepository) FindByID(_ context.Context, id string) (*model.Problem, error) {
	p := &model.Problem{}
	if err := r.db.get(repository.TableProblems, id, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *problemRepository) List(_ context.Context) ([]model.Problem, error) {
	problems, err := all[model.Problem](r.db, repository.TableProblems)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Order < problems[j].Order })
	return problems, nil
}

type courseRepository struct{ db *DB }

func NewCourseRepository(db *DB) repository.CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(_ context.Context, c *model.Course) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	return r.db.insert(repository.TableCourses, c.ID, c)
}

func (r *courseRepository) Update(_ context.Context, c *model.Course) error {
	c.UpdatedAt = time.Now().UTC()
	return r.db.put(repository.TableCourses, c.ID, c)
}

func (r *courseRepository) FindByID(_ context.Context, id string) (*model.Course, error) {
	c := &model.Course{}
	if err := r.db.get(repository.TableCourses, id, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *courseRepository) List(_ context.Context) ([]model.Course, error) {
	courses, err := all[model.Course](r.db, repository.TableCourses)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

type statRepository struct{ db *DB }

func NewStatRepository(db *DB) repository.StatRepository {
	return &statRepository{db: db}
}

func (r *statRepository) Ensure(ctx context.Context, fresh *model.SubmissionStat) (*model.SubmissionStat, error) {
	if _, err := r.db.insertIfAbsent(repository.TableStats, fresh.ID, fresh); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, fresh.ID)
}

func (r *statRepository) FindByID(_ context.Context, id string) (*model.SubmissionStat, error) {
	s := &model.SubmissionStat{}
	if err := r.db.get(repository.TableStats, id, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *statRepository) Save(_ context.Context, s *model.SubmissionStat) error {
	return r.db.put(repository.TableStats, s.ID, s)
}

func (r *statRepository) ListByUser(ctx context.Context, userID string) ([]model.SubmissionStat, error) {
	return r.ListByUsers(ctx, []string{userID})
}

func (r *statRepository) ListByUsers(_ context.Context, userIDs []string) ([]model.SubmissionStat, error) {
	stats, err := all[model.SubmissionStat](r.db, repository.TableStats)
	if err != nil {
		return nil, err
	}
	out := stats[:0]
	for _, s := range stats {
		if slices.Contains(userIDs, s.UserID) {
			out = append(out, s)
		}
	}
	return out, nil
}

type credentialRepository struct{ db *DB }

func NewCredentialRepository(db *DB) repository.CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Create(_ context.Context, cred *model.Credential) error {
	return r.db.insert(repository.TableCredentials, repository.CredentialKey(cred.Email), cred)
}

func (r *credentialRepository) FindByEmail(_ context.Context, email string) (*model.Credential, error) {
	cred := &model.Credential{}
	if err := r.db.get(repository.TableCredentials, repository.CredentialKey(email), cred); err != nil {
		return nil, err
	}
	return cred, nil
}
