package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"
	"daily_judge/internal/domain/repository/inmem"
	"daily_judge/internal/domain/testcase"
	"daily_judge/internal/platform/executor"
	"daily_judge/internal/platform/identity"
)

type testEnv struct {
	users    repository.UserRepository
	problems repository.ProblemRepository
	courses  repository.CourseRepository
	stats    repository.StatRepository
	creds    repository.CredentialRepository

	identity *identity.Factory
	mailer   *recordingMailer
	exec     *fakeExecutor
	queue    *memoryQueue
	jobs     *memoryJobs

	courseSvc     *CourseService
	problemSvc    *ProblemService
	progressSvc   *ProgressService
	evaluationSvc *EvaluationService
	submissionSvc *SubmissionService
	userSvc       *UserService
	authSvc       *AuthService
	dashboardSvc  *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := inmem.NewDB()
	env := &testEnv{
		users:    inmem.NewUserRepository(db),
		problems: inmem.NewProblemRepository(db),
		courses:  inmem.NewCourseRepository(db),
		stats:    inmem.NewStatRepository(db),
		creds:    inmem.NewCredentialRepository(db),
		mailer:   &recordingMailer{},
		exec:     &fakeExecutor{},
		queue:    &memoryQueue{},
		jobs:     &memoryJobs{jobs: map[string]model.EvaluationJob{}},
	}

	factory, err := identity.NewFactory(env.creds,
		identity.Config{Name: identity.Primary, SigningKey: []byte("primary"), TokenTTL: time.Hour, IssueSessions: true},
		identity.Config{Name: identity.Secondary, SigningKey: []byte("secondary"), TokenTTL: time.Hour},
	)
	if err != nil {
		t.Fatal(err)
	}
	env.identity = factory

	env.courseSvc = NewCourseService(env.courses, env.problems, env.users)
	env.problemSvc = NewProblemService(env.problems, env.courseSvc, 16, time.Minute)
	env.progressSvc = NewProgressService(env.stats, env.users)
	env.evaluationSvc = NewEvaluationService(env.problemSvc, env.exec, env.progressSvc)
	env.submissionSvc = NewSubmissionService(env.jobs, env.users, env.queue, env.problemSvc, env.progressSvc, model.DefaultLanguageID)
	env.userSvc = NewUserService(env.users, factory.MustGet(identity.Secondary), env.mailer)
	env.authSvc = NewAuthService(env.users, factory.MustGet(identity.Primary))
	env.dashboardSvc = NewDashboardService(env.users, env.stats, env.courses)
	return env
}

func (env *testEnv) addUser(t *testing.T, u model.User) *model.User {
	t.Helper()
	if u.SolvedProblems == nil {
		u.SolvedProblems = []string{}
	}
	if err := env.users.Create(context.Background(), &u); err != nil {
		t.Fatal(err)
	}
	return &u
}

func (env *testEnv) addProblem(t *testing.T, p model.Problem) *model.Problem {
	t.Helper()
	if err := env.problems.Upsert(context.Background(), &p); err != nil {
		t.Fatal(err)
	}
	return &p
}

func twoSumProblem() model.Problem {
	return model.Problem{
		ID:         "two-sum",
		Title:      "Two Sum",
		Statement:  "Return the indices of the two numbers that add up to target.",
		Difficulty: model.DifficultyEasy,
		Order:      1,
		TestCases: testcase.List{
			{Input: "[2,7,11,15],9", Output: "[0,1]"},
		},
	}
}

// fakeExecutor answers every run with reply, or fails the batch with err.
type fakeExecutor struct {
	mu    sync.Mutex
	reply func(executor.Run) executor.Result
	err   error
	runs  []executor.Run
}

func (f *fakeExecutor) Execute(_ context.Context, _ int, runs []executor.Run) ([]executor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, runs...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]executor.Result, len(runs))
	for i, r := range runs {
		out[i] = f.reply(r)
	}
	return out, nil
}

func accepted(stdout string) func(executor.Run) executor.Result {
	return func(executor.Run) executor.Result {
		return executor.Result{Status: executor.Status{ID: 3, Description: "Accepted"}, Stdout: stdout}
	}
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

type memoryQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *memoryQueue) Push(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, jobID)
	return nil
}

type memoryJobs struct {
	mu   sync.Mutex
	jobs map[string]model.EvaluationJob
}

func (m *memoryJobs) Save(_ context.Context, job *model.EvaluationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memoryJobs) FindByID(_ context.Context, id string) (*model.EvaluationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &job, nil
}
