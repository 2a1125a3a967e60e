package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"daily_judge/internal/app/service"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"
	"daily_judge/internal/domain/repository/inmem"
	"daily_judge/internal/domain/testcase"
	"daily_judge/internal/platform/identity"
	"daily_judge/internal/platform/mail"
	"daily_judge/internal/platform/queue"
	"daily_judge/internal/platform/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type apiEnv struct {
	server *httptest.Server
	repos  *store.Repositories
	rdb    *redis.Client
	users  *service.UserService
	admin  *model.User
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	ctx := context.Background()
	repos := store.Memory(inmem.NewDB())

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	identities, err := identity.NewFactory(repos.Credentials,
		identity.Config{Name: identity.Primary, SigningKey: []byte("primary-key"), TokenTTL: time.Hour, IssueSessions: true},
		identity.Config{Name: identity.Secondary, SigningKey: []byte("secondary-key"), TokenTTL: time.Hour},
	)
	if err != nil {
		t.Fatal(err)
	}
	primary := identities.MustGet(identity.Primary)

	courses := service.NewCourseService(repos.Courses, repos.Problems, repos.Users)
	problems := service.NewProblemService(repos.Problems, courses, 16, time.Minute)
	progress := service.NewProgressService(repos.Stats, repos.Users)
	jobs := repository.NewRedisEvaluationJobRepository(rdb, time.Hour)
	submissions := service.NewSubmissionService(jobs, repos.Users, queue.NewEvaluationQueue(rdb, "evaluation_jobs"), problems, progress, model.DefaultLanguageID)
	users := service.NewUserService(repos.Users, identities.MustGet(identity.Secondary), mail.NewLogMailer())

	admin, err := users.EnsureAdmin(ctx, "admin@example.com", "admin-pass", "Root")
	if err != nil {
		t.Fatal(err)
	}

	router := NewRouter(primary.TokenIssuer(), repos.Users, Services{
		Auth:       service.NewAuthService(repos.Users, primary),
		Users:      users,
		Problems:   problems,
		Courses:    courses,
		Submission: submissions,
		Dashboard:  service.NewDashboardService(repos.Users, repos.Stats, repos.Courses),
	}, Options{})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	p := &model.Problem{
		ID:         "two-sum",
		Title:      "Two Sum",
		Statement:  "Find two numbers.",
		Difficulty: model.DifficultyEasy,
		TestCases:  testcase.List{{Input: "[2,7,11,15],9", Output: "[0,1]"}},
	}
	if err := repos.Problems.Upsert(ctx, p); err != nil {
		t.Fatal(err)
	}
	if _, err := courses.Create(ctx, service.CreateCourseRequest{ID: "basic", Title: "Basic", Days: model.Days{{Day: 1, Problems: []string{"two-sum"}}}}); err != nil {
		t.Fatal(err)
	}

	return &apiEnv{server: srv, repos: repos, rdb: rdb, users: users, admin: admin}
}

// register creates an account through the service and logs it in over HTTP.
func (e *apiEnv) register(t *testing.T, actorID string, role model.Role, email string) (string, *model.User) {
	t.Helper()
	res, err := e.users.RegisterUser(context.Background(), actorID, service.RegisterUserRequest{
		Name: strings.Split(email, "@")[0], Email: email, DocumentID: email, Role: role,
	})
	if err != nil {
		t.Fatal(err)
	}
	return e.login(t, email, res.Password), res.User
}

func (e *apiEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	var resp service.AuthResponse
	code := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password}, &resp)
	if code != http.StatusOK {
		t.Fatalf("login %s: status %d", email, code)
	}
	return resp.Session.Token
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body, dst interface{}) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t)
	resp, err := http.Get(env.server.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newAPIEnv(t)
	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := env.do(t, http.MethodGet, "/api/v1/users/me", tt.token, nil, nil); code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", code)
			}
		})
	}

	if code := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "admin@example.com", "password": "wrong-pass"}, nil); code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d", code)
	}
}

func TestMeReturnsCaller(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t, "admin@example.com", "admin-pass")

	var me model.User
	if code := env.do(t, http.MethodGet, "/api/v1/users/me", token, nil, &me); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if me.ID != env.admin.ID || me.Role != model.RoleAdmin {
		t.Errorf("me = %+v", me)
	}
}

func TestProblemVisibilityByRole(t *testing.T) {
	env := newAPIEnv(t)
	adminToken := env.login(t, "admin@example.com", "admin-pass")
	studentToken, _ := env.register(t, env.admin.ID, model.RoleStudent, "ana@example.com")

	var asStudent model.Problem
	if code := env.do(t, http.MethodGet, "/api/v1/problems/two-sum", studentToken, nil, &asStudent); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(asStudent.TestCases) != 0 {
		t.Error("test cases exposed to a student")
	}

	var asAdmin []model.Problem
	if code := env.do(t, http.MethodGet, "/api/v1/problems", adminToken, nil, &asAdmin); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(asAdmin) != 1 || len(asAdmin[0].TestCases) != 1 {
		t.Errorf("admin problems = %+v", asAdmin)
	}

	update := service.UpsertProblemRequest{Title: "Two Sum", Statement: "x", Difficulty: model.DifficultyEasy, TestCases: testcase.List{{Input: "1", Output: "1"}}}
	if code := env.do(t, http.MethodPut, "/api/v1/problems/two-sum", studentToken, update, nil); code != http.StatusForbidden {
		t.Errorf("student upsert status = %d, want 403", code)
	}
	if code := env.do(t, http.MethodPut, "/api/v1/problems/two-sum", adminToken, update, nil); code != http.StatusOK {
		t.Errorf("admin upsert status = %d", code)
	}
	if code := env.do(t, http.MethodGet, "/api/v1/problems/missing", studentToken, nil, nil); code != http.StatusNotFound {
		t.Errorf("missing problem status = %d", code)
	}
}

func TestSubmitAndPollJob(t *testing.T) {
	env := newAPIEnv(t)
	token, _ := env.register(t, env.admin.ID, model.RoleStudent, "ana@example.com")
	otherToken, _ := env.register(t, env.admin.ID, model.RoleStudent, "bob@example.com")

	var job model.EvaluationJob
	code := env.do(t, http.MethodPost, "/api/v1/submissions", token, map[string]interface{}{
		"problem_id":      "two-sum",
		"code":            "print([0,1])",
		"elapsed_seconds": 30,
	}, &job)
	if code != http.StatusAccepted {
		t.Fatalf("submit status = %d", code)
	}
	if job.Status != model.JobStatusQueued {
		t.Errorf("job status = %s", job.Status)
	}
	if n, _ := env.rdb.LLen(context.Background(), "evaluation_jobs").Result(); n != 1 {
		t.Errorf("queue length = %d", n)
	}

	var polled model.EvaluationJob
	if code := env.do(t, http.MethodGet, "/api/v1/submissions/"+job.ID, token, nil, &polled); code != http.StatusOK || polled.ID != job.ID {
		t.Errorf("poll status = %d, job = %+v", code, polled)
	}
	if code := env.do(t, http.MethodGet, "/api/v1/submissions/"+job.ID, otherToken, nil, nil); code != http.StatusNotFound {
		t.Errorf("foreign poll status = %d, want 404", code)
	}

	if code := env.do(t, http.MethodPost, "/api/v1/submissions", token, map[string]interface{}{"problem_id": "two-sum"}, nil); code != http.StatusBadRequest {
		t.Errorf("empty code status = %d, want 400", code)
	}
}

func TestCourseEditingAndProgress(t *testing.T) {
	env := newAPIEnv(t)
	teacherToken, _ := env.register(t, env.admin.ID, model.RoleTeacher, "prof@example.com")
	studentToken, _ := env.register(t, env.admin.ID, model.RoleStudent, "ana@example.com")

	exercise := map[string]interface{}{
		"title":      "Reverse String",
		"statement":  "Reverse s.",
		"difficulty": "Easy",
		"test_cases": []map[string]string{{"input": `s = "abc"`, "output": "cba"}},
		"day":        2,
	}
	if code := env.do(t, http.MethodPost, "/api/v1/courses/basic/exercises", studentToken, exercise, nil); code != http.StatusForbidden {
		t.Errorf("student exercise status = %d, want 403", code)
	}
	if code := env.do(t, http.MethodPost, "/api/v1/courses/basic/exercises", teacherToken, exercise, nil); code != http.StatusCreated {
		t.Fatalf("exercise status = %d", code)
	}

	if code := env.do(t, http.MethodPost, "/api/v1/courses/basic/assignments", teacherToken, map[string]interface{}{"day": 1, "problem_id": "reverse-string"}, nil); code != http.StatusConflict {
		t.Errorf("double assignment status = %d, want 409", code)
	}

	var progress service.CourseProgress
	if code := env.do(t, http.MethodGet, "/api/v1/courses/basic/progress", studentToken, nil, &progress); code != http.StatusOK {
		t.Fatalf("progress status = %d", code)
	}
	if len(progress.Days) != 2 || !progress.Days[0].Unlocked || progress.Days[1].Unlocked {
		t.Errorf("progress = %+v", progress)
	}

	var layout service.CourseLayout
	if code := env.do(t, http.MethodGet, "/api/v1/courses/basic/layout", teacherToken, nil, &layout); code != http.StatusOK {
		t.Fatalf("layout status = %d", code)
	}
	if len(layout.Available) != 0 {
		t.Errorf("available = %v", layout.Available)
	}
}

func TestDashboardAccess(t *testing.T) {
	env := newAPIEnv(t)
	teacherToken, teacher := env.register(t, env.admin.ID, model.RoleTeacher, "prof@example.com")
	studentToken, _ := env.register(t, env.admin.ID, model.RoleStudent, "ana@example.com")

	if _, err := env.users.RegisterUser(context.Background(), teacher.ID, service.RegisterUserRequest{Name: "Luz", Email: "luz@example.com", DocumentID: "9"}); err != nil {
		t.Fatal(err)
	}

	if code := env.do(t, http.MethodGet, "/api/v1/dashboard/students", studentToken, nil, nil); code != http.StatusForbidden {
		t.Errorf("student dashboard status = %d, want 403", code)
	}

	var summaries []model.StudentSummary
	if code := env.do(t, http.MethodGet, "/api/v1/dashboard/students?course_id=basic", teacherToken, nil, &summaries); code != http.StatusOK {
		t.Fatalf("teacher dashboard status = %d", code)
	}
	if len(summaries) != 1 || summaries[0].DisplayName != "Luz" {
		t.Errorf("teacher sees %+v", summaries)
	}

	if code := env.do(t, http.MethodGet, "/api/v1/dashboard/teachers", teacherToken, nil, nil); code != http.StatusForbidden {
		t.Errorf("teacher by-teacher status = %d, want 403", code)
	}
	adminToken := env.login(t, "admin@example.com", "admin-pass")
	var ranking []model.LeaderboardEntry
	if code := env.do(t, http.MethodGet, "/api/v1/dashboard/ranking", adminToken, nil, &ranking); code != http.StatusOK {
		t.Fatalf("ranking status = %d", code)
	}
	if len(ranking) != 2 {
		t.Errorf("ranking = %+v", ranking)
	}
}

func TestRegisterUsersOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	teacherToken, _ := env.register(t, env.admin.ID, model.RoleTeacher, "prof@example.com")

	var created service.RegisterUserResponse
	code := env.do(t, http.MethodPost, "/api/v1/users", teacherToken, map[string]string{
		"name": "Eva", "email": "eva@example.com", "document_id": "77",
	}, &created)
	if code != http.StatusCreated || created.User.Role != model.RoleStudent || created.Password == "" {
		t.Fatalf("status = %d, created = %+v", code, created)
	}

	if code := env.do(t, http.MethodPost, "/api/v1/users", teacherToken, map[string]string{
		"name": "Max", "email": "max@example.com", "document_id": "78", "role": "admin",
	}, nil); code != http.StatusForbidden {
		t.Errorf("teacher creating admin status = %d, want 403", code)
	}

	var bulk service.BulkRegisterResponse
	if code := env.do(t, http.MethodPost, "/api/v1/users/bulk", teacherToken, []map[string]string{
		{"name": "Uno", "email": "uno@example.com", "document_id": "1"},
		{"name": "", "email": "dos@example.com", "document_id": "2"},
	}, &bulk); code != http.StatusOK {
		t.Fatalf("bulk status = %d", code)
	}
	if bulk.Created != 1 || bulk.Skipped != 1 {
		t.Errorf("bulk = %+v", bulk)
	}

	if code := env.do(t, http.MethodGet, "/api/v1/users?group=estudiantes", teacherToken, nil, nil); code != http.StatusForbidden {
		t.Errorf("teacher list status = %d, want 403", code)
	}
}
