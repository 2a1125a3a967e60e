package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
)

func TestRegisterUserRoleRules(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, model.User{ID: "admin", DisplayName: "Admin", Role: model.RoleAdmin})
	env.addUser(t, model.User{ID: "prof", DisplayName: "Prof", Role: model.RoleTeacher})
	env.addUser(t, model.User{ID: "stud", DisplayName: "Stud", Role: model.RoleStudent})

	tests := []struct {
		name    string
		actor   string
		role    model.Role
		wantErr error
	}{
		{"admin registers teacher", "admin", model.RoleTeacher, nil},
		{"admin registers admin", "admin", model.RoleAdmin, nil},
		{"teacher registers student", "prof", model.RoleStudent, nil},
		{"teacher registers student by default", "prof", "", nil},
		{"teacher cannot register teacher", "prof", model.RoleTeacher, common.ErrForbidden},
		{"student cannot register", "stud", model.RoleStudent, common.ErrForbidden},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := RegisterUserRequest{
				Name:       "Person",
				Email:      strings.ReplaceAll(tt.name, " ", ".") + "@example.com",
				DocumentID: "10" + string(rune('0'+i)),
				Role:       tt.role,
			}
			res, err := env.userSvc.RegisterUser(context.Background(), tt.actor, req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("RegisterUser() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RegisterUser() error = %v", err)
			}
			if len(res.Password) != generatedPasswordLength {
				t.Errorf("password length = %d", len(res.Password))
			}
			if res.User.TeacherID != tt.actor {
				t.Errorf("TeacherID = %q, want %q", res.User.TeacherID, tt.actor)
			}
		})
	}
}

func TestRegisterStudentLinksTeacherAndMails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, model.User{ID: "prof", DisplayName: "Prof", Role: model.RoleTeacher})

	res, err := env.userSvc.RegisterUser(ctx, "prof", RegisterUserRequest{Name: "Ana", Email: "ana@example.com", DocumentID: "123"})
	if err != nil {
		t.Fatal(err)
	}
	if res.User.Role != model.RoleStudent {
		t.Errorf("role = %q", res.User.Role)
	}

	teacher, _ := env.users.FindByID(ctx, "prof")
	if len(teacher.Students) != 1 || teacher.Students[0] != res.User.ID {
		t.Errorf("teacher students = %v", teacher.Students)
	}
	if len(env.mailer.sent) != 1 || env.mailer.sent[0] != "ana@example.com" {
		t.Errorf("mails sent = %v", env.mailer.sent)
	}

	// The generated password signs in through the primary instance.
	login, err := env.authSvc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: res.Password})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.User.ID != res.User.ID || login.Session.Token == "" {
		t.Errorf("login = %+v", login)
	}

	if _, err := env.userSvc.RegisterUser(ctx, "prof", RegisterUserRequest{Name: "Ana", Email: "ana@example.com", DocumentID: "123"}); !errors.Is(err, common.ErrConflict) {
		t.Errorf("duplicate email error = %v, want conflict", err)
	}
}

func TestBulkRegister(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, model.User{ID: "prof", DisplayName: "Prof", Role: model.RoleTeacher})

	res, err := env.userSvc.BulkRegister(context.Background(), "prof", []BulkStudentRow{
		{Name: "Ana", Email: "ana@example.com", DocumentID: "1"},
		{Name: "", Email: "ghost@example.com", DocumentID: "2"},
		{Name: "Luis", Email: "not-an-email", DocumentID: "3"},
		{Name: "Eva", Email: "eva@example.com", DocumentID: "4"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 2 || res.Skipped != 1 || res.Failed != 1 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Log) != 4 || !strings.HasPrefix(res.Log[1], "row 2:") {
		t.Errorf("log = %v", res.Log)
	}

	if _, err := env.userSvc.BulkRegister(context.Background(), "prof", nil); !errors.Is(err, common.ErrValidation) {
		t.Errorf("empty rows error = %v", err)
	}
}

func TestListUsersGroups(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, model.User{ID: "p", DisplayName: "P", Role: model.RoleTeacher})
	env.addUser(t, model.User{ID: "s", DisplayName: "S", Role: model.RoleStudent})

	tests := []struct {
		group string
		want  int
	}{
		{GroupAll, 2},
		{GroupStudents, 1},
		{GroupTeachers, 1},
	}
	for _, tt := range tests {
		users, err := env.userSvc.ListUsers(context.Background(), tt.group)
		if err != nil {
			t.Fatal(err)
		}
		if len(users) != tt.want {
			t.Errorf("ListUsers(%q) = %d users, want %d", tt.group, len(users), tt.want)
		}
	}
	if _, err := env.userSvc.ListUsers(context.Background(), "otros"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("unknown group error = %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if admin, err := env.userSvc.EnsureAdmin(ctx, "", "", ""); admin != nil || err != nil {
		t.Errorf("EnsureAdmin() without credentials = %v, %v", admin, err)
	}

	admin, err := env.userSvc.EnsureAdmin(ctx, "root@example.com", "secret123", "")
	if err != nil {
		t.Fatal(err)
	}
	if admin.Role != model.RoleAdmin || admin.DisplayName != "Admin" {
		t.Errorf("admin = %+v", admin)
	}

	again, err := env.userSvc.EnsureAdmin(ctx, "root@example.com", "secret123", "")
	if err != nil || again.ID != admin.ID {
		t.Errorf("second EnsureAdmin() = %v, %v", again, err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.userSvc.EnsureAdmin(ctx, "root@example.com", "secret123", "Root"); err != nil {
		t.Fatal(err)
	}

	if _, err := env.authSvc.Login(ctx, LoginRequest{Email: "root@example.com", Password: "wrong-pass"}); !errors.Is(err, common.ErrUnauthorized) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := env.authSvc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret123"}); !errors.Is(err, common.ErrUnauthorized) {
		t.Errorf("unknown email error = %v", err)
	}
	if _, err := env.authSvc.Login(ctx, LoginRequest{Email: "bad"}); !errors.Is(err, common.ErrValidation) {
		t.Errorf("invalid request error = %v", err)
	}
}
