package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/repository/inmem"
)

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	f, err := NewFactory(inmem.NewCredentialRepository(inmem.NewDB()),
		Config{Name: Primary, SigningKey: []byte("primary-key"), TokenTTL: time.Hour, IssueSessions: true},
		Config{Name: Secondary, SigningKey: []byte("secondary-key"), TokenTTL: time.Hour},
	)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestSecondaryCreatesAccountsPrimarySignsIn(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	acc, err := f.MustGet(Secondary).CreateAccount(ctx, "ana@example.com", "abc12345")
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if acc.UserID == "" {
		t.Fatal("CreateAccount() returned an empty user id")
	}

	if _, err := f.MustGet(Secondary).SignIn(ctx, "ana@example.com", "abc12345"); !errors.Is(err, common.ErrForbidden) {
		t.Errorf("secondary SignIn() error = %v, want forbidden", err)
	}

	primary := f.MustGet(Primary)
	session, err := primary.SignIn(ctx, "ANA@example.com", "abc12345")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if session.UserID != acc.UserID {
		t.Errorf("session user = %q, want %q", session.UserID, acc.UserID)
	}

	verified, err := primary.VerifyToken(session.Token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if verified.UserID != acc.UserID || verified.Email != "ana@example.com" {
		t.Errorf("verified session = %+v", verified)
	}
	if _, err := f.MustGet(Secondary).VerifyToken(session.Token); !errors.Is(err, common.ErrUnauthorized) {
		t.Errorf("secondary accepted a primary token: %v", err)
	}
}

func TestSignInFailures(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	primary := f.MustGet(Primary)
	if _, err := primary.CreateAccount(ctx, "bo@example.com", "right-pass"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "bo@example.com", "wrong-pass"},
		{"unknown email", "nobody@example.com", "right-pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := primary.SignIn(ctx, tt.email, tt.password); !errors.Is(err, common.ErrUnauthorized) {
				t.Errorf("SignIn() error = %v, want unauthorized", err)
			}
		})
	}
}

func TestCreateAccountValidation(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	p := f.MustGet(Secondary)

	if _, err := p.CreateAccount(ctx, "not-an-email", "abcdef"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("bad email error = %v", err)
	}
	if _, err := p.CreateAccount(ctx, "x@example.com", "abc"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("short password error = %v", err)
	}
	if _, err := p.CreateAccount(ctx, "x@example.com", "abcdef"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.CreateAccount(ctx, "X@example.com", "abcdef"); !errors.Is(err, common.ErrConflict) {
		t.Errorf("duplicate email error = %v, want conflict", err)
	}
}

func TestNewFactoryRejectsBadConfigs(t *testing.T) {
	creds := inmem.NewCredentialRepository(inmem.NewDB())
	if _, err := NewFactory(creds, Config{Name: Primary}); err == nil {
		t.Error("accepted a config without signing key")
	}
	if _, err := NewFactory(creds,
		Config{Name: Primary, SigningKey: []byte("a")},
		Config{Name: Primary, SigningKey: []byte("b")},
	); err == nil {
		t.Error("accepted duplicate names")
	}
	f, _ := NewFactory(creds, Config{Name: Primary, SigningKey: []byte("a")})
	if _, err := f.Get(Secondary); err == nil {
		t.Error("Get() returned an unconfigured instance")
	}
}
