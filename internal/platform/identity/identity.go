// Package identity is the narrow account and session provider used by the
// API. A Factory is built once at start-up from named configurations and
// handed to whoever needs a Provider.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"daily_judge/internal/common"
	"daily_judge/internal/common/security"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	Primary   = "primary"
	Secondary = "secondary"

	MinPasswordLength = 6
)

type Config struct {
	Name       string
	SigningKey []byte
	TokenTTL   time.Duration
	// IssueSessions is false for instances that only create accounts, so
	// registering a student never signs anyone in.
	IssueSessions bool
}

type Account struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Provider struct {
	name          string
	creds         repository.CredentialRepository
	issuer        *security.TokenIssuer
	issueSessions bool
	now           func() time.Time
	logger        *log.Entry
}

func (p *Provider) Name() string {
	return p.name
}

// TokenIssuer exposes the provider's signer so the router can verify bearer
// tokens with the same key.
func (p *Provider) TokenIssuer() *security.TokenIssuer {
	return p.issuer
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*Account, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", common.ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	cred := &model.Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Provider:     p.name,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("%w: email %s is already registered", common.ErrConflict, email)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	p.logger.Infof("account created for %s", email)
	return &Account{UserID: cred.UserID, Email: cred.Email}, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if !p.issueSessions {
		return nil, fmt.Errorf("%w: identity instance %q does not issue sessions", common.ErrForbidden, p.name)
	}

	cred, err := p.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if !security.CheckPasswordHash(password, cred.PasswordHash) {
		return nil, common.ErrUnauthorized
	}

	token, expiresAt, err := p.issuer.GenerateToken(cred.UserID, cred.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{UserID: cred.UserID, Email: cred.Email, Token: token, ExpiresAt: expiresAt}, nil
}

// VerifyToken checks a session token and returns the session it encodes.
func (p *Provider) VerifyToken(token string) (*Session, error) {
	claims, err := p.issuer.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	userID, err := security.GetUserIDFromClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	email, _ := security.GetEmailFromClaims(claims)

	return &Session{UserID: userID, Email: email, Token: token}, nil
}

type Factory struct {
	providers map[string]*Provider
}

// NewFactory builds one Provider per configuration. Every provider shares the
// credential store; they differ in signing key and session policy.
func NewFactory(creds repository.CredentialRepository, configs ...Config) (*Factory, error) {
	f := &Factory{providers: make(map[string]*Provider, len(configs))}
	for _, cfg := range configs {
		if cfg.Name == "" {
			return nil, errors.New("identity config without a name")
		}
		if _, dup := f.providers[cfg.Name]; dup {
			return nil, fmt.Errorf("identity config %q declared twice", cfg.Name)
		}
		if len(cfg.SigningKey) == 0 {
			return nil, fmt.Errorf("identity config %q has no signing key", cfg.Name)
		}
		f.providers[cfg.Name] = &Provider{
			name:          cfg.Name,
			creds:         creds,
			issuer:        security.NewTokenIssuer(cfg.SigningKey, cfg.TokenTTL),
			issueSessions: cfg.IssueSessions,
			now:           time.Now,
			logger:        log.WithField("from", "identity."+cfg.Name),
		}
	}
	return f, nil
}

func (f *Factory) Get(name string) (*Provider, error) {
	p, ok := f.providers[name]
	if !ok {
		return nil, fmt.Errorf("identity instance %q is not configured", name)
	}
	return p, nil
}

// MustGet is for start-up wiring where a missing instance is a programming error.
func (f *Factory) MustGet(name string) *Provider {
	p, err := f.Get(name)
	if err != nil {
		panic(err)
	}
	return p
}
