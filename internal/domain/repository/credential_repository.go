package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"daily_judge/internal/domain/model"
)

// CredentialRepository stores identity provider logins keyed by lowercased email.
type CredentialRepository interface {
	Create(ctx context.Context, cred *model.Credential) error
	FindByEmail(ctx context.Context, email string) (*model.Credential, error)
}

type pgCredentialRepository struct {
	docs documents
}

func NewPgCredentialRepository(db *sql.DB) CredentialRepository {
	return &pgCredentialRepository{docs: documents{db: db, table: TableCredentials}}
}

func CredentialKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *pgCredentialRepository) Create(ctx context.Context, cred *model.Credential) error {
	if err := r.docs.insert(ctx, CredentialKey(cred.Email), cred); err != nil {
		return fmt.Errorf("pgCredentialRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCredentialRepository) FindByEmail(ctx context.Context, email string) (*model.Credential, error) {
	cred := &model.Credential{}
	if err := r.docs.get(ctx, CredentialKey(email), cred); err != nil {
		return nil, fmt.Errorf("pgCredentialRepository.FindByEmail: %w", err)
	}
	return cred, nil
}
