package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// List returns users with the given role, or every user when role is empty.
	List(ctx context.Context, role model.Role) ([]model.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.User, error)
	// AddSolvedProblem adds problemID to the user's solved set. Adding an
	// already present id is a no-op.
	AddSolvedProblem(ctx context.Context, userID, problemID string) error
	AddStudent(ctx context.Context, teacherID, studentID string) error
}

type pgUserRepository struct {
	docs documents
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{docs: documents{db: db, table: TableUsers}}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	if user.SolvedProblems == nil {
		user.SolvedProblems = []string{}
	}
	if err := r.docs.insert(ctx, user.ID, user); err != nil {
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	if err := r.docs.get(ctx, id, user); err != nil {
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := queryDocuments[model.User](ctx, r.docs,
		`WHERE lower(data->>'email') = $1 LIMIT 1`, strings.ToLower(email))
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	if len(users) == 0 {
		return nil, common.ErrNotFound
	}
	return &users[0], nil
}

func (r *pgUserRepository) List(ctx context.Context, role model.Role) ([]model.User, error) {
	var (
		users []model.User
		err   error
	)
	if role == "" {
		users, err = queryDocuments[model.User](ctx, r.docs, `ORDER BY data->>'display_name'`)
	} else {
		users, err = queryDocuments[model.User](ctx, r.docs,
			`WHERE data->>'role' = $1 ORDER BY data->>'display_name'`, string(role))
	}
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.List: %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := queryDocuments[model.User](ctx, r.docs,
		`WHERE id = ANY($1) ORDER BY data->>'display_name'`, ids)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.ListByIDs: %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) AddSolvedProblem(ctx context.Context, userID, problemID string) error {
	if err := r.appendToSet(ctx, userID, "solved_problems", problemID); err != nil {
		return fmt.Errorf("pgUserRepository.AddSolvedProblem: %w", err)
	}
	return nil
}

func (r *pgUserRepository) AddStudent(ctx context.Context, teacherID, studentID string) error {
	if err := r.appendToSet(ctx, teacherID, "students", studentID); err != nil {
		return fmt.Errorf("pgUserRepository.AddStudent: %w", err)
	}
	return nil
}

// appendToSet adds value to the JSON array field of a user document in a
// single statement. The field name is never user input.
func (r *pgUserRepository) appendToSet(ctx context.Context, userID, field, value string) error {
	current := `CASE WHEN jsonb_typeof(data->'` + field + `') = 'array' THEN data->'` + field + `' ELSE '[]'::jsonb END`
	query := `UPDATE ` + TableUsers + `
		SET data = jsonb_set(data, '{` + field + `}', ` + current + ` || to_jsonb($2::text)), updated_at = now()
		WHERE id = $1 AND NOT (` + current + ` ? $2)`

	res, err := r.docs.db.ExecContext(ctx, query, userID, value)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 1 {
		return nil
	}

	found, err := r.docs.exists(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return common.ErrNotFound
	}
	return nil
}
