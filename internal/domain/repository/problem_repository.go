package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"daily_judge/internal/domain/model"
)

type ProblemRepository interface {
	// Upsert creates the problem or overwrites the existing one with the same id.
	Upsert(ctx context.Context, problem *model.Problem) error
	FindByID(ctx context.Context, id string) (*model.Problem, error)
	// List returns every problem ordered by display order.
	List(ctx context.Context) ([]model.Problem, error)
}

type pgProblemRepository struct {
	docs documents
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{docs: documents{db: db, table: TableProblems}}
}

func (r *pgProblemRepository) Upsert(ctx context.Context, p *model.Problem) error {
	p.UpdatedAt = time.Now().UTC()
	if err := r.docs.put(ctx, p.ID, p); err != nil {
		return fmt.Errorf("pgProblemRepository.Upsert: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) FindByID(ctx context.Context, id string) (*model.Problem, error) {
	problem := &model.Problem{}
	if err := r.docs.get(ctx, id, problem); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.FindByID: %w", err)
	}
	return problem, nil
}

func (r *pgProblemRepository) List(ctx context.Context) ([]model.Problem, error) {
	problems, err := queryDocuments[model.Problem](ctx, r.docs,
		`ORDER BY COALESCE((data->>'order')::int, 0), id`)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.List: %w", err)
	}
	return problems, nil
}
