package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"
)

type StatRepository interface {
	// Ensure returns the stat record for (userID, problemID), creating a
	// zeroed one first when none exists.
	Ensure(ctx context.Context, fresh *model.SubmissionStat) (*model.SubmissionStat, error)
	FindByID(ctx context.Context, id string) (*model.SubmissionStat, error)
	Save(ctx context.Context, stat *model.SubmissionStat) error
	ListByUser(ctx context.Context, userID string) ([]model.SubmissionStat, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]model.SubmissionStat, error)
}

type pgStatRepository struct {
	docs documents
}

func NewPgStatRepository(db *sql.DB) StatRepository {
	return &pgStatRepository{docs: documents{db: db, table: TableStats}}
}

func (r *pgStatRepository) Ensure(ctx context.Context, fresh *model.SubmissionStat) (*model.SubmissionStat, error) {
	if _, err := r.docs.insertIfAbsent(ctx, fresh.ID, fresh); err != nil {
		return nil, fmt.Errorf("pgStatRepository.Ensure: %w", err)
	}
	return r.FindByID(ctx, fresh.ID)
}

func (r *pgStatRepository) FindByID(ctx context.Context, id string) (*model.SubmissionStat, error) {
	stat := &model.SubmissionStat{}
	if err := r.docs.get(ctx, id, stat); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgStatRepository.FindByID: %w", err)
	}
	return stat, nil
}

func (r *pgStatRepository) Save(ctx context.Context, stat *model.SubmissionStat) error {
	if err := r.docs.put(ctx, stat.ID, stat); err != nil {
		return fmt.Errorf("pgStatRepository.Save: %w", err)
	}
	return nil
}

func (r *pgStatRepository) ListByUser(ctx context.Context, userID string) ([]model.SubmissionStat, error) {
	stats, err := queryDocuments[model.SubmissionStat](ctx, r.docs,
		`WHERE data->>'user_id' = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("pgStatRepository.ListByUser: %w", err)
	}
	return stats, nil
}

func (r *pgStatRepository) ListByUsers(ctx context.Context, userIDs []string) ([]model.SubmissionStat, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	stats, err := queryDocuments[model.SubmissionStat](ctx, r.docs,
		`WHERE data->>'user_id' = ANY($1) ORDER BY id`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("pgStatRepository.ListByUsers: %w", err)
	}
	return stats, nil
}
