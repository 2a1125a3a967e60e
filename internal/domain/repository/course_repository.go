package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"daily_judge/internal/domain/model"
)

type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	Update(ctx context.Context, course *model.Course) error
	FindByID(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
}

type pgCourseRepository struct {
	docs documents
}

func NewPgCourseRepository(db *sql.DB) CourseRepository {
	return &pgCourseRepository{docs: documents{db: db, table: TableCourses}}
}

func (r *pgCourseRepository) Create(ctx context.Context, c *model.Course) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := r.docs.insert(ctx, c.ID, c); err != nil {
		return fmt.Errorf("pgCourseRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCourseRepository) Update(ctx context.Context, c *model.Course) error {
	c.UpdatedAt = time.Now().UTC()
	if err := r.docs.put(ctx, c.ID, c); err != nil {
		return fmt.Errorf("pgCourseRepository.Update: %w", err)
	}
	return nil
}

func (r *pgCourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	course := &model.Course{}
	if err := r.docs.get(ctx, id, course); err != nil {
		return nil, fmt.Errorf("pgCourseRepository.FindByID: %w", err)
	}
	return course, nil
}

func (r *pgCourseRepository) List(ctx context.Context) ([]model.Course, error) {
	courses, err := queryDocuments[model.Course](ctx, r.docs, `ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("pgCourseRepository.List: %w", err)
	}
	return courses, nil
}
