package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"daily_judge/internal/common"
	"daily_judge/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const evaluationJobKeyPrefix = "evaluation_job:"

type EvaluationJobRepository interface {
	Save(ctx context.Context, job *model.EvaluationJob) error
	FindByID(ctx context.Context, id string) (*model.EvaluationJob, error)
}

// redisEvaluationJobRepository keeps jobs as JSON values that expire after ttl.
type redisEvaluationJobRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisEvaluationJobRepository(rdb *redis.Client, ttl time.Duration) EvaluationJobRepository {
	return &redisEvaluationJobRepository{rdb: rdb, ttl: ttl}
}

func (r *redisEvaluationJobRepository) Save(ctx context.Context, job *model.EvaluationJob) error {
	job.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("redisEvaluationJobRepository.Save: %w", err)
	}
	if err := r.rdb.Set(ctx, evaluationJobKeyPrefix+job.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redisEvaluationJobRepository.Save: %w", err)
	}
	return nil
}

func (r *redisEvaluationJobRepository) FindByID(ctx context.Context, id string) (*model.EvaluationJob, error) {
	data, err := r.rdb.Get(ctx, evaluationJobKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("redisEvaluationJobRepository.FindByID: %w", err)
	}
	job := &model.EvaluationJob{}
	if err := json.Unmarshal(data, job); err != nil {
		return nil, fmt.Errorf("redisEvaluationJobRepository.FindByID: %w", err)
	}
	return job, nil
}
