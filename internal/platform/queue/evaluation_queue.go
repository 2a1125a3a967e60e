package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Pop when no job id arrived before the timeout.
var ErrEmpty = errors.New("queue is empty")

// EvaluationQueue is a FIFO of job ids on a Redis list: producers LPUSH,
// the worker BRPOPs.
type EvaluationQueue struct {
	rdb  *redis.Client
	name string
}

func NewEvaluationQueue(rdb *redis.Client, name string) *EvaluationQueue {
	return &EvaluationQueue{rdb: rdb, name: name}
}

func (q *EvaluationQueue) Name() string {
	return q.name
}

func (q *EvaluationQueue) Push(ctx context.Context, jobID string) error {
	return q.rdb.LPush(ctx, q.name, jobID).Err()
}

// Requeue puts a job id back at the tail so other jobs run first.
func (q *EvaluationQueue) Requeue(ctx context.Context, jobID string) error {
	return q.rdb.LPush(ctx, q.name, jobID).Err()
}

// Pop blocks up to timeout for the next job id.
func (q *EvaluationQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrEmpty
		}
		return "", err
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return "", ErrEmpty
	}
	return res[1], nil
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Lock is a held Redis lock. Release only deletes the key while it still
// carries this holder's token.
type Lock struct {
	rdb   *redis.Client
	key   string
	token string
}

// TryLock attempts SET key token NX PX ttl. ok is false when another holder
// owns the key.
func TryLock(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (*Lock, bool, error) {
	token := uuid.NewString()
	ok, err := rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	return &Lock{rdb: rdb, key: key, token: token}, true, nil
}

// Release reports whether the lock was still held and got deleted.
func (l *Lock) Release(ctx context.Context) (bool, error) {
	deleted, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Int64()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}
