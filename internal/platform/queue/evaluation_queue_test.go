package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestEvaluationQueueFIFO(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	q := NewEvaluationQueue(rdb, "jobs")

	for _, id := range []string{"a", "b", "c"} {
		if err := q.Push(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		got, err := q.Pop(ctx, time.Second)
		if err != nil {
			t.Fatalf("Pop() error = %v", err)
		}
		if got != want {
			t.Errorf("Pop() = %q, want %q", got, want)
		}
	}
}

func TestEvaluationQueueRequeueGoesLast(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	q := NewEvaluationQueue(rdb, "jobs")

	_ = q.Push(ctx, "a")
	_ = q.Push(ctx, "b")
	first, _ := q.Pop(ctx, time.Second)
	if err := q.Requeue(ctx, first); err != nil {
		t.Fatal(err)
	}
	if got, _ := q.Pop(ctx, time.Second); got != "b" {
		t.Errorf("Pop() after requeue = %q, want b", got)
	}
	if got, _ := q.Pop(ctx, time.Second); got != "a" {
		t.Errorf("Pop() = %q, want a", got)
	}
}

func TestLockExclusiveAndRelease(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	lock, ok, err := TryLock(ctx, rdb, "stat_lock:u1_p1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("TryLock() = %v, %v", ok, err)
	}
	if _, ok, _ := TryLock(ctx, rdb, "stat_lock:u1_p1", time.Minute); ok {
		t.Fatal("second TryLock() acquired a held lock")
	}

	released, err := lock.Release(ctx)
	if err != nil || !released {
		t.Fatalf("Release() = %v, %v", released, err)
	}
	if mr.Exists("stat_lock:u1_p1") {
		t.Error("lock key still present after release")
	}
}

func TestLockReleaseDoesNotStealForeignLock(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	lock, _, err := TryLock(ctx, rdb, "k", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	// another holder took over after expiry
	if err := mr.Set("k", "someone-else"); err != nil {
		t.Fatal(err)
	}
	released, err := lock.Release(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if released {
		t.Error("Release() deleted a lock owned by another holder")
	}
	if v, _ := mr.Get("k"); v != "someone-else" {
		t.Errorf("foreign lock value = %q", v)
	}
}

func TestPopEmpty(t *testing.T) {
	_, rdb := newTestRedis(t)
	q := NewEvaluationQueue(rdb, "jobs")
	if _, err := q.Pop(context.Background(), 100*time.Millisecond); !errors.Is(err, ErrEmpty) {
		t.Errorf("Pop() error = %v, want ErrEmpty", err)
	}
}
