package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"draftly/internal/domain"
)

func testLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	locker := NewRedisLockerWithClient(client, time.Minute)
	t.Cleanup(func() { _ = locker.Close() })
	return locker, mr
}

func TestAcquireAndRelease(t *testing.T) {
	locker, mr := testLocker(t)
	ctx := context.Background()

	if err := locker.Acquire(ctx, "doc-1", "alice"); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got, _ := mr.Get("editor-lock:doc-1"); got != "alice" {
		t.Errorf("lock value = %q", got)
	}

	if err := locker.Release(ctx, "doc-1", "alice"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if mr.Exists("editor-lock:doc-1") {
		t.Error("lock key still present after release")
	}
}

func TestAcquireConflict(t *testing.T) {
	locker, _ := testLocker(t)
	ctx := context.Background()

	if err := locker.Acquire(ctx, "doc-1", "alice"); err != nil {
		t.Fatal(err)
	}

	err := locker.Acquire(ctx, "doc-1", "bob")
	var ferr *domain.ForbiddenError
	if !errors.As(err, &ferr) {
		t.Fatalf("error = %v, want forbidden", err)
	}

	// Locks on other documents are unaffected.
	if err := locker.Acquire(ctx, "doc-2", "bob"); err != nil {
		t.Errorf("Acquire on a different document: %v", err)
	}
}

func TestAcquireSameOwnerRenews(t *testing.T) {
	locker, mr := testLocker(t)
	ctx := context.Background()

	if err := locker.Acquire(ctx, "doc-1", "alice"); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(30 * time.Second)

	if err := locker.Acquire(ctx, "doc-1", "alice"); err != nil {
		t.Fatalf("re-acquire by the owner: %v", err)
	}
	if ttl := mr.TTL("editor-lock:doc-1"); ttl != time.Minute {
		t.Errorf("TTL = %v, want renewed to the full minute", ttl)
	}
}

func TestLockExpiresByTTL(t *testing.T) {
	locker, mr := testLocker(t)
	ctx := context.Background()

	if err := locker.Acquire(ctx, "doc-1", "alice"); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)

	// A crashed editor never wedges the document.
	if err := locker.Acquire(ctx, "doc-1", "bob"); err != nil {
		t.Fatalf("Acquire after expiry: %v", err)
	}
}

func TestReleaseNotHolder(t *testing.T) {
	locker, mr := testLocker(t)
	ctx := context.Background()

	if err := locker.Acquire(ctx, "doc-1", "alice"); err != nil {
		t.Fatal(err)
	}

	// bob releasing alice's lock is a no-op.
	if err := locker.Release(ctx, "doc-1", "bob"); err != nil {
		t.Fatalf("Release by non-holder: %v", err)
	}
	if got, _ := mr.Get("editor-lock:doc-1"); got != "alice" {
		t.Errorf("lock value = %q, want alice's lock untouched", got)
	}
}

func TestReleaseAbsentLock(t *testing.T) {
	locker, _ := testLocker(t)
	if err := locker.Release(context.Background(), "ghost", "alice"); err != nil {
		t.Fatalf("Release of an absent lock: %v", err)
	}
}
