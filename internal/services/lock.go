package services

import (
	"context"
	"time"

	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"golang.org/x/sync/semaphore"
)

// WriteLock serializes writes to the whole tabular store. Waiting is bounded.
type WriteLock struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewWriteLock creates a lock that gives up after timeout.
func NewWriteLock(timeout time.Duration) *WriteLock {
	return &WriteLock{
		sem:     semaphore.NewWeighted(1),
		timeout: timeout,
	}
}

// Acquire blocks until the lock is held or the wait expires. The returned
// func releases the lock and must be called exactly once.
func (l *WriteLock) Acquire(ctx context.Context) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		return nil, apierrors.WithMessage(apierrors.ErrLockTimeout,
			"Could not obtain lock after "+l.timeout.String()+".")
	}
	return func() { l.sem.Release(1) }, nil
}
