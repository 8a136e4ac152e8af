package io

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/danjacques/gofslock/fslock"
	"github.com/kamrann/build2-vs/internal/base"
)

const lockPollInterval = 25 * time.Millisecond

// AcquireLock takes the cross-process lock at path, polling until it is free or ctx is done.
func AcquireLock(ctx context.Context, path string) (fslock.Handle, error) {
	if err := Mkdir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	logged := false
	for {
		handle, err := fslock.Lock(path)
		switch {
		case err == nil:
			return handle, nil
		case !errors.Is(err, fslock.ErrLockHeld):
			return nil, err
		}

		if !logged {
			base.LogVerbose(LogFiles, "waiting for lock %q held by another process", path)
			logged = true
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func WithLock(ctx context.Context, path string, fn func() error) error {
	handle, err := AcquireLock(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if er := handle.Unlock(); er != nil {
			base.LogWarning(LogFiles, "unlock %q: %v", path, er)
		}
	}()
	return fn()
}
