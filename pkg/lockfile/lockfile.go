// Package lockfile guards a single file with a sibling "<name>.lock" and
// replaces it atomically by renaming the lock over the target.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLocked is returned when the lock is still held after the wait limit.
var ErrLocked = errors.New("lock held by another process")

var (
	// WaitLimit bounds how long Acquire retries an existing lock.
	WaitLimit = 2 * time.Second
	// RetryDelay is the pause between lock attempts.
	RetryDelay = 5 * time.Millisecond
)

// File is an acquired lock. Content written to it becomes the target's
// content on Commit; Rollback discards it.
type File struct {
	target string
	path   string
	f      *os.File
	done   bool
}

// Acquire creates target+".lock" exclusively, waiting up to WaitLimit for
// a competing holder to release it. Missing parent directories are
// created.
func Acquire(target string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("lock %s: %w", target, err)
	}
	lockPath := target + ".lock"
	deadline := time.Now().Add(WaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return &File{target: target, path: lockPath, f: f}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("lock %s: %w", target, err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("lock %s: %w", lockPath, ErrLocked)
		}
		time.Sleep(RetryDelay)
	}
}

// Write appends p to the pending content.
func (l *File) Write(p []byte) (int, error) {
	return l.f.Write(p)
}

// Commit flushes the pending content and renames it over the target.
func (l *File) Commit() error {
	if l.done {
		return fmt.Errorf("lock %s: already released", l.path)
	}
	l.done = true
	if err := l.f.Sync(); err != nil {
		l.f.Close()
		os.Remove(l.path)
		return fmt.Errorf("lock %s: sync: %w", l.path, err)
	}
	if err := l.f.Close(); err != nil {
		os.Remove(l.path)
		return fmt.Errorf("lock %s: close: %w", l.path, err)
	}
	if err := os.Rename(l.path, l.target); err != nil {
		os.Remove(l.path)
		return fmt.Errorf("lock %s: rename: %w", l.path, err)
	}
	return nil
}

// Rollback releases the lock without touching the target. It is safe to
// call after Commit.
func (l *File) Rollback() {
	if l.done {
		return
	}
	l.done = true
	l.f.Close()
	os.Remove(l.path)
}

// WriteFile replaces target with data under its lock.
func WriteFile(target string, data []byte) error {
	l, err := Acquire(target)
	if err != nil {
		return err
	}
	defer l.Rollback()
	if _, err := l.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return l.Commit()
}
