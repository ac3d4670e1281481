package castore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound reports that the store has no row for an id.
	ErrNotFound = errors.New("castore: not found")
	// ErrDuplicate is returned by stores on a uniqueness violation.
	ErrDuplicate = errors.New("castore: duplicate key")
	// ErrLockContention reports that a per-record lock could not be taken
	// within Options.LockWait.
	ErrLockContention = errors.New("castore: lock contention")
	// ErrBackend matches every *BackendError.
	ErrBackend = errors.New("castore: backend failure")
	ErrClosed  = errors.New("castore: closed")
)

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s %d", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError is a write rejected by a uniqueness constraint. Its message
// is stable and safe to show to end users.
type ConflictError struct {
	Entity string
	ID     int64
	Err    error
}

func (e *ConflictError) Error() string {
	if e.ID == 0 {
		return "already exists: " + e.Entity
	}
	return fmt.Sprintf("already exists: %s %d", e.Entity, e.ID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrDuplicate }
func (e *ConflictError) Unwrap() error        { return e.Err }

type LockContentionError struct {
	Key      string
	Attempts int
	Waited   time.Duration
}

func (e *LockContentionError) Error() string {
	return fmt.Sprintf("lock %q still held after %d attempts (%s)", e.Key, e.Attempts, e.Waited)
}

func (e *LockContentionError) Is(target error) bool { return target == ErrLockContention }

// BackendError wraps a store or cache failure with the operation it broke.
type BackendError struct {
	Op     string
	Entity string
	ID     int64
	Err    error
}

func (e *BackendError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
	}
	return fmt.Sprintf("%s %s %d: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *BackendError) Is(target error) bool { return target == ErrBackend }
func (e *BackendError) Unwrap() error        { return e.Err }

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}

// InvalidateError reports that neither fence held: the generation bump and
// the cache delete both failed, so a stale entry may still be served.
type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	return fmt.Sprintf("invalidate %q failed: gen bump and delete failed: bump=%v; delete=%v",
		e.Key, e.BumpErr, e.DelErr)
}

func (e *InvalidateError) Is(target error) bool { return target == ErrBackend }

func (e *InvalidateError) Unwrap() []error {
	return []error{e.BumpErr, e.DelErr}
}
