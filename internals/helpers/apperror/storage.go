package apperror

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATEs that mean "another writer won": serialization_failure,
// deadlock_detected, lock_not_available.
var conflictStates = map[string]struct{}{
	"40001": {},
	"40P01": {},
	"55P03": {},
}

// FromStorage classifies a raw storage error. Typed errors pass through,
// lost races become ConcurrentModification, everything else is Internal.
func FromStorage(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	if IsConflict(err) {
		return Wrap(CodeConcurrentModification, "record changed concurrently, retry the request", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Wrap(CodeInternal, message+" (timed out)", err)
	}
	return Internal(message, err)
}

// IsConflict reports Postgres serialization/lock conflicts and SQLite busy
// errors, which both mean the conditional write lost a race.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := conflictStates[pgErr.Code]
		return ok
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "database is locked") || strings.Contains(s, "sqlite_busy")
}

// IsUniqueViolation matches gorm's translated error plus the raw driver text
// for connections opened without TranslateError.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
