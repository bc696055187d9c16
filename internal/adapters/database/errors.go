package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	apperrors "github.com/nabhacare/backend/pkg/errors"
)

const (
	uniqueViolation = pq.ErrorCode("23505")
	// Raised when an id is not a well-formed uuid.
	invalidTextRepresentation = pq.ErrorCode("22P02")
)

// isMissingRow reports whether a lookup found nothing. An id that cannot be
// a key of the table counts as missing.
func isMissingRow(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation
}

// wrapWriteError maps driver errors from inserts and updates to AppErrors.
// Unique violations become conflicts so callers can report them as such.
func wrapWriteError(err error, message string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return apperrors.NewInternalError(message, err)
	}
	switch pqErr.Code {
	case uniqueViolation:
		if pqErr.Constraint != "" {
			return apperrors.NewConflictError(message + ": " + pqErr.Constraint)
		}
		return apperrors.NewConflictError(message)
	case invalidTextRepresentation:
		return apperrors.NewNotFoundError(message + ": unknown id")
	}
	return apperrors.NewInternalError(message, err)
}
