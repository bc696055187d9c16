package errors

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := NewInternalError("failed to load consultation", sql.ErrConnDone)

	assert.Contains(t, err.Error(), "INTERNAL")
	assert.Contains(t, err.Error(), "failed to load consultation")
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("booking: %w", NewConflictError("slot taken"))

	assert.Equal(t, ErrorTypeConflict, TypeOf(wrapped))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, ErrorTypeInternal, TypeOf(sql.ErrNoRows))
	assert.False(t, IsNotFound(nil))
}

func TestNewForbiddenError(t *testing.T) {
	err := NewForbiddenError("not a party to this consultation")

	assert.Equal(t, ErrorTypeForbidden, err.Type)
	assert.Nil(t, err.Unwrap())
}

func TestHTTPStatusAndPublicMessage(t *testing.T) {
	assert.Equal(t, 409, ErrorTypeConflict.HTTPStatus())
	assert.Equal(t, 502, ErrorTypeExternal.HTTPStatus())
	assert.Equal(t, 500, ErrorTypeInternal.HTTPStatus())
	assert.Equal(t, 500, ErrorType("SOMETHING_ELSE").HTTPStatus())

	assert.Equal(t, "slot taken", PublicMessage(fmt.Errorf("book: %w", NewConflictError("slot taken"))))
	assert.Equal(t, "internal server error", PublicMessage(NewInternalError("query failed", sql.ErrConnDone)))
	assert.Equal(t, "internal server error", PublicMessage(NewExternalError("typesense down", nil)))
	assert.Equal(t, "internal server error", PublicMessage(sql.ErrNoRows))
}
