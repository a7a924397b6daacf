package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		assert.Equal(t, tt.status, meta.HTTPStatus, tt.code)
		assert.Equal(t, tt.retryable, meta.Retryable, tt.code)
		assert.Equal(t, tt.detailsOK, meta.DetailsAllowed, tt.code)
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "load vendor")

	require.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeDependency, wrapped.Code())
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestAsFindsTypedErrorThroughFmtWrap(t *testing.T) {
	base := New(CodeStateConflict, "transaction not valid").WithDetails(map[string]any{"status": "FAILED"})
	err := fmt.Errorf("place order: %w", base)

	typed := As(err)
	require.NotNil(t, typed)
	assert.Equal(t, CodeStateConflict, typed.Code())
	assert.True(t, IsCode(err, CodeStateConflict))
	assert.False(t, IsCode(err, CodeNotFound))
}

func TestEnsureOnlyWrapsUntypedErrors(t *testing.T) {
	typed := New(CodeNotFound, "order not found")
	assert.Same(t, typed, Ensure(typed, CodeDependency, "ignored"))

	plain := stdErrors.New("dial tcp")
	wrapped := As(Ensure(plain, CodeDependency, "redis"))
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeDependency, wrapped.Code())
	assert.Nil(t, Ensure(nil, CodeDependency, "noop"))
}

func TestDumpSurfacesPgxDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_customers_email", TableName: "customers", ColumnName: "email", Message: "duplicate key value"}
	err := Wrap(CodeConflict, fmt.Errorf("insert customer: %w", pgErr), "email already registered")

	d := Dump(err)
	assert.Equal(t, CodeConflict, d.Code)
	assert.Equal(t, "23505", d.PGCode)
	assert.Equal(t, "ux_customers_email", d.PGConstraint)
	assert.Equal(t, "email", d.PGColumn)
	assert.Len(t, d.Chain, 3)
}

func TestDumpSurfacesPqColumn(t *testing.T) {
	pqErr := &pq.Error{Code: "23502", Table: "orders", Column: "vendor_id", Message: "null value in column"}
	d := Dump(fmt.Errorf("insert order: %w", pqErr))
	assert.Equal(t, "23502", d.PGCode)
	assert.Equal(t, "orders", d.PGTable)
	assert.Equal(t, "vendor_id", d.PGColumn)
}
