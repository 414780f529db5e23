package dbretry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/robalyx/zoonas/internal/database/dbretry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDomain = errors.New("domain failure")

func TestIsRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "conflict", err: dbretry.ErrConflict, want: true},
		{name: "wrapped conflict", err: fmt.Errorf("insert vote: %w", dbretry.ErrConflict), want: true},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "sqlite busy", err: errors.New("database is locked (5) (SQLITE_BUSY)"), want: true},
		{name: "domain", err: errDomain, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dbretry.IsRetryableError(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, dbretry.IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: zone_votes.item_id, zone_votes.voter_id (2067)")))
	assert.False(t, dbretry.IsUniqueViolation(errors.New("no such table: zone_votes")))
	assert.False(t, dbretry.IsUniqueViolation(nil))
}

func TestOperationRetriesConflicts(t *testing.T) {
	t.Parallel()

	attempts := 0
	result, err := dbretry.Operation(t.Context(), func(context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, dbretry.ErrConflict
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, attempts)
}

func TestOperationPassesDomainErrorsThrough(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := dbretry.NoResult(t.Context(), func(context.Context) error {
		attempts++
		if attempts == 1 {
			return dbretry.ErrConflict
		}
		return errDomain
	})

	require.ErrorIs(t, err, errDomain)
	assert.Equal(t, errDomain, err)
	assert.Equal(t, 2, attempts)
}

func TestOperationStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	attempts := 0
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		attempts++
		return ctx.Err()
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
