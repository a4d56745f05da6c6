package dbretry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mofucat/chatrank/internal/database/dbretry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "broken pipe", err: errors.New("write: broken pipe"), want: true},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "io timeout", err: errors.New("read: i/o timeout"), want: true},
		{name: "unexpected EOF", err: errors.New("unexpected EOF"), want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "constraint violation", err: errors.New("duplicate key value violates unique constraint"), want: false},
		{name: "syntax error", err: errors.New("syntax error at or near SELECT"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dbretry.IsRetryable(tt.err))
		})
	}
}

func TestOperationRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	calls := 0

	result, err := dbretry.Operation(t.Context(), func(_ context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection reset by peer")
		}

		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

func TestOperationPermanentErrorNotRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	permanent := errors.New("duplicate key value violates unique constraint")

	_, err := dbretry.Operation(t.Context(), func(_ context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestNoResult(t *testing.T) {
	t.Parallel()

	calls := 0

	err := dbretry.NoResult(t.Context(), func(_ context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("write: broken pipe")
		}

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
