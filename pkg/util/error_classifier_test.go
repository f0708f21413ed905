package util_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"collabtrack/pkg/util"
)

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		wantRetryable bool
		wantType      string
	}{
		{"nil", nil, false, ""},
		{"no rows", pgx.ErrNoRows, false, "record_not_found"},
		{"duplicate key", errors.New(`duplicate key value violates unique constraint "uq_time_sessions_active_actor"`), false, "duplicate_key"},
		{"db connection", errors.New("failed to connect to database: connection refused"), true, "db_connection_error"},
		{"deadline", context.DeadlineExceeded, true, "timeout"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"proposal 5xx", fmt.Errorf("proposal service 5xx: status 503"), true, "proposal_service_error"},
		{"proposal unreachable", fmt.Errorf("failed to call proposal service: dial tcp"), true, "proposal_service_unavailable"},
		{"unknown", errors.New("something odd"), false, "unknown_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotRetryable, gotType := util.IsRetryableError(tc.err)
			assert.Equal(t, tc.wantRetryable, gotRetryable)
			assert.Equal(t, tc.wantType, gotType)
		})
	}
}

func TestShouldRetry(t *testing.T) {
	assert.False(t, util.ShouldRetry(1, 5, false))
	assert.True(t, util.ShouldRetry(5, 5, true))
	assert.False(t, util.ShouldRetry(6, 5, true))
}
