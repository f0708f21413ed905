package circuitbreaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabtrack/pkg/circuitbreaker"
)

var errBoom = errors.New("boom")

func TestClosedAllowsRequests(t *testing.T) {
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig())

	err := cb.Execute(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, circuitbreaker.StateClosed, cb.GetState())
}

func TestOpensAfterFailureThreshold(t *testing.T) {
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold:    3,
		SuccessThreshold:    1,
		Timeout:             time.Minute,
		HalfOpenMaxRequests: 1,
	})

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return errBoom })
		assert.ErrorIs(t, err, errBoom)
	}

	// 熔断后直接拒绝，不再调用下游
	err := cb.Execute(func() error {
		t.Fatal("fn must not be called when breaker is open")
		return nil
	})
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitBreakerOpen)
	assert.Equal(t, circuitbreaker.StateOpen, cb.GetState())
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold:    3,
		SuccessThreshold:    1,
		Timeout:             time.Minute,
		HalfOpenMaxRequests: 1,
	})

	cb.Execute(func() error { return errBoom })
	cb.Execute(func() error { return errBoom })
	cb.Execute(func() error { return nil })
	cb.Execute(func() error { return errBoom })
	cb.Execute(func() error { return errBoom })

	assert.Equal(t, circuitbreaker.StateClosed, cb.GetState())
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold:    1,
		SuccessThreshold:    2,
		Timeout:             10 * time.Millisecond,
		HalfOpenMaxRequests: 5,
	})

	cb.Execute(func() error { return errBoom })
	require.Equal(t, circuitbreaker.StateOpen, cb.GetState())

	time.Sleep(20 * time.Millisecond)

	// 半开状态放行，连续成功后关闭
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.NoError(t, cb.Execute(func() error { return nil }))

	assert.Equal(t, circuitbreaker.StateClosed, cb.GetState())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold:    1,
		SuccessThreshold:    2,
		Timeout:             10 * time.Millisecond,
		HalfOpenMaxRequests: 5,
	})

	cb.Execute(func() error { return errBoom })
	time.Sleep(20 * time.Millisecond)

	cb.Execute(func() error { return errBoom })
	assert.Equal(t, circuitbreaker.StateOpen, cb.GetState())
}

func TestReset(t *testing.T) {
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold:    1,
		SuccessThreshold:    1,
		Timeout:             time.Minute,
		HalfOpenMaxRequests: 1,
	})

	cb.Execute(func() error { return errBoom })
	require.Equal(t, circuitbreaker.StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, circuitbreaker.StateClosed, cb.GetState())
	assert.NoError(t, cb.Execute(func() error { return nil }))
}
