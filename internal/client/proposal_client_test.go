package client_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabtrack/internal/client"
	"collabtrack/pkg/trace"
)

func TestGetCompensation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/proposals/7/compensation", r.URL.Path)
		fmt.Fprint(w, `{"proposal_id":7,"compensation":1500.50,"currency":"USD"}`)
	}))
	defer ts.Close()

	c := client.NewProposalClient(ts.URL)

	comp, err := c.GetCompensation(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, comp.ProposalID)
	assert.InDelta(t, 1500.50, comp.Compensation, 1e-9)
	assert.Equal(t, "USD", comp.Currency)
}

func TestGetCompensation_PropagatesTraceID(t *testing.T) {
	var gotTrace string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTrace = r.Header.Get(trace.HeaderName())
		fmt.Fprint(w, `{"proposal_id":7,"compensation":100,"currency":"USD"}`)
	}))
	defer ts.Close()

	c := client.NewProposalClient(ts.URL)
	ctx := trace.WithContext(context.Background(), "trace-123")

	_, err := c.GetCompensation(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "trace-123", gotTrace)
}

// 提案服务 5xx 时返回零报酬兜底，不返回错误
func TestGetCompensation_FallbackOn5xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := client.NewProposalClient(ts.URL)

	comp, err := c.GetCompensation(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 0.0, comp.Compensation)
	assert.Empty(t, comp.Currency)
}

func TestGetCompensation_FallbackWhenUnreachable(t *testing.T) {
	c := client.NewProposalClient("http://127.0.0.1:1")

	comp, err := c.GetCompensation(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, comp.ProposalID)
	assert.Equal(t, 0.0, comp.Compensation)
}

// 连续失败触发熔断后依旧返回兜底值，调用方无感知
func TestGetCompensation_CircuitOpenStillFallsBack(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := client.NewProposalClient(ts.URL)

	for i := 0; i < 5; i++ {
		comp, err := c.GetCompensation(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, 0.0, comp.Compensation)
	}
}
