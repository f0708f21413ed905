package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"collabtrack/internal/model"
	"collabtrack/pkg/circuitbreaker"
	"collabtrack/pkg/metrics"
	"collabtrack/pkg/trace"
)

// ProposalClient 调用提案服务获取报酬信息（只读，外部协作方）
type ProposalClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

func NewProposalClient(baseURL string) *ProposalClient {
	cbConfig := circuitbreaker.Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 2,
	}

	return &ProposalClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second, // 报酬查询只影响时薪展示，不能拖慢主流程
		},
		cb: circuitbreaker.NewCircuitBreaker(cbConfig),
	}
}

// GetCompensation 查询提案的报酬和币种，带熔断器和 fallback
// 提案服务不可用时返回零报酬（时薪展示为 0），不向调用方返回错误
func (c *ProposalClient) GetCompensation(ctx context.Context, proposalID int) (*model.ProposalCompensation, error) {
	var comp *model.ProposalCompensation

	err := c.cb.Execute(func() error {
		start := time.Now()

		url := fmt.Sprintf("%s/proposals/%d/compensation", c.baseURL, proposalID)
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if reqErr != nil {
			return reqErr
		}
		// 传播 trace_id
		if traceID := trace.FromContext(ctx); traceID != "" {
			req.Header.Set(trace.HeaderName(), traceID)
		}

		resp, doErr := c.httpClient.Do(req)
		latency := time.Since(start)

		if doErr != nil {
			metrics.RecordProposalCallLatency("/compensation", "error", latency)
			return fmt.Errorf("failed to call proposal service: %w", doErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			metrics.RecordProposalCallLatency("/compensation", "5xx", latency)
			return fmt.Errorf("proposal service 5xx: %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			metrics.RecordProposalCallLatency("/compensation", fmt.Sprintf("%d", resp.StatusCode), latency)
			return fmt.Errorf("proposal service error: %d", resp.StatusCode)
		}

		metrics.RecordProposalCallLatency("/compensation", "success", latency)

		var decoded model.ProposalCompensation
		if decodeErr := json.NewDecoder(resp.Body).Decode(&decoded); decodeErr != nil {
			return decodeErr
		}
		comp = &decoded
		return nil
	})

	// 失败（包括熔断器打开）时使用 fallback，保证进度查询始终可用
	if err != nil {
		return c.fallbackCompensation(proposalID), nil
	}

	return comp, nil
}

// fallbackCompensation 提案服务不可用时的默认报酬
func (c *ProposalClient) fallbackCompensation(proposalID int) *model.ProposalCompensation {
	return &model.ProposalCompensation{
		ProposalID:   proposalID,
		Compensation: 0,
		Currency:     "",
	}
}
