package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"collabtrack/internal/model"
)

// QueryService 只读查询门面：里程碑列表、工时汇总、进度快照
// 不存在的提案返回空集合/零值快照，从不返回 NotFound
type QueryService struct {
	milestones      MilestoneStore
	sessions        SessionStore
	compensation    CompensationSource
	urgentThreshold time.Duration
	logger          *zap.Logger
}

func NewQueryService(
	milestones MilestoneStore,
	sessions SessionStore,
	compensation CompensationSource,
	urgentThreshold time.Duration,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		milestones:      milestones,
		sessions:        sessions,
		compensation:    compensation,
		urgentThreshold: urgentThreshold,
		logger:          logger,
	}
}

// GetMilestones 返回提案的里程碑列表，is_urgent 在读取时派生
func (s *QueryService) GetMilestones(ctx context.Context, proposalID int) ([]model.Milestone, error) {
	milestones, err := s.milestones.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range milestones {
		milestones[i].ComputeUrgency(now, s.urgentThreshold)
	}
	return milestones, nil
}

// TimeSummary 工时汇总：会话列表 + 已结束会话的总时长
type TimeSummary struct {
	Sessions              []model.TimeSession `json:"sessions"`
	TotalTimeSpentSeconds int64               `json:"total_time_spent_seconds"`
	TotalHours            float64             `json:"total_hours"`
}

// GetTimeSummary 返回提案的工时汇总
func (s *QueryService) GetTimeSummary(ctx context.Context, proposalID int) (*TimeSummary, error) {
	sessions, err := s.sessions.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	totals, err := s.sessions.TotalDuration(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	return &TimeSummary{
		Sessions:              sessions,
		TotalTimeSpentSeconds: totals.TotalTimeSpentSeconds,
		TotalHours:            totals.TotalHours,
	}, nil
}

// GetProgress 返回提案的进度快照（每次读取都重新计算，不缓存）
func (s *QueryService) GetProgress(ctx context.Context, proposalID int) (*model.ProgressSnapshot, error) {
	return buildSnapshot(ctx, proposalID, s.milestones, s.sessions, s.compensation, s.logger)
}
