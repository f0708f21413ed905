package service

import (
	"context"

	"go.uber.org/zap"

	"collabtrack/internal/apperr"
	"collabtrack/internal/model"
)

// TimeTrackingService 计时会话服务：开始、结束、查询活跃会话
type TimeTrackingService struct {
	sessions     SessionStore
	milestones   MilestoneStore
	compensation CompensationSource
	logger       *zap.Logger
}

func NewTimeTrackingService(
	sessions SessionStore,
	milestones MilestoneStore,
	compensation CompensationSource,
	logger *zap.Logger,
) *TimeTrackingService {
	return &TimeTrackingService{
		sessions:     sessions,
		milestones:   milestones,
		compensation: compensation,
		logger:       logger,
	}
}

// Start 开始计时
// 单人单计时器约束由存储层的唯一索引保证，冲突原样上抛 Conflict，
// 客户端据此提示"先停止当前计时器"
func (s *TimeTrackingService) Start(ctx context.Context, actorID, milestoneID int, description string) (*model.TimeSession, error) {
	if actorID <= 0 {
		return nil, apperr.Validationf("actor id must be positive")
	}
	if milestoneID <= 0 {
		return nil, apperr.Validationf("milestone id must be positive")
	}

	return s.sessions.Start(ctx, actorID, milestoneID, description)
}

// Stop 结束计时，返回会话和最新进度快照
// actual_hours 的重算由 worker 消费 session.stopped 事件异步完成
func (s *TimeTrackingService) Stop(ctx context.Context, sessionID int) (*model.TimeSession, *model.ProgressSnapshot, error) {
	session, err := s.sessions.Stop(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	snapshot, err := buildSnapshot(ctx, session.ProposalID, s.milestones, s.sessions, s.compensation, s.logger)
	if err != nil {
		return nil, nil, err
	}
	return session, snapshot, nil
}

// GetActive 查询 actor 当前的活跃会话，没有时返回 nil（不是错误）
func (s *TimeTrackingService) GetActive(ctx context.Context, actorID int) (*model.TimeSession, error) {
	return s.sessions.FindActiveByActor(ctx, actorID)
}
