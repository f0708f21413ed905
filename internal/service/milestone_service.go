package service

import (
	"context"

	"go.uber.org/zap"

	"collabtrack/internal/apperr"
	"collabtrack/internal/model"
)

// MilestoneService 里程碑生命周期服务：初始化、编辑、完成
// 每次变更后重算进度快照一并返回，完成事件经由存储层的 outbox 发出
type MilestoneService struct {
	milestones   MilestoneStore
	sessions     SessionStore
	compensation CompensationSource
	logger       *zap.Logger
}

func NewMilestoneService(
	milestones MilestoneStore,
	sessions SessionStore,
	compensation CompensationSource,
	logger *zap.Logger,
) *MilestoneService {
	return &MilestoneService{
		milestones:   milestones,
		sessions:     sessions,
		compensation: compensation,
		logger:       logger,
	}
}

// Initialize 为提案初始化五阶段里程碑（幂等）
// payments 为空使用默认付款计划（付款阶段 100%）；
// 自定义时必须恰好五项、每项 0-100 且合计恰为 100
func (s *MilestoneService) Initialize(ctx context.Context, proposalID int, payments []int) ([]model.Milestone, *model.ProgressSnapshot, error) {
	if proposalID <= 0 {
		return nil, nil, apperr.Validationf("proposal id must be positive")
	}
	if err := validatePaymentSchedule(payments); err != nil {
		return nil, nil, err
	}

	milestones, err := s.milestones.Initialize(ctx, proposalID, payments)
	if err != nil {
		return nil, nil, err
	}

	snapshot, err := s.snapshot(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	return milestones, snapshot, nil
}

// Update 编辑里程碑的标题/描述/预估工时
func (s *MilestoneService) Update(ctx context.Context, milestoneID int, upd model.MilestoneUpdate) (*model.Milestone, *model.ProgressSnapshot, error) {
	if upd.EstimatedHours != nil && *upd.EstimatedHours < 0 {
		return nil, nil, apperr.Validationf("estimated hours must not be negative")
	}
	if upd.Title != nil && *upd.Title == "" {
		return nil, nil, apperr.Validationf("title must not be empty")
	}

	milestone, err := s.milestones.Update(ctx, milestoneID, upd)
	if err != nil {
		return nil, nil, err
	}

	snapshot, err := s.snapshot(ctx, milestone.ProposalID)
	if err != nil {
		return nil, nil, err
	}
	return milestone, snapshot, nil
}

// Complete 完成里程碑（单向转换）
// milestone.completed 事件在存储层与状态转换同事务写入 outbox，
// 发布失败绝不回滚完成本身
func (s *MilestoneService) Complete(ctx context.Context, milestoneID int) (*model.Milestone, *model.ProgressSnapshot, error) {
	milestone, err := s.milestones.Complete(ctx, milestoneID)
	if err != nil {
		return nil, nil, err
	}

	snapshot, err := s.snapshot(ctx, milestone.ProposalID)
	if err != nil {
		return nil, nil, err
	}
	return milestone, snapshot, nil
}

func (s *MilestoneService) snapshot(ctx context.Context, proposalID int) (*model.ProgressSnapshot, error) {
	return buildSnapshot(ctx, proposalID, s.milestones, s.sessions, s.compensation, s.logger)
}

// validatePaymentSchedule 校验自定义付款计划
func validatePaymentSchedule(payments []int) error {
	if len(payments) == 0 {
		return nil
	}
	if len(payments) != len(model.StageOrder) {
		return apperr.Validationf("payment schedule must have exactly %d entries", len(model.StageOrder))
	}

	sum := 0
	for _, pct := range payments {
		if pct < 0 || pct > 100 {
			return apperr.Validationf("payment percentage must be between 0 and 100")
		}
		sum += pct
	}
	if sum != 100 {
		return apperr.Validationf("payment percentages must sum to 100, got %d", sum)
	}
	return nil
}
