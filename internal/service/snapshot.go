package service

import (
	"context"

	"go.uber.org/zap"

	"collabtrack/internal/model"
	"collabtrack/internal/progress"
)

// buildSnapshot 组装提案的进度快照：里程碑 + 工时总计 + 报酬
// 每次变更后同步调用，调用方一次往返就能拿到最新进度
func buildSnapshot(
	ctx context.Context,
	proposalID int,
	milestones MilestoneStore,
	sessions SessionStore,
	compensation CompensationSource,
	logger *zap.Logger,
) (*model.ProgressSnapshot, error) {
	ms, err := milestones.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	totals, err := sessions.TotalDuration(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	comp, err := compensation.GetCompensation(ctx, proposalID)
	if err != nil {
		// 报酬查询失败只影响时薪展示，不让快照整体失败
		logger.Warn("Failed to fetch proposal compensation, hourly rate will be zero",
			zap.Int("proposal_id", proposalID),
			zap.Error(err),
		)
		comp = nil
	}

	snapshot := progress.Snapshot(proposalID, ms, totals, comp)
	return &snapshot, nil
}
