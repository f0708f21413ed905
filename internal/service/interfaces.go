package service

import (
	"context"

	"collabtrack/internal/model"
)

// MilestoneStore 里程碑存储接口，由 repository.MilestoneRepository 实现
type MilestoneStore interface {
	Initialize(ctx context.Context, proposalID int, payments []int) ([]model.Milestone, error)
	Update(ctx context.Context, milestoneID int, upd model.MilestoneUpdate) (*model.Milestone, error)
	Complete(ctx context.Context, milestoneID int) (*model.Milestone, error)
	FindByID(ctx context.Context, milestoneID int) (*model.Milestone, error)
	ListByProposal(ctx context.Context, proposalID int) ([]model.Milestone, error)
}

// SessionStore 计时会话存储接口，由 repository.SessionRepository 实现
type SessionStore interface {
	FindActiveByActor(ctx context.Context, actorID int) (*model.TimeSession, error)
	Start(ctx context.Context, actorID, milestoneID int, description string) (*model.TimeSession, error)
	Stop(ctx context.Context, sessionID int) (*model.TimeSession, error)
	ListByProposal(ctx context.Context, proposalID int) ([]model.TimeSession, error)
	TotalDuration(ctx context.Context, proposalID int) (model.TimeTotals, error)
}

// CompensationSource 提案报酬查询接口，由 client.ProposalClient 实现
type CompensationSource interface {
	GetCompensation(ctx context.Context, proposalID int) (*model.ProposalCompensation, error)
}
