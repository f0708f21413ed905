package handler_test

import (
	"context"
	"time"

	"collabtrack/internal/apperr"
	"collabtrack/internal/model"
)

type fakeMilestoneStore struct {
	milestones []model.Milestone
	nextID     int
}

func newFakeMilestoneStore() *fakeMilestoneStore {
	return &fakeMilestoneStore{nextID: 1}
}

func (f *fakeMilestoneStore) Initialize(ctx context.Context, proposalID int, payments []int) ([]model.Milestone, error) {
	existing, _ := f.ListByProposal(ctx, proposalID)
	if len(existing) > 0 {
		return existing, nil
	}

	for i, stage := range model.DefaultStages() {
		pct := stage.PaymentPercentage
		if len(payments) == len(model.StageOrder) {
			pct = payments[i]
		}
		f.milestones = append(f.milestones, model.Milestone{
			ID:                f.nextID,
			ProposalID:        proposalID,
			StageOrder:        i + 1,
			Title:             stage.Title,
			Type:              stage.Type,
			Status:            model.MilestoneStatusPending,
			EstimatedHours:    stage.EstimatedHours,
			PaymentPercentage: pct,
		})
		f.nextID++
	}
	return f.ListByProposal(ctx, proposalID)
}

func (f *fakeMilestoneStore) Update(ctx context.Context, milestoneID int, upd model.MilestoneUpdate) (*model.Milestone, error) {
	for i := range f.milestones {
		if f.milestones[i].ID != milestoneID {
			continue
		}
		if f.milestones[i].Status == model.MilestoneStatusCompleted {
			return nil, apperr.InvalidStatef("milestone %d is completed", milestoneID)
		}
		if upd.Title != nil {
			f.milestones[i].Title = *upd.Title
		}
		if upd.Description != nil {
			f.milestones[i].Description = *upd.Description
		}
		if upd.EstimatedHours != nil {
			f.milestones[i].EstimatedHours = *upd.EstimatedHours
		}
		m := f.milestones[i]
		return &m, nil
	}
	return nil, apperr.NotFoundf("milestone %d", milestoneID)
}

func (f *fakeMilestoneStore) Complete(ctx context.Context, milestoneID int) (*model.Milestone, error) {
	for i := range f.milestones {
		if f.milestones[i].ID != milestoneID {
			continue
		}
		if f.milestones[i].Status == model.MilestoneStatusCompleted {
			return nil, apperr.InvalidStatef("milestone %d already completed", milestoneID)
		}
		f.milestones[i].Status = model.MilestoneStatusCompleted
		m := f.milestones[i]
		return &m, nil
	}
	return nil, apperr.NotFoundf("milestone %d", milestoneID)
}

func (f *fakeMilestoneStore) FindByID(ctx context.Context, milestoneID int) (*model.Milestone, error) {
	for i := range f.milestones {
		if f.milestones[i].ID == milestoneID {
			m := f.milestones[i]
			return &m, nil
		}
	}
	return nil, apperr.NotFoundf("milestone %d", milestoneID)
}

func (f *fakeMilestoneStore) ListByProposal(ctx context.Context, proposalID int) ([]model.Milestone, error) {
	var out []model.Milestone
	for _, m := range f.milestones {
		if m.ProposalID == proposalID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeSessionStore struct {
	sessions   []model.TimeSession
	nextID     int
	proposalID int
}

func newFakeSessionStore(proposalID int) *fakeSessionStore {
	return &fakeSessionStore{nextID: 1, proposalID: proposalID}
}

func (f *fakeSessionStore) FindActiveByActor(ctx context.Context, actorID int) (*model.TimeSession, error) {
	for i := range f.sessions {
		if f.sessions[i].ActorID == actorID && f.sessions[i].EndTime == nil {
			s := f.sessions[i]
			s.ComputeActive()
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionStore) Start(ctx context.Context, actorID, milestoneID int, description string) (*model.TimeSession, error) {
	for _, s := range f.sessions {
		if s.ActorID == actorID && s.EndTime == nil {
			return nil, apperr.Conflictf("actor %d already has an active session", actorID)
		}
	}

	session := model.TimeSession{
		ID:          f.nextID,
		MilestoneID: milestoneID,
		ProposalID:  f.proposalID,
		ActorID:     actorID,
		Description: description,
	}
	session.ComputeActive()
	f.nextID++
	f.sessions = append(f.sessions, session)
	return &session, nil
}

func (f *fakeSessionStore) Stop(ctx context.Context, sessionID int) (*model.TimeSession, error) {
	for i := range f.sessions {
		if f.sessions[i].ID != sessionID {
			continue
		}
		if f.sessions[i].EndTime != nil {
			return nil, apperr.InvalidStatef("session %d already stopped", sessionID)
		}
		end := f.sessions[i].StartTime.Add(time.Hour)
		duration := int64(3600)
		f.sessions[i].EndTime = &end
		f.sessions[i].DurationSeconds = &duration
		s := f.sessions[i]
		s.ComputeActive()
		return &s, nil
	}
	return nil, apperr.NotFoundf("session %d", sessionID)
}

func (f *fakeSessionStore) ListByProposal(ctx context.Context, proposalID int) ([]model.TimeSession, error) {
	var out []model.TimeSession
	for _, s := range f.sessions {
		if s.ProposalID == proposalID {
			s.ComputeActive()
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) TotalDuration(ctx context.Context, proposalID int) (model.TimeTotals, error) {
	var total int64
	for _, s := range f.sessions {
		if s.ProposalID == proposalID && s.DurationSeconds != nil {
			total += *s.DurationSeconds
		}
	}
	return model.TimeTotals{
		TotalTimeSpentSeconds: total,
		TotalHours:            float64(total) / 3600,
	}, nil
}

type fakeCompensationSource struct {
	comp *model.ProposalCompensation
	err  error
}

func (f *fakeCompensationSource) GetCompensation(ctx context.Context, proposalID int) (*model.ProposalCompensation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.comp, nil
}
