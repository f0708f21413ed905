package model

import "time"

type TimeSession struct {
	ID              int        `json:"id"`
	MilestoneID     int        `json:"milestone_id"`
	ProposalID      int        `json:"proposal_id"` // 冗余自里程碑，方便按提案查询
	ActorID         int        `json:"actor_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationSeconds *int64     `json:"duration_seconds"`
	Description     string     `json:"description"`
	IsActive        bool       `json:"is_active"` // 派生字段：end_time 为空即为活跃
	CreatedAt       time.Time  `json:"created_at"`
}

// ComputeActive 设置派生的 is_active 字段
func (s *TimeSession) ComputeActive() {
	s.IsActive = s.EndTime == nil
}

// TimeTotals 提案的累计工时（只统计已结束的会话）
type TimeTotals struct {
	TotalTimeSpentSeconds int64   `json:"total_time_spent_seconds"`
	TotalHours            float64 `json:"total_hours"`
}
