package mq

import "time"

// 里程碑完成事件的 payload
// 由发票/付款子系统消费（标记对应付款里程碑 ready），也由成就子系统消费
type MilestoneCompletedPayload struct {
	MilestoneID       int       `json:"milestone_id"`
	ProposalID        int       `json:"proposal_id"`
	Stage             string    `json:"stage"`
	PaymentPercentage int       `json:"payment_percentage"`
	CompletedAt       time.Time `json:"completed_at"`
	TraceID           string    `json:"trace_id,omitempty"`
}

// 计时会话结束事件的 payload
// 由 worker 消费，异步重算所属里程碑的 actual_hours
type SessionStoppedPayload struct {
	SessionID       int    `json:"session_id"`
	MilestoneID     int    `json:"milestone_id"`
	ProposalID      int    `json:"proposal_id"`
	ActorID         int    `json:"actor_id"`
	DurationSeconds int64  `json:"duration_seconds"`
	TraceID         string `json:"trace_id,omitempty"`
}
