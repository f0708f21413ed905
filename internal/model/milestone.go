package model

import "time"

// StageType 里程碑所属阶段
type StageType string

const (
	StageContentCreation StageType = "content_creation"
	StageSubmission      StageType = "submission"
	StageReview          StageType = "review"
	StageApproval        StageType = "approval"
	StagePayment         StageType = "payment"
)

// StageOrder 阶段的固定顺序
var StageOrder = []StageType{
	StageContentCreation,
	StageSubmission,
	StageReview,
	StageApproval,
	StagePayment,
}

// 里程碑状态
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
)

type Milestone struct {
	ID                int        `json:"id"`
	ProposalID        int        `json:"proposal_id"`
	StageOrder        int        `json:"stage_order"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Type              StageType  `json:"type"`
	Status            string     `json:"status"` // pending / in_progress / completed
	EstimatedHours    float64    `json:"estimated_hours"`
	ActualHours       float64    `json:"actual_hours"`
	DueDate           *time.Time `json:"due_date"`
	CompletedAt       *time.Time `json:"completed_at"`
	PaymentPercentage int        `json:"payment_percentage"`
	IsUrgent          bool       `json:"is_urgent"` // 派生字段，读取时计算
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ComputeUrgency 计算派生的 urgent 标记：
// 未完成且（已过期 或 在阈值时间窗口内到期）
func (m *Milestone) ComputeUrgency(now time.Time, threshold time.Duration) {
	m.IsUrgent = false
	if m.Status == MilestoneStatusCompleted || m.DueDate == nil {
		return
	}
	m.IsUrgent = m.DueDate.Before(now.Add(threshold))
}

// MilestoneUpdate 里程碑编辑请求：只允许改标题/描述/预估工时，不允许改状态
type MilestoneUpdate struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	EstimatedHours *float64 `json:"estimated_hours"`
}

// DefaultStage 默认五阶段模板的一项
type DefaultStage struct {
	Type              StageType
	Title             string
	Description       string
	EstimatedHours    float64
	PaymentPercentage int
}

// DefaultStages 初始化时使用的固定五阶段模板
// 默认付款计划：0/0/0/0/100，付款里程碑持有全部比例
func DefaultStages() []DefaultStage {
	return []DefaultStage{
		{
			Type:              StageContentCreation,
			Title:             "Content Creation",
			Description:       "Create the deliverable content for the collaboration",
			EstimatedHours:    20,
			PaymentPercentage: 0,
		},
		{
			Type:              StageSubmission,
			Title:             "Submission",
			Description:       "Submit the content for brand review",
			EstimatedHours:    2,
			PaymentPercentage: 0,
		},
		{
			Type:              StageReview,
			Title:             "Review",
			Description:       "Brand reviews the submitted content",
			EstimatedHours:    4,
			PaymentPercentage: 0,
		},
		{
			Type:              StageApproval,
			Title:             "Approval",
			Description:       "Final approval and publication",
			EstimatedHours:    2,
			PaymentPercentage: 0,
		},
		{
			Type:              StagePayment,
			Title:             "Payment",
			Description:       "Payment release for the completed collaboration",
			EstimatedHours:    1,
			PaymentPercentage: 100,
		},
	}
}
