package model

// ProposalCompensation 提案的报酬信息（外部协作方数据，只读）
type ProposalCompensation struct {
	ProposalID   int     `json:"proposal_id"`
	Compensation float64 `json:"compensation"`
	Currency     string  `json:"currency"`
}

// ProgressSnapshot 提案进度快照（派生数据，读取时重新计算）
type ProgressSnapshot struct {
	ProposalID            int               `json:"proposal_id"`
	StageProgress         map[StageType]int `json:"stage_progress"`
	OverallProgress       int               `json:"overall_progress"`
	CurrentStage          StageType         `json:"current_stage"`
	TotalTimeSpentSeconds int64             `json:"total_time_spent_seconds"`
	TotalHours            float64           `json:"total_hours"`
	HourlyRate            float64           `json:"hourly_rate"`
	Currency              string            `json:"currency"`
}
