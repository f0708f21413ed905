// Package progress 是纯计算层：输入里程碑与累计工时，输出进度快照。
// 不读时钟、不访问存储，保证可重复计算。
package progress

import (
	"collabtrack/internal/model"
)

// StageProgress 计算每个阶段的进度（0-100）
// 每个阶段对应单个里程碑，进度是二值的：完成为 100，否则为 0
func StageProgress(milestones []model.Milestone) map[model.StageType]int {
	stageMap := make(map[model.StageType]int, len(model.StageOrder))
	for _, stage := range model.StageOrder {
		stageMap[stage] = 0
	}
	for _, m := range milestones {
		if m.Status == model.MilestoneStatusCompleted {
			stageMap[m.Type] = 100
		}
	}
	return stageMap
}

// OverallProgress 计算总进度：五个阶段的算术平均，四舍五入（round half up）
func OverallProgress(stageMap map[model.StageType]int) int {
	n := len(model.StageOrder)
	sum := 0
	for _, stage := range model.StageOrder {
		sum += stageMap[stage]
	}
	// round half up: floor(sum/n + 0.5)，整数算式避免浮点误差
	return (2*sum + n) / (2 * n)
}

// CurrentStage 返回固定顺序中第一个未完成（< 100）的阶段
// 全部完成时返回最后一个阶段（payment）
func CurrentStage(stageMap map[model.StageType]int) model.StageType {
	for _, stage := range model.StageOrder {
		if stageMap[stage] < 100 {
			return stage
		}
	}
	return model.StagePayment
}

// HourlyRate 计算实际时薪。totalHours 为 0 时返回 0，
// 绝不向调用方传播 NaN/Inf
func HourlyRate(compensation, totalHours float64) float64 {
	if totalHours == 0 {
		return 0
	}
	return compensation / totalHours
}

// Snapshot 组装完整的进度快照
func Snapshot(proposalID int, milestones []model.Milestone, totals model.TimeTotals, comp *model.ProposalCompensation) model.ProgressSnapshot {
	stageMap := StageProgress(milestones)

	snapshot := model.ProgressSnapshot{
		ProposalID:            proposalID,
		StageProgress:         stageMap,
		OverallProgress:       OverallProgress(stageMap),
		CurrentStage:          CurrentStage(stageMap),
		TotalTimeSpentSeconds: totals.TotalTimeSpentSeconds,
		TotalHours:            totals.TotalHours,
	}

	if comp != nil {
		snapshot.HourlyRate = HourlyRate(comp.Compensation, totals.TotalHours)
		snapshot.Currency = comp.Currency
	}

	return snapshot
}
