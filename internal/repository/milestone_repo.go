package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "collabtrack/contracts/mq"
	"collabtrack/internal/apperr"
	"collabtrack/internal/model"
	"collabtrack/pkg/metrics"
	"collabtrack/pkg/outbox"
	"collabtrack/pkg/trace"
)

const milestoneColumns = `
	id, proposal_id, stage_order, title, description, type, status,
	estimated_hours, actual_hours, due_date, completed_at, payment_percentage,
	created_at, updated_at`

type MilestoneRepository struct {
	db         *pgxpool.Pool
	outboxRepo *outbox.Repository
	logger     *zap.Logger
}

func NewMilestoneRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{
		db:         db,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Initialize 为提案创建固定五阶段里程碑（幂等）
// 已存在时原样返回现有集合。payments 为空时使用默认付款计划
func (r *MilestoneRepository) Initialize(ctx context.Context, proposalID int, payments []int) ([]model.Milestone, error) {
	r.logger.Debug("Initializing milestones", zap.Int("proposal_id", proposalID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	existing, err := r.listByProposalTx(ctx, tx, proposalID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		r.logger.Debug("Milestones already initialized, returning existing set",
			zap.Int("proposal_id", proposalID),
			zap.Int("count", len(existing)),
		)
		// 幂等：提交空事务，返回现有集合
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return existing, nil
	}

	stages := model.DefaultStages()
	query := `
        INSERT INTO milestones (proposal_id, stage_order, title, description, type, status,
                                estimated_hours, payment_percentage)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + milestoneColumns

	milestones := make([]model.Milestone, 0, len(stages))
	for i, stage := range stages {
		pct := stage.PaymentPercentage
		if len(payments) == len(stages) {
			pct = payments[i]
		}

		var m model.Milestone
		row := tx.QueryRow(ctx, query,
			proposalID,
			i+1,
			stage.Title,
			stage.Description,
			stage.Type,
			model.MilestoneStatusPending,
			stage.EstimatedHours,
			pct,
		)
		if err := scanMilestone(row, &m); err != nil {
			// 并发初始化撞上唯一约束：对方已建好，读现有集合返回
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				r.logger.Info("Concurrent initialize detected, returning existing set",
					zap.Int("proposal_id", proposalID),
				)
				return r.ListByProposal(ctx, proposalID)
			}
			r.logger.Error("Failed to insert milestone", zap.Error(err))
			return nil, err
		}
		milestones = append(milestones, m)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.logger.Info("Milestones initialized successfully",
		zap.Int("proposal_id", proposalID),
		zap.Int("count", len(milestones)),
	)
	return milestones, nil
}

// Update 编辑里程碑（仅标题/描述/预估工时；已完成的里程碑不可编辑）
func (r *MilestoneRepository) Update(ctx context.Context, milestoneID int, upd model.MilestoneUpdate) (*model.Milestone, error) {
	r.logger.Debug("Updating milestone", zap.Int("milestone_id", milestoneID))

	query := `
        UPDATE milestones
        SET title           = COALESCE($2, title),
            description     = COALESCE($3, description),
            estimated_hours = COALESCE($4, estimated_hours),
            updated_at      = NOW()
        WHERE id = $1 AND status <> 'completed'
        RETURNING ` + milestoneColumns

	var m model.Milestone
	row := r.db.QueryRow(ctx, query, milestoneID, upd.Title, upd.Description, upd.EstimatedHours)
	if err := scanMilestone(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMissingUpdate(ctx, milestoneID)
		}
		r.logger.Error("Failed to update milestone",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		return nil, err
	}

	r.logger.Info("Milestone updated successfully", zap.Int("milestone_id", milestoneID))
	return &m, nil
}

// Complete 完成里程碑（单向、不可逆转换）
// 状态转换与 outbox 事件写入在同一事务中，发布由 dispatcher 在提交后异步执行
func (r *MilestoneRepository) Complete(ctx context.Context, milestoneID int) (*model.Milestone, error) {
	r.logger.Debug("Completing milestone", zap.Int("milestone_id", milestoneID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// WHERE status <> 'completed' 把 check-then-act 压成单条语句，
	// 并发的第二次 complete 只会看到 0 行
	query := `
        UPDATE milestones
        SET status = 'completed', completed_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND status <> 'completed'
        RETURNING ` + milestoneColumns

	var m model.Milestone
	row := tx.QueryRow(ctx, query, milestoneID)
	if err := scanMilestone(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMissingUpdate(ctx, milestoneID)
		}
		r.logger.Error("Failed to complete milestone",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		return nil, err
	}

	payload := mqcontracts.MilestoneCompletedPayload{
		MilestoneID:       m.ID,
		ProposalID:        m.ProposalID,
		Stage:             string(m.Type),
		PaymentPercentage: m.PaymentPercentage,
		CompletedAt:       derefTime(m.CompletedAt),
		TraceID:           trace.FromContext(ctx),
	}
	aggregateID := int64(m.ID)
	if err := outbox.InsertEventInTx(ctx, tx, r.outboxRepo, "milestone", &aggregateID, "milestone.completed", payload); err != nil {
		r.logger.Error("Failed to insert milestone.completed outbox event",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncrementMilestoneCompleted(string(m.Type))
	r.logger.Info("Milestone completed successfully",
		zap.Int("milestone_id", m.ID),
		zap.Int("proposal_id", m.ProposalID),
		zap.String("stage", string(m.Type)),
	)
	return &m, nil
}

// FindByID 根据 ID 查询里程碑
func (r *MilestoneRepository) FindByID(ctx context.Context, milestoneID int) (*model.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1`

	var m model.Milestone
	row := r.db.QueryRow(ctx, query, milestoneID)
	if err := scanMilestone(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("milestone %d", milestoneID)
		}
		return nil, err
	}
	return &m, nil
}

// ListByProposal 按 stage_order 升序返回提案的全部里程碑
func (r *MilestoneRepository) ListByProposal(ctx context.Context, proposalID int) ([]model.Milestone, error) {
	return r.listByProposal(ctx, r.db, proposalID)
}

func (r *MilestoneRepository) listByProposalTx(ctx context.Context, tx pgx.Tx, proposalID int) ([]model.Milestone, error) {
	return r.listByProposal(ctx, tx, proposalID)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *MilestoneRepository) listByProposal(ctx context.Context, q queryer, proposalID int) ([]model.Milestone, error) {
	query := `
        SELECT ` + milestoneColumns + `
        FROM milestones
        WHERE proposal_id = $1
        ORDER BY stage_order ASC
    `

	rows, err := q.Query(ctx, query, proposalID)
	if err != nil {
		r.logger.Error("Failed to query milestones",
			zap.Int("proposal_id", proposalID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	milestones := []model.Milestone{}
	for rows.Next() {
		var m model.Milestone
		if err := scanMilestone(rows, &m); err != nil {
			r.logger.Error("Failed to scan milestone row", zap.Error(err))
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

// RecomputeActualHours 重算里程碑的实际工时：所有已结束会话时长之和
// 幂等，worker 消费 session.stopped 事件时调用
func (r *MilestoneRepository) RecomputeActualHours(ctx context.Context, milestoneID int) error {
	query := `
        UPDATE milestones
        SET actual_hours = COALESCE((
                SELECT SUM(duration_seconds)::numeric / 3600.0
                FROM time_sessions
                WHERE milestone_id = $1 AND end_time IS NOT NULL
            ), 0),
            updated_at = NOW()
        WHERE id = $1
    `

	result, err := r.db.Exec(ctx, query, milestoneID)
	if err != nil {
		r.logger.Error("Failed to recompute actual hours",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		return err
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFoundf("milestone %d", milestoneID)
	}

	r.logger.Info("Actual hours recomputed",
		zap.Int("milestone_id", milestoneID),
	)
	return nil
}

// classifyMissingUpdate 区分 update/complete 的 0 行结果：不存在 vs 已完成
func (r *MilestoneRepository) classifyMissingUpdate(ctx context.Context, milestoneID int) error {
	var status string
	err := r.db.QueryRow(ctx, `SELECT status FROM milestones WHERE id = $1`, milestoneID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFoundf("milestone %d", milestoneID)
		}
		return err
	}
	return apperr.InvalidStatef("milestone %d is already completed", milestoneID)
}

func scanMilestone(row pgx.Row, m *model.Milestone) error {
	return row.Scan(
		&m.ID,
		&m.ProposalID,
		&m.StageOrder,
		&m.Title,
		&m.Description,
		&m.Type,
		&m.Status,
		&m.EstimatedHours,
		&m.ActualHours,
		&m.DueDate,
		&m.CompletedAt,
		&m.PaymentPercentage,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
