package repository

import (
	"context"
	"errors"

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

const sessionColumns = `
	id, milestone_id, proposal_id, actor_id, start_time, end_time,
	duration_seconds, description, created_at`

// 部分唯一索引名：time_sessions(actor_id) WHERE end_time IS NULL
// 把"每人同时只有一个计时器"的检查-后-写竞态变成存储层的唯一约束冲突
const activeSessionConstraint = "uq_time_sessions_active_actor"

type SessionRepository struct {
	db         *pgxpool.Pool
	outboxRepo *outbox.Repository
	logger     *zap.Logger
}

func NewSessionRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		db:         db,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// FindActiveByActor 查询 actor 当前的活跃会话，没有则返回 nil
func (r *SessionRepository) FindActiveByActor(ctx context.Context, actorID int) (*model.TimeSession, error) {
	query := `
        SELECT ` + sessionColumns + `
        FROM time_sessions
        WHERE actor_id = $1 AND end_time IS NULL
    `

	var s model.TimeSession
	row := r.db.QueryRow(ctx, query, actorID)
	if err := scanSession(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to query active session",
			zap.Int("actor_id", actorID),
			zap.Error(err),
		)
		return nil, err
	}
	return &s, nil
}

// Start 开启计时会话
// actor 已有活跃会话时返回 Conflict（不排队、不自动停止旧会话）；
// 目标里程碑不存在返回 NotFound，已完成返回 InvalidState
func (r *SessionRepository) Start(ctx context.Context, actorID, milestoneID int, description string) (*model.TimeSession, error) {
	r.logger.Debug("Starting time session",
		zap.Int("actor_id", actorID),
		zap.Int("milestone_id", milestoneID),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 校验里程碑：必须存在且未完成（不能给已完成的里程碑记工时）
	var proposalID int
	var status string
	err = tx.QueryRow(ctx,
		`SELECT proposal_id, status FROM milestones WHERE id = $1`, milestoneID,
	).Scan(&proposalID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("milestone %d", milestoneID)
		}
		return nil, err
	}
	if status == model.MilestoneStatusCompleted {
		return nil, apperr.InvalidStatef("milestone %d is already completed", milestoneID)
	}

	query := `
        INSERT INTO time_sessions (milestone_id, proposal_id, actor_id, start_time, description)
        VALUES ($1, $2, $3, NOW(), $4)
        RETURNING ` + sessionColumns

	var s model.TimeSession
	row := tx.QueryRow(ctx, query, milestoneID, proposalID, actorID, description)
	if err := scanSession(row, &s); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == activeSessionConstraint {
			metrics.IncrementTimerSession("conflict")
			r.logger.Info("Start rejected, actor already has an active session",
				zap.Int("actor_id", actorID),
			)
			return nil, apperr.Conflictf("actor %d already has an active session", actorID)
		}
		r.logger.Error("Failed to insert time session",
			zap.Int("actor_id", actorID),
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncrementTimerSession("started")
	r.logger.Info("Time session started",
		zap.Int("session_id", s.ID),
		zap.Int("actor_id", actorID),
		zap.Int("milestone_id", milestoneID),
	)
	return &s, nil
}

// Stop 结束计时会话（一次性、不可逆）
// 计算并持久化整秒时长，同一事务写入 session.stopped outbox 事件，
// worker 消费后异步重算里程碑 actual_hours
func (r *SessionRepository) Stop(ctx context.Context, sessionID int) (*model.TimeSession, error) {
	r.logger.Debug("Stopping time session", zap.Int("session_id", sessionID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// GREATEST(0, ...) 防御时钟回拨，时长永不为负
	query := `
        UPDATE time_sessions
        SET end_time = NOW(),
            duration_seconds = GREATEST(0, EXTRACT(EPOCH FROM (NOW() - start_time))::bigint)
        WHERE id = $1 AND end_time IS NULL
        RETURNING ` + sessionColumns

	var s model.TimeSession
	row := tx.QueryRow(ctx, query, sessionID)
	if err := scanSession(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMissingStop(ctx, sessionID)
		}
		r.logger.Error("Failed to stop time session",
			zap.Int("session_id", sessionID),
			zap.Error(err),
		)
		return nil, err
	}

	payload := mqcontracts.SessionStoppedPayload{
		SessionID:       s.ID,
		MilestoneID:     s.MilestoneID,
		ProposalID:      s.ProposalID,
		ActorID:         s.ActorID,
		DurationSeconds: derefInt64(s.DurationSeconds),
		TraceID:         trace.FromContext(ctx),
	}
	aggregateID := int64(s.ID)
	if err := outbox.InsertEventInTx(ctx, tx, r.outboxRepo, "time_session", &aggregateID, "session.stopped", payload); err != nil {
		r.logger.Error("Failed to insert session.stopped outbox event",
			zap.Int("session_id", sessionID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncrementTimerSession("stopped")
	r.logger.Info("Time session stopped",
		zap.Int("session_id", s.ID),
		zap.Int64("duration_seconds", derefInt64(s.DurationSeconds)),
	)
	return &s, nil
}

// ListByProposal 返回提案的全部计时会话（新的在前）
func (r *SessionRepository) ListByProposal(ctx context.Context, proposalID int) ([]model.TimeSession, error) {
	query := `
        SELECT ` + sessionColumns + `
        FROM time_sessions
        WHERE proposal_id = $1
        ORDER BY start_time DESC
    `

	rows, err := r.db.Query(ctx, query, proposalID)
	if err != nil {
		r.logger.Error("Failed to query time sessions",
			zap.Int("proposal_id", proposalID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	sessions := []model.TimeSession{}
	for rows.Next() {
		var s model.TimeSession
		if err := scanSession(rows, &s); err != nil {
			r.logger.Error("Failed to scan time session row", zap.Error(err))
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// TotalDuration 累计提案的已结束会话时长
// 活跃会话的已进行时间不计入：客户端用 start_time 对比本地时钟自行显示
func (r *SessionRepository) TotalDuration(ctx context.Context, proposalID int) (model.TimeTotals, error) {
	query := `
        SELECT COALESCE(SUM(duration_seconds), 0)
        FROM time_sessions
        WHERE proposal_id = $1 AND end_time IS NOT NULL
    `

	var totals model.TimeTotals
	err := r.db.QueryRow(ctx, query, proposalID).Scan(&totals.TotalTimeSpentSeconds)
	if err != nil {
		r.logger.Error("Failed to total session durations",
			zap.Int("proposal_id", proposalID),
			zap.Error(err),
		)
		return model.TimeTotals{}, err
	}

	totals.TotalHours = float64(totals.TotalTimeSpentSeconds) / 3600.0
	return totals, nil
}

// classifyMissingStop 区分 stop 的 0 行结果：不存在 vs 已停止
func (r *SessionRepository) classifyMissingStop(ctx context.Context, sessionID int) error {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM time_sessions WHERE id = $1)`, sessionID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFoundf("session %d", sessionID)
	}
	return apperr.InvalidStatef("session %d is already stopped", sessionID)
}

func scanSession(row pgx.Row, s *model.TimeSession) error {
	err := row.Scan(
		&s.ID,
		&s.MilestoneID,
		&s.ProposalID,
		&s.ActorID,
		&s.StartTime,
		&s.EndTime,
		&s.DurationSeconds,
		&s.Description,
		&s.CreatedAt,
	)
	if err != nil {
		return err
	}
	s.ComputeActive()
	return nil
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
