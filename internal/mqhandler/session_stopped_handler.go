package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "collabtrack/contracts/mq"
	"collabtrack/internal/repository"
	"collabtrack/pkg/logger"
	"collabtrack/pkg/mq"
	"collabtrack/pkg/trace"
	"collabtrack/pkg/util"
)

const (
	maxRetries = 5
)

// SessionStoppedHandler 消费 session.stopped 事件，重算里程碑的 actual_hours
type SessionStoppedHandler struct {
	db            *pgxpool.Pool
	milestoneRepo *repository.MilestoneRepository

	retryCounter *util.RetryCounter
	deduper      *util.Deduper
	publisher    *mq.Publisher // DLQ 发布
	logger       *zap.Logger
}

func NewSessionStoppedHandler(
	db *pgxpool.Pool,
	milestoneRepo *repository.MilestoneRepository,
	retryCounter *util.RetryCounter,
	deduper *util.Deduper,
	publisher *mq.Publisher,
	logger *zap.Logger,
) *SessionStoppedHandler {
	return &SessionStoppedHandler{
		db:            db,
		milestoneRepo: milestoneRepo,
		retryCounter:  retryCounter,
		deduper:       deduper,
		publisher:     publisher,
		logger:        logger,
	}
}

func (h *SessionStoppedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	defer h.recoverPanic()

	// --------------------------
	// Step 1: decode payload
	// --------------------------
	var payload mqcontracts.SessionStoppedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.logger.Error("Invalid SessionStoppedPayload, sending to DLQ",
			zap.String("raw", string(raw)),
			zap.Error(err),
		)
		if dlqErr := h.publisher.PublishToDLQ("session.stopped", raw, err.Error()); dlqErr != nil {
			h.logger.Error("Failed to publish to DLQ", zap.Error(dlqErr))
		}
		return nil // ack，坏消息重试也没用
	}

	if payload.MilestoneID <= 0 {
		h.logger.Error("SessionStoppedPayload missing milestone_id, sending to DLQ",
			zap.String("raw", string(raw)),
		)
		if dlqErr := h.publisher.PublishToDLQ("session.stopped", raw, "missing milestone_id"); dlqErr != nil {
			h.logger.Error("Failed to publish to DLQ", zap.Error(dlqErr))
		}
		return nil
	}

	// 从 payload 中提取 trace_id 并添加到 context（如果存在）
	if payload.TraceID != "" {
		ctx = trace.WithContext(ctx, payload.TraceID)
	}

	traceLogger := logger.WithTrace(ctx, h.logger)
	traceLogger.Info("SessionStoppedHandler: received session",
		zap.Int("session_id", payload.SessionID),
		zap.Int("milestone_id", payload.MilestoneID),
		zap.Int64("duration_seconds", payload.DurationSeconds),
	)

	// Redis 去重（避免并发重复消费）
	if !h.deduper.AcquireOnce(ctx, "session_stopped", payload.SessionID) {
		traceLogger.Info("Duplicated event, skip",
			zap.Int("session_id", payload.SessionID),
		)
		return nil
	}

	// --------------------------
	// Step 2: retry count
	// --------------------------
	retryKey := util.FormatRetryKey("session_stopped", payload.SessionID)
	retryCount, _ := h.retryCounter.IncrementAndGet(ctx, retryKey)

	// --------------------------
	// Step 3: recompute actual_hours
	// --------------------------
	if err := h.milestoneRepo.RecomputeActualHours(ctx, payload.MilestoneID); err != nil {
		return h.handleRecomputeError(ctx, err, retryKey, retryCount, raw, payload)
	}

	// --------------------------
	// Step 4: cleanup & finish
	// --------------------------
	h.retryCounter.Reset(ctx, retryKey)

	traceLogger.Info("Actual hours recomputed",
		zap.Int("milestone_id", payload.MilestoneID),
		zap.Int("session_id", payload.SessionID),
	)

	return nil
}

func (h *SessionStoppedHandler) handleRecomputeError(
	ctx context.Context,
	err error,
	retryKey string,
	retryCount int64,
	raw json.RawMessage,
	payload mqcontracts.SessionStoppedPayload,
) error {
	isRetryable, errType := util.IsRetryableError(err)

	h.logger.Warn("Recompute error",
		zap.String("error", err.Error()),
		zap.String("type", errType),
		zap.Bool("retryable", isRetryable),
		zap.Int("milestone_id", payload.MilestoneID),
		zap.Int64("retry", retryCount),
	)

	// 多次失败 → 送 DLQ，ack
	if retryCount > maxRetries {
		h.logger.Warn("Max retries exceeded, sending to DLQ",
			zap.Int("session_id", payload.SessionID),
		)
		if dlqErr := h.publisher.PublishToDLQ("session.stopped", raw, err.Error()); dlqErr != nil {
			h.logger.Error("Failed to publish to DLQ", zap.Error(dlqErr))
		}
		h.retryCounter.Reset(ctx, retryKey)
		return nil
	}

	// 里程碑不存在等不可重试错误 → ack 吃掉
	if !isRetryable {
		h.logger.Warn("Non-retryable recompute error, skip",
			zap.Int("milestone_id", payload.MilestoneID),
		)
		h.retryCounter.Reset(ctx, retryKey)
		return nil
	}

	return fmt.Errorf("recompute actual hours: %w", err) // nack → 重试
}

func (h *SessionStoppedHandler) recoverPanic() {
	if r := recover(); r != nil {
		h.logger.Error("panic recovered in handler", zap.Any("panic", r))
	}
}
