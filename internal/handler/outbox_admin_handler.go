package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collabtrack/pkg/outbox"
)

// OutboxAdminHandler 提供失败事件的查询与重放接口
type OutboxAdminHandler struct {
	repo   *outbox.Repository
	replay *outbox.ReplayService
	logger *zap.Logger
}

func NewOutboxAdminHandler(repo *outbox.Repository, replay *outbox.ReplayService, logger *zap.Logger) *OutboxAdminHandler {
	return &OutboxAdminHandler{repo: repo, replay: replay, logger: logger}
}

// ListFailed GET /admin/outbox/failed
func (h *OutboxAdminHandler) ListFailed(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	events, err := h.repo.GetFailedEvents(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("ListFailed: failed to query outbox", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list failed events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// Replay POST /admin/outbox/:id/replay
func (h *OutboxAdminHandler) Replay(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.replay.ReplayEvent(c.Request.Context(), eventID); err != nil {
		h.logger.Error("Replay: failed to replay event",
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to replay event"})
		return
	}

	h.logger.Info("Outbox event replayed", zap.Int64("event_id", eventID))
	c.JSON(http.StatusOK, gin.H{"status": "replayed", "event_id": eventID})
}
