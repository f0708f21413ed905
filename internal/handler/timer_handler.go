package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collabtrack/internal/service"
)

type TimerHandler struct {
	svc    *service.TimeTrackingService
	logger *zap.Logger
}

func NewTimerHandler(svc *service.TimeTrackingService, logger *zap.Logger) *TimerHandler {
	return &TimerHandler{svc: svc, logger: logger}
}

type startTimerRequest struct {
	MilestoneID int    `json:"milestone_id" binding:"required"`
	Description string `json:"description"`
}

type stopTimerRequest struct {
	SessionID int `json:"session_id" binding:"required"`
}

// Start POST /timer/start
// actor 身份来自认证中间件，请求体里只带里程碑和描述
func (h *TimerHandler) Start(c *gin.Context) {
	actorID := c.GetInt("actor_id")

	var req startTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("StartTimer: invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "milestone_id required"})
		return
	}

	h.logger.Info("StartTimer request received",
		zap.Int("actor_id", actorID),
		zap.Int("milestone_id", req.MilestoneID),
	)

	session, err := h.svc.Start(c.Request.Context(), actorID, req.MilestoneID, req.Description)
	if err != nil {
		h.logger.Error("StartTimer: failed",
			zap.Int("actor_id", actorID),
			zap.Int("milestone_id", req.MilestoneID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	h.logger.Info("StartTimer: success",
		zap.Int("session_id", session.ID),
		zap.Int("actor_id", actorID),
	)
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// Stop POST /timer/stop
func (h *TimerHandler) Stop(c *gin.Context) {
	var req stopTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("StopTimer: invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}

	h.logger.Info("StopTimer request received", zap.Int("session_id", req.SessionID))

	session, snapshot, err := h.svc.Stop(c.Request.Context(), req.SessionID)
	if err != nil {
		h.logger.Error("StopTimer: failed",
			zap.Int("session_id", req.SessionID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	h.logger.Info("StopTimer: success",
		zap.Int("session_id", session.ID),
		zap.Int64p("duration_seconds", session.DurationSeconds),
	)
	c.JSON(http.StatusOK, gin.H{
		"session":  session,
		"progress": snapshot,
	})
}

// Active GET /timer/active
// 客户端按 ~1s 轮询此接口做倒计时显示，活跃会话的已进行时长由
// 客户端用 start_time 对比本地时钟自行计算
func (h *TimerHandler) Active(c *gin.Context) {
	actorID := c.GetInt("actor_id")

	session, err := h.svc.GetActive(c.Request.Context(), actorID)
	if err != nil {
		h.logger.Error("ActiveTimer: failed",
			zap.Int("actor_id", actorID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}
