package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collabtrack/internal/model"
	"collabtrack/internal/service"
)

type MilestoneHandler struct {
	svc    *service.MilestoneService
	logger *zap.Logger
}

func NewMilestoneHandler(svc *service.MilestoneService, logger *zap.Logger) *MilestoneHandler {
	return &MilestoneHandler{svc: svc, logger: logger}
}

type initializeRequest struct {
	PaymentPercentages []int `json:"payment_percentages"`
}

// Initialize POST /proposals/:id/milestones/initialize
func (h *MilestoneHandler) Initialize(c *gin.Context) {
	proposalID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.logger.Warn("Initialize: invalid proposal id", zap.String("id", c.Param("id")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return
	}

	// body 可选：只有自定义付款计划时才需要
	var req initializeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("Initialize: invalid request body", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	h.logger.Info("Initialize milestones request received",
		zap.Int("proposal_id", proposalID),
		zap.String("client_ip", c.ClientIP()),
	)

	milestones, snapshot, err := h.svc.Initialize(c.Request.Context(), proposalID, req.PaymentPercentages)
	if err != nil {
		h.logger.Error("Initialize: failed",
			zap.Int("proposal_id", proposalID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"milestones": milestones,
		"progress":   snapshot,
	})
}

// Update PATCH /milestones/:id
func (h *MilestoneHandler) Update(c *gin.Context) {
	milestoneID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.logger.Warn("Update: invalid milestone id", zap.String("id", c.Param("id")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid milestone id"})
		return
	}

	var upd model.MilestoneUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		h.logger.Warn("Update: invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	milestone, snapshot, err := h.svc.Update(c.Request.Context(), milestoneID, upd)
	if err != nil {
		h.logger.Error("Update: failed",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	h.logger.Info("Update: success", zap.Int("milestone_id", milestoneID))
	c.JSON(http.StatusOK, gin.H{
		"milestone": milestone,
		"progress":  snapshot,
	})
}

// Complete POST /milestones/:id/complete
func (h *MilestoneHandler) Complete(c *gin.Context) {
	milestoneID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.logger.Warn("Complete: invalid milestone id", zap.String("id", c.Param("id")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid milestone id"})
		return
	}

	h.logger.Info("Complete milestone request received",
		zap.Int("milestone_id", milestoneID),
		zap.String("client_ip", c.ClientIP()),
	)

	milestone, snapshot, err := h.svc.Complete(c.Request.Context(), milestoneID)
	if err != nil {
		h.logger.Error("Complete: failed",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	h.logger.Info("Complete: success",
		zap.Int("milestone_id", milestoneID),
		zap.Int("overall_progress", snapshot.OverallProgress),
	)
	c.JSON(http.StatusOK, gin.H{
		"milestone": milestone,
		"progress":  snapshot,
	})
}
