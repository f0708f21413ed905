package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collabtrack/internal/service"
)

type QueryHandler struct {
	svc    *service.QueryService
	logger *zap.Logger
}

func NewQueryHandler(svc *service.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{svc: svc, logger: logger}
}

// Milestones GET /proposals/:id/milestones
func (h *QueryHandler) Milestones(c *gin.Context) {
	proposalID, ok := h.proposalID(c)
	if !ok {
		return
	}

	milestones, err := h.svc.GetMilestones(c.Request.Context(), proposalID)
	if err != nil {
		h.logger.Error("Milestones: failed to fetch",
			zap.Int("proposal_id", proposalID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// TimeSummary GET /proposals/:id/time
func (h *QueryHandler) TimeSummary(c *gin.Context) {
	proposalID, ok := h.proposalID(c)
	if !ok {
		return
	}

	summary, err := h.svc.GetTimeSummary(c.Request.Context(), proposalID)
	if err != nil {
		h.logger.Error("TimeSummary: failed to fetch",
			zap.Int("proposal_id", proposalID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Progress GET /proposals/:id/progress
func (h *QueryHandler) Progress(c *gin.Context) {
	proposalID, ok := h.proposalID(c)
	if !ok {
		return
	}

	snapshot, err := h.svc.GetProgress(c.Request.Context(), proposalID)
	if err != nil {
		h.logger.Error("Progress: failed to fetch",
			zap.Int("proposal_id", proposalID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *QueryHandler) proposalID(c *gin.Context) (int, bool) {
	proposalID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.logger.Warn("Invalid proposal id", zap.String("id", c.Param("id")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return 0, false
	}
	return proposalID, true
}
