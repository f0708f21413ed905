package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"collabtrack/internal/handler"
	"collabtrack/pkg/mq"
	"collabtrack/pkg/rbac"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	milestoneHandler *handler.MilestoneHandler,
	timerHandler *handler.TimerHandler,
	queryHandler *handler.QueryHandler,
	outboxAdminHandler *handler.OutboxAdminHandler,
	jwtSecret string,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
	logger *zap.Logger,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogMiddleware(logger))
	r.Use(MetricsMiddleware())

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		// Milestone endpoints
		auth.POST("/proposals/:id/milestones/initialize",
			RequirePermission(rbac.PermissionInitializeMilestones), milestoneHandler.Initialize)
		auth.PATCH("/milestones/:id",
			RequirePermission(rbac.PermissionUpdateMilestone), milestoneHandler.Update)
		auth.POST("/milestones/:id/complete",
			RequirePermission(rbac.PermissionCompleteMilestone), milestoneHandler.Complete)

		// Timer endpoints
		auth.POST("/timer/start",
			RequirePermission(rbac.PermissionStartTimer), timerHandler.Start)
		auth.POST("/timer/stop",
			RequirePermission(rbac.PermissionStopTimer), timerHandler.Stop)
		auth.GET("/timer/active",
			RequirePermission(rbac.PermissionReadTimer), timerHandler.Active)

		// Query endpoints
		auth.GET("/proposals/:id/milestones",
			RequirePermission(rbac.PermissionReadMilestone), queryHandler.Milestones)
		auth.GET("/proposals/:id/time",
			RequirePermission(rbac.PermissionReadTimer), queryHandler.TimeSummary)
		auth.GET("/proposals/:id/progress",
			RequirePermission(rbac.PermissionReadMilestone), queryHandler.Progress)

		// Admin endpoints
		auth.GET("/admin/outbox/failed",
			RequirePermission(rbac.PermissionManageOutbox), outboxAdminHandler.ListFailed)
		auth.POST("/admin/outbox/:id/replay",
			RequirePermission(rbac.PermissionManageOutbox), outboxAdminHandler.Replay)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
