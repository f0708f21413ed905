package main

import (
	"time"

	"go.uber.org/zap"

	"collabtrack/config"
	"collabtrack/internal/client"
	"collabtrack/internal/handler"
	"collabtrack/internal/httpserver"
	"collabtrack/internal/repository"
	"collabtrack/internal/service"
	"collabtrack/pkg/db"
	"collabtrack/pkg/logger"
	"collabtrack/pkg/mq"
	"collabtrack/pkg/outbox"
)

func main() {
	cfg := config.Load()
	logger := logger.NewLogger()
	defer logger.Sync()

	logger.Info("Starting collabtrack API server...")

	// DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	logger.Info("DB ready")

	// publisher（仅服务于管理端的事件重放）
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// repositories
	outboxRepo := outbox.NewRepository(dbConn)
	milestoneRepo := repository.NewMilestoneRepository(dbConn, outboxRepo, logger)
	sessionRepo := repository.NewSessionRepository(dbConn, outboxRepo, logger)

	// proposal client（外部报酬查询，熔断 + 零报酬兜底）
	proposalClient := client.NewProposalClient(cfg.Proposal.BaseURL)

	// services
	milestoneSvc := service.NewMilestoneService(milestoneRepo, sessionRepo, proposalClient, logger)
	timerSvc := service.NewTimeTrackingService(sessionRepo, milestoneRepo, proposalClient, logger)
	querySvc := service.NewQueryService(
		milestoneRepo,
		sessionRepo,
		proposalClient,
		time.Duration(cfg.Progress.UrgentThresholdHours)*time.Hour,
		logger,
	)

	// handlers
	milestoneHandler := handler.NewMilestoneHandler(milestoneSvc, logger)
	timerHandler := handler.NewTimerHandler(timerSvc, logger)
	queryHandler := handler.NewQueryHandler(querySvc, logger)

	replaySvc := outbox.NewReplayService(outboxRepo, publisher)
	outboxAdminHandler := handler.NewOutboxAdminHandler(outboxRepo, replaySvc, logger)

	router := httpserver.NewRouter(
		milestoneHandler,
		timerHandler,
		queryHandler,
		outboxAdminHandler,
		cfg.JWT.Secret,
		dbConn,
		publisher,
		logger,
	)

	logger.Info("API server listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
