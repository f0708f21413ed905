package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"collabtrack/config"
	"collabtrack/internal/mqhandler"
	"collabtrack/internal/repository"
	"collabtrack/pkg/db"
	"collabtrack/pkg/logger"
	"collabtrack/pkg/mq"
	"collabtrack/pkg/outbox"
	"collabtrack/pkg/redis"
	"collabtrack/pkg/util"
)

func main() {
	cfg := config.Load()
	logger := logger.NewLogger()
	defer logger.Sync()

	logger.Info("Starting collabtrack worker...")

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, time.Hour, logger)
	retryCounter := util.NewRetryCounter(rdb, time.Hour)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	logger.Info("DB ready")

	// repositories
	outboxRepo := outbox.NewRepository(dbConn)
	milestoneRepo := repository.NewMilestoneRepository(dbConn, outboxRepo, logger)

	// publisher（outbox 投递 + DLQ）
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Outbox Dispatcher
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, logger).
		WithMaxRetries(cfg.Outbox.MaxRetries).
		WithInterval(time.Duration(cfg.Outbox.IntervalMS) * time.Millisecond).
		WithBatchSize(cfg.Outbox.BatchSize)
	go dispatcher.Start(context.Background())

	// handlers
	sessionStoppedHandler := mqhandler.NewSessionStoppedHandler(
		dbConn,
		milestoneRepo,
		retryCounter,
		deduper,
		publisher,
		logger,
	)

	// -------------------------
	// Session Stopped Consumer
	// -------------------------
	logger.Info("Init consumer: session.stopped.q")
	consumerSession, err := mq.NewConsumer(
		cfg.MQ.URL,
		"session.stopped.q",
		"session.stopped",
		logger,
	)
	if err != nil {
		logger.Fatal("Session consumer init failed", zap.Error(err))
	}
	consumerSession.SetHandler(sessionStoppedHandler.Handle)

	go func() {
		if err := consumerSession.StartConsuming(); err != nil {
			logger.Fatal("Session consumer crashed", zap.Error(err))
		}
	}()
	defer consumerSession.Close()

	logger.Info("Worker running")

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker gracefully...")

	logger.Info("Stopping MQ consumers...")
	consumerSession.Stop()

	logger.Info("Closing database connection...")
	dbConn.Close()

	logger.Info("Closing Redis connection...")
	rdb.Close()

	logger.Info("Closing publisher...")
	publisher.Close()

	logger.Info("Worker shutdown complete")
}
