package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldflow/fieldflow/internal/database"
	"github.com/fieldflow/fieldflow/internal/realtime"
	"github.com/fieldflow/fieldflow/internal/tasks"
	"github.com/fieldflow/fieldflow/pkg/config"
	"github.com/fieldflow/fieldflow/pkg/queue"
	"github.com/fieldflow/fieldflow/pkg/util"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting fieldflow worker")

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Redis client for realtime broadcasts
	var bus realtime.Bus = realtime.NopBus{}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis, realtime broadcasts disabled", "error", err)
	} else {
		bus = realtime.NewRedisBus(redisClient)
	}

	srv := queue.NewServer(&cfg.Redis, 10)

	handler := tasks.NewHandler(db, logger, bus, nil)

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Scheduler for the due-date reminder tick
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
		},
		&asynq.SchedulerOpts{},
	)

	if err := util.ValidateCronExpr(cfg.Reminder.CronExpr); err != nil {
		logger.Error("invalid reminder cron expression", "expr", cfg.Reminder.CronExpr, "error", err)
		os.Exit(1)
	}
	tick, err := tasks.NewReminderTickTask(tasks.ReminderTickPayload{
		LeadTimeHours: cfg.Reminder.LeadTimeHrs,
	})
	if err != nil {
		logger.Error("failed to build reminder task", "error", err)
		os.Exit(1)
	}
	if _, err := scheduler.Register(cfg.Reminder.CronExpr, tick, asynq.Queue("low")); err != nil {
		logger.Error("failed to register reminder schedule", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		scheduler.Shutdown()
		srv.Shutdown()
		cancel()
	}()

	if err := scheduler.Start(); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("worker started, waiting for tasks...",
		"reminder_cron", cfg.Reminder.CronExpr,
		"reminder_lead_hours", cfg.Reminder.LeadTimeHrs,
	)

	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	<-ctx.Done()

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
