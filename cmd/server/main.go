package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/app"
	"github.com/netcopilot/api/internal/config"
	"github.com/netcopilot/api/internal/handler"
	"github.com/netcopilot/api/internal/logging"
	"github.com/netcopilot/api/internal/middleware"
	"github.com/netcopilot/api/internal/scheduler"
	"github.com/netcopilot/api/internal/service"
	"github.com/netcopilot/api/internal/worker"
	ws "github.com/netcopilot/api/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logging.New(cfg.Server.LogLevel, cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize application", zap.Error(err))
	}
	defer container.Close()

	hub := ws.NewHub(zl.Named("ws"))
	go hub.Run(ctx)

	validate := validator.New()
	routes := &handler.Routes{
		Lookup:  handler.NewLookupHandler(container.Lookup, validate),
		Capture: handler.NewCaptureHandler(container.Jobs),
		People:  handler.NewPeopleHandler(container.People, container.Chat, validate),
		Hub:     hub,
		Limiter: middleware.NewRateLimiter(container.Redis, zl),
		Limits:  cfg.RateLimit,
		Health: func() fiber.Map {
			return fiber.Map{
				"redis": container.Redis.Ping(context.Background()).Err() == nil,
				"r2":    container.Archive != nil,
				"store": cfg.Store.Driver,
			}
		},
	}

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: handler.ErrorHandler,
		BodyLimit:    25 * 1024 * 1024, // 25MB
	})

	fiberApp.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
	}
	fiberApp.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	routes.Register(fiberApp)

	sweeper := scheduler.New(container.Jobs, cfg.Queue.SweepSpec, zl.Named("sweeper"))
	if err := sweeper.Start(ctx); err != nil {
		zl.Fatal("failed to start sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	srv := newWorkerServer(cfg, container, zl)
	captureWorker := worker.NewCaptureWorker(container.Capture, container.Jobs, hub, zl.Named("worker"))
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeCapture, captureWorker.ProcessTask)
	if err := srv.Start(mux); err != nil {
		zl.Fatal("failed to start worker server", zap.Error(err))
	}
	defer srv.Shutdown()

	go func() {
		<-ctx.Done()
		zl.Info("shutting down server")
		if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
			zl.Error("server shutdown error", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Server.Port
	zl.Info("server starting", zap.String("addr", addr))
	if err := fiberApp.Listen(addr); err != nil {
		zl.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func newWorkerServer(cfg *config.Config, container *app.Container, zl *zap.Logger) *asynq.Server {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	concurrency := cfg.Queue.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return asynq.NewServer(
		container.RedisClientOpt(),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				cfg.Queue.Name: 1,
			},
			LogLevel: asynqLogLevel,
			Logger:   zl.Named("asynq").Sugar(),
		},
	)
}
