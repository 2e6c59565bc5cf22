// Package app assembles the clients, stores and services shared by the
// HTTP server, the capture worker and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/agent"
	"github.com/netcopilot/api/internal/cache"
	"github.com/netcopilot/api/internal/client"
	"github.com/netcopilot/api/internal/config"
	"github.com/netcopilot/api/internal/service"
	"github.com/netcopilot/api/internal/store"
)

// Container holds the wired application graph.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Redis  *redis.Client
	Asynq  *asynq.Client
	People store.PersonStore

	LLM     *client.LLMClient
	Archive *client.R2Client // nil when R2 is not configured

	Lookup   *service.LookupService
	Capture  *service.CaptureService
	Jobs     *service.CaptureJobService
	Chat     *service.ChatService
	closers  []func()
	redisOpt asynq.RedisClientOpt
}

// New builds the container. Missing dataset or LLM credentials fail here.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
		redisOpt: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
	}

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	c.closers = append(c.closers, func() { _ = c.Redis.Close() })

	if err := c.Redis.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	people, err := c.buildStore(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.People = people

	fetcher, err := client.NewProfileFetcher(&cfg.Dataset, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	searcher, err := client.NewPeopleSearcher(&cfg.Dataset, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.LLM, err = client.NewLLMClient(&cfg.LLM, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		c.Archive, err = client.NewR2Client(&cfg.R2, logger)
		if err != nil {
			logger.Warn("R2 client not initialized", zap.Error(err))
		}
	} else {
		logger.Info("R2 storage not configured, capture images will not be archived")
	}

	selection := service.NewSelectionService(searcher, agent.NewProfileSelector(c.LLM, c.LLM.Model(), logger), logger)
	c.Lookup = service.NewLookupService(
		selection,
		fetcher,
		agent.NewCrew(c.LLM, c.LLM.Model(), logger),
		cache.NewLookupCache(c.Redis, cfg.Cache.LookupTTL, logger),
		logger,
	)

	c.Capture = service.NewCaptureService(
		agent.NewExtractor(c.LLM, c.LLM.VisionModel(), c.LLM.Model(), logger),
		c.Lookup,
		c.People,
		logger,
	)
	if c.Archive != nil {
		c.Capture.WithImageArchive(c.Archive)
	}

	c.Asynq = asynq.NewClient(c.redisOpt)
	c.closers = append(c.closers, func() { _ = c.Asynq.Close() })
	c.Jobs = service.NewCaptureJobService(c.Redis, c.Asynq, cfg.Queue, logger)

	c.Chat = service.NewChatService(c.People, agent.NewChatAgent(c.LLM, c.LLM.ChatModel()))

	return c, nil
}

func (c *Container) buildStore(ctx context.Context) (store.PersonStore, error) {
	switch c.Config.Store.Driver {
	case "", "redis":
		return store.NewRedisStore(c.Redis, c.Logger), nil
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, c.Config.Store.DatabaseURL, c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, pg.Close)
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.Config.Store.Driver)
	}
}

// RedisClientOpt is the asynq connection used by the worker server.
func (c *Container) RedisClientOpt() asynq.RedisClientOpt {
	return c.redisOpt
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
