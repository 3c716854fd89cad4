package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-trip-planner-chat/app/db"
	"github.com/FACorreiaa/go-trip-planner-chat/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner-chat/config"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/auth"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/chat"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/duplicate"
	generativeAI "github.com/FACorreiaa/go-trip-planner-chat/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/locale"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/places"
	promptFilter "github.com/FACorreiaa/go-trip-planner-chat/internal/api/prompt_filter"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/tools"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/usage"
)

const usageStoreRedis = "redis"

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *slog.Logger
	Pool         *pgxpool.Pool
	DB           database.DBTX
	Redis        *redis.Client
	Translator   *locale.Translator
	JWT          auth.JWTConfig
	ChatHandler  *chat.HandlerImpl
	UsageHandler *usage.HandlerImpl
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		Pool:   pool,
		DB:     database.Instrument(pool, metrics.Get()),
		JWT: auth.JWTConfig{
			SecretKey: cfg.JWT.SecretKey,
			Issuer:    cfg.JWT.Issuer,
			Audience:  cfg.JWT.Audience,
		},
	}

	if err := c.wire(ctx); err != nil {
		c.Close()
		return nil, err
	}

	logger.Info("Application container initialized")
	return c, nil
}

func (c *Container) wire(ctx context.Context) error {
	cfg, logger := c.Config, c.Logger

	tr, err := locale.NewTranslator()
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}
	c.Translator = tr

	usageRepo, err := c.usageRepository(ctx)
	if err != nil {
		return err
	}
	limits := usage.Limits{
		Daily:       cfg.Chat.DailyLimit,
		Minute:      cfg.Chat.MinuteLimit,
		GlobalDaily: cfg.Chat.GlobalDailyLimit,
	}
	usageService := usage.NewService(usageRepo, limits, logger)

	placesClient, err := places.NewGoogleClient(cfg.Places, logger)
	if err != nil {
		return err
	}
	detailsCache := places.NewDetailsCache(cfg.Places.CacheSize, cfg.Places.CacheTTL)
	validation := places.NewValidationService(placesClient, detailsCache, cfg.Places.ValidationConcurrency, logger)
	executor := tools.NewExecutor(validation, duplicate.NewDetector(cfg.Places.DuplicateThresholdMeters), logger)

	llm, err := generativeAI.NewAIClient(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}

	gate, err := chat.NewFeatureFlag(cfg.Chat, logger)
	if err != nil {
		return err
	}
	chatService := chat.NewService(chat.Deps{
		Gate:         gate,
		Projects:     chat.NewProjectRepository(c.DB, logger),
		Chats:        chat.NewRepository(c.DB, logger),
		Usage:        usageService,
		Limits:       limits,
		Filter:       promptFilter.NewFilter(cfg.Chat.MaxMessageLength, promptFilter.DefaultDetectors()...),
		LLM:          llm,
		Tools:        executor,
		HistoryLimit: cfg.Chat.HistoryLimit,
	}, logger)

	c.ChatHandler = chat.NewHandlerImpl(chatService, tr, logger)
	c.UsageHandler = usage.NewHandlerImpl(usageService, gate, tr, logger)
	return nil
}

func (c *Container) usageRepository(ctx context.Context) (usage.Repository, error) {
	cfg := c.Config
	if cfg.Chat.UsageStore != usageStoreRedis {
		return usage.NewPostgresRepository(c.DB, c.Logger), nil
	}
	if !cfg.Repositories.Redis.Enabled {
		return nil, fmt.Errorf("chat.usageStore is %q but repositories.redis is disabled", usageStoreRedis)
	}

	opts, err := redis.ParseURL(cfg.Repositories.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	c.Redis = redis.NewClient(opts)
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	c.Logger.Info("Redis connected, usage counters stored in redis", slog.String("addr", opts.Addr))
	return usage.NewRedisRepository(c.Redis, c.Logger), nil
}

// Close releases all resources
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Failed to close redis client", slog.Any("error", err))
		}
	}
	c.Pool.Close()
	c.Logger.Info("Container resources closed")
}
