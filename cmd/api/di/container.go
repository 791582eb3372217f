package di

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"library-service/cmd/api/infrastructure"
	"library-service/internal/adapter/cache"
	"library-service/internal/adapter/db/postgres"
	ginhandler "library-service/internal/adapter/gin/handler"
	ginrouter "library-service/internal/adapter/gin/router"
	"library-service/internal/adapter/grpc/middleware"
	"library-service/internal/adapter/repository/cached"
	"library-service/internal/config"
	domain "library-service/internal/domain/library"
	"library-service/internal/usecase/catalog"
	"library-service/internal/usecase/lending"
	"library-service/internal/usecase/membership"
	redisclient "library-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client // nil when Redis is disabled
	MemberUC    membership.Usecase
	CatalogUC   catalog.Usecase
	LendingUC   lending.Usecase
	RateLimiter *middleware.RateLimiter
	Handlers    ginrouter.Handlers
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	var (
		raw       *goredis.Client
		userCache cache.UserCache
	)
	if rdb != nil {
		raw = rdb.Client
		userCache = cache.NewRedisUserCache(raw, time.Duration(cfg.Redis.CacheTTL)*time.Second, l)
	}

	clock := domain.SystemClock{}

	users := cached.NewCachedUserRepository(postgres.NewUserRepoPG(db, l), userCache, l)
	memberUC := membership.New(users, clock, l)

	catalogUC := catalog.New(catalog.Repositories{
		Authors:    postgres.NewAuthorRepoPG(db, l),
		Categories: postgres.NewCategoryRepoPG(db, l),
		Books:      postgres.NewBookRepoPG(db, l),
		BookItems:  postgres.NewBookItemRepoPG(db, l),
	}, l)

	lendingUC := lending.New(postgres.NewLendingRepoPG(db, l), lending.Config{
		MaxNumberOfBooks:       cfg.Lending.MaxNumberOfBooks,
		MaxNumberOfDays:        cfg.Lending.MaxNumberOfDays,
		MembershipDurationDays: cfg.Lending.MembershipDurationDays,
	}, clock, l)

	rateLimiter := middleware.NewRateLimiter(
		raw,
		middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
			Enabled:           cfg.RateLimit.Enabled,
		},
		l,
	)

	return &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
		MemberUC:    memberUC,
		CatalogUC:   catalogUC,
		LendingUC:   lendingUC,
		RateLimiter: rateLimiter,
		Handlers: ginrouter.Handlers{
			Users:   ginhandler.NewUserHandler(memberUC, l),
			Catalog: ginhandler.NewCatalogHandler(catalogUC, l),
			Lending: ginhandler.NewLendingHandler(lendingUC, l),
		},
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
