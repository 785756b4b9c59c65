package container

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"storefront/bot/internal/cart"
	"storefront/bot/internal/catalog"
	"storefront/bot/internal/client"
	"storefront/bot/internal/config"
	"storefront/bot/internal/notifier"
	"storefront/bot/internal/pricing"
	"storefront/bot/internal/proxy"
	"storefront/bot/internal/queue"
	"storefront/bot/internal/render"
	"storefront/bot/internal/repository"
	"storefront/bot/internal/router"
	"storefront/bot/internal/service"
	"storefront/bot/internal/state"
	"storefront/bot/internal/transport"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config   *config.Config
	Telegram *transport.TelegramClient
	Catalog  *catalog.Store
	Carts    *cart.Store
	Router   *router.Router
	Offsets  state.OffsetStore
	Queue    queue.Queue
	Journal  repository.OrderJournal
	Service  *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	proxySupplier := proxy.NewSupplier(ctx, cfg.Telegram.Proxies, cfg.Telegram.BaseURL)
	container.Telegram = transport.NewTelegramClient(cfg.Telegram, proxySupplier)

	feedClient, err := client.NewFeedClient(cfg.Feed)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize feed client: %w", err)
	}

	container.Catalog = catalog.NewStore(feedClient)
	container.Carts = cart.NewStore()

	if err := container.initState(ctx); err != nil {
		container.Close()
		return nil, err
	}

	if err := container.initJournal(ctx); err != nil {
		container.Close()
		return nil, err
	}

	format := render.Formatter{Currency: cfg.Shop.Currency}

	container.Router = router.New(router.Dependencies{
		Catalog:   container.Catalog,
		Carts:     container.Carts,
		Pricer:    pricing.NewResolver(container.Catalog),
		Notifier:  notifier.NewOrderNotifier(container.Telegram, cfg.Shop.OrderChatID, format),
		Messenger: container.Telegram,
		Journal:   container.Journal,
		Format:    format,
	})

	minIdleTime := 0
	if cfg.State.Backend == "redis" {
		minIdleTime = cfg.Redis.MinIdleTime
	}

	container.Service = service.NewService(
		container.Telegram,
		container.Offsets,
		container.Queue,
		container.Router,
		cfg.Service.MaxWorkers,
		minIdleTime,
		cfg.Service.RetryDelay,
	)

	return container, nil
}

// initState picks where the update offset and queue live
func (c *Container) initState(ctx context.Context) error {
	if c.Config.State.Backend != "redis" {
		c.Offsets = state.NewMemoryOffsetStore()
		c.Queue = queue.NewMemoryQueue(c.Config.Service.QueueSize)
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", c.Config.Redis.Host, c.Config.Redis.Port),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.Database,
	})
	c.redis = rdb

	// Test connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")

	redisQueue, err := queue.NewRedisQueue(ctx, rdb, c.Config.Redis.ConsumerGroup)
	if err != nil {
		return err
	}

	c.Queue = redisQueue
	c.Offsets = state.NewRedisOffsetStore(rdb)
	return nil
}

func (c *Container) initJournal(ctx context.Context) error {
	if !c.Config.Database.Enabled {
		c.Journal = repository.NewNoopJournal()
		return nil
	}

	db, err := pgxpool.New(ctx, c.Config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.db = db

	if err := repository.EnsureSchema(ctx, db); err != nil {
		return err
	}
	log.Info("✅ Order journal ready")

	c.Journal = repository.NewOrderJournal(db)
	return nil
}

// Run polls for updates and handles them until ctx is cancelled
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Service.Poll(ctx)
	})

	g.Go(func() error {
		return c.Service.RunWorkers(ctx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("⚠️ Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
