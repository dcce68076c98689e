package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"

	"github.com/linkyhq/linky/internal/analytics"
	analyticsstore "github.com/linkyhq/linky/internal/analytics/store"
	"github.com/linkyhq/linky/internal/handlers"
	"github.com/linkyhq/linky/internal/health"
	"github.com/linkyhq/linky/internal/link"
	"github.com/linkyhq/linky/internal/messaging"
	"github.com/linkyhq/linky/internal/middleware"
	"github.com/linkyhq/linky/internal/ratelimit"
	"github.com/linkyhq/linky/internal/store"
	"github.com/linkyhq/linky/internal/urlcheck"
)

// Options holds the runtime configuration, populated by humacli from flags
// and LINKY_* environment variables.
type Options struct {
	Port        int    `default:"8888"                help:"Port to listen on"                                     short:"p"`
	BaseURL     string `default:""                    help:"Public base URL for short links (defaults to localhost:port)"`
	DatabaseURL string `default:""                    help:"Postgres connection string (empty selects the in-memory store)"`
	RedisAddr   string `default:"localhost:6379"      help:"Redis server address"                                  short:"r"`
	CacheTTL    int    `default:"300"                 help:"Slug cache TTL in seconds (0 disables caching)"`
	JWTSecret   string `default:""                    help:"HMAC secret for decoding bearer tokens (empty disables auth)"`
	LogFormat   string `default:"console"             help:"Log format: console or json"`

	RateLimitMax    int64 `default:"100" help:"Default requests allowed per rate limit window"`
	RateLimitWindow int   `default:"60"  help:"Default rate limit window in seconds"`
}

// PublicBaseURL resolves the base URL used when rendering shortened links.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// PostgresPackage provides the pgx connection pool. It is only invoked when
// a DatabaseURL is configured.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		return store.NewPostgresPool(context.Background(), options.DatabaseURL)
	})
}

// RepositoryPackage provides the link repository: Postgres when configured,
// the in-memory store otherwise, with a redis read cache layered on top when
// a cache TTL is set.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (link.Repository, error) {
		options := do.MustInvoke[*Options](i)

		var repo link.Repository
		if options.DatabaseURL != "" {
			pool := do.MustInvoke[*pgxpool.Pool](i)
			repo = store.NewPostgresRepository(pool)
		} else {
			repo = store.NewMemoryRepository()
		}

		if options.CacheTTL > 0 {
			client := do.MustInvoke[*redis.Client](i)
			ttl := time.Duration(options.CacheTTL) * time.Second
			repo = store.NewRedisCacheRepository(repo, client, ttl)
		}

		return repo, nil
	})
}

// RateLimitPackage provides the default limiter, backed by redis so limits
// hold across replicas, falling back to process-local memory when redis is
// not configured.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.SlidingWindowLimiter, error) {
		options := do.MustInvoke[*Options](i)

		var rlStore ratelimit.Store
		if options.RedisAddr != "" {
			rlStore = store.NewRateLimitRedisStore(do.MustInvoke[*redis.Client](i))
		} else {
			rlStore = store.NewRateLimitMemoryStore()
		}

		window := time.Duration(options.RateLimitWindow) * time.Second

		return ratelimit.NewSlidingWindowLimiter(rlStore, options.RateLimitMax, window), nil
	})
}

// PublisherGroupPackage provides the watermill publisher over redis streams.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, messaging.NewZapLoggerAdapter(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// CorePackage provides the link service and its collaborators.
func CorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*link.Allocator, error) {
		repo := do.MustInvoke[link.Repository](i)

		return link.NewAllocator(repo)
	})

	do.Provide(injector, func(i *do.Injector) (*urlcheck.Validator, error) {
		return urlcheck.NewValidator(urlcheck.NewProber()), nil
	})

	do.Provide(injector, func(i *do.Injector) (*link.Service, error) {
		repo := do.MustInvoke[link.Repository](i)
		alloc := do.MustInvoke[*link.Allocator](i)
		validator := do.MustInvoke[*urlcheck.Validator](i)
		logger := do.MustInvoke[*zap.Logger](i)
		publishers := do.MustInvoke[*messaging.PublisherGroup](i)

		created := messaging.NewPublishFunc[analytics.LinkCreatedEvent](
			publishers.Publisher(), analytics.TopicLinkCreated)
		visited := messaging.NewPublishFunc[analytics.LinkVisitedEvent](
			publishers.Publisher(), analytics.TopicLinkVisited)

		return link.NewService(repo, alloc, validator, created, visited, logger), nil
	})
}

// HTTPPackage provides the chi router and the huma API with middleware and
// routes registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		limiter := do.MustInvoke[*ratelimit.SlidingWindowLimiter](i)
		service := do.MustInvoke[*link.Service](i)

		api := humachi.New(router, huma.DefaultConfig("Linky", "1.0.0"))

		api.UseMiddleware(middleware.RequestMeta(api))
		if options.JWTSecret != "" {
			api.UseMiddleware(middleware.Owner(api, []byte(options.JWTSecret), logger))
		}
		api.UseMiddleware(middleware.RateLimiter(api, limiter, logger))

		linkHandler := handlers.NewLinkHandler(service, options.PublicBaseURL(), logger)
		handlers.RegisterRoutes(api, linkHandler)

		healthHandler := healthHandler(i, options)
		health.RegisterRoutes(api, healthHandler)

		return api, nil
	})
}

func healthHandler(i *do.Injector, options *Options) *health.Handler {
	var pgChecker, redisChecker health.Checker

	if options.DatabaseURL != "" {
		pgChecker = health.NewPostgresChecker(do.MustInvoke[*pgxpool.Pool](i))
	}

	if options.RedisAddr != "" {
		redisChecker = health.NewRedisChecker(do.MustInvoke[*redis.Client](i))
	}

	return health.NewHandler(pgChecker, redisChecker)
}

// ConsumerGroupPackage provides the analytics consumer group for the worker
// binary.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: "analytics",
		}, messaging.NewZapLoggerAdapter(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create subscriber: %w", err)
		}

		analyticsStore := analyticsstore.NewNoop(logger)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkCreated,
			func(ctx context.Context, event *analytics.LinkCreatedEvent) error {
				return analyticsStore.SaveLinkCreated(ctx, event)
			}, logger))
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkVisited,
			func(ctx context.Context, event *analytics.LinkVisitedEvent) error {
				return analyticsStore.SaveLinkVisited(ctx, event)
			}, logger))

		return group, nil
	})
}
