package di

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"prepcoach/application/commands/bus"
	commandhandlers "prepcoach/application/commands/handlers"
	"prepcoach/application/ports"
	querybus "prepcoach/application/queries/bus"
	queryhandlers "prepcoach/application/queries/handlers"
	"prepcoach/application/services"
	domainconfig "prepcoach/domain/config"
	"prepcoach/domain/core/validators"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/infrastructure/billing"
	"prepcoach/infrastructure/cache"
	"prepcoach/infrastructure/config"
	"prepcoach/infrastructure/messaging/eventbridge"
	"prepcoach/infrastructure/messaging/websocket"
	"prepcoach/infrastructure/persistence/dynamodb"
	"prepcoach/infrastructure/persistence/memory"
	"prepcoach/infrastructure/seed"
	"prepcoach/pkg/auth"
	"prepcoach/pkg/observability"
	"prepcoach/pkg/secrets"
)

// Repositories is the storage selected by STORAGE_BACKEND
type Repositories struct {
	Journeys    ports.JourneyRepository
	Progress    ports.ProgressRepository
	Users       ports.UserRepository
	Interviews  ports.InterviewRepository
	Visibility  ports.VisibilityRepository
	Audit       ports.AuditLogRepository
	Connections ports.ConnectionRepository
}

// ProvideLogger creates the process logger
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.Environment, cfg.LogLevel)
}

// ProvideDomainConfig returns the business rules
func ProvideDomainConfig() *domainconfig.DomainConfig {
	return domainconfig.DefaultDomainConfig()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideRepositories picks DynamoDB or process memory
func ProvideRepositories(client *awsdynamodb.Client, cfg *config.Config, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *Repositories {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Info("Using in-memory storage")
		visibility := memory.NewVisibilityRepository()
		return &Repositories{
			Journeys:    memory.NewJourneyRepository(domainCfg),
			Progress:    memory.NewProgressRepository(),
			Users:       memory.NewUserRepository(),
			Interviews:  memory.NewInterviewRepository(),
			Visibility:  visibility,
			Audit:       visibility.AuditLog(),
			Connections: memory.NewConnectionRepository(),
		}
	}

	table := dynamodb.NewTable(client, cfg.DynamoDBTable, cfg.IndexName, logger)
	return &Repositories{
		Journeys:    dynamodb.NewJourneyRepository(table, domainCfg),
		Progress:    dynamodb.NewProgressRepository(table),
		Users:       dynamodb.NewUserRepository(table),
		Interviews:  dynamodb.NewInterviewRepository(table),
		Visibility:  dynamodb.NewVisibilityRepository(table),
		Audit:       dynamodb.NewAuditLogRepository(table),
		Connections: dynamodb.NewConnectionRepository(table),
	}
}

// ProvideEventPublisher returns the EventBridge publisher, or nil when events stay in process
func ProvideEventPublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.StorageBackend == config.StorageMemory || cfg.EventBusName == "" {
		return nil
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideNotifier returns the WebSocket notifier, or nil without an endpoint
func ProvideNotifier(awsCfg aws.Config, cfg *config.Config, repos *Repositories, logger *zap.Logger) ports.Notifier {
	if cfg.WebSocketEndpoint == "" {
		return nil
	}
	return websocket.NewNotifier(websocket.NewAPIClient(awsCfg, cfg.WebSocketEndpoint), repos.Connections, logger)
}

// ProvideCache connects to Redis when configured and falls back to process memory
func ProvideCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		c := cache.NewMemoryCache()
		return c, func() { _ = c.Close() }, nil
	}

	c, err := cache.NewRedisCache(ctx, cache.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   "prepcoach:",
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Using Redis cache", zap.String("addr", cfg.RedisAddr))
	return c, func() { _ = c.Close() }, nil
}

// ProvideKeySealer creates the BYOK sealer
func ProvideKeySealer(cfg *config.Config) (ports.KeySealer, error) {
	return secrets.NewAESSealer(cfg.SealingKey)
}

// ProvideBillingProvider creates the Stripe provider behind a circuit breaker
func ProvideBillingProvider(cfg *config.Config, logger *zap.Logger) ports.BillingProvider {
	return billing.NewStripeProvider(
		billing.NewGateway(cfg.StripeSecretKey),
		cfg.StripeWebhookSecret,
		billing.DefaultBreakerConfig(),
		logger,
	)
}

// ProvideMetrics creates CloudWatch metrics. Disabled metrics publish nothing.
func ProvideMetrics(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := cfg.MetricsNamespace + "/" + cfg.Environment
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, awscloudwatch.NewFromConfig(awsCfg), logger)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(strings.ToLower(cfg.MetricsNamespace))
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("prepcoach-api", cfg.EnableTracing)
}

// ProvideJWTValidator creates the bearer token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(jwtConfig(cfg))
}

// ProvideJWTGenerator creates the token issuer used by the operator CLI
func ProvideJWTGenerator(cfg *config.Config) (*auth.JWTGenerator, error) {
	return auth.NewJWTGenerator(jwtConfig(cfg))
}

func jwtConfig(cfg *config.Config) auth.JWTConfig {
	var audience []string
	if cfg.JWTAudience != "" {
		audience = []string{cfg.JWTAudience}
	}
	return auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  audience,
		Expiry:    cfg.JWTExpiry,
	}
}

// RateLimiters holds the per-IP and per-user limiters
type RateLimiters struct {
	IP   auth.RateLimiter
	User auth.RateLimiter
}

// ProvideRateLimiters creates an in-process IP limiter and a DynamoDB-backed
// user limiter. In memory mode the user limiter is in-process too.
func ProvideRateLimiters(client *awsdynamodb.Client, cfg *config.Config) (*RateLimiters, func()) {
	ip := auth.NewPerMinuteLimiter(cfg.IPRequestsPerMinute)
	limiters := &RateLimiters{IP: ip}
	cleanups := []func(){ip.Close}

	if cfg.StorageBackend == config.StorageMemory {
		user := auth.NewPerMinuteLimiter(cfg.UserRequestsPerMinute)
		limiters.User = user
		cleanups = append(cleanups, user.Close)
	} else {
		limiters.User = auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, cfg.UserRequestsPerMinute, time.Minute, "USER")
	}

	return limiters, func() {
		for _, c := range cleanups {
			c()
		}
	}
}

// ProvideEventDispatcher creates the post-persistence event dispatcher
func ProvideEventDispatcher(publisher ports.EventPublisher, notifier ports.Notifier, logger *zap.Logger) *services.EventDispatcher {
	return services.NewEventDispatcher(publisher, notifier, logger)
}

// ProvideJourneyReader wraps the journey repository with the read cache
func ProvideJourneyReader(repos *Repositories, c ports.Cache, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) services.JourneyReader {
	return services.NewCachedJourneyReader(repos.Journeys, c, domainCfg, logger)
}

// ProvideUserService creates the account service
func ProvideUserService(repos *Repositories, dispatcher *services.EventDispatcher, logger *zap.Logger) *services.UserService {
	return services.NewUserService(repos.Users, dispatcher, logger)
}

// ProvideVisibilityResolver creates the effective visibility resolver
func ProvideVisibilityResolver(repos *Repositories, domainCfg *domainconfig.DomainConfig) *services.VisibilityResolver {
	return services.NewVisibilityResolver(repos.Visibility, domainCfg)
}

// ProvideProgressService creates the journey progress service
func ProvideProgressService(
	reader services.JourneyReader,
	repos *Repositories,
	dispatcher *services.EventDispatcher,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.ProgressService {
	return services.NewProgressService(reader, repos.Journeys, repos.Progress, dispatcher, domainCfg, logger)
}

// ProvideSeeder creates the catalogue seeder. On DynamoDB concurrent seeders
// serialize on a table lock.
func ProvideSeeder(client *awsdynamodb.Client, cfg *config.Config, repos *Repositories, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *seed.Seeder {
	seeder := seed.NewSeeder(repos.Journeys, repos.Visibility, domainCfg, logger)
	if cfg.StorageBackend == config.StorageMemory {
		return seeder
	}
	return seeder.WithLocker(dynamodb.NewLockManager(dynamodb.NewTable(client, cfg.DynamoDBTable, cfg.IndexName, logger)))
}

// ProvideCommandHandlers builds every command handler
func ProvideCommandHandlers(
	cfg *config.Config,
	domainCfg *domainconfig.DomainConfig,
	repos *Repositories,
	reader services.JourneyReader,
	progress *services.ProgressService,
	users *services.UserService,
	dispatcher *services.EventDispatcher,
	sealer ports.KeySealer,
	provider ports.BillingProvider,
	logger *zap.Logger,
) *commandhandlers.Set {
	validator := validators.NewInputValidator(domainCfg)
	prices := map[valueobjects.PlanTier]string{
		valueobjects.PlanPro:     cfg.StripePriceIDPro,
		valueobjects.PlanPremium: cfg.StripePriceIDPremium,
	}
	base := strings.TrimRight(cfg.AppBaseURL, "/")
	urls := commandhandlers.BillingURLs{
		CheckoutSuccess: base + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CheckoutCancel:  base + "/pricing",
		PortalReturn:    base + "/account",
	}

	return &commandhandlers.Set{
		Journeys:   commandhandlers.NewJourneyHandler(repos.Journeys, reader, dispatcher, domainCfg, logger),
		Progress:   commandhandlers.NewProgressHandler(progress, reader, services.NewVisibilityResolver(repos.Visibility, domainCfg)),
		Visibility: commandhandlers.NewVisibilityHandler(repos.Visibility, validator, dispatcher, logger),
		Usage:      commandhandlers.NewUsageHandler(users, sealer, validator, logger),
		Billing:    commandhandlers.NewBillingHandler(users, repos.Users, provider, prices, urls, logger),
		Interviews: commandhandlers.NewInterviewHandler(repos.Interviews, users, services.NewPrepPlanGenerator(), validator, dispatcher, logger),
	}
}

// ProvideQueryHandlers builds every query handler
func ProvideQueryHandlers(
	reader services.JourneyReader,
	repos *Repositories,
	resolver *services.VisibilityResolver,
	users *services.UserService,
	domainCfg *domainconfig.DomainConfig,
) *queryhandlers.Set {
	search := services.NewRoadmapSearch(reader, resolver, domainCfg)
	return &queryhandlers.Set{
		Journeys:   queryhandlers.NewJourneyQueryHandler(reader, repos.Progress, resolver, search),
		Visibility: queryhandlers.NewVisibilityQueryHandler(repos.Visibility, repos.Audit, resolver),
		Accounts:   queryhandlers.NewAccountQueryHandler(users, repos.Interviews),
	}
}

// ProvideCommandBus creates the command bus with logging, metrics and tracing
func ProvideCommandBus(
	handlers *commandhandlers.Set,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger.Sugar()),
		bus.MetricsMiddleware(metrics),
		bus.TracingMiddleware(tracer),
	)
	if err := handlers.Register(commandBus); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates the query bus with Prometheus timings
func ProvideQueryBus(handlers *queryhandlers.Set, collector *observability.Collector) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.MetricsMiddleware(collector))
	if err := handlers.Register(queryBus); err != nil {
		return nil, err
	}
	return queryBus, nil
}
