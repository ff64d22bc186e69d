package di

import (
	"go.uber.org/zap"

	"prepcoach/application/commands/bus"
	"prepcoach/application/ports"
	querybus "prepcoach/application/queries/bus"
	"prepcoach/application/services"
	domainconfig "prepcoach/domain/config"
	"prepcoach/infrastructure/config"
	"prepcoach/infrastructure/seed"
	"prepcoach/pkg/auth"
	"prepcoach/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	DomainConfig *domainconfig.DomainConfig
	Repositories *Repositories
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Users        *services.UserService
	Notifier     ports.Notifier
	Collector    *observability.Collector
	Tracer       *observability.Tracer
	RateLimiters *RateLimiters
	JWTValidator *auth.JWTValidator
	Seeder       *seed.Seeder
}
