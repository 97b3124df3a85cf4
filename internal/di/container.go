package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/roastline/api/internal/platform/auth"
	"github.com/roastline/api/internal/platform/config"
	"github.com/roastline/api/internal/platform/events"
	"github.com/roastline/api/internal/platform/observability"
	"github.com/roastline/api/internal/repositories"
	"github.com/roastline/api/internal/repositories/postgres"
	"github.com/roastline/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
// Concrete implementations are assembled in NewContainer.
type Services struct {
	Orders    services.OrderService
	Inventory services.InventoryService
	Loyalty   services.LoyaltyService
	Catalog   services.CatalogService
	Sweep     services.SweepService
}

// Container wires configuration, repositories, services and the token
// verifier for runtime use.
type Container struct {
	Config        config.Config
	Logger        *zap.Logger
	Registry      repositories.Registry
	Services      Services
	Authenticator *auth.Authenticator

	ownsRegistry bool
}

// Option customises container construction.
type Option func(*containerOptions)

type containerOptions struct {
	registry repositories.Registry
}

// WithRegistry supplies a pre-built repository registry instead of opening
// a Postgres connection. Tests use this to inject in-memory fakes.
func WithRegistry(reg repositories.Registry) Option {
	return func(o *containerOptions) {
		o.registry = reg
	}
}

// NewContainer assembles the runtime dependency graph from configuration.
func NewContainer(cfg config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		return nil, errors.New("di: logger is required")
	}

	var options containerOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	reg := options.registry
	ownsRegistry := false
	if reg == nil {
		opened, err := postgres.Open(postgres.Options{
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			Logger:          logger.Named("postgres"),
		})
		if err != nil {
			return nil, fmt.Errorf("di: open postgres registry: %w", err)
		}
		reg = opened
		ownsRegistry = true
	}

	svc, err := buildServices(reg, logger)
	if err != nil {
		if ownsRegistry {
			_ = reg.Close(context.Background())
		}
		return nil, err
	}

	authenticator, err := auth.NewAuthenticator(cfg.Auth.JWTSecret,
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithAudience(cfg.Auth.Audience),
	)
	if err != nil {
		if ownsRegistry {
			_ = reg.Close(context.Background())
		}
		return nil, fmt.Errorf("di: build authenticator: %w", err)
	}

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Registry:      reg,
		Services:      svc,
		Authenticator: authenticator,
		ownsRegistry:  ownsRegistry,
	}, nil
}

// Close releases resources owned by the container, such as the database
// connection pool opened during construction.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Registry == nil || !c.ownsRegistry {
		return nil
	}
	return c.Registry.Close(ctx)
}

func buildServices(reg repositories.Registry, logger *zap.Logger) (Services, error) {
	var svc Services

	inventorySvc, err := services.NewInventoryService(services.InventoryServiceDeps{
		Products: reg.Products(),
		Logger:   observability.EventLogger(logger.Named("inventory")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build inventory service: %w", err)
	}
	svc.Inventory = inventorySvc

	loyaltySvc, err := services.NewLoyaltyService(services.LoyaltyServiceDeps{
		Profiles: reg.Profiles(),
		Clock:    time.Now,
		Logger:   observability.EventLogger(logger.Named("loyalty")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build loyalty service: %w", err)
	}
	svc.Loyalty = loyaltySvc

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products: reg.Products(),
		Clock:    time.Now,
		Logger:   observability.EventLogger(logger.Named("catalog")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	publisher, err := events.NewLogPublisher(logger.Named("events"))
	if err != nil {
		return Services{}, fmt.Errorf("di: build event publisher: %w", err)
	}

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:     reg.Orders(),
		History:    reg.OrderHistory(),
		Products:   reg.Products(),
		Inventory:  inventorySvc,
		Loyalty:    loyaltySvc,
		UnitOfWork: reg,
		Clock:      time.Now,
		Events:     publisher,
		Sanitizer:  bluemonday.StrictPolicy(),
		Logger:     observability.EventLogger(logger.Named("orders")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build order service: %w", err)
	}
	svc.Orders = orderSvc

	sweepSvc, err := services.NewSweepService(services.SweepServiceDeps{
		Orders:     reg.Orders(),
		History:    reg.OrderHistory(),
		UnitOfWork: reg,
		Clock:      time.Now,
		Logger:     observability.EventLogger(logger.Named("sweep")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build sweep service: %w", err)
	}
	svc.Sweep = sweepSvc

	return svc, nil
}
