// Package main provides the template directory API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/n8njson/directory/pkg/cache"
	"github.com/n8njson/directory/pkg/eventbus"
	"github.com/n8njson/directory/pkg/events"
	"github.com/n8njson/directory/pkg/metrics"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/n8njson/directory/pkg/seo"
	"github.com/n8njson/directory/pkg/services"
	"github.com/n8njson/directory/pkg/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	cache       cache.Cache
	eventBus    eventbus.EventBus
	subscriber  services.Subscriber
	tracer      trace.Tracer
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	validate    *validator.Validate
	baseURL     string

	catalog *services.Catalog
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	cache cache.Cache,
	eventBus eventbus.EventBus,
	subscriber services.Subscriber,
	tracer trace.Tracer,
	baseURL string,
) *API {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &API{
		logger:      logger,
		persistence: persistence,
		cache:       cache,
		eventBus:    eventBus,
		subscriber:  subscriber,
		tracer:      tracer,
		registry:    registry,
		metrics:     metrics.New(registry),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		baseURL:     baseURL,
	}

	a.catalog = services.NewCatalog(a.persistence, a.cache, a.logger, a.tracer, a.metrics)

	return a
}

func (a *API) App() *fiber.App {
	repo := a.persistence.TemplateRepository()

	handlers := web.NewAPIHandlers(
		services.NewResolver(repo, a.logger, a.tracer, a.metrics),
		a.catalog,
		services.NewSubmissions(repo, a.eventBus, a.cache, a.logger, a.tracer, a.metrics),
		services.NewNewsletter(a.subscriber, a.logger, a.tracer, a.metrics),
		a.validate,
		a.logger,
		a.baseURL,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))
	app.Use(web.MetricsMiddleware(a.metrics))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return a.persistence.HealthCheck(c.Context()) == nil
		},
	}))

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(a.registry)))

	app.Get("/", func(c fiber.Ctx) error {
		return c.JSON(seo.SiteMetadata(a.baseURL))
	})

	handlers.RegisterRoutes(app)

	return app
}

// SubscribeCacheInvalidation drops cached filter options whenever another
// process publishes, approves or rejects a template.
func (a *API) SubscribeCacheInvalidation(ctx context.Context) error {
	invalidate := func(ctx context.Context, event events.Event) error {
		a.logger.DebugContext(ctx, "Invalidating filter options", "event", event.GetType())
		a.catalog.InvalidateFilterOptions(ctx)

		return nil
	}

	for _, eventType := range []events.EventType{
		events.TemplatePublishedEvent,
		events.TemplateApprovedEvent,
		events.TemplateRejectedEvent,
	} {
		if err := a.eventBus.Handle(eventType, invalidate); err != nil {
			return err
		}
	}

	return a.eventBus.Subscribe(ctx)
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
