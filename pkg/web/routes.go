package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/n8njson/directory/pkg/services"
)

// RegisterRoutes mounts the directory endpoints on router.
func (h *APIHandlers) RegisterRoutes(router fiber.Router) {
	t := router.Group("/templates")
	t.Get("/", h.GetTemplates)
	t.Get("/:idOrSlug", h.GetTemplate)

	router.Get("/filters", h.GetFilterOptions)
	router.Get("/stats", h.GetStats)

	router.Get("/category/:slug", h.Browse(services.TaxonomyCategory))
	router.Get("/industry/:slug", h.Browse(services.TaxonomyIndustry))
	router.Get("/role/:slug", h.Browse(services.TaxonomyRole))

	api := router.Group("/api")
	api.Post("/templates/submit", h.SubmitTemplate)
	api.Post("/newsletter/subscribe", h.Subscribe)

	router.Get("/sitemap.xml", h.Sitemap)
	router.Get("/health", h.HealthCheck)
}
