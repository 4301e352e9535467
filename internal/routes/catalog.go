package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisapay/paisapay/internal/catalog"
)

// RegisterCatalogRoutes wires product endpoints. Listing is public, adding
// products requires authentication.
func RegisterCatalogRoutes(public, protected fiber.Router, h *catalog.Handler) {
	public.Get("/products", h.List)
	protected.Post("/products", h.Create)
}
