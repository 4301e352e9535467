package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisapay/paisapay/internal/identity"
)

// RegisterIdentityRoutes wires the public registration endpoint.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler, rateLimiter fiber.Handler) {
	if rateLimiter != nil {
		r.Post("/register", rateLimiter, h.Register)
		return
	}
	r.Post("/register", h.Register)
}
