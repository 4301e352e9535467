package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisapay/paisapay/internal/transfer"
)

// RegisterTransferRoutes wires the transfer engine endpoints.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler) {
	r.Post("/fund", h.Fund)
	r.Post("/pay", h.Pay)
	r.Post("/buy", h.Buy)
}
