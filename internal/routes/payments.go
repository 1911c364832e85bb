package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/coinledger/internal/payments"
)

// RegisterPaymentRoutes wires transaction endpoints. submitLimiter guards
// only the submission route.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, submitLimiter fiber.Handler) {
	r.Post("/transactions", submitLimiter, h.Submit)
	r.Get("/transactions", h.List)
	r.Get("/transactions/:id", h.Get)
	r.Get("/transactions/:id/state", h.State)
	r.Get("/users/:id/transactions", h.History)
}
