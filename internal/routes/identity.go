package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/coinledger/internal/identity"
)

// RegisterIdentityRoutes wires user endpoints.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler) {
	r.Post("/users", h.Register)
	r.Get("/users", h.List)
	r.Get("/users/:id", h.Get)
}
