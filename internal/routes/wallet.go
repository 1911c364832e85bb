package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/coinledger/internal/wallet"
)

// RegisterWalletRoutes wires currency account endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/users/:id/accounts", h.AddAccount)
	r.Post("/users/:id/deposits", h.Deposit)
	r.Get("/users/:id/balances/:currency", h.Balance)
}
