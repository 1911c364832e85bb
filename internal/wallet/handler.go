package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/coinledger/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type addAccountRequest struct {
	Currency  string `json:"currency"`
	AccountID string `json:"account_id"`
}

type depositRequest struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

type accountResponse struct {
	ID       string `json:"id"`
	UserID   int64  `json:"user_id"`
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{ID: a.ID, UserID: a.UserID, Currency: a.Currency.String(), Balance: a.Balance}
}

// AddAccount opens a currency account for the user in the path.
func (h *Handler) AddAccount(c *fiber.Ctx) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	var req addAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acc, err := h.service.AddAccount(c.UserContext(), userID, req.Currency, req.AccountID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toAccountResponse(acc))
}

// Deposit tops up the user's account of the requested currency.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acc, err := h.service.Deposit(c.UserContext(), userID, req.Currency, req.Amount)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toAccountResponse(acc))
}

// Balance returns the account balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	balance, err := h.service.Balance(c.UserContext(), userID, c.Params("currency"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":    balance.UserID,
		"currency":   balance.Currency,
		"account_id": balance.AccountID,
		"balance":    balance.Amount,
		"timestamp":  balance.AsOf,
	})
}

func userIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid user id")
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrUserNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrDuplicateAccount), errors.Is(err, ledger.ErrAccountExists):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrUnsupportedCurrency), errors.Is(err, ledger.ErrInvalidAccountID),
		errors.Is(err, ErrInvalidAmount), errors.Is(err, ledger.ErrBalanceOutOfRange):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
