package identity

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/coinledger/internal/ledger"
)

// Handler exposes user endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	MaxPerTransaction int64  `json:"max_per_transaction"`
	BitcoinAccountID  string `json:"account_bitcoin"`
	EthereumAccountID string `json:"account_ethereum"`
}

type accountResponse struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"`
}

type userResponse struct {
	ID                int64            `json:"id"`
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	Email             string           `json:"email"`
	MaxPerTransaction int64            `json:"max_per_transaction"`
	Bitcoin           *accountResponse `json:"account_bitcoin"`
	Ethereum          *accountResponse `json:"account_ethereum"`
	CreatedAt         time.Time        `json:"created_at"`
}

func toUserResponse(u ledger.User) userResponse {
	return userResponse{
		ID:                u.ID,
		Name:              u.Name,
		Description:       u.Description,
		Email:             u.Email,
		MaxPerTransaction: u.MaxPerTransaction,
		Bitcoin:           toAccountResponse(u.Bitcoin),
		Ethereum:          toAccountResponse(u.Ethereum),
		CreatedAt:         u.CreatedAt,
	}
}

func toAccountResponse(a *ledger.Account) *accountResponse {
	if a == nil {
		return nil
	}
	return &accountResponse{ID: a.ID, Currency: a.Currency.String(), Balance: a.Balance}
}

// Register handles user creation.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Register(c.UserContext(), Registration{
		Name:              req.Name,
		Description:       req.Description,
		Email:             req.Email,
		Password:          req.Password,
		MaxPerTransaction: req.MaxPerTransaction,
		BitcoinAccountID:  req.BitcoinAccountID,
		EthereumAccountID: req.EthereumAccountID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrDuplicateEmail), errors.Is(err, ledger.ErrDuplicateAccount):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidDescription),
			errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrInvalidPassword),
			errors.Is(err, ErrInvalidLimit), errors.Is(err, ledger.ErrInvalidAccountID):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(toUserResponse(user))
}

// Get returns one user.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid user id")
	}
	user, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrUserNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(toUserResponse(user))
}

// List returns every user.
func (h *Handler) List(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(out)
}
