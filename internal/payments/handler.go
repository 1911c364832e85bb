package payments

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/coinledger/internal/ledger"
)

// Handler exposes transaction endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	Currency     string `json:"currency"`
	Amount       int64  `json:"amount"`
	SourceUserID int64  `json:"source_user_id"`
	TargetUserID int64  `json:"target_user_id"`
}

type transactionResponse struct {
	ID           int64      `json:"id"`
	Currency     string     `json:"currency"`
	Amount       int64      `json:"amount"`
	SourceUserID int64      `json:"source_user_id"`
	TargetUserID int64      `json:"target_user_id"`
	State        string     `json:"state"`
	Detail       string     `json:"detail,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at"`
}

func toResponse(tx ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		Currency:     tx.Currency.String(),
		Amount:       tx.Amount,
		SourceUserID: tx.SourceUserID,
		TargetUserID: tx.TargetUserID,
		State:        string(tx.State),
		Detail:       tx.Detail,
		CreatedAt:    tx.CreatedAt,
		ProcessedAt:  tx.ProcessedAt,
	}
}

func toResponses(txs []ledger.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	return out
}

// Submit records a transfer for asynchronous processing.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := h.service.Submit(c.UserContext(), SubmitInput{
		Currency:     req.Currency,
		Amount:       req.Amount,
		SourceUserID: req.SourceUserID,
		TargetUserID: req.TargetUserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUserNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrAccountMissing), errors.Is(err, ledger.ErrUnsupportedCurrency):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusAccepted).JSON(toResponse(tx))
}

// Get returns a transaction.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	tx, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(toResponse(tx))
}

// State returns only the lifecycle state of a transaction.
func (h *Handler) State(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	state, err := h.service.State(c.UserContext(), id)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(fiber.Map{"id": id, "state": state})
}

// List returns every transaction.
func (h *Handler) List(c *fiber.Ctx) error {
	txs, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(toResponses(txs))
}

// History returns the transactions of one user.
func (h *Handler) History(c *fiber.Ctx) error {
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	txs, err := h.service.History(c.UserContext(), userID)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(toResponses(txs))
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func lookupError(err error) error {
	if errors.Is(err, ledger.ErrTransactionNotFound) || errors.Is(err, ledger.ErrUserNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return fiber.NewError(http.StatusInternalServerError, err.Error())
}
