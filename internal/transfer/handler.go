package transfer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/paisapay/paisapay/internal/catalog"
	"github.com/paisapay/paisapay/internal/ledger"
)

// Handler exposes the transfer engine over HTTP. The account id is taken from
// request locals set by the authentication middleware, never from the body.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type fundRequest struct {
	Amount int64 `json:"amount"`
}

// Fund credits the authenticated account.
func (h *Handler) Fund(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	var req fundRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Fund(c.UserContext(), accountID, req.Amount)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"balance":        res.Balance,
	})
}

type payRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// Pay moves funds from the authenticated account to the named recipient.
func (h *Handler) Pay(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	var req payRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.To == "" {
		return fiber.NewError(http.StatusBadRequest, "recipient is required")
	}

	res, err := h.service.Pay(c.UserContext(), PayInput{
		FromAccountID: accountID,
		ToUsername:    req.To,
		Amount:        req.Amount,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"balance":        res.FromBalance,
	})
}

type buyRequest struct {
	ProductID string `json:"product_id"`
}

// Buy purchases a catalog product with the authenticated account's balance.
func (h *Handler) Buy(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	var req buyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.ProductID == "" {
		return fiber.NewError(http.StatusBadRequest, "product_id is required")
	}

	res, err := h.service.Purchase(c.UserContext(), accountID, req.ProductID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"message":        "Product purchased",
		"balance":        res.Balance,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrSelfTransfer),
		errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRecipientNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrTransientConflict):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
