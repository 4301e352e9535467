package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/paisapay/paisapay/internal/ledger"
	"github.com/paisapay/paisapay/internal/rates"
	"github.com/paisapay/paisapay/internal/statement"
)

// AccountDeps carries the read-path dependencies for balance and statement
// display.
type AccountDeps struct {
	Store        ledger.Store
	Reader       *statement.Reader
	Rates        rates.Provider
	BaseCurrency string
	Logger       *slog.Logger
}

// RegisterAccountRoutes exposes the authenticated account's balance and
// statement. Conversion is applied to a read-only snapshot and degrades to
// the base currency when the rate lookup fails; it never touches stored state.
func RegisterAccountRoutes(r fiber.Router, d AccountDeps) {
	r.Get("/balance", func(c *fiber.Ctx) error {
		accountID, _ := c.Locals("account_id").(string)

		balance, err := d.Store.Balance(c.UserContext(), accountID)
		if err != nil {
			if errors.Is(err, ledger.ErrAccountNotFound) {
				return fiber.NewError(http.StatusNotFound, err.Error())
			}
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}

		currency := strings.ToUpper(c.Query("currency"))
		if currency == "" || currency == d.BaseCurrency || d.Rates == nil {
			return c.Status(http.StatusOK).JSON(fiber.Map{
				"balance":  balance,
				"currency": d.BaseCurrency,
			})
		}

		rate, err := d.Rates.Rate(c.UserContext(), currency)
		if err != nil {
			if d.Logger != nil {
				d.Logger.Warn("currency conversion unavailable", "currency", currency, "error", err)
			}
			return c.Status(http.StatusOK).JSON(fiber.Map{
				"balance":  balance,
				"currency": d.BaseCurrency,
			})
		}

		converted := decimal.NewFromInt(balance).Mul(rate).Round(2)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"balance":  converted.InexactFloat64(),
			"currency": currency,
		})
	})

	r.Get("/statement", func(c *fiber.Ctx) error {
		accountID, _ := c.Locals("account_id").(string)

		entries, err := d.Reader.Statement(c.UserContext(), accountID)
		if err != nil {
			if errors.Is(err, ledger.ErrAccountNotFound) {
				return fiber.NewError(http.StatusNotFound, err.Error())
			}
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.Status(http.StatusOK).JSON(entries)
	})
}
