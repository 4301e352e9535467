package rates

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnavailable indicates the rate could not be obtained. Callers must
// degrade to the base currency instead of failing the request.
var ErrUnavailable = errors.New("rate unavailable")

// Provider supplies a multiplicative conversion rate from the base currency
// to the target currency code. Rates are consulted only on display paths and
// never affect stored amounts.
type Provider interface {
	Rate(ctx context.Context, currency string) (decimal.Decimal, error)
}

// Static is a fixed-rate provider for tests and development.
type Static map[string]decimal.Decimal

// Rate returns the configured multiplier or ErrUnavailable.
func (s Static) Rate(_ context.Context, currency string) (decimal.Decimal, error) {
	rate, ok := s[currency]
	if !ok {
		return decimal.Decimal{}, ErrUnavailable
	}
	return rate, nil
}
