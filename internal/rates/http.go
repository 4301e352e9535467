package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const httpTimeout = 5 * time.Second

// HTTPProvider fetches conversion rates from a currency-api style endpoint
// (GET <url>?apikey=..&currencies=<code>&base_currency=<base>). Any transport
// or decoding failure maps to ErrUnavailable.
type HTTPProvider struct {
	client       *http.Client
	endpoint     string
	apiKey       string
	baseCurrency string
}

// NewHTTPProvider builds a rate provider against the given endpoint.
func NewHTTPProvider(endpoint, apiKey, baseCurrency string) *HTTPProvider {
	return &HTTPProvider{
		client:       &http.Client{Timeout: httpTimeout},
		endpoint:     endpoint,
		apiKey:       apiKey,
		baseCurrency: baseCurrency,
	}
}

type rateResponse struct {
	Data map[string]struct {
		Value json.Number `json:"value"`
	} `json:"data"`
}

// Rate fetches the multiplier for the target currency code.
func (p *HTTPProvider) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("apikey", p.apiKey)
	query.Set("currencies", currency)
	query.Set("base_currency", p.baseCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	entry, ok := payload.Data[currency]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: no rate for %s", ErrUnavailable, currency)
	}
	rate, err := decimal.NewFromString(entry.Value.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return rate, nil
}
