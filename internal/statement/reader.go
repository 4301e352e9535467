package statement

import (
	"context"
	"time"

	"github.com/paisapay/paisapay/internal/ledger"
)

// Entry is one statement line, a pure projection of a ledger record.
type Entry struct {
	Kind             string    `json:"kind"`
	Amount           int64     `json:"amount"`
	ResultingBalance int64     `json:"resulting_balance"`
	Timestamp        time.Time `json:"timestamp"`
	Description      string    `json:"description"`
	Counterparty     string    `json:"counterparty,omitempty"`
}

// Reader renders an account's transaction history, most recent first. It never
// mutates state.
type Reader struct {
	store ledger.Store
}

// NewReader builds a statement reader over the ledger store.
func NewReader(store ledger.Store) *Reader {
	return &Reader{store: store}
}

// Statement returns all entries for the account in reverse-chronological order.
func (r *Reader) Statement(ctx context.Context, accountID string) ([]Entry, error) {
	records, err := r.store.ListForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, Entry{
			Kind:             string(record.Kind),
			Amount:           record.Amount,
			ResultingBalance: record.ResultingBalance,
			Timestamp:        record.CreatedAt,
			Description:      record.Description,
			Counterparty:     record.Counterparty,
		})
	}
	return entries, nil
}
