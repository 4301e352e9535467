package events

import (
	"context"
	"log/slog"
	"time"
)

// TransactionCompleted describes a committed ledger operation. It is emitted
// after commit, best effort; downstream consumers must tolerate gaps.
type TransactionCompleted struct {
	TransactionID    string    `json:"transaction_id"`
	AccountID        string    `json:"account_id"`
	Counterparty     string    `json:"counterparty,omitempty"`
	Kind             string    `json:"kind"`
	Amount           int64     `json:"amount"`
	ResultingBalance int64     `json:"resulting_balance"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// Publisher delivers transaction events to downstream systems.
type Publisher interface {
	Publish(ctx context.Context, event TransactionCompleted) error
}

// LogPublisher is a fallback implementation that writes events to the logger.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a logging publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish writes the event to the structured logger.
func (p *LogPublisher) Publish(_ context.Context, event TransactionCompleted) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.Info("transaction completed",
		"transaction_id", event.TransactionID,
		"account_id", event.AccountID,
		"kind", event.Kind,
		"amount", event.Amount,
	)
	return nil
}
