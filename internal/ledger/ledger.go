package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAccountNotFound occurs when an operation references an unknown account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists indicates the account identifier is already registered.
	ErrAccountExists = errors.New("account already exists")

	// ErrContention signals the store could not acquire exclusivity on the
	// requested accounts in time. Callers may retry the whole operation.
	ErrContention = errors.New("account contention")
)

// Kind classifies a transaction record as money in or money out.
type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
)

// TransactionRecord is one immutable entry in an account's transaction log.
// ResultingBalance snapshots the owning account's balance immediately after
// the record was applied, so statements render without replaying the log.
type TransactionRecord struct {
	ID               string
	AccountID        string
	Kind             Kind
	Amount           int64
	ResultingBalance int64
	Counterparty     string
	ProductID        string
	Description      string
	CreatedAt        time.Time
}

// Tx exposes balance mutation and log appends inside one atomic scope. All
// accounts touched through a Tx must have been named when the scope was opened.
type Tx interface {
	Balance(ctx context.Context, accountID string) (int64, error)
	SetBalance(ctx context.Context, accountID string, balance int64) error
	Append(ctx context.Context, record TransactionRecord) error
}

// Store persists account balances and their append-only transaction logs.
//
// Update is the serialization point: it acquires exclusivity on every listed
// account (in a globally consistent order, so opposite-direction transfers
// cannot deadlock), runs fn, and commits balance writes and record appends
// together or not at all. Concurrent Updates over disjoint accounts proceed
// in parallel.
type Store interface {
	CreateAccount(ctx context.Context, accountID string) error
	Balance(ctx context.Context, accountID string) (int64, error)
	ListForAccount(ctx context.Context, accountID string) ([]TransactionRecord, error)
	Update(ctx context.Context, accountIDs []string, fn func(tx Tx) error) error
}
