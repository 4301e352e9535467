package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/paisapay/paisapay/internal/catalog"
	"github.com/paisapay/paisapay/internal/events"
	"github.com/paisapay/paisapay/internal/identity"
	"github.com/paisapay/paisapay/internal/ledger"
)

// maxAttempts bounds retries when the store reports contention.
const maxAttempts = 3

// Service is the transfer engine. Every operation runs its read-validate-
// write-append sequence inside one atomic store update: either the balance
// change(s) and the ledger record(s) all commit, or nothing does.
type Service struct {
	store     ledger.Store
	users     identity.Repository
	products  *catalog.Service
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService constructs a transfer engine.
func NewService(store ledger.Store, users identity.Repository, products *catalog.Service, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, users: users, products: products, publisher: publisher, logger: logger}
}

// FundResult describes a completed funding operation.
type FundResult struct {
	TransactionID string
	Balance       int64
}

// PayResult describes a completed account-to-account payment.
type PayResult struct {
	TransactionID string
	FromBalance   int64
	ToBalance     int64
}

// PurchaseResult describes a completed catalog purchase.
type PurchaseResult struct {
	TransactionID string
	Balance       int64
	ProductName   string
}

// Fund credits the account with the given amount. Each call is a distinct
// funding event; no deduplication happens here.
func (s *Service) Fund(ctx context.Context, accountID string, amount int64) (FundResult, error) {
	if amount <= 0 {
		return FundResult{}, ErrInvalidAmount
	}

	var record ledger.TransactionRecord
	err := s.update(ctx, []string{accountID}, func(tx ledger.Tx) error {
		balance, err := tx.Balance(ctx, accountID)
		if err != nil {
			return err
		}
		record = ledger.TransactionRecord{
			ID:               uuid.New().String(),
			AccountID:        accountID,
			Kind:             ledger.KindCredit,
			Amount:           amount,
			ResultingBalance: balance + amount,
			Description:      "Account funding",
			CreatedAt:        time.Now().UTC(),
		}
		if err := tx.SetBalance(ctx, accountID, record.ResultingBalance); err != nil {
			return err
		}
		return tx.Append(ctx, record)
	})
	if err != nil {
		return FundResult{}, err
	}

	s.publish(ctx, record)
	return FundResult{TransactionID: record.ID, Balance: record.ResultingBalance}, nil
}

// PayInput captures the data needed to move funds between accounts. The
// recipient is addressed by username, not account id.
type PayInput struct {
	FromAccountID string
	ToUsername    string
	Amount        int64
}

// Pay atomically debits the sender and credits the recipient, appending one
// debit and one credit record sharing the transferred amount. No intermediate
// state is observable: both accounts are locked for the whole sequence, in
// sorted order.
func (s *Service) Pay(ctx context.Context, input PayInput) (PayResult, error) {
	if input.Amount <= 0 {
		return PayResult{}, ErrInvalidAmount
	}

	sender, err := s.users.FindByID(ctx, input.FromAccountID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return PayResult{}, ledger.ErrAccountNotFound
		}
		return PayResult{}, err
	}
	recipient, err := s.users.FindByUsername(ctx, input.ToUsername)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return PayResult{}, ErrRecipientNotFound
		}
		return PayResult{}, err
	}
	if recipient.ID == sender.ID {
		return PayResult{}, ErrSelfTransfer
	}

	var debit, credit ledger.TransactionRecord
	err = s.update(ctx, []string{sender.ID, recipient.ID}, func(tx ledger.Tx) error {
		fromBalance, err := tx.Balance(ctx, sender.ID)
		if err != nil {
			return err
		}
		if fromBalance < input.Amount {
			return ErrInsufficientFunds
		}
		toBalance, err := tx.Balance(ctx, recipient.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		debit = ledger.TransactionRecord{
			ID:               uuid.New().String(),
			AccountID:        sender.ID,
			Kind:             ledger.KindDebit,
			Amount:           input.Amount,
			ResultingBalance: fromBalance - input.Amount,
			Counterparty:     recipient.Username,
			Description:      fmt.Sprintf("Payment to %s", recipient.Username),
			CreatedAt:        now,
		}
		credit = ledger.TransactionRecord{
			ID:               uuid.New().String(),
			AccountID:        recipient.ID,
			Kind:             ledger.KindCredit,
			Amount:           input.Amount,
			ResultingBalance: toBalance + input.Amount,
			Counterparty:     sender.Username,
			Description:      fmt.Sprintf("Payment from %s", sender.Username),
			CreatedAt:        now,
		}

		if err := tx.SetBalance(ctx, sender.ID, debit.ResultingBalance); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, recipient.ID, credit.ResultingBalance); err != nil {
			return err
		}
		if err := tx.Append(ctx, debit); err != nil {
			return err
		}
		return tx.Append(ctx, credit)
	})
	if err != nil {
		return PayResult{}, err
	}

	s.publish(ctx, debit)
	s.publish(ctx, credit)
	return PayResult{TransactionID: debit.ID, FromBalance: debit.ResultingBalance, ToBalance: credit.ResultingBalance}, nil
}

// Purchase debits the account by the product price and appends one debit
// record referencing the product.
func (s *Service) Purchase(ctx context.Context, accountID, productID string) (PurchaseResult, error) {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return PurchaseResult{}, err
	}

	var record ledger.TransactionRecord
	err = s.update(ctx, []string{accountID}, func(tx ledger.Tx) error {
		balance, err := tx.Balance(ctx, accountID)
		if err != nil {
			return err
		}
		if balance < product.Price {
			return ErrInsufficientFunds
		}
		record = ledger.TransactionRecord{
			ID:               uuid.New().String(),
			AccountID:        accountID,
			Kind:             ledger.KindDebit,
			Amount:           product.Price,
			ResultingBalance: balance - product.Price,
			ProductID:        product.ID,
			Description:      fmt.Sprintf("Purchase: %s", product.Name),
			CreatedAt:        time.Now().UTC(),
		}
		if err := tx.SetBalance(ctx, accountID, record.ResultingBalance); err != nil {
			return err
		}
		return tx.Append(ctx, record)
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	s.publish(ctx, record)
	return PurchaseResult{TransactionID: record.ID, Balance: record.ResultingBalance, ProductName: product.Name}, nil
}

// update runs the store update, retrying a bounded number of times when the
// store reports contention. Exhaustion surfaces as ErrTransientConflict.
func (s *Service) update(ctx context.Context, accountIDs []string, fn func(tx ledger.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.store.Update(ctx, accountIDs, fn)
		if !errors.Is(err, ledger.ErrContention) {
			return err
		}
		if s.logger != nil {
			s.logger.Warn("store contention, retrying", "attempt", attempt, "accounts", accountIDs)
		}
	}
	return ErrTransientConflict
}

// publish emits a completion event; failures are logged, never surfaced — the
// ledger commit already happened.
func (s *Service) publish(ctx context.Context, record ledger.TransactionRecord) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.TransactionCompleted{
		TransactionID:    record.ID,
		AccountID:        record.AccountID,
		Counterparty:     record.Counterparty,
		Kind:             string(record.Kind),
		Amount:           record.Amount,
		ResultingBalance: record.ResultingBalance,
		OccurredAt:       record.CreatedAt,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("publish transaction event", "transaction_id", record.ID, "error", err)
	}
}
