package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists balances and transaction records in PostgreSQL.
// Update locks the touched account rows (sorted, FOR UPDATE) so the
// read-validate-write-append sequence is serialized per account.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateAccount initializes an account with a zero balance.
func (s *PostgresStore) CreateAccount(ctx context.Context, accountID string) error {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO accounts (id, balance) VALUES ($1, 0)`, id)
	if isUniqueViolation(err) {
		return ErrAccountExists
	}
	return err
}

// Balance returns the current balance for the account.
func (s *PostgresStore) Balance(ctx context.Context, accountID string) (int64, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return 0, err
	}
	var balance int64
	if err := s.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// ListForAccount returns the account's transaction records, most recent first.
func (s *PostgresStore) ListForAccount(ctx context.Context, accountID string) ([]TransactionRecord, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Balance(ctx, accountID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
        SELECT id, account_id, kind, amount, resulting_balance,
               COALESCE(counterparty, ''), COALESCE(product_id, ''), description, created_at
        FROM transactions
        WHERE account_id = $1
        ORDER BY created_at DESC, seq DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TransactionRecord
	for rows.Next() {
		var (
			record    TransactionRecord
			recordID  uuid.UUID
			accountID uuid.UUID
		)
		if err := rows.Scan(&recordID, &accountID, &record.Kind, &record.Amount,
			&record.ResultingBalance, &record.Counterparty, &record.ProductID,
			&record.Description, &record.CreatedAt); err != nil {
			return nil, err
		}
		record.ID = recordID.String()
		record.AccountID = accountID.String()
		record.CreatedAt = record.CreatedAt.UTC()
		records = append(records, record)
	}
	return records, rows.Err()
}

// Update runs fn inside a transaction after locking every listed account row.
// Rows are locked in sorted identifier order to avoid deadlocks between
// concurrent opposite-direction transfers.
func (s *PostgresStore) Update(ctx context.Context, accountIDs []string, fn func(tx Tx) error) error {
	ids := sortedUnique(accountIDs)

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, accountID := range ids {
		id, err := uuid.Parse(accountID)
		if err != nil {
			return err
		}
		var balance int64
		if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&balance); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("account %s: %w", accountID, ErrAccountNotFound)
			}
			return mapContention(err)
		}
	}

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapContention(err)
	}
	return nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Balance(ctx context.Context, accountID string) (int64, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return 0, err
	}
	var balance int64
	if err := t.tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

func (t *postgresTx) SetBalance(ctx context.Context, accountID string, balance int64) error {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return err
	}
	cmd, err := t.tx.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, balance, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (t *postgresTx) Append(ctx context.Context, record TransactionRecord) error {
	recordID, err := uuid.Parse(record.ID)
	if err != nil {
		return err
	}
	accountID, err := uuid.Parse(record.AccountID)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
        INSERT INTO transactions (id, account_id, kind, amount, resulting_balance, counterparty, product_id, description, created_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		recordID, accountID, record.Kind, record.Amount, record.ResultingBalance,
		record.Counterparty, record.ProductID, record.Description, record.CreatedAt.UTC())
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// mapContention converts lock and serialization failures into ErrContention so
// the transfer engine can retry the whole operation.
func mapContention(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %s", ErrContention, pgErr.Code)
		}
	}
	return err
}
