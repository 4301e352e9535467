package transfer

import "errors"

var (
	// ErrInvalidAmount rejects non-positive transfer amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSelfTransfer rejects payments where sender and recipient resolve to
	// the same account.
	ErrSelfTransfer = errors.New("cannot pay yourself")

	// ErrInsufficientFunds occurs when the source account lacks the balance to
	// cover the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRecipientNotFound indicates the recipient handle did not resolve.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrTransientConflict signals contention retries were exhausted. The whole
	// operation may be retried by the caller; no state was changed.
	ErrTransientConflict = errors.New("transient conflict, retry the operation")
)
