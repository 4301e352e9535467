package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

const defaultLockWait = 2 * time.Second

type memoryStore struct {
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	balances map[string]int64
	records  map[string][]TransactionRecord
	lockWait time.Duration
}

// NewMemory creates a concurrency-safe in-memory store useful for unit tests
// and development mode.
func NewMemory() Store {
	return &memoryStore{
		locks:    make(map[string]*sync.Mutex),
		balances: make(map[string]int64),
		records:  make(map[string][]TransactionRecord),
		lockWait: defaultLockWait,
	}
}

func (s *memoryStore) CreateAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.balances[accountID]; exists {
		return ErrAccountExists
	}
	s.balances[accountID] = 0
	s.locks[accountID] = &sync.Mutex{}
	return nil
}

func (s *memoryStore) Balance(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, exists := s.balances[accountID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (s *memoryStore) ListForAccount(_ context.Context, accountID string) ([]TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.balances[accountID]; !exists {
		return nil, ErrAccountNotFound
	}
	stored := s.records[accountID]
	// Most recent first. Insertion order is the commit order.
	out := make([]TransactionRecord, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

// Update locks the listed accounts in sorted identifier order, runs fn against
// a staged view and applies all staged writes in one critical section. A lock
// that cannot be acquired within lockWait aborts with ErrContention.
func (s *memoryStore) Update(ctx context.Context, accountIDs []string, fn func(tx Tx) error) error {
	ids := sortedUnique(accountIDs)

	held := make([]*sync.Mutex, 0, len(ids))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}

	deadline := time.Now().Add(s.lockWait)
	for _, id := range ids {
		lock, err := s.lockFor(id)
		if err != nil {
			release()
			return err
		}
		if err := acquire(ctx, lock, deadline); err != nil {
			release()
			return err
		}
		held = append(held, lock)
	}
	defer release()

	tx := &memoryTx{store: s, scope: ids, balances: make(map[string]int64)}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, balance := range tx.balances {
		s.balances[id] = balance
	}
	for _, record := range tx.appended {
		s.records[record.AccountID] = append(s.records[record.AccountID], record)
	}
	return nil
}

func (s *memoryStore) lockFor(accountID string) (*sync.Mutex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return lock, nil
}

func acquire(ctx context.Context, lock *sync.Mutex, deadline time.Time) error {
	for {
		if lock.TryLock() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return ErrContention
		}
		time.Sleep(200 * time.Microsecond)
	}
}

type memoryTx struct {
	store    *memoryStore
	scope    []string
	balances map[string]int64
	appended []TransactionRecord
}

func (t *memoryTx) inScope(accountID string) bool {
	for _, id := range t.scope {
		if id == accountID {
			return true
		}
	}
	return false
}

func (t *memoryTx) Balance(_ context.Context, accountID string) (int64, error) {
	if !t.inScope(accountID) {
		return 0, ErrAccountNotFound
	}
	if balance, ok := t.balances[accountID]; ok {
		return balance, nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	balance, exists := t.store.balances[accountID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (t *memoryTx) SetBalance(_ context.Context, accountID string, balance int64) error {
	if !t.inScope(accountID) {
		return ErrAccountNotFound
	}
	t.balances[accountID] = balance
	return nil
}

func (t *memoryTx) Append(_ context.Context, record TransactionRecord) error {
	if !t.inScope(record.AccountID) {
		return ErrAccountNotFound
	}
	t.appended = append(t.appended, record)
	return nil
}

func sortedUnique(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
