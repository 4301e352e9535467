package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/paisapay/paisapay/internal/catalog"
	"github.com/paisapay/paisapay/internal/events"
	"github.com/paisapay/paisapay/internal/identity"
	"github.com/paisapay/paisapay/internal/ledger"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.TransactionCompleted
}

func (p *capturePublisher) Publish(_ context.Context, event events.TransactionCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fixture struct {
	svc      *Service
	store    ledger.Store
	users    identity.Repository
	products *catalog.Service
}

func newFixture() *fixture {
	store := ledger.NewMemory()
	users := identity.NewMemoryRepository()
	products := catalog.NewService(catalog.NewMemoryRepository())
	return &fixture{
		svc:      NewService(store, users, products, nil, nil),
		store:    store,
		users:    users,
		products: products,
	}
}

func (f *fixture) addUser(t *testing.T, username string) string {
	t.Helper()
	ctx := context.Background()
	user := identity.User{ID: uuid.NewString(), Username: username}
	if err := f.users.Create(ctx, user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	if err := f.store.CreateAccount(ctx, user.ID); err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return user.ID
}

func (f *fixture) balance(t *testing.T, accountID string) int64 {
	t.Helper()
	balance, err := f.store.Balance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}

func (f *fixture) records(t *testing.T, accountID string) []ledger.TransactionRecord {
	t.Helper()
	records, err := f.store.ListForAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	return records
}

func TestFundAccumulates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.addUser(t, "alice")

	amounts := []int64{500, 250, 1_250}
	var sum int64
	for _, amount := range amounts {
		res, err := f.svc.Fund(ctx, alice, amount)
		if err != nil {
			t.Fatalf("fund %d: %v", amount, err)
		}
		sum += amount
		if res.Balance != sum {
			t.Fatalf("expected running balance %d, got %d", sum, res.Balance)
		}
	}

	records := f.records(t, alice)
	if len(records) != len(amounts) {
		t.Fatalf("expected %d records, got %d", len(amounts), len(records))
	}
	// Most recent first: resulting balances rewind the running sum.
	running := sum
	for i, record := range records {
		if record.Kind != ledger.KindCredit {
			t.Fatalf("record %d: expected credit, got %s", i, record.Kind)
		}
		if record.ResultingBalance != running {
			t.Fatalf("record %d: expected resulting balance %d, got %d", i, running, record.ResultingBalance)
		}
		running -= record.Amount
	}
}

func TestFundIsNotDeduplicated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.addUser(t, "alice")

	first, err := f.svc.Fund(ctx, alice, 100)
	if err != nil {
		t.Fatalf("first fund: %v", err)
	}
	second, err := f.svc.Fund(ctx, alice, 100)
	if err != nil {
		t.Fatalf("second fund: %v", err)
	}
	if first.TransactionID == second.TransactionID {
		t.Fatal("expected distinct funding events")
	}
	if got := f.balance(t, alice); got != 200 {
		t.Fatalf("expected balance 200, got %d", got)
	}
	if records := f.records(t, alice); len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestFundInvalidAmount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.addUser(t, "alice")

	for _, amount := range []int64{0, -5} {
		if _, err := f.svc.Fund(ctx, alice, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if records := f.records(t, alice); len(records) != 0 {
		t.Fatalf("invalid fund left records: %+v", records)
	}
}

func TestFundUnknownAccount(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Fund(context.Background(), uuid.NewString(), 100); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestPayConservesTotal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	if _, err := f.svc.Fund(ctx, alice, 500); err != nil {
		t.Fatalf("fund: %v", err)
	}

	res, err := f.svc.Pay(ctx, PayInput{FromAccountID: alice, ToUsername: "bob", Amount: 200})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if res.FromBalance != 300 || res.ToBalance != 200 {
		t.Fatalf("unexpected balances: %+v", res)
	}
	if total := f.balance(t, alice) + f.balance(t, bob); total != 500 {
		t.Fatalf("total not conserved: %d", total)
	}

	aliceRecords := f.records(t, alice)
	bobRecords := f.records(t, bob)
	if len(aliceRecords) != 2 || len(bobRecords) != 1 {
		t.Fatalf("unexpected record counts: alice=%d bob=%d", len(aliceRecords), len(bobRecords))
	}
	debit, credit := aliceRecords[0], bobRecords[0]
	if debit.Kind != ledger.KindDebit || credit.Kind != ledger.KindCredit {
		t.Fatalf("unexpected record kinds: %s / %s", debit.Kind, credit.Kind)
	}
	if debit.Amount != 200 || credit.Amount != 200 {
		t.Fatalf("records do not share the transferred amount: %d / %d", debit.Amount, credit.Amount)
	}
	if debit.Counterparty != "bob" || credit.Counterparty != "alice" {
		t.Fatalf("unexpected counterparties: %q / %q", debit.Counterparty, credit.Counterparty)
	}
}

func TestPayInsufficientFundsLeavesNoTrace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	if _, err := f.svc.Fund(ctx, alice, 100); err != nil {
		t.Fatalf("fund: %v", err)
	}

	if _, err := f.svc.Pay(ctx, PayInput{FromAccountID: alice, ToUsername: "bob", Amount: 150}); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if got := f.balance(t, alice); got != 100 {
		t.Fatalf("sender balance changed: %d", got)
	}
	if got := f.balance(t, bob); got != 0 {
		t.Fatalf("recipient balance changed: %d", got)
	}
	if records := f.records(t, bob); len(records) != 0 {
		t.Fatalf("failed pay left records on recipient: %+v", records)
	}
	if records := f.records(t, alice); len(records) != 1 {
		t.Fatalf("failed pay left records on sender: %+v", records)
	}
}

func TestPaySelfTransfer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.addUser(t, "alice")

	if _, err := f.svc.Fund(ctx, alice, 100); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, err := f.svc.Pay(ctx, PayInput{FromAccountID: alice, ToUsername: "alice", Amount: 50}); !errors.Is(err, ErrSelfTransfer) {
		t.Fatalf("expected ErrSelfTransfer, got %v", err)
	}
	if records := f.records(t, alice); len(records) != 1 {
		t.Fatalf("self transfer left records: %+v", records)
	}
}

func TestPayRecipientNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.addUser(t, "alice")

	if _, err := f.svc.Fund(ctx, alice, 100); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, err := f.svc.Pay(ctx, PayInput{FromAccountID: alice, ToUsername: "ghost", Amount: 50}); !errors.Is(err, ErrRecipientNotFound) {
		t.Fatalf("expected ErrRecipientNotFound, got %v", err)
	}
}

func TestConcurrentPaysNeverOverdraw(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	f.addUser(t, "bob")

	if _, err := f.svc.Fund(ctx, alice, 500); err != nil {
		t.Fatalf("fund: %v", err)
	}

	const workers = 10
	const amount = int64(100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Pay(ctx, PayInput{FromAccountID: alice, ToUsername: "bob", Amount: amount})
			switch {
			case err == nil:
				mu.Lock()
				successes++
				mu.Unlock()
			case errors.Is(err, ErrInsufficientFunds):
				// expected once the balance runs out
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes > 5 {
		t.Fatalf("more transfers succeeded than the balance covers: %d", successes)
	}
	aliceBal := f.balance(t, alice)
	if aliceBal < 0 {
		t.Fatalf("account overdrawn: %d", aliceBal)
	}
	if aliceBal != 500-amount*int64(successes) {
		t.Fatalf("balance %d inconsistent with %d successful transfers", aliceBal, successes)
	}
}

func TestPayPublishesDebitAndCreditEvents(t *testing.T) {
	f := newFixture()
	publisher := &capturePublisher{}
	svc := NewService(f.store, f.users, f.products, publisher, nil)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	f.addUser(t, "bob")

	if _, err := svc.Fund(ctx, alice, 500); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, err := svc.Pay(ctx, PayInput{FromAccountID: alice, ToUsername: "bob", Amount: 200}); err != nil {
		t.Fatalf("pay: %v", err)
	}

	if len(publisher.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(publisher.events))
	}
	debit, credit := publisher.events[1], publisher.events[2]
	if debit.Kind != string(ledger.KindDebit) || credit.Kind != string(ledger.KindCredit) {
		t.Fatalf("unexpected event kinds: %s / %s", debit.Kind, credit.Kind)
	}
	if debit.Amount != 200 || credit.Amount != 200 {
		t.Fatalf("events do not carry the transferred amount: %d / %d", debit.Amount, credit.Amount)
	}
}

func TestPurchase(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.addUser(t, "alice")

	product, err := f.products.Create(ctx, catalog.CreateInput{Name: "Keyboard", Price: 1_000})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if _, err := f.svc.Fund(ctx, alice, 1_500); err != nil {
		t.Fatalf("fund: %v", err)
	}

	res, err := f.svc.Purchase(ctx, alice, product.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if res.Balance != 500 {
		t.Fatalf("expected balance 500, got %d", res.Balance)
	}

	records := f.records(t, alice)
	if records[0].Kind != ledger.KindDebit || records[0].ProductID != product.ID {
		t.Fatalf("unexpected purchase record: %+v", records[0])
	}
	if records[0].Description != "Purchase: Keyboard" {
		t.Fatalf("unexpected description: %q", records[0].Description)
	}
}

func TestPurchaseProductNotFound(t *testing.T) {
	f := newFixture()
	alice := f.addUser(t, "alice")
	if _, err := f.svc.Purchase(context.Background(), alice, uuid.NewString()); !errors.Is(err, catalog.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

// Mirrors the end-to-end flow: fund, pay, then an unaffordable purchase.
func TestTransferScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	res, err := f.svc.Fund(ctx, alice, 500)
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
	if res.Balance != 500 {
		t.Fatalf("expected balance 500, got %d", res.Balance)
	}
	if records := f.records(t, alice); len(records) != 1 || records[0].Kind != ledger.KindCredit {
		t.Fatalf("expected one credit record, got %+v", records)
	}

	payRes, err := f.svc.Pay(ctx, PayInput{FromAccountID: alice, ToUsername: "bob", Amount: 200})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if payRes.FromBalance != 300 || f.balance(t, bob) != 200 {
		t.Fatalf("unexpected balances after pay: %+v", payRes)
	}

	product, err := f.products.Create(ctx, catalog.CreateInput{Name: "Monitor", Price: 1_000})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := f.svc.Purchase(ctx, alice, product.ID); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := f.balance(t, alice); got != 300 {
		t.Fatalf("failed purchase changed balance: %d", got)
	}
}
