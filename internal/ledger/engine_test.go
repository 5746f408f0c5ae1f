package ledger

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/errors"
	"github.com/mohamkz/banking-app/internal/repository/memstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestAccount seeds an account directly in the store and returns it.
func newTestAccount(t *testing.T, store domain.Store, userID int64, balance string, status domain.AccountStatus) *domain.Account {
	t.Helper()

	account := &domain.Account{
		AccountNumber: uuid.NewString(),
		Balance:       decimal.RequireFromString(balance),
		Currency:      "USD",
		Status:        status,
		UserID:        userID,
	}
	require.NoError(t, store.Account().CreateAccount(account))
	return account
}

func newTestUser(t *testing.T, store domain.Store, email string) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
		PhoneNumber:  "555-" + email,
		Role:         domain.RoleUser,
	}
	require.NoError(t, store.User().CreateUser(user))
	return user
}

func balanceOf(t *testing.T, store domain.Store, accountNumber string) decimal.Decimal {
	t.Helper()

	account, err := store.Account().GetAccountByNumber(accountNumber)
	require.NoError(t, err)
	return account.Balance
}

func TestDepositIncreasesBalanceAndAppendsRow(t *testing.T) {
	store := memstore.New()
	user := newTestUser(t, store, "alice@example.com")
	account := newTestAccount(t, store, user.ID, "10.00", domain.AccountActive)

	engine := NewEngine(store, testLogger())

	tx, err := engine.Deposit(account.AccountNumber, decimal.RequireFromString("25.50"), "payday")
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionDeposit, tx.Type)
	assert.Nil(t, tx.SenderAccountID)
	assert.Equal(t, account.ID, tx.ReceiverAccountID)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("25.50")))
	assert.False(t, tx.Timestamp.IsZero())

	assert.True(t, balanceOf(t, store, account.AccountNumber).Equal(decimal.RequireFromString("35.50")))

	count, err := store.Transaction().CountTransactions()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	store := memstore.New()
	user := newTestUser(t, store, "alice@example.com")
	account := newTestAccount(t, store, user.ID, "10.00", domain.AccountActive)

	engine := NewEngine(store, testLogger())

	for _, amount := range []string{"0", "-1.00"} {
		_, err := engine.Deposit(account.AccountNumber, decimal.RequireFromString(amount), "bad")
		require.Error(t, err)

		appErr, ok := err.(*errors.AppError)
		require.True(t, ok)
		assert.Equal(t, errors.InvalidAmount, appErr.Code)
	}

	assert.True(t, balanceOf(t, store, account.AccountNumber).Equal(decimal.RequireFromString("10.00")))
}

func TestDepositUnknownAccount(t *testing.T) {
	store := memstore.New()
	engine := NewEngine(store, testLogger())

	_, err := engine.Deposit("no-such-account", decimal.RequireFromString("5.00"), "oops")
	assert.Equal(t, errors.ErrAccountNotFound, err)
}

func TestDepositRejectsInactiveAccount(t *testing.T) {
	store := memstore.New()
	user := newTestUser(t, store, "alice@example.com")

	for _, status := range []domain.AccountStatus{domain.AccountFrozen, domain.AccountClosed} {
		account := newTestAccount(t, store, user.ID, "10.00", status)

		engine := NewEngine(store, testLogger())
		_, err := engine.Deposit(account.AccountNumber, decimal.RequireFromString("5.00"), "blocked")
		assert.Equal(t, errors.ErrAccountNotActive, err)
		assert.True(t, balanceOf(t, store, account.AccountNumber).Equal(decimal.RequireFromString("10.00")))
	}
}

func TestTransferMovesMoneyExactly(t *testing.T) {
	store := memstore.New()
	alice := newTestUser(t, store, "alice@example.com")
	bob := newTestUser(t, store, "bob@example.com")
	a := newTestAccount(t, store, alice.ID, "100.00", domain.AccountActive)
	b := newTestAccount(t, store, bob.ID, "0.00", domain.AccountActive)

	engine := NewEngine(store, testLogger())

	tx, err := engine.Transfer(a.AccountNumber, b.AccountNumber, decimal.RequireFromString("40.00"), "rent")
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTransfer, tx.Type)
	require.NotNil(t, tx.SenderAccountID)
	assert.Equal(t, a.ID, *tx.SenderAccountID)
	assert.Equal(t, b.ID, tx.ReceiverAccountID)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("40.00")))

	assert.True(t, balanceOf(t, store, a.AccountNumber).Equal(decimal.RequireFromString("60.00")))
	assert.True(t, balanceOf(t, store, b.AccountNumber).Equal(decimal.RequireFromString("40.00")))

	// A second transfer beyond the remaining balance fails and changes nothing.
	_, err = engine.Transfer(a.AccountNumber, b.AccountNumber, decimal.RequireFromString("100.00"), "rent2")
	assert.Equal(t, errors.ErrInsufficientFunds, err)

	assert.True(t, balanceOf(t, store, a.AccountNumber).Equal(decimal.RequireFromString("60.00")))
	assert.True(t, balanceOf(t, store, b.AccountNumber).Equal(decimal.RequireFromString("40.00")))

	count, err := store.Transaction().CountTransactions()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestTransferInsufficientFundsLeavesNoTrace(t *testing.T) {
	store := memstore.New()
	alice := newTestUser(t, store, "alice@example.com")
	bob := newTestUser(t, store, "bob@example.com")
	a := newTestAccount(t, store, alice.ID, "10.00", domain.AccountActive)
	b := newTestAccount(t, store, bob.ID, "5.00", domain.AccountActive)

	engine := NewEngine(store, testLogger())

	_, err := engine.Transfer(a.AccountNumber, b.AccountNumber, decimal.RequireFromString("10.01"), "too much")
	assert.Equal(t, errors.ErrInsufficientFunds, err)

	assert.True(t, balanceOf(t, store, a.AccountNumber).Equal(decimal.RequireFromString("10.00")))
	assert.True(t, balanceOf(t, store, b.AccountNumber).Equal(decimal.RequireFromString("5.00")))

	count, err := store.Transaction().CountTransactions()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestTransferRejectsSameAccount(t *testing.T) {
	store := memstore.New()
	alice := newTestUser(t, store, "alice@example.com")
	a := newTestAccount(t, store, alice.ID, "100.00", domain.AccountActive)

	engine := NewEngine(store, testLogger())

	_, err := engine.Transfer(a.AccountNumber, a.AccountNumber, decimal.RequireFromString("10.00"), "loop")
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ValidationFailed, appErr.Code)
	assert.True(t, balanceOf(t, store, a.AccountNumber).Equal(decimal.RequireFromString("100.00")))
}

func TestTransferUnknownAccounts(t *testing.T) {
	store := memstore.New()
	alice := newTestUser(t, store, "alice@example.com")
	a := newTestAccount(t, store, alice.ID, "100.00", domain.AccountActive)

	engine := NewEngine(store, testLogger())

	_, err := engine.Transfer(a.AccountNumber, "missing", decimal.RequireFromString("10.00"), "x")
	assert.Equal(t, errors.ErrAccountNotFound, err)

	_, err = engine.Transfer("missing", a.AccountNumber, decimal.RequireFromString("10.00"), "x")
	assert.Equal(t, errors.ErrAccountNotFound, err)

	assert.True(t, balanceOf(t, store, a.AccountNumber).Equal(decimal.RequireFromString("100.00")))
}

func TestTransferRejectsInactiveReceiver(t *testing.T) {
	store := memstore.New()
	alice := newTestUser(t, store, "alice@example.com")
	bob := newTestUser(t, store, "bob@example.com")
	a := newTestAccount(t, store, alice.ID, "100.00", domain.AccountActive)
	frozen := newTestAccount(t, store, bob.ID, "0.00", domain.AccountFrozen)

	engine := NewEngine(store, testLogger())

	_, err := engine.Transfer(a.AccountNumber, frozen.AccountNumber, decimal.RequireFromString("10.00"), "x")
	assert.Equal(t, errors.ErrAccountNotActive, err)

	assert.True(t, balanceOf(t, store, a.AccountNumber).Equal(decimal.RequireFromString("100.00")))
	assert.True(t, balanceOf(t, store, frozen.AccountNumber).Equal(decimal.RequireFromString("0.00")))
}

func TestConcurrentTransfersNoLostUpdates(t *testing.T) {
	store := memstore.New()
	alice := newTestUser(t, store, "alice@example.com")
	bob := newTestUser(t, store, "bob@example.com")
	a := newTestAccount(t, store, alice.ID, "100.00", domain.AccountActive)
	b := newTestAccount(t, store, bob.ID, "0.00", domain.AccountActive)

	engine := NewEngine(store, testLogger())

	const workers = 20
	amount := decimal.RequireFromString("5.00")

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transfer(a.AccountNumber, b.AccountNumber, amount, "drain")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.True(t, balanceOf(t, store, a.AccountNumber).Equal(decimal.RequireFromString("0.00")))
	assert.True(t, balanceOf(t, store, b.AccountNumber).Equal(decimal.RequireFromString("100.00")))

	count, err := store.Transaction().CountTransactions()
	require.NoError(t, err)
	assert.Equal(t, int64(workers), count)
}

func TestOpposingConcurrentTransfersDoNotDeadlock(t *testing.T) {
	store := memstore.New()
	alice := newTestUser(t, store, "alice@example.com")
	bob := newTestUser(t, store, "bob@example.com")
	a := newTestAccount(t, store, alice.ID, "500.00", domain.AccountActive)
	b := newTestAccount(t, store, bob.ID, "500.00", domain.AccountActive)

	engine := NewEngine(store, testLogger())

	const rounds = 50
	amount := decimal.RequireFromString("1.00")

	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := engine.Transfer(a.AccountNumber, b.AccountNumber, amount, "ping")
			errs <- err
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := engine.Transfer(b.AccountNumber, a.AccountNumber, amount, "pong")
			errs <- err
		}
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Equal traffic both ways: balances end where they started.
	assert.True(t, balanceOf(t, store, a.AccountNumber).Equal(decimal.RequireFromString("500.00")))
	assert.True(t, balanceOf(t, store, b.AccountNumber).Equal(decimal.RequireFromString("500.00")))
}

// failingAppendStore wraps a store so that transaction appends fail,
// proving the balance mutation rolls back with them.
type failingAppendStore struct {
	domain.Store
}

func (s *failingAppendStore) WithTransaction(fn func(domain.Store) error) error {
	return s.Store.WithTransaction(func(inner domain.Store) error {
		return fn(&failingAppendTx{Store: inner})
	})
}

type failingAppendTx struct {
	domain.Store
}

func (s *failingAppendTx) Transaction() domain.TransactionRepository {
	return &failingTransactionRepo{TransactionRepository: s.Store.Transaction()}
}

type failingTransactionRepo struct {
	domain.TransactionRepository
}

func (r *failingTransactionRepo) AppendTransaction(tx *domain.Transaction) error {
	return errors.NewAppError(errors.InternalError, "log unavailable")
}

func TestFailedLogAppendRollsBackBalances(t *testing.T) {
	store := memstore.New()
	alice := newTestUser(t, store, "alice@example.com")
	bob := newTestUser(t, store, "bob@example.com")
	a := newTestAccount(t, store, alice.ID, "100.00", domain.AccountActive)
	b := newTestAccount(t, store, bob.ID, "0.00", domain.AccountActive)

	engine := NewEngine(&failingAppendStore{Store: store}, testLogger())

	_, err := engine.Transfer(a.AccountNumber, b.AccountNumber, decimal.RequireFromString("40.00"), "doomed")
	require.Error(t, err)

	assert.True(t, balanceOf(t, store, a.AccountNumber).Equal(decimal.RequireFromString("100.00")))
	assert.True(t, balanceOf(t, store, b.AccountNumber).Equal(decimal.RequireFromString("0.00")))

	count, countErr := store.Transaction().CountTransactions()
	require.NoError(t, countErr)
	assert.Equal(t, int64(0), count)

	_, err = engine.Deposit(a.AccountNumber, decimal.RequireFromString("10.00"), "doomed too")
	require.Error(t, err)
	assert.True(t, balanceOf(t, store, a.AccountNumber).Equal(decimal.RequireFromString("100.00")))
}
