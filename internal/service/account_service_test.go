package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/errors"
	"github.com/mohamkz/banking-app/internal/repository/memstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUser(t *testing.T, store domain.Store, email string) *domain.User {
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

func TestOpenCreatesActiveZeroBalanceAccount(t *testing.T) {
	store := memstore.New()
	user := seedUser(t, store, "alice@example.com")
	svc := NewAccountService(store, "USD", testLogger())

	account, err := svc.Open(user.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, account.AccountNumber)
	assert.True(t, account.Balance.IsZero())
	assert.Equal(t, "USD", account.Currency)
	assert.Equal(t, domain.AccountActive, account.Status)
	assert.Equal(t, user.ID, account.UserID)
	assert.False(t, account.OpeningDate.IsZero())

	// Every account gets its own number.
	second, err := svc.Open(user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, account.AccountNumber, second.AccountNumber)
}

func TestOpenRequiresExistingUser(t *testing.T) {
	svc := NewAccountService(memstore.New(), "USD", testLogger())

	_, err := svc.Open(42)
	assert.Equal(t, errors.ErrUserNotFound, err)
}

func TestListOwnedReturnsOnlyCallersAccounts(t *testing.T) {
	store := memstore.New()
	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	svc := NewAccountService(store, "USD", testLogger())

	_, err := svc.Open(alice.ID)
	require.NoError(t, err)
	_, err = svc.Open(alice.ID)
	require.NoError(t, err)
	_, err = svc.Open(bob.ID)
	require.NoError(t, err)

	accounts, err := svc.ListOwned(alice.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
	for _, account := range accounts {
		assert.Equal(t, alice.ID, account.UserID)
	}
}

func TestAuthorizeChecksOwnership(t *testing.T) {
	store := memstore.New()
	alice := seedUser(t, store, "alice@example.com")
	seedUser(t, store, "bob@example.com")
	svc := NewAccountService(store, "USD", testLogger())

	account, err := svc.Open(alice.ID)
	require.NoError(t, err)

	got, err := svc.Authorize("alice@example.com", account.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	// Someone else's account reads as not-found, not as forbidden.
	_, err = svc.Authorize("bob@example.com", account.AccountNumber)
	assert.Equal(t, errors.ErrAccountNotFound, err)

	_, err = svc.Authorize("alice@example.com", "no-such-number")
	assert.Equal(t, errors.ErrAccountNotFound, err)

	_, err = svc.Authorize("nobody@example.com", account.AccountNumber)
	assert.Equal(t, errors.ErrUserNotFound, err)
}
