package service

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/errors"
)

type AccountService struct {
	store           domain.Store
	defaultCurrency string
	logger          *slog.Logger
}

func NewAccountService(store domain.Store, defaultCurrency string, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:           store,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// Open creates a zero-balance ACTIVE account for the owner with a freshly
// generated account number.
func (s *AccountService) Open(userID int64) (*domain.Account, error) {
	if _, err := s.store.User().GetUserByID(userID); err != nil {
		return nil, err
	}

	account := &domain.Account{
		AccountNumber: uuid.NewString(),
		Balance:       decimal.Zero,
		Currency:      s.defaultCurrency,
		Status:        domain.AccountActive,
		UserID:        userID,
	}

	if err := s.store.Account().CreateAccount(account); err != nil {
		return nil, err
	}

	s.logger.Info("Account opened", "account_id", account.ID, "user_id", userID)
	return account, nil
}

// ListOwned returns the caller's accounts, newest first.
func (s *AccountService) ListOwned(userID int64) ([]*domain.Account, error) {
	return s.store.Account().GetAccountsByUserID(userID)
}

// Authorize confirms that the principal owns the account before any
// mutation acts on it. An account owned by someone else is reported as a
// plain not-found so callers cannot probe for foreign accounts.
func (s *AccountService) Authorize(principalEmail, accountNumber string) (*domain.Account, error) {
	user, err := s.store.User().GetUserByEmail(principalEmail)
	if err != nil {
		return nil, err
	}

	account, err := s.store.Account().GetAccountByNumber(accountNumber)
	if err != nil {
		return nil, err
	}

	if account.UserID != user.ID {
		s.logger.Warn("Unauthorized account access",
			"account_number", accountNumber, "user_id", user.ID)
		return nil, errors.ErrAccountNotFound
	}

	return account, nil
}
