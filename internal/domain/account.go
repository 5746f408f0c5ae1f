package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
	AccountClosed AccountStatus = "CLOSED"
)

type Account struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	Status        AccountStatus   `json:"status"`
	UserID        int64           `json:"user_id"`
	OpeningDate   time.Time       `json:"opening_date"`
}

// IsActive reports whether the account may be debited or credited.
func (a *Account) IsActive() bool {
	return a.Status == AccountActive
}

type AccountRepository interface {
	CreateAccount(account *Account) error
	GetAccountByID(id int64) (*Account, error)
	GetAccountByNumber(accountNumber string) (*Account, error)
	// GetAccountByNumberForUpdate locks the account row for the duration of
	// the enclosing store transaction.
	GetAccountByNumberForUpdate(accountNumber string) (*Account, error)
	GetAccountsByUserID(userID int64) ([]*Account, error)
	UpdateAccountBalance(id int64, newBalance decimal.Decimal) error
	CountAccounts() (int64, error)
	ListAccounts() ([]*Account, error)
}
