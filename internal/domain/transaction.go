package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTransfer   TransactionType = "TRANSFER"
)

type Transaction struct {
	ID                uuid.UUID       `json:"id"`
	Amount            decimal.Decimal `json:"amount"`
	Type              TransactionType `json:"type"`
	SenderAccountID   *int64          `json:"sender_account_id,omitempty"`
	ReceiverAccountID int64           `json:"receiver_account_id"`
	Description       string          `json:"description"`
	Timestamp         time.Time       `json:"timestamp"`
}

// TransactionFilter narrows history queries. AccountNumber and OwnerEmail
// are always required; Type and Direction are optional.
type TransactionFilter struct {
	AccountNumber string
	OwnerEmail    string
	Type          TransactionType
	Direction     Direction
}

type Direction string

const (
	DirectionAny      Direction = ""
	DirectionSent     Direction = "SENT"
	DirectionReceived Direction = "RECEIVED"
)

// DailyStats is one day's transaction volume bucket.
type DailyStats struct {
	Day    time.Time       `json:"day"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthlyStats is one month's transaction volume bucket, keyed "YYYY-MM".
type MonthlyStats struct {
	Month  string          `json:"month"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type TransactionRepository interface {
	// AppendTransaction assigns the timestamp and writes the row. Rows are
	// never updated or deleted afterwards.
	AppendTransaction(tx *Transaction) error
	// QueryTransactions returns matches ordered by timestamp descending.
	QueryTransactions(filter TransactionFilter) ([]*Transaction, error)
	CountTransactions() (int64, error)
	SumTransactionAmounts() (decimal.Decimal, error)
	DailyTransactionStats(since time.Time) ([]*DailyStats, error)
	MonthlyTransactionStats(since time.Time) ([]*MonthlyStats, error)
	ListTransactions() ([]*Transaction, error)
}
