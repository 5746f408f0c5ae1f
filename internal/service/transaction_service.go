package service

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/ledger"
)

// SystemBankName stands in for the sender of a deposit, which originates
// from the institution rather than a customer account.
const SystemBankName = "SYS_BANK"

// TransactionView is a transaction rendered with account numbers instead
// of internal ids, the shape history endpoints return.
type TransactionView struct {
	SenderAccountNumber   string          `json:"sender_account_number"`
	ReceiverAccountNumber string          `json:"receiver_account_number"`
	Amount                decimal.Decimal `json:"amount"`
	Description           string          `json:"description"`
	Type                  string          `json:"type"`
	Timestamp             time.Time       `json:"timestamp"`
}

type HistoryVariant string

const (
	HistoryAll      HistoryVariant = "all"
	HistoryDeposits HistoryVariant = "deposits"
	HistorySent     HistoryVariant = "sent"
	HistoryReceived HistoryVariant = "received"
)

type TransactionService struct {
	engine *ledger.Engine
	store  domain.Store
	logger *slog.Logger
}

func NewTransactionService(engine *ledger.Engine, store domain.Store, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

// Transfer runs the ledger transfer. Authorization of the sender account
// must already have happened.
func (s *TransactionService) Transfer(senderNumber, receiverNumber string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	return s.engine.Transfer(senderNumber, receiverNumber, amount, description)
}

// Deposit runs the ledger deposit.
func (s *TransactionService) Deposit(accountNumber string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	return s.engine.Deposit(accountNumber, amount, description)
}

// History returns the account's transactions in the requested variant,
// scoped to the owning principal and ordered newest first.
func (s *TransactionService) History(accountNumber, ownerEmail string, variant HistoryVariant) ([]*TransactionView, error) {
	filter := domain.TransactionFilter{
		AccountNumber: accountNumber,
		OwnerEmail:    ownerEmail,
	}
	switch variant {
	case HistoryDeposits:
		filter.Type = domain.TransactionDeposit
	case HistorySent:
		filter.Direction = domain.DirectionSent
	case HistoryReceived:
		filter.Direction = domain.DirectionReceived
	}

	transactions, err := s.store.Transaction().QueryTransactions(filter)
	if err != nil {
		return nil, err
	}

	views := make([]*TransactionView, 0, len(transactions))
	for _, tx := range transactions {
		view, err := s.ToView(tx)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// ToView resolves account ids to account numbers for presentation.
func (s *TransactionService) ToView(tx *domain.Transaction) (*TransactionView, error) {
	senderNumber := SystemBankName
	if tx.SenderAccountID != nil {
		sender, err := s.store.Account().GetAccountByID(*tx.SenderAccountID)
		if err != nil {
			return nil, err
		}
		senderNumber = sender.AccountNumber
	}

	receiver, err := s.store.Account().GetAccountByID(tx.ReceiverAccountID)
	if err != nil {
		return nil, err
	}

	return &TransactionView{
		SenderAccountNumber:   senderNumber,
		ReceiverAccountNumber: receiver.AccountNumber,
		Amount:                tx.Amount,
		Description:           tx.Description,
		Type:                  string(tx.Type),
		Timestamp:             tx.Timestamp,
	}, nil
}
