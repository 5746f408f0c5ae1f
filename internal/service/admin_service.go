package service

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/fraud"
)

// SystemStats aggregates platform-wide counts and total moved amount.
type SystemStats struct {
	UserCount        int64           `json:"user_count"`
	AccountCount     int64           `json:"account_count"`
	TransactionCount int64           `json:"transaction_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}

// AnnotatedTransaction is a transaction view plus its fraud annotation,
// used only by the admin listing.
type AnnotatedTransaction struct {
	TransactionView
	Fraud fraud.Annotation `json:"fraud"`
}

type AdminService struct {
	store        domain.Store
	scorer       *fraud.Client
	transactions *TransactionService
	logger       *slog.Logger
}

func NewAdminService(store domain.Store, scorer *fraud.Client, transactions *TransactionService, logger *slog.Logger) *AdminService {
	return &AdminService{
		store:        store,
		scorer:       scorer,
		transactions: transactions,
		logger:       logger,
	}
}

func (s *AdminService) SystemStats() (*SystemStats, error) {
	userCount, err := s.store.User().CountUsers()
	if err != nil {
		return nil, err
	}
	accountCount, err := s.store.Account().CountAccounts()
	if err != nil {
		return nil, err
	}
	transactionCount, err := s.store.Transaction().CountTransactions()
	if err != nil {
		return nil, err
	}
	totalAmount, err := s.store.Transaction().SumTransactionAmounts()
	if err != nil {
		return nil, err
	}

	return &SystemStats{
		UserCount:        userCount,
		AccountCount:     accountCount,
		TransactionCount: transactionCount,
		TotalAmount:      totalAmount,
	}, nil
}

// DailyStats buckets transaction volume per day over the lookback window.
func (s *AdminService) DailyStats(days int) ([]*domain.DailyStats, error) {
	since := time.Now().AddDate(0, 0, -days)
	return s.store.Transaction().DailyTransactionStats(since)
}

// MonthlyStats buckets transaction volume per month over the last year.
func (s *AdminService) MonthlyStats() ([]*domain.MonthlyStats, error) {
	since := time.Now().AddDate(-1, 0, 0)
	return s.store.Transaction().MonthlyTransactionStats(since)
}

func (s *AdminService) ListUsers() ([]*domain.User, error) {
	return s.store.User().ListUsers()
}

func (s *AdminService) ListAccounts() ([]*domain.Account, error) {
	return s.store.Account().ListAccounts()
}

// ListTransactions returns every transaction annotated by the fraud
// scorer. Scorer failures degrade to the neutral annotation per row.
func (s *AdminService) ListTransactions() ([]*AnnotatedTransaction, error) {
	transactions, err := s.store.Transaction().ListTransactions()
	if err != nil {
		return nil, err
	}

	annotated := make([]*AnnotatedTransaction, 0, len(transactions))
	for _, tx := range transactions {
		view, err := s.transactions.ToView(tx)
		if err != nil {
			return nil, err
		}

		senderID := int64(-1)
		if tx.SenderAccountID != nil {
			senderID = *tx.SenderAccountID
		}
		amount, _ := tx.Amount.Float64()

		annotation := s.scorer.Score(fraud.Summary{
			Amount:            amount,
			Timestamp:         tx.Timestamp.Format(time.RFC3339),
			Type:              string(tx.Type),
			ReceiverAccountID: tx.ReceiverAccountID,
			SenderAccountID:   senderID,
		})

		annotated = append(annotated, &AnnotatedTransaction{
			TransactionView: *view,
			Fraud:           annotation,
		})
	}
	return annotated, nil
}
