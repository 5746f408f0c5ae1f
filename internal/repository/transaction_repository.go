package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/errors"
)

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewTransactionRepository(db SQLExecutor, logger *slog.Logger) domain.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *transactionRepository) AppendTransaction(tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, amount, type, sender_account_id, receiver_account_id, description, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING timestamp
	`

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	// Deposits have no sender account
	var senderID interface{}
	if tx.SenderAccountID != nil {
		senderID = *tx.SenderAccountID
	}

	err := r.db.QueryRow(
		query,
		tx.ID,
		tx.Amount.String(),
		tx.Type,
		senderID,
		tx.ReceiverAccountID,
		tx.Description,
	).Scan(&tx.Timestamp)

	if err != nil {
		r.logger.Error("Failed to append transaction",
			"receiver_account_id", tx.ReceiverAccountID,
			"amount", tx.Amount,
			"type", tx.Type,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to append transaction").WithDetails(err.Error())
	}

	r.logger.Info("Transaction appended", "transaction_id", tx.ID, "type", tx.Type)
	return nil
}

const transactionColumns = `
	t.id, t.amount, t.type, t.sender_account_id, t.receiver_account_id, t.description, t.timestamp
`

func (r *transactionRepository) QueryTransactions(filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	var query string

	switch {
	case filter.Type == domain.TransactionDeposit:
		query = `
			SELECT ` + transactionColumns + `
			FROM transactions t
			JOIN accounts ra ON ra.id = t.receiver_account_id
			JOIN users ru ON ru.id = ra.user_id
			WHERE ra.account_number = $1 AND ru.email = $2 AND t.type = 'DEPOSIT'
			ORDER BY t.timestamp DESC
		`
	case filter.Direction == domain.DirectionSent:
		query = `
			SELECT ` + transactionColumns + `
			FROM transactions t
			JOIN accounts sa ON sa.id = t.sender_account_id
			JOIN users su ON su.id = sa.user_id
			WHERE sa.account_number = $1 AND su.email = $2 AND t.type = 'TRANSFER'
			ORDER BY t.timestamp DESC
		`
	case filter.Direction == domain.DirectionReceived:
		query = `
			SELECT ` + transactionColumns + `
			FROM transactions t
			JOIN accounts ra ON ra.id = t.receiver_account_id
			JOIN users ru ON ru.id = ra.user_id
			WHERE ra.account_number = $1 AND ru.email = $2 AND t.type = 'TRANSFER'
			ORDER BY t.timestamp DESC
		`
	default:
		query = `
			SELECT ` + transactionColumns + `
			FROM transactions t
			LEFT JOIN accounts sa ON sa.id = t.sender_account_id
			LEFT JOIN users su ON su.id = sa.user_id
			JOIN accounts ra ON ra.id = t.receiver_account_id
			JOIN users ru ON ru.id = ra.user_id
			WHERE (sa.account_number = $1 OR ra.account_number = $1)
			  AND (su.email = $2 OR ru.email = $2)
			ORDER BY t.timestamp DESC
		`
	}

	rows, err := r.db.Query(query, filter.AccountNumber, filter.OwnerEmail)
	if err != nil {
		r.logger.Error("Failed to query transactions",
			"account_number", filter.AccountNumber, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to query transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	return r.collectTransactions(rows)
}

func (r *transactionRepository) CountTransactions() (int64, error) {
	var count int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, errors.NewAppError(errors.InternalError, "failed to count transactions").WithDetails(err.Error())
	}
	return count, nil
}

func (r *transactionRepository) SumTransactionAmounts() (decimal.Decimal, error) {
	var sumStr string
	err := r.db.QueryRow(`SELECT COALESCE(SUM(amount), 0) FROM transactions`).Scan(&sumStr)
	if err != nil {
		return decimal.Zero, errors.NewAppError(errors.InternalError, "failed to sum transactions").WithDetails(err.Error())
	}

	sum, err := decimal.NewFromString(sumStr)
	if err != nil {
		return decimal.Zero, errors.NewAppError(errors.InternalError, "failed to parse transaction sum").WithDetails(err.Error())
	}
	return sum, nil
}

func (r *transactionRepository) DailyTransactionStats(since time.Time) ([]*domain.DailyStats, error) {
	query := `
		SELECT CAST(timestamp AS date) AS day, COUNT(*), SUM(amount)
		FROM transactions
		WHERE timestamp >= $1
		GROUP BY CAST(timestamp AS date)
		ORDER BY day DESC
	`

	rows, err := r.db.Query(query, since)
	if err != nil {
		r.logger.Error("Failed to query daily stats", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to query daily stats").WithDetails(err.Error())
	}
	defer rows.Close()

	var stats []*domain.DailyStats
	for rows.Next() {
		var s domain.DailyStats
		var amountStr string
		if err := rows.Scan(&s.Day, &s.Count, &amountStr); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan daily stats").WithDetails(err.Error())
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse daily amount").WithDetails(err.Error())
		}
		s.Amount = amount
		stats = append(stats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate daily stats").WithDetails(err.Error())
	}
	return stats, nil
}

func (r *transactionRepository) MonthlyTransactionStats(since time.Time) ([]*domain.MonthlyStats, error) {
	query := `
		SELECT TO_CHAR(timestamp, 'YYYY-MM') AS month, COUNT(*), SUM(amount)
		FROM transactions
		WHERE timestamp >= $1
		GROUP BY TO_CHAR(timestamp, 'YYYY-MM')
		ORDER BY month DESC
	`

	rows, err := r.db.Query(query, since)
	if err != nil {
		r.logger.Error("Failed to query monthly stats", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to query monthly stats").WithDetails(err.Error())
	}
	defer rows.Close()

	var stats []*domain.MonthlyStats
	for rows.Next() {
		var s domain.MonthlyStats
		var amountStr string
		if err := rows.Scan(&s.Month, &s.Count, &amountStr); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan monthly stats").WithDetails(err.Error())
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse monthly amount").WithDetails(err.Error())
		}
		s.Amount = amount
		stats = append(stats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate monthly stats").WithDetails(err.Error())
	}
	return stats, nil
}

func (r *transactionRepository) ListTransactions() ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		ORDER BY t.timestamp DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list transactions", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	return r.collectTransactions(rows)
}

func (r *transactionRepository) collectTransactions(rows *sql.Rows) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var amountStr string
		var senderID sql.NullInt64

		if err := rows.Scan(
			&tx.ID,
			&amountStr,
			&tx.Type,
			&senderID,
			&tx.ReceiverAccountID,
			&tx.Description,
			&tx.Timestamp,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan transaction").WithDetails(err.Error())
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
		}
		tx.Amount = amount

		if senderID.Valid {
			id := senderID.Int64
			tx.SenderAccountID = &id
		}

		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate transactions").WithDetails(err.Error())
	}

	return transactions, nil
}
