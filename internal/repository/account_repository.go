package repository

import (
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/errors"
)

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) CreateAccount(account *domain.Account) error {
	query := `
		INSERT INTO accounts (account_number, balance, currency, status, user_id, opening_date)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, opening_date
	`

	err := r.db.QueryRow(
		query,
		account.AccountNumber,
		account.Balance.String(),
		account.Currency,
		account.Status,
		account.UserID,
	).Scan(&account.ID, &account.OpeningDate)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				r.logger.Warn("Account number collision", "account_number", account.AccountNumber)
				return errors.NewAppError(errors.Conflict, "account number already exists")
			}
		}
		r.logger.Error("Failed to create account", "user_id", account.UserID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create account").WithDetails(err.Error())
	}

	r.logger.Info("Account created successfully", "account_id", account.ID, "account_number", account.AccountNumber)
	return nil
}

func (r *accountRepository) GetAccountByID(id int64) (*domain.Account, error) {
	query := `
		SELECT id, account_number, balance, currency, status, user_id, opening_date
		FROM accounts WHERE id = $1
	`

	return r.scanAccount(query, id)
}

func (r *accountRepository) GetAccountByNumber(accountNumber string) (*domain.Account, error) {
	query := `
		SELECT id, account_number, balance, currency, status, user_id, opening_date
		FROM accounts WHERE account_number = $1
	`

	return r.scanAccount(query, accountNumber)
}

func (r *accountRepository) GetAccountByNumberForUpdate(accountNumber string) (*domain.Account, error) {
	query := `
		SELECT id, account_number, balance, currency, status, user_id, opening_date
		FROM accounts WHERE account_number = $1 FOR UPDATE
	`

	return r.scanAccount(query, accountNumber)
}

func (r *accountRepository) scanAccount(query string, args ...interface{}) (*domain.Account, error) {
	var account domain.Account
	var balanceStr string

	err := r.db.QueryRow(query, args...).Scan(
		&account.ID,
		&account.AccountNumber,
		&balanceStr,
		&account.Currency,
		&account.Status,
		&account.UserID,
		&account.OpeningDate,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get account").WithDetails(err.Error())
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		r.logger.Error("Failed to parse balance", "account_id", account.ID, "balance_str", balanceStr, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
	}

	account.Balance = balance
	return &account, nil
}

func (r *accountRepository) GetAccountsByUserID(userID int64) ([]*domain.Account, error) {
	query := `
		SELECT id, account_number, balance, currency, status, user_id, opening_date
		FROM accounts WHERE user_id = $1 ORDER BY opening_date DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		r.logger.Error("Failed to list accounts for user", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list accounts").WithDetails(err.Error())
	}
	defer rows.Close()

	return r.collectAccounts(rows)
}

func (r *accountRepository) UpdateAccountBalance(id int64, newBalance decimal.Decimal) error {
	if newBalance.IsNegative() {
		return errors.ErrInsufficientFunds
	}

	query := `UPDATE accounts SET balance = $1 WHERE id = $2`

	result, err := r.db.Exec(query, newBalance.String(), id)
	if err != nil {
		r.logger.Error("Failed to update account balance", "account_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update account balance").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		r.logger.Warn("No account found to update", "account_id", id)
		return errors.ErrAccountNotFound
	}

	return nil
}

func (r *accountRepository) CountAccounts() (int64, error) {
	var count int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, errors.NewAppError(errors.InternalError, "failed to count accounts").WithDetails(err.Error())
	}
	return count, nil
}

func (r *accountRepository) ListAccounts() ([]*domain.Account, error) {
	query := `
		SELECT id, account_number, balance, currency, status, user_id, opening_date
		FROM accounts ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list accounts").WithDetails(err.Error())
	}
	defer rows.Close()

	return r.collectAccounts(rows)
}

func (r *accountRepository) collectAccounts(rows *sql.Rows) ([]*domain.Account, error) {
	var accounts []*domain.Account
	for rows.Next() {
		var account domain.Account
		var balanceStr string

		if err := rows.Scan(
			&account.ID,
			&account.AccountNumber,
			&balanceStr,
			&account.Currency,
			&account.Status,
			&account.UserID,
			&account.OpeningDate,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan account").WithDetails(err.Error())
		}

		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
		}
		account.Balance = balance

		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate accounts").WithDetails(err.Error())
	}

	return accounts, nil
}
