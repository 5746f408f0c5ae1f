// Package ledger implements the consistency engine behind every money
// movement. All balance mutations and transaction rows for one deposit or
// transfer commit as a single unit of work; failures leave no state behind.
package ledger

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/errors"
)

type Engine struct {
	store  domain.Store
	locks  *lockTable
	logger *slog.Logger
}

func NewEngine(store domain.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		locks:  newLockTable(),
		logger: logger,
	}
}

// Deposit credits the account and appends the matching DEPOSIT row.
// Deposits have no sender account; the money originates outside the ledger.
func (e *Engine) Deposit(accountNumber string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, errors.NewAppError(errors.InvalidAmount, "amount must be positive")
	}

	release := e.locks.acquire(accountNumber)
	defer release()

	var transaction *domain.Transaction
	err := e.store.WithTransaction(func(s domain.Store) error {
		account, err := s.Account().GetAccountByNumberForUpdate(accountNumber)
		if err != nil {
			return err
		}
		if !account.IsActive() {
			return errors.ErrAccountNotActive
		}

		if err := s.Account().UpdateAccountBalance(account.ID, account.Balance.Add(amount)); err != nil {
			return err
		}

		transaction = &domain.Transaction{
			Amount:            amount,
			Type:              domain.TransactionDeposit,
			SenderAccountID:   nil,
			ReceiverAccountID: account.ID,
			Description:       description,
		}
		return s.Transaction().AppendTransaction(transaction)
	})

	if err != nil {
		return nil, err
	}

	e.logger.Info("Deposit completed",
		"transaction_id", transaction.ID,
		"account_number", accountNumber,
		"amount", amount)
	return transaction, nil
}

// Transfer moves amount from sender to receiver and appends exactly one
// TRANSFER row. Either all three effects commit or none of them do.
func (e *Engine) Transfer(senderNumber, receiverNumber string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, errors.NewAppError(errors.InvalidAmount, "amount must be positive")
	}
	if senderNumber == receiverNumber {
		return nil, errors.NewValidationError(map[string]string{
			"receiver_account_number": "sender and receiver accounts must differ",
		})
	}

	release := e.locks.acquire(senderNumber, receiverNumber)
	defer release()

	var transaction *domain.Transaction
	err := e.store.WithTransaction(func(s domain.Store) error {
		// Row locks follow the same ascending order as the lock table so
		// the database cannot deadlock either.
		first, second := senderNumber, receiverNumber
		if second < first {
			first, second = second, first
		}

		accounts := make(map[string]*domain.Account, 2)
		for _, number := range []string{first, second} {
			account, err := s.Account().GetAccountByNumberForUpdate(number)
			if err != nil {
				return err
			}
			accounts[number] = account
		}

		sender := accounts[senderNumber]
		receiver := accounts[receiverNumber]

		if !sender.IsActive() || !receiver.IsActive() {
			return errors.ErrAccountNotActive
		}
		if sender.Balance.LessThan(amount) {
			return errors.ErrInsufficientFunds
		}

		if err := s.Account().UpdateAccountBalance(sender.ID, sender.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := s.Account().UpdateAccountBalance(receiver.ID, receiver.Balance.Add(amount)); err != nil {
			return err
		}

		transaction = &domain.Transaction{
			Amount:            amount,
			Type:              domain.TransactionTransfer,
			SenderAccountID:   &sender.ID,
			ReceiverAccountID: receiver.ID,
			Description:       description,
		}
		return s.Transaction().AppendTransaction(transaction)
	})

	if err != nil {
		return nil, err
	}

	e.logger.Info("Transfer completed",
		"transaction_id", transaction.ID,
		"sender_account", senderNumber,
		"receiver_account", receiverNumber,
		"amount", amount)
	return transaction, nil
}
