// Package memstore provides an in-memory domain.Store with the same
// transactional contract as the Postgres store. It backs unit tests and
// can serve as a throwaway backend for local development.
package memstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/errors"
)

type data struct {
	accounts      map[int64]*domain.Account
	users         map[int64]*domain.User
	transactions  []*domain.Transaction
	nextAccountID int64
	nextUserID    int64
	lastTimestamp time.Time
}

func (d *data) clone() *data {
	cp := &data{
		accounts:      make(map[int64]*domain.Account, len(d.accounts)),
		users:         make(map[int64]*domain.User, len(d.users)),
		transactions:  make([]*domain.Transaction, len(d.transactions)),
		nextAccountID: d.nextAccountID,
		nextUserID:    d.nextUserID,
		lastTimestamp: d.lastTimestamp,
	}
	for id, a := range d.accounts {
		copied := *a
		cp.accounts[id] = &copied
	}
	for id, u := range d.users {
		copied := *u
		cp.users[id] = &copied
	}
	copy(cp.transactions, d.transactions)
	return cp
}

// Store is a mutex-guarded in-memory implementation of domain.Store.
type Store struct {
	mu sync.Mutex
	// inTx stores operate on a private clone and skip locking; committing
	// swaps the clone in under the parent's lock.
	inTx bool
	data *data
}

var _ domain.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		data: &data{
			accounts:      make(map[int64]*domain.Account),
			users:         make(map[int64]*domain.User),
			nextAccountID: 1,
			nextUserID:    1,
		},
	}
}

func (s *Store) lock() {
	if !s.inTx {
		s.mu.Lock()
	}
}

func (s *Store) unlock() {
	if !s.inTx {
		s.mu.Unlock()
	}
}

func (s *Store) Account() domain.AccountRepository {
	return &accountRepository{store: s}
}

func (s *Store) Transaction() domain.TransactionRepository {
	return &transactionRepository{store: s}
}

func (s *Store) User() domain.UserRepository {
	return &userRepository{store: s}
}

// WithTransaction runs fn against a clone of the store's state and swaps
// the clone in only if fn succeeds, so failures leave no partial effects.
func (s *Store) WithTransaction(fn func(domain.Store) error) error {
	if s.inTx {
		return errors.NewAppError(errors.InternalError, "nested transactions are not supported")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txStore := &Store{inTx: true, data: s.data.clone()}
	if err := fn(txStore); err != nil {
		return err
	}

	s.data = txStore.data
	return nil
}

// nextTimestamp returns a strictly increasing write timestamp.
func (d *data) nextTimestamp() time.Time {
	now := time.Now()
	if !now.After(d.lastTimestamp) {
		now = d.lastTimestamp.Add(time.Nanosecond)
	}
	d.lastTimestamp = now
	return now
}

type accountRepository struct {
	store *Store
}

func (r *accountRepository) CreateAccount(account *domain.Account) error {
	r.store.lock()
	defer r.store.unlock()

	d := r.store.data
	for _, existing := range d.accounts {
		if existing.AccountNumber == account.AccountNumber {
			return errors.NewAppError(errors.Conflict, "account number already exists")
		}
	}

	account.ID = d.nextAccountID
	d.nextAccountID++
	account.OpeningDate = time.Now()

	copied := *account
	d.accounts[account.ID] = &copied
	return nil
}

func (r *accountRepository) GetAccountByID(id int64) (*domain.Account, error) {
	r.store.lock()
	defer r.store.unlock()

	a, ok := r.store.data.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *accountRepository) GetAccountByNumber(accountNumber string) (*domain.Account, error) {
	r.store.lock()
	defer r.store.unlock()

	for _, a := range r.store.data.accounts {
		if a.AccountNumber == accountNumber {
			copied := *a
			return &copied, nil
		}
	}
	return nil, errors.ErrAccountNotFound
}

func (r *accountRepository) GetAccountByNumberForUpdate(accountNumber string) (*domain.Account, error) {
	// Row locking is a no-op here: WithTransaction already serializes
	// writers behind the store mutex.
	return r.GetAccountByNumber(accountNumber)
}

func (r *accountRepository) GetAccountsByUserID(userID int64) ([]*domain.Account, error) {
	r.store.lock()
	defer r.store.unlock()

	var accounts []*domain.Account
	for _, a := range r.store.data.accounts {
		if a.UserID == userID {
			copied := *a
			accounts = append(accounts, &copied)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].OpeningDate.After(accounts[j].OpeningDate)
	})
	return accounts, nil
}

func (r *accountRepository) UpdateAccountBalance(id int64, newBalance decimal.Decimal) error {
	r.store.lock()
	defer r.store.unlock()

	if newBalance.IsNegative() {
		return errors.ErrInsufficientFunds
	}

	account, ok := r.store.data.accounts[id]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.Balance = newBalance
	return nil
}

func (r *accountRepository) CountAccounts() (int64, error) {
	r.store.lock()
	defer r.store.unlock()
	return int64(len(r.store.data.accounts)), nil
}

func (r *accountRepository) ListAccounts() ([]*domain.Account, error) {
	r.store.lock()
	defer r.store.unlock()

	accounts := make([]*domain.Account, 0, len(r.store.data.accounts))
	for _, a := range r.store.data.accounts {
		copied := *a
		accounts = append(accounts, &copied)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

type transactionRepository struct {
	store *Store
}

func (r *transactionRepository) AppendTransaction(tx *domain.Transaction) error {
	r.store.lock()
	defer r.store.unlock()

	d := r.store.data
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.Timestamp = d.nextTimestamp()

	copied := *tx
	d.transactions = append(d.transactions, &copied)
	return nil
}

func (r *transactionRepository) QueryTransactions(filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	r.store.lock()
	defer r.store.unlock()

	d := r.store.data
	var matches []*domain.Transaction
	for _, tx := range d.transactions {
		if r.matches(d, tx, filter) {
			copied := *tx
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})
	return matches, nil
}

func (r *transactionRepository) matches(d *data, tx *domain.Transaction, filter domain.TransactionFilter) bool {
	sender := d.accountSide(tx.SenderAccountID)
	receiver := d.accounts[tx.ReceiverAccountID]

	switch {
	case filter.Type == domain.TransactionDeposit:
		return tx.Type == domain.TransactionDeposit &&
			d.sideMatches(receiver, filter)
	case filter.Direction == domain.DirectionSent:
		return tx.Type == domain.TransactionTransfer &&
			d.sideMatches(sender, filter)
	case filter.Direction == domain.DirectionReceived:
		return tx.Type == domain.TransactionTransfer &&
			d.sideMatches(receiver, filter)
	default:
		numberMatches := (sender != nil && sender.AccountNumber == filter.AccountNumber) ||
			(receiver != nil && receiver.AccountNumber == filter.AccountNumber)
		emailMatches := d.ownerEmailIs(sender, filter.OwnerEmail) ||
			d.ownerEmailIs(receiver, filter.OwnerEmail)
		return numberMatches && emailMatches
	}
}

func (d *data) accountSide(id *int64) *domain.Account {
	if id == nil {
		return nil
	}
	return d.accounts[*id]
}

func (d *data) sideMatches(account *domain.Account, filter domain.TransactionFilter) bool {
	return account != nil &&
		account.AccountNumber == filter.AccountNumber &&
		d.ownerEmailIs(account, filter.OwnerEmail)
}

func (d *data) ownerEmailIs(account *domain.Account, email string) bool {
	if account == nil {
		return false
	}
	owner, ok := d.users[account.UserID]
	return ok && strings.EqualFold(owner.Email, email)
}

func (r *transactionRepository) CountTransactions() (int64, error) {
	r.store.lock()
	defer r.store.unlock()
	return int64(len(r.store.data.transactions)), nil
}

func (r *transactionRepository) SumTransactionAmounts() (decimal.Decimal, error) {
	r.store.lock()
	defer r.store.unlock()

	sum := decimal.Zero
	for _, tx := range r.store.data.transactions {
		sum = sum.Add(tx.Amount)
	}
	return sum, nil
}

func (r *transactionRepository) DailyTransactionStats(since time.Time) ([]*domain.DailyStats, error) {
	r.store.lock()
	defer r.store.unlock()

	buckets := make(map[time.Time]*domain.DailyStats)
	for _, tx := range r.store.data.transactions {
		if tx.Timestamp.Before(since) {
			continue
		}
		day := tx.Timestamp.Truncate(24 * time.Hour)
		bucket, ok := buckets[day]
		if !ok {
			bucket = &domain.DailyStats{Day: day, Amount: decimal.Zero}
			buckets[day] = bucket
		}
		bucket.Count++
		bucket.Amount = bucket.Amount.Add(tx.Amount)
	}

	stats := make([]*domain.DailyStats, 0, len(buckets))
	for _, s := range buckets {
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Day.After(stats[j].Day) })
	return stats, nil
}

func (r *transactionRepository) MonthlyTransactionStats(since time.Time) ([]*domain.MonthlyStats, error) {
	r.store.lock()
	defer r.store.unlock()

	buckets := make(map[string]*domain.MonthlyStats)
	for _, tx := range r.store.data.transactions {
		if tx.Timestamp.Before(since) {
			continue
		}
		month := tx.Timestamp.Format("2006-01")
		bucket, ok := buckets[month]
		if !ok {
			bucket = &domain.MonthlyStats{Month: month, Amount: decimal.Zero}
			buckets[month] = bucket
		}
		bucket.Count++
		bucket.Amount = bucket.Amount.Add(tx.Amount)
	}

	stats := make([]*domain.MonthlyStats, 0, len(buckets))
	for _, s := range buckets {
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Month > stats[j].Month })
	return stats, nil
}

func (r *transactionRepository) ListTransactions() ([]*domain.Transaction, error) {
	r.store.lock()
	defer r.store.unlock()

	transactions := make([]*domain.Transaction, 0, len(r.store.data.transactions))
	for _, tx := range r.store.data.transactions {
		copied := *tx
		transactions = append(transactions, &copied)
	}
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].Timestamp.After(transactions[j].Timestamp)
	})
	return transactions, nil
}

type userRepository struct {
	store *Store
}

func (r *userRepository) CreateUser(user *domain.User) error {
	r.store.lock()
	defer r.store.unlock()

	d := r.store.data
	for _, existing := range d.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return errors.ErrEmailInUse
		}
		if existing.PhoneNumber == user.PhoneNumber {
			return errors.ErrPhoneInUse
		}
	}

	user.ID = d.nextUserID
	d.nextUserID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	copied := *user
	d.users[user.ID] = &copied
	return nil
}

func (r *userRepository) GetUserByEmail(email string) (*domain.User, error) {
	r.store.lock()
	defer r.store.unlock()

	for _, u := range r.store.data.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (r *userRepository) GetUserByID(id int64) (*domain.User, error) {
	r.store.lock()
	defer r.store.unlock()

	u, ok := r.store.data.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *userRepository) UpdateUser(user *domain.User) error {
	r.store.lock()
	defer r.store.unlock()

	d := r.store.data
	existing, ok := d.users[user.ID]
	if !ok {
		return errors.ErrUserNotFound
	}
	for id, other := range d.users {
		if id != user.ID && other.PhoneNumber == user.PhoneNumber {
			return errors.ErrPhoneInUse
		}
	}

	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.PhoneNumber = user.PhoneNumber
	existing.UpdatedAt = time.Now()
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *userRepository) UpdateUserPassword(id int64, passwordHash string) error {
	r.store.lock()
	defer r.store.unlock()

	u, ok := r.store.data.users[id]
	if !ok {
		return errors.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (r *userRepository) CountUsers() (int64, error) {
	r.store.lock()
	defer r.store.unlock()
	return int64(len(r.store.data.users)), nil
}

func (r *userRepository) ListUsers() ([]*domain.User, error) {
	r.store.lock()
	defer r.store.unlock()

	users := make([]*domain.User, 0, len(r.store.data.users))
	for _, u := range r.store.data.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
