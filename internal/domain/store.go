package domain

// Store bundles the repositories behind a single unit of work. Everything
// executed inside WithTransaction either commits together or rolls back
// together; repositories obtained from the callback's Store run against
// the pending transaction.
type Store interface {
	Account() AccountRepository
	Transaction() TransactionRepository
	User() UserRepository
	WithTransaction(fn func(Store) error) error
}
