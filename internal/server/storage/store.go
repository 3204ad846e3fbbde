package storage

import "context"

// Tx is the set of repositories bound to a single transaction
type Tx interface {
	UserStorage
	LoginHistoryStorage
}

// Store is the persistence collaborator used by the auth flow
type Store interface {
	Tx

	// WithTx runs fn inside a transaction. If fn returns an error the
	// transaction is rolled back and no partial state remains.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Ping checks database reachability
	Ping(ctx context.Context) error
}
