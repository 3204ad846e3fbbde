package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/logindash/internal/dbx"
	"github.com/iudanet/logindash/internal/models"
	"github.com/iudanet/logindash/internal/server/storage"
)

// Options configures the connection pool
type Options struct {
	// URL is the database URL (postgres://..., sqlite://path, file:..., :memory:)
	URL string
	// PoolSize is the maximum number of open connections (PostgreSQL only)
	PoolSize int
	// PoolRecycle is the maximum lifetime of a pooled connection
	PoolRecycle time.Duration
	// ConnectTimeout bounds connection acquisition and each storage operation
	ConnectTimeout time.Duration
}

// DefaultOptions returns the conservative pool policy
func DefaultOptions(url string) Options {
	return Options{
		URL:            url,
		PoolSize:       5,
		PoolRecycle:    300 * time.Second,
		ConnectTimeout: 5 * time.Second,
	}
}

// Storage implements storage.Store on top of database/sql
// for SQLite (modernc.org/sqlite) and PostgreSQL (pgx stdlib)
type Storage struct {
	q         *queries
	db        *sql.DB
	target    Target
	opTimeout time.Duration
}

var _ storage.Store = (*Storage)(nil)

// New opens a connection pool. PostgreSQL pools connect lazily, so New
// succeeds even when the server is not reachable yet; SQLite is opened
// eagerly to apply pragmas.
func New(ctx context.Context, opts Options) (*Storage, error) {
	target, err := ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}

	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultOptions("").ConnectTimeout
	}

	var db *sql.DB
	switch target.Dialect {
	case DialectPostgres:
		db, err = openPostgres(target, opts)
	case DialectSQLite:
		db, err = openSQLite(ctx, target)
	default:
		err = fmt.Errorf("unsupported dialect: %s", target.Dialect)
	}
	if err != nil {
		return nil, err
	}

	return &Storage{
		q:         &queries{db: db, dialect: target.Dialect},
		db:        db,
		target:    target,
		opTimeout: opts.ConnectTimeout,
	}, nil
}

func openPostgres(target Target, opts Options) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(target.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.ConnectTimeout = opts.ConnectTimeout
	// PgBouncer в transaction mode не поддерживает prepared statements
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db := stdlib.OpenDB(*cfg)

	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultOptions("").PoolSize
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(opts.PoolRecycle)
	db.SetConnMaxIdleTime(time.Minute)

	return db, nil
}

func openSQLite(ctx context.Context, target Target) (*sql.DB, error) {
	// Открываем соединение с БД
	db, err := sql.Open("sqlite", target.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite поддерживает только одного писателя: держим одно соединение,
	// которое не пересоздается, чтобы pragma и :memory: база не терялись
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	return db, nil
}

// Close closes the database connection pool
func (s *Storage) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for testing purposes
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Target returns the parsed database target (dialect and redacted description)
func (s *Storage) Target() Target {
	return s.target
}

// Ping checks database reachability within the connect timeout
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return classify(fmt.Errorf("failed to ping database: %w", err))
	}
	return nil
}

// WithTx runs fn in a transaction bound to a single pooled connection.
// The connection is released on every exit path.
func (s *Storage) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &queries{db: tx, dialect: s.target.Dialect})
	})
	return classify(err)
}

// opContext bounds an operation, including connection acquisition, by the connect timeout
func (s *Storage) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// CreateUser creates a new user
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.q.CreateUser(ctx, user)
}

// GetUserByUsername retrieves user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.q.GetUserByUsername(ctx, username)
}

// GetUserByEmail retrieves user by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.q.GetUserByEmail(ctx, email)
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.q.GetUserByID(ctx, userID)
}

// UpdateLastLogin updates the last login timestamp
func (s *Storage) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.q.UpdateLastLogin(ctx, userID, lastLogin)
}

// RecordLogin inserts a login history entry
func (s *Storage) RecordLogin(ctx context.Context, entry *models.LoginHistory) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.q.RecordLogin(ctx, entry)
}

// ListRecentLogins returns the most recent login entries of a user
func (s *Storage) ListRecentLogins(ctx context.Context, userID string, limit int) ([]*models.LoginHistory, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.q.ListRecentLogins(ctx, userID, limit)
}
