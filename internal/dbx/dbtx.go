// Package dbx содержит минимальные абстракции database/sql для хранилищ:
// интерфейс DBTX, которому удовлетворяют *sql.DB и *sql.Tx,
// и WithTx для выполнения функции в транзакции.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX подмножество database/sql, которое используют хранилища
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx начинает транзакцию, выполняет fn и делает commit при успехе.
// При ошибке или панике в fn выполняется rollback; паника пробрасывается дальше.
// Соединение возвращается в пул на любом пути выхода.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	err = fn(ctx, tx)
	return err
}
