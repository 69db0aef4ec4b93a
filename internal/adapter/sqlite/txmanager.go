package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/heartmarshall/poetry-loader/internal/domain"
)

// TxManager runs callbacks inside a database/sql transaction carried by the context.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// RunInTx executes fn within a transaction. It commits on success, rolls back
// on error and rolls back then re-panics on panic.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return mapConnError(fmt.Errorf("begin transaction: %w", err))
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback failed: %w (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if IsTransient(err) {
			return fmt.Errorf("commit transaction: %w: %w", domain.ErrTransient, err)
		}
		return mapConnError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
