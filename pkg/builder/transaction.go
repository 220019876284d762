package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

// Transaction runs fn inside a transaction on db. The transaction is
// committed when fn returns nil and rolled back otherwise, including when
// fn panics.
//
// Example:
//
//	err := builder.Transaction(ctx, db, func(ctx context.Context) error {
//		if _, err := builder.Table(db, "users").Insert(ctx, user); err != nil {
//			return err
//		}
//		_, err := builder.Table(db, "posts").Insert(ctx, post)
//		return err
//	})
func Transaction(ctx context.Context, db *runtime.DB, fn func(ctx context.Context) error) (err error) {
	if db == nil {
		return &runtime.ConnectionError{Err: runtime.ErrNotConfigured}
	}
	if err := db.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = db.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := db.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := db.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Savepoint creates a savepoint within the open transaction.
func Savepoint(ctx context.Context, db *runtime.DB, name string) error {
	return savepointExec(ctx, db, "SAVEPOINT %s", name)
}

// RollbackToSavepoint rolls back to a savepoint.
func RollbackToSavepoint(ctx context.Context, db *runtime.DB, name string) error {
	return savepointExec(ctx, db, "ROLLBACK TO SAVEPOINT %s", name)
}

// ReleaseSavepoint releases a savepoint.
func ReleaseSavepoint(ctx context.Context, db *runtime.DB, name string) error {
	return savepointExec(ctx, db, "RELEASE SAVEPOINT %s", name)
}

func savepointExec(ctx context.Context, db *runtime.DB, format, name string) error {
	if db == nil || !db.InTransaction() {
		return runtime.ErrNoTransaction
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	if _, err := db.Exec(ctx, fmt.Sprintf(format, name), nil); err != nil {
		return fmt.Errorf("savepoint %s: %w", name, err)
	}
	return nil
}
