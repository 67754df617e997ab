// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	db "github.com/JonMunkholm/userupload/internal/database"
	"github.com/jackc/pgx/v5"
)

// ResetTimeout is the maximum duration for schema operations.
const ResetTimeout = 30 * time.Second

// ErrNoUsersTable is returned by CheckUsersTable when the table is missing.
var ErrNoUsersTable = errors.New("users table does not exist (run with --create_table first)")

// TxBeginner starts a transaction. Satisfied by *pgx.Conn.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// RebuildUsersTable drops any existing users table and creates it again, in
// one transaction so a failed create leaves the old table in place.
func RebuildUsersTable(ctx context.Context, conn TxBeginner) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	q := db.New(tx)
	if err := runSteps(ctx, []step{
		{"drop existing users table", q.DropUsersTable},
		{"create users table", q.CreateUsersTable},
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit users table rebuild: %w", err)
	}
	return nil
}

// CheckUsersTable returns ErrNoUsersTable unless the users table exists.
func CheckUsersTable(ctx context.Context, q *db.Queries) error {
	exists, err := q.UsersTableExists(ctx)
	if err != nil {
		return fmt.Errorf("check users table: %w", err)
	}
	if !exists {
		return ErrNoUsersTable
	}
	return nil
}

func runSteps(ctx context.Context, steps []step) error {
	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("failed to %s: %w", s.name, err)
		}
	}
	return nil
}
