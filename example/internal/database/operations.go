package database

import (
	"context"
	"fmt"
)

// Account is a row of the accounts table.
type Account struct {
	ID      int64
	Owner   string
	Balance int64
}

// CreateTables creates the ledger schema if it doesn't exist.
func (db *DB) CreateTables(ctx context.Context) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			owner VARCHAR(100) UNIQUE NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transfers (
			id BIGSERIAL PRIMARY KEY,
			from_owner VARCHAR(100) NOT NULL,
			to_owner VARCHAR(100) NOT NULL,
			amount BIGINT NOT NULL
		)
	`)
	return err
}

// SeedAccounts inserts the demo accounts.
func (db *DB) SeedAccounts(ctx context.Context) error {
	accounts := []Account{
		{Owner: "alice", Balance: 1000},
		{Owner: "bob", Balance: 1000},
		{Owner: "carol", Balance: 1000},
	}

	for _, account := range accounts {
		_, err := db.Exec(ctx,
			"INSERT INTO accounts (owner, balance) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			account.Owner,
			account.Balance,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListAccounts returns the first accounts ordered by id.
func (db *DB) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := db.Query(ctx, "SELECT id, owner, balance FROM accounts ORDER BY id LIMIT 10")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var account Account
		if err := rows.Scan(&account.ID, &account.Owner, &account.Balance); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// Balance returns one owner's balance.
func (db *DB) Balance(ctx context.Context, owner string) (int64, error) {
	rows, err := db.Query(ctx, "SELECT balance FROM accounts WHERE owner = $1", owner)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("unknown account: %s", owner)
	}

	var balance int64
	if err := rows.Scan(&balance); err != nil {
		return 0, err
	}
	return balance, rows.Err()
}

// Transfer moves amount from one owner to another in a transaction. The
// audit row is written inside a nested transaction, so the probe reports
// the outer pair at depth 0 and the savepoint pair at depth 1.
func (db *DB) Transfer(ctx context.Context, from, to string, amount int64) error {
	if err := db.Begin(ctx); err != nil {
		return err
	}

	if err := db.move(ctx, from, to, amount); err != nil {
		db.Rollback(ctx)
		return err
	}

	if err := db.audit(ctx, from, to, amount); err != nil {
		db.Rollback(ctx)
		return err
	}

	return db.Commit(ctx)
}

func (db *DB) move(ctx context.Context, from, to string, amount int64) error {
	n, err := db.Exec(ctx,
		"UPDATE accounts SET balance = balance - $1 WHERE owner = $2 AND balance >= $1",
		amount, from,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("insufficient funds: %s", from)
	}

	_, err = db.Exec(ctx,
		"UPDATE accounts SET balance = balance + $1 WHERE owner = $2",
		amount, to,
	)
	return err
}

func (db *DB) audit(ctx context.Context, from, to string, amount int64) error {
	if err := db.Begin(ctx); err != nil {
		return err
	}

	_, err := db.Exec(ctx,
		"INSERT INTO transfers (from_owner, to_owner, amount) VALUES ($1, $2, $3)",
		from, to, amount,
	)
	if err != nil {
		db.Rollback(ctx)
		return err
	}

	return db.Commit(ctx)
}
