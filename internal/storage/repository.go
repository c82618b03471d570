// Package storage persists the ledger in a local SQLite database. Amounts
// are stored as decimal strings so no precision is lost on the round trip.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"duoledger/internal/core"
	"duoledger/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a transaction ID has no row.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = `id, period, category, label, amount, split, owner, note, recurring, pinned, method, created_at`

func (r *SQLiteRepository) ReadAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY period, created_at`)
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) ListByPeriod(ctx context.Context, period core.PeriodKey) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE period = ? ORDER BY created_at`,
		period.Key())
	if err != nil {
		return nil, fmt.Errorf("read transactions for %s: %w", period.Key(), err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ReadSettings(ctx context.Context, period core.PeriodKey) (core.Settings, bool, error) {
	var salary, savings string
	err := r.db.QueryRowContext(ctx,
		`SELECT salary, savings FROM period_settings WHERE period = ?`,
		period.Key()).Scan(&salary, &savings)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, false, nil
	}
	if err != nil {
		return core.Settings{}, false, fmt.Errorf("read settings for %s: %w", period.Key(), err)
	}
	s, err := parseSettings(salary, savings)
	if err != nil {
		return core.Settings{}, false, fmt.Errorf("settings for %s: %w", period.Key(), err)
	}
	return s, true, nil
}

func (r *SQLiteRepository) PutSettings(ctx context.Context, period core.PeriodKey, s core.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO period_settings (period, salary, savings)
		VALUES (?, ?, ?)
		ON CONFLICT (period) DO UPDATE SET salary = excluded.salary, savings = excluded.savings`,
		period.Key(), s.Salary.String(), s.Savings.String())
	if err != nil {
		return fmt.Errorf("put settings for %s: %w", period.Key(), err)
	}
	return nil
}

// ApplyBatch writes every mutation in one SQL transaction. Settings seeds
// use insert-or-ignore so an existing record is never overwritten.
func (r *SQLiteRepository) ApplyBatch(ctx context.Context, batch ledger.Batch) error {
	if batch.IsEmpty() {
		return nil
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer sqlTx.Rollback()

	for _, c := range batch.Creates {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Period.Key(), string(c.Category), c.Label, c.Amount.String(),
			string(c.Split), string(c.Owner), c.Note, c.Recurring, c.Pinned,
			string(c.Method), c.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert transaction %q: %w", c.Label, err)
		}
	}

	for _, u := range batch.Updates {
		res, err := sqlTx.ExecContext(ctx, `
			UPDATE transactions
			SET period = ?, category = ?, label = ?, amount = ?, split = ?,
			    owner = ?, note = ?, recurring = ?, pinned = ?, method = ?
			WHERE id = ?`,
			u.Period.Key(), string(u.Category), u.Label, u.Amount.String(),
			string(u.Split), string(u.Owner), u.Note, u.Recurring, u.Pinned,
			string(u.Method), u.ID)
		if err != nil {
			return fmt.Errorf("update transaction %s: %w", u.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update transaction %s: %w", u.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("update transaction %s: %w", u.ID, ErrNotFound)
		}
	}

	for _, id := range batch.Deletes {
		if _, err := sqlTx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction %s: %w", id, err)
		}
	}

	for _, seed := range batch.SettingsSeeds {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO period_settings (period, salary, savings)
			VALUES (?, ?, ?)
			ON CONFLICT (period) DO NOTHING`,
			seed.Period.Key(), seed.Settings.Salary.String(), seed.Settings.Savings.String())
		if err != nil {
			return fmt.Errorf("seed settings for %s: %w", seed.Period.Key(), err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	slog.DebugContext(ctx, "Batch applied",
		"created", len(batch.Creates),
		"updated", len(batch.Updates),
		"deleted", len(batch.Deletes),
		"seeds", len(batch.SettingsSeeds))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                       core.Transaction
		period, amount, created string
	)
	err := row.Scan(&t.ID, &period, &t.Category, &t.Label, &amount, &t.Split,
		&t.Owner, &t.Note, &t.Recurring, &t.Pinned, &t.Method, &created)
	if err != nil {
		return core.Transaction{}, err
	}

	if t.Period, err = core.ParsePeriodKey(period); err != nil {
		return core.Transaction{}, fmt.Errorf("period %q: %w", period, err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return core.Transaction{}, fmt.Errorf("created_at %q: %w", created, err)
	}
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func parseSettings(salary, savings string) (core.Settings, error) {
	var (
		s   core.Settings
		err error
	)
	if s.Salary, err = decimal.NewFromString(salary); err != nil {
		return core.Settings{}, fmt.Errorf("salary %q: %w", salary, err)
	}
	if s.Savings, err = decimal.NewFromString(savings); err != nil {
		return core.Settings{}, fmt.Errorf("savings %q: %w", savings, err)
	}
	return s, nil
}
