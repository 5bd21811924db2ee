package invoice

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed invoice store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies the embedded schema migrations.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return Invoice{}, err
	}
	var batchJSON []byte
	if inv.Batch != nil {
		if batchJSON, err = json.Marshal(inv.Batch); err != nil {
			return Invoice{}, err
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (
			id, sender, recipient, amount_due,
			token_address, token_symbol, token_decimals, token_logo_url,
			is_paid, is_cancelled, issue_date, due_date,
			items, batch_info, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, inv.ID, inv.Sender, inv.Recipient, inv.AmountDue,
		inv.Token.Address, inv.Token.Symbol, inv.Token.Decimals, inv.Token.LogoURL,
		inv.Paid, inv.Cancelled, inv.IssueDate, inv.DueDate,
		itemsJSON, batchJSON, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (s *PostgresStore) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	row := s.db.QueryRowContext(ctx, selectInvoices+` WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Invoice{}, fmt.Errorf("invoice not found: %s", id)
	}
	return inv, err
}

func (s *PostgresStore) ListInvoices(ctx context.Context) ([]Invoice, error) {
	rows, err := s.db.QueryContext(ctx, selectInvoices+` ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// MarkPaid marks the listed invoices paid in a single transaction. It fails
// without committing if any invoice is missing or cancelled.
func (s *PostgresStore) MarkPaid(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE invoices
		SET is_paid = TRUE, updated_at = $2
		WHERE id = ANY($1) AND is_cancelled = FALSE
	`, pq.Array(ids), time.Now().UTC())
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows != int64(len(ids)) {
		return fmt.Errorf("mark paid: expected %d invoices, updated %d", len(ids), rows)
	}
	return tx.Commit()
}

const selectInvoices = `
	SELECT id, sender, recipient, amount_due,
	       token_address, token_symbol, token_decimals, token_logo_url,
	       is_paid, is_cancelled, issue_date, due_date,
	       items, batch_info, created_at, updated_at
	FROM invoices`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (Invoice, error) {
	var inv Invoice
	var itemsJSON, batchJSON []byte
	err := row.Scan(
		&inv.ID, &inv.Sender, &inv.Recipient, &inv.AmountDue,
		&inv.Token.Address, &inv.Token.Symbol, &inv.Token.Decimals, &inv.Token.LogoURL,
		&inv.Paid, &inv.Cancelled, &inv.IssueDate, &inv.DueDate,
		&itemsJSON, &batchJSON, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return Invoice{}, err
	}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &inv.Items); err != nil {
			return Invoice{}, fmt.Errorf("decode items for %s: %w", inv.ID, err)
		}
	}
	if len(batchJSON) > 0 {
		inv.Batch = &BatchInfo{}
		if err := json.Unmarshal(batchJSON, inv.Batch); err != nil {
			return Invoice{}, fmt.Errorf("decode batch info for %s: %w", inv.ID, err)
		}
	}
	return inv, nil
}
