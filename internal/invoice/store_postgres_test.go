package invoice

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock setup failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func invoiceColumns() []string {
	return []string{
		"id", "sender", "recipient", "amount_due",
		"token_address", "token_symbol", "token_decimals", "token_logo_url",
		"is_paid", "is_cancelled", "issue_date", "due_date",
		"items", "batch_info", "created_at", "updated_at",
	}
}

func invoiceRow(id string) []driver.Value {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, "0xalice", "0xbob", "1.5",
		"", "ETH", 18, "",
		false, false, now, now.AddDate(0, 1, 0),
		[]byte(`[{"description":"work","quantity":"1","unit_price":"1.5","discount":"0","tax":"0","amount":"1.5"}]`),
		nil, now, now,
	}
}

func TestPostgresStoreCreateInvoice(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO invoices").
		WithArgs(
			"inv-1", "0xalice", "0xbob", "1.5",
			"", "ETH", 18, "",
			false, false, sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := store.CreateInvoice(context.Background(), testInvoice("inv-1"))
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreGetInvoice(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows(invoiceColumns()).AddRow(invoiceRow("inv-1")...)
	mock.ExpectQuery("SELECT (.+) FROM invoices").WithArgs("inv-1").WillReturnRows(rows)

	inv, err := store.GetInvoice(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if inv.ID != "inv-1" || inv.AmountDue != "1.5" {
		t.Errorf("unexpected invoice: %+v", inv)
	}
	if len(inv.Items) != 1 || inv.Items[0].Description != "work" {
		t.Errorf("items not decoded: %+v", inv.Items)
	}
	if inv.Batch != nil {
		t.Errorf("expected nil batch info, got %+v", inv.Batch)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreGetInvoiceNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM invoices").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(invoiceColumns()))

	if _, err := store.GetInvoice(context.Background(), "missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestPostgresStoreListInvoices(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows(invoiceColumns()).
		AddRow(invoiceRow("inv-1")...).
		AddRow(invoiceRow("inv-2")...)
	mock.ExpectQuery("SELECT (.+) FROM invoices ORDER BY created_at, id").WillReturnRows(rows)

	listed, err := store.ListInvoices(context.Background())
	if err != nil {
		t.Fatalf("ListInvoices failed: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "inv-1" || listed[1].ID != "inv-2" {
		t.Errorf("unexpected listing: %+v", listed)
	}
}

func TestPostgresStoreMarkPaid(t *testing.T) {
	t.Run("Commits", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE invoices").
			WithArgs(pq.Array([]string{"1", "2"}), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		if err := store.MarkPaid(context.Background(), []string{"1", "2"}); err != nil {
			t.Fatalf("MarkPaid failed: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("RollsBackOnCountMismatch", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE invoices").
			WithArgs(pq.Array([]string{"1", "2"}), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		if err := store.MarkPaid(context.Background(), []string{"1", "2"}); err == nil {
			t.Fatal("expected error when fewer rows update than requested")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("NoopOnEmptySet", func(t *testing.T) {
		store, mock := newMockStore(t)
		if err := store.MarkPaid(context.Background(), nil); err != nil {
			t.Fatalf("MarkPaid failed: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unexpected database activity: %v", err)
		}
	})
}
