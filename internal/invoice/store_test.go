package invoice

import (
	"context"
	"testing"
	"time"
)

func testInvoice(id string) Invoice {
	return Invoice{
		ID:        id,
		Sender:    "0xalice",
		Recipient: "0xbob",
		AmountDue: "1.5",
		Token:     Token{Symbol: "ETH", Decimals: 18},
		IssueDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.CreateInvoice(ctx, testInvoice("inv-1"))
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("timestamps not set on create")
	}

	got, err := store.GetInvoice(ctx, "inv-1")
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if got.AmountDue != "1.5" || got.Sender != "0xalice" {
		t.Errorf("unexpected invoice: %+v", got)
	}

	if _, err := store.GetInvoice(ctx, "missing"); err == nil {
		t.Error("expected error for missing invoice")
	}
}

func TestMemoryStoreGeneratesID(t *testing.T) {
	store := NewMemoryStore()
	inv := testInvoice("")
	created, err := store.CreateInvoice(context.Background(), inv)
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	if created.ID == "" {
		t.Error("expected a generated ID")
	}
}

func TestMemoryStoreRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, err := store.CreateInvoice(ctx, testInvoice("inv-1")); err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	if _, err := store.CreateInvoice(ctx, testInvoice("inv-1")); err == nil {
		t.Error("expected duplicate error")
	}
}

func TestMemoryStoreListPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ids := []string{"c", "a", "b"}
	for _, id := range ids {
		if _, err := store.CreateInvoice(ctx, testInvoice(id)); err != nil {
			t.Fatalf("CreateInvoice failed: %v", err)
		}
	}

	listed, err := store.ListInvoices(ctx)
	if err != nil {
		t.Fatalf("ListInvoices failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 invoices, got %d", len(listed))
	}
	for i, id := range ids {
		if listed[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, listed[i].ID)
		}
	}
}

func TestMemoryStoreMarkPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("MarksAll", func(t *testing.T) {
		store := NewMemoryStore()
		for _, id := range []string{"1", "2"} {
			if _, err := store.CreateInvoice(ctx, testInvoice(id)); err != nil {
				t.Fatal(err)
			}
		}
		if err := store.MarkPaid(ctx, []string{"1", "2"}); err != nil {
			t.Fatalf("MarkPaid failed: %v", err)
		}
		for _, id := range []string{"1", "2"} {
			inv, _ := store.GetInvoice(ctx, id)
			if !inv.Paid {
				t.Errorf("invoice %s not marked paid", id)
			}
		}
	})

	t.Run("AtomicOnMissing", func(t *testing.T) {
		store := NewMemoryStore()
		if _, err := store.CreateInvoice(ctx, testInvoice("1")); err != nil {
			t.Fatal(err)
		}
		if err := store.MarkPaid(ctx, []string{"1", "missing"}); err == nil {
			t.Fatal("expected error for missing invoice")
		}
		inv, _ := store.GetInvoice(ctx, "1")
		if inv.Paid {
			t.Error("partial mark-paid must not happen")
		}
	})

	t.Run("AtomicOnCancelled", func(t *testing.T) {
		store := NewMemoryStore()
		if _, err := store.CreateInvoice(ctx, testInvoice("1")); err != nil {
			t.Fatal(err)
		}
		cancelled := testInvoice("2")
		cancelled.Cancelled = true
		if _, err := store.CreateInvoice(ctx, cancelled); err != nil {
			t.Fatal(err)
		}
		if err := store.MarkPaid(ctx, []string{"1", "2"}); err == nil {
			t.Fatal("expected error for cancelled invoice")
		}
		inv, _ := store.GetInvoice(ctx, "1")
		if inv.Paid {
			t.Error("partial mark-paid must not happen")
		}
	})
}
