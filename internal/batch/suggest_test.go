package batch

import (
	"strings"
	"testing"
	"time"

	"github.com/R3E-Network/batchpay/internal/invoice"
)

func invoiceOnDay(id, sender, amount string, token invoice.Token, day time.Time) invoice.Invoice {
	inv := makeInvoice(id, sender, amount, token)
	inv.IssueDate = day
	return inv
}

func TestSuggestSameDay(t *testing.T) {
	day := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	otherDay := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

	t.Run("TwoInvoicesTrigger", func(t *testing.T) {
		suggestions := Suggest([]invoice.Invoice{
			invoiceOnDay("1", "0xalice", "1", ethToken, day),
			invoiceOnDay("2", "0xalice", "2", ethToken, day),
		})
		if len(suggestions) != 1 {
			t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
		}
		s := suggestions[0]
		if s.Reason != "2 invoices from same sender on same day" {
			t.Errorf("unexpected reason: %q", s.Reason)
		}
		if got := s.TotalAmount.String(); got != "3" {
			t.Errorf("expected total 3, got %s", got)
		}
		if len(s.Invoices) != 2 {
			t.Errorf("expected 2 invoices, got %d", len(s.Invoices))
		}
	})

	t.Run("DifferentDayDoesNotTrigger", func(t *testing.T) {
		suggestions := Suggest([]invoice.Invoice{
			invoiceOnDay("1", "0xalice", "1", ethToken, day),
			invoiceOnDay("2", "0xalice", "2", ethToken, otherDay),
		})
		if len(suggestions) != 0 {
			t.Fatalf("expected no suggestions, got %+v", suggestions)
		}
	})

	t.Run("DifferentSenderDoesNotTrigger", func(t *testing.T) {
		suggestions := Suggest([]invoice.Invoice{
			invoiceOnDay("1", "0xalice", "1", ethToken, day),
			invoiceOnDay("2", "0xbob", "2", ethToken, day),
		})
		if len(suggestions) != 0 {
			t.Fatalf("expected no suggestions, got %+v", suggestions)
		}
	})

	t.Run("DifferentTokenDoesNotTrigger", func(t *testing.T) {
		suggestions := Suggest([]invoice.Invoice{
			invoiceOnDay("1", "0xalice", "1", ethToken, day),
			invoiceOnDay("2", "0xalice", "2", usdcToken, day),
		})
		if len(suggestions) != 0 {
			t.Fatalf("expected no suggestions, got %+v", suggestions)
		}
	})

	t.Run("TimeOfDayIgnored", func(t *testing.T) {
		suggestions := Suggest([]invoice.Invoice{
			invoiceOnDay("1", "0xalice", "1", ethToken, day),
			invoiceOnDay("2", "0xalice", "2", ethToken, day.Add(8*time.Hour)),
		})
		if len(suggestions) != 1 {
			t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
		}
	})
}

func TestSuggestSameToken(t *testing.T) {
	days := []time.Time{
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	}

	t.Run("TwoInvoicesDoNotTrigger", func(t *testing.T) {
		suggestions := Suggest([]invoice.Invoice{
			invoiceOnDay("1", "0xalice", "10", usdcToken, days[0]),
			invoiceOnDay("2", "0xbob", "20", usdcToken, days[1]),
		})
		if len(suggestions) != 0 {
			t.Fatalf("expected no suggestions, got %+v", suggestions)
		}
	})

	t.Run("ThreeInvoicesTrigger", func(t *testing.T) {
		suggestions := Suggest([]invoice.Invoice{
			invoiceOnDay("1", "0xalice", "10", usdcToken, days[0]),
			invoiceOnDay("2", "0xbob", "20", usdcToken, days[1]),
			invoiceOnDay("3", "0xcarol", "30", usdcToken, days[2]),
		})
		if len(suggestions) != 1 {
			t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
		}
		s := suggestions[0]
		if s.Reason != "3 invoices payable in USDC" {
			t.Errorf("unexpected reason: %q", s.Reason)
		}
		if got := s.TotalAmount.String(); got != "60" {
			t.Errorf("expected total 60, got %s", got)
		}
	})
}

func TestSuggestBothHeuristicsCanFire(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	invoices := []invoice.Invoice{
		invoiceOnDay("1", "0xalice", "10", usdcToken, day),
		invoiceOnDay("2", "0xalice", "20", usdcToken, day),
		invoiceOnDay("3", "0xbob", "30", usdcToken, day.AddDate(0, 0, 1)),
	}

	suggestions := Suggest(invoices)
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d: %+v", len(suggestions), suggestions)
	}
	// Same-day suggestions come first.
	if suggestions[0].Reason != "2 invoices from same sender on same day" {
		t.Errorf("unexpected first reason: %q", suggestions[0].Reason)
	}
	if suggestions[1].Reason != "3 invoices payable in USDC" {
		t.Errorf("unexpected second reason: %q", suggestions[1].Reason)
	}
}

func TestSuggestExcludesPaidAndCancelled(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	paid := invoiceOnDay("1", "0xalice", "1", ethToken, day)
	paid.Paid = true
	cancelled := invoiceOnDay("2", "0xalice", "1", ethToken, day)
	cancelled.Cancelled = true
	pending := invoiceOnDay("3", "0xalice", "1", ethToken, day)

	suggestions := Suggest([]invoice.Invoice{paid, cancelled, pending})
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %+v", suggestions)
	}
}

func TestSuggestStableIDs(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	invoices := []invoice.Invoice{
		invoiceOnDay("1", "0xalice", "1", ethToken, day),
		invoiceOnDay("2", "0xalice", "2", ethToken, day),
	}

	first := Suggest(invoices)
	second := Suggest(invoices)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected 1 suggestion per run, got %d and %d", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Errorf("suggestion IDs differ across runs: %q vs %q", first[0].ID, second[0].ID)
	}
	if !strings.HasPrefix(first[0].ID, "same-day:") {
		t.Errorf("unexpected ID shape: %q", first[0].ID)
	}
}
