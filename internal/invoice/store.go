package invoice

import "context"

// Store defines the persistence interface for invoices.
type Store interface {
	// CreateInvoice persists a new invoice. A missing ID is generated.
	CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	// GetInvoice retrieves an invoice by ID.
	GetInvoice(ctx context.Context, id string) (Invoice, error)
	// ListInvoices returns all invoices in insertion order.
	ListInvoices(ctx context.Context) ([]Invoice, error)
	// MarkPaid flips Paid on every listed invoice. The update is atomic:
	// either all listed invoices are marked or none are.
	MarkPaid(ctx context.Context, ids []string) error
}
