package invoice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore provides an in-memory implementation of Store for testing and
// for running without a database. Listing preserves insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	invoices map[string]Invoice
	order    []string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{invoices: make(map[string]Invoice)}
}

func (s *MemoryStore) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if _, exists := s.invoices[inv.ID]; exists {
		return Invoice{}, fmt.Errorf("invoice already exists: %s", inv.ID)
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	s.invoices[inv.ID] = inv
	s.order = append(s.order, inv.ID)
	return inv, nil
}

func (s *MemoryStore) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return Invoice{}, fmt.Errorf("invoice not found: %s", id)
	}
	return inv, nil
}

func (s *MemoryStore) ListInvoices(ctx context.Context) ([]Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Invoice, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.invoices[id])
	}
	return out, nil
}

func (s *MemoryStore) MarkPaid(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole set before mutating anything.
	for _, id := range ids {
		inv, ok := s.invoices[id]
		if !ok {
			return fmt.Errorf("invoice not found: %s", id)
		}
		if inv.Cancelled {
			return fmt.Errorf("invoice cancelled: %s", id)
		}
	}

	now := time.Now().UTC()
	for _, id := range ids {
		inv := s.invoices[id]
		inv.Paid = true
		inv.UpdatedAt = now
		s.invoices[id] = inv
	}
	return nil
}
