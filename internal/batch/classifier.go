// Package batch implements the batch invoice payment core: grouping by
// payment token, pre-flight balance verification, batch suggestions, and the
// payment orchestrator.
package batch

import (
	"github.com/shopspring/decimal"

	"github.com/R3E-Network/batchpay/internal/invoice"
)

// PaymentGroup is the set of selected, payable invoices sharing one payment
// token, with their aggregate amount. Derived and ephemeral: recomputed on
// every selection change, never persisted.
type PaymentGroup struct {
	Key         invoice.TokenKey  `json:"token_key"`
	Token       invoice.Token     `json:"token"`
	Invoices    []invoice.Invoice `json:"invoices"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
}

// InvoiceIDs returns the member invoice IDs in group order.
func (g *PaymentGroup) InvoiceIDs() []string {
	ids := make([]string, len(g.Invoices))
	for i, inv := range g.Invoices {
		ids[i] = inv.ID
	}
	return ids
}

// Grouping is an ordered partition of a selection into payment groups.
// Group order follows the first appearance of each token in the input
// invoice list, so repeated runs over the same input produce the same
// transaction sequence.
type Grouping struct {
	groups []*PaymentGroup
	byKey  map[invoice.TokenKey]*PaymentGroup
}

// Groups returns the payment groups in deterministic order.
func (g *Grouping) Groups() []*PaymentGroup { return g.groups }

// ByKey returns the group for a token key, or nil.
func (g *Grouping) ByKey(key invoice.TokenKey) *PaymentGroup { return g.byKey[key] }

// Len returns the number of groups.
func (g *Grouping) Len() int { return len(g.groups) }

// GroupByToken partitions the selected invoices into payment groups keyed by
// token identity. Selected IDs that match no invoice are dropped silently
// (stale selection); paid and cancelled invoices are excluded. Pure function:
// no shared state is read or mutated.
func GroupByToken(selected map[string]bool, invoices []invoice.Invoice) *Grouping {
	grouping := &Grouping{byKey: make(map[invoice.TokenKey]*PaymentGroup)}

	for _, inv := range invoices {
		if !selected[inv.ID] || !inv.Pending() {
			continue
		}

		key := inv.Token.Key()
		group, ok := grouping.byKey[key]
		if !ok {
			group = &PaymentGroup{Key: key, Token: inv.Token, TotalAmount: decimal.Zero}
			grouping.byKey[key] = group
			grouping.groups = append(grouping.groups, group)
		}
		group.Invoices = append(group.Invoices, inv)
		group.TotalAmount = group.TotalAmount.Add(inv.Amount())
	}

	return grouping
}

// SelectionSet builds the selected-ID set for GroupByToken.
func SelectionSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
