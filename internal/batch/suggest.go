package batch

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/R3E-Network/batchpay/internal/invoice"
)

// Suggestion thresholds. The same-token heuristic is less targeted, so it
// requires a larger group before it is worth surfacing.
const (
	sameDayMinInvoices   = 2
	sameTokenMinInvoices = 3
)

// Suggestion is a candidate batch proposed to the user. Advisory only: the
// engine never selects invoices on the user's behalf.
type Suggestion struct {
	ID          string            `json:"id"`
	Reason      string            `json:"reason"`
	Token       invoice.Token     `json:"token"`
	Invoices    []invoice.Invoice `json:"invoices"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
}

type suggestionGroup struct {
	id       string
	token    invoice.Token
	invoices []invoice.Invoice
	total    decimal.Decimal
}

// Suggest proposes candidate batches from the payable invoice set using two
// independent heuristics, concatenated: same sender + same issue day + same
// token (2 or more invoices), and same token alone (3 or more). Output order
// within each heuristic follows first appearance in the input, so repeated
// calls on the same input are stable.
func Suggest(invoices []invoice.Invoice) []Suggestion {
	var out []Suggestion

	sameDay := collectGroups(invoices, func(inv invoice.Invoice) string {
		key := inv.Token.Key()
		return fmt.Sprintf("same-day:%s:%s:%s:%s",
			inv.Sender, inv.IssueDate.UTC().Format("2006-01-02"), key.Address, key.Symbol)
	})
	for _, g := range sameDay {
		if len(g.invoices) < sameDayMinInvoices {
			continue
		}
		out = append(out, Suggestion{
			ID:          g.id,
			Reason:      fmt.Sprintf("%d invoices from same sender on same day", len(g.invoices)),
			Token:       g.token,
			Invoices:    g.invoices,
			TotalAmount: g.total,
		})
	}

	sameToken := collectGroups(invoices, func(inv invoice.Invoice) string {
		key := inv.Token.Key()
		return fmt.Sprintf("same-token:%s:%s", key.Address, key.Symbol)
	})
	for _, g := range sameToken {
		if len(g.invoices) < sameTokenMinInvoices {
			continue
		}
		out = append(out, Suggestion{
			ID:          g.id,
			Reason:      fmt.Sprintf("%d invoices payable in %s", len(g.invoices), g.token.Key().Symbol),
			Token:       g.token,
			Invoices:    g.invoices,
			TotalAmount: g.total,
		})
	}

	return out
}

// collectGroups buckets payable invoices by the derived key, preserving
// first-appearance order.
func collectGroups(invoices []invoice.Invoice, keyFn func(invoice.Invoice) string) []*suggestionGroup {
	byKey := make(map[string]*suggestionGroup)
	var ordered []*suggestionGroup

	for _, inv := range invoices {
		if !inv.Pending() {
			continue
		}
		id := keyFn(inv)
		g, ok := byKey[id]
		if !ok {
			g = &suggestionGroup{id: id, token: inv.Token, total: decimal.Zero}
			byKey[id] = g
			ordered = append(ordered, g)
		}
		g.invoices = append(g.invoices, inv)
		g.total = g.total.Add(inv.Amount())
	}

	return ordered
}
