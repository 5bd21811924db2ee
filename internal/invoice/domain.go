// Package invoice provides the invoice domain model and persistence for batchpay.
package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// NativeSymbol is the symbol assumed for a token descriptor that carries
// neither an address nor a symbol.
const NativeSymbol = "ETH"

// Token describes the asset an invoice is denominated in. An empty Address
// denotes the chain's native currency; anything else is a fungible-token
// contract address.
type Token struct {
	Address  string `json:"address,omitempty" yaml:"address"` // empty for native currency
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals int    `json:"decimals" yaml:"decimals"`
	LogoURL  string `json:"logo_url,omitempty" yaml:"logo_url"`
}

// IsNative reports whether the token is the chain's native currency.
func (t Token) IsNative() bool {
	return t.Address == "" || t.Address == "0x0000000000000000000000000000000000000000"
}

// TokenKey is the derived grouping identity for batch payment: the
// (address, symbol) pair, with native currency normalized to an empty
// address and a default symbol.
type TokenKey struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

// Key returns the grouping identity for the token.
func (t Token) Key() TokenKey {
	k := TokenKey{Symbol: t.Symbol}
	if k.Symbol == "" {
		k.Symbol = NativeSymbol
	}
	if !t.IsNative() {
		k.Address = t.Address
	}
	return k
}

// LineItem is one line of an invoice. Amounts are display data computed by
// the issuing flow; the batch core never recomputes them.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	Amount      decimal.Decimal `json:"amount"`
}

// BatchInfo back-references a creation-time batch grouping. Informational
// only; it does not affect payment grouping.
type BatchInfo struct {
	BatchID   string `json:"batch_id"`
	BatchSize int    `json:"batch_size"`
	Index     int    `json:"index"`
}

// Invoice represents one payable obligation. It is created by the issuing
// flow and mutated in exactly one field (Paid) after a confirmed payment.
type Invoice struct {
	ID        string     `json:"id"`
	Sender    string     `json:"sender"`     // issuing account address
	Recipient string     `json:"recipient"`  // paying account address
	AmountDue string     `json:"amount_due"` // decimal string in Token units
	Token     Token      `json:"payment_token"`
	Paid      bool       `json:"is_paid"`
	Cancelled bool       `json:"is_cancelled"`
	IssueDate time.Time  `json:"issue_date"`
	DueDate   time.Time  `json:"due_date"`
	Items     []LineItem `json:"items,omitempty"`
	Batch     *BatchInfo `json:"batch_info,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Pending reports whether the invoice is still payable.
func (i Invoice) Pending() bool {
	return !i.Paid && !i.Cancelled
}

// Amount parses AmountDue into a decimal. Invalid amounts parse as zero;
// the issuing flow validates amounts before persisting them.
func (i Invoice) Amount() decimal.Decimal {
	d, err := decimal.NewFromString(i.AmountDue)
	if err != nil {
		return decimal.Zero
	}
	return d
}
