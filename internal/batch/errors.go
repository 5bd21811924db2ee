package batch

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/R3E-Network/batchpay/internal/chain"
)

// Sentinel errors for caller misuse.
var (
	ErrEmptyGroup    = errors.New("payment group has no invoices")
	ErrRunInProgress = errors.New("a batch run is already in progress")
)

// FundKind identifies which balance a capability check found short.
type FundKind string

const (
	FundNative FundKind = "native" // native-currency principal + fees
	FundToken  FundKind = "token"  // token principal
	FundFee    FundKind = "fee"    // native-currency fees for a token group
)

// InsufficientFundsError reports that the acting account cannot cover a
// payment group. Required and Available are in smallest units.
type InsufficientFundsError struct {
	Kind      FundKind
	Symbol    string
	Required  *big.Int
	Available *big.Int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s funds for %s: need %s, have %s",
		e.Kind, e.Symbol, e.Required, e.Available)
}

// Category returns the user-facing category name. Native and token
// shortfalls read the same; only the fee kind gets its own wording.
func (e *InsufficientFundsError) Category() string {
	if e.Kind == FundFee {
		return "Insufficient balance for network fees"
	}
	return fmt.Sprintf("Insufficient %s balance", e.Symbol)
}

// UserRejectedError indicates the signer declined a transaction.
type UserRejectedError struct {
	Err error
}

func (e *UserRejectedError) Error() string {
	return fmt.Sprintf("transaction rejected by signer: %v", e.Err)
}

func (e *UserRejectedError) Unwrap() error { return e.Err }

// Category returns the user-facing category name.
func (e *UserRejectedError) Category() string { return "Transaction rejected in wallet" }

// OnChainRevertError indicates a transaction was mined but reverted.
type OnChainRevertError struct {
	Reason string
	Err    error
}

func (e *OnChainRevertError) Error() string {
	if e.Reason == "" {
		return "transaction reverted on-chain"
	}
	return fmt.Sprintf("transaction reverted on-chain: %s", e.Reason)
}

func (e *OnChainRevertError) Unwrap() error { return e.Err }

// Category returns the user-facing category name.
func (e *OnChainRevertError) Category() string { return "Transaction failed on-chain" }

// NetworkError indicates a provider/RPC communication failure. It is
// surfaced as-is; the orchestrator never retries automatically.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Category returns the user-facing category name.
func (e *NetworkError) Category() string { return "Network error" }

// InvalidInvoiceIDError indicates an invoice carries an identifier the
// payment contract cannot address. Raised before any submission so an
// unpayable group never costs an approval transaction.
type InvalidInvoiceIDError struct {
	ID string
}

func (e *InvalidInvoiceIDError) Error() string {
	return fmt.Sprintf("invoice id %q is not a contract id", e.ID)
}

// Category returns the user-facing category name.
func (e *InvalidInvoiceIDError) Category() string { return "Invoice has no on-chain id" }

// ValidContractID reports whether the id is a base-10 numeric identifier
// the invoicing contract can address.
func ValidContractID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// BatchSizeExceededError indicates a group exceeds the contract's batch
// limit. Raised before submission so a guaranteed revert is never sent.
type BatchSizeExceededError struct {
	Count int
	Limit int
}

func (e *BatchSizeExceededError) Error() string {
	return fmt.Sprintf("batch of %d invoices exceeds contract limit of %d", e.Count, e.Limit)
}

// Category returns the user-facing category name.
func (e *BatchSizeExceededError) Category() string { return "Too many invoices in one batch" }

// ClassifyTxError maps a chain-layer error to the payment error taxonomy.
func ClassifyTxError(err error) error {
	if err == nil {
		return nil
	}

	var revert *chain.RevertError
	if errors.As(err, &revert) {
		return &OnChainRevertError{Reason: revert.Reason, Err: err}
	}
	if chain.IsUserRejected(err) {
		return &UserRejectedError{Err: err}
	}

	var already interface{ Category() string }
	if errors.As(err, &already) {
		return err
	}
	return &NetworkError{Err: err}
}

// Categorize returns the user-facing category for any taxonomy error, with a
// generic fallback for uncategorized errors.
func Categorize(err error) string {
	var categorized interface{ Category() string }
	if errors.As(err, &categorized) {
		return categorized.Category()
	}
	return "Unexpected error"
}
