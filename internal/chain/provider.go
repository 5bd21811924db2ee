// Package chain provides JSON-RPC chain access for batchpay: balance and
// allowance reads, transaction submission, and confirmation waits.
package chain

import (
	"context"
	"math/big"
)

// TxHandle identifies a submitted transaction (its hash).
type TxHandle string

// Receipt is the confirmation record for a mined transaction.
type Receipt struct {
	TxHash      string `json:"transactionHash"`
	BlockNumber uint64 `json:"-"`
	GasUsed     uint64 `json:"-"`
	Status      bool   `json:"-"`
}

// Reader provides read-only chain state queries.
type Reader interface {
	// NativeBalance returns the native-currency balance of an account in
	// smallest units.
	NativeBalance(ctx context.Context, account string) (*big.Int, error)
	// TokenBalance returns the token balance of an account in smallest units.
	TokenBalance(ctx context.Context, token, account string) (*big.Int, error)
	// TokenDecimals returns the declared decimal count of a token.
	TokenDecimals(ctx context.Context, token string) (int, error)
	// Allowance returns the amount the spender may move on the owner's behalf.
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)
}

// Submitter submits transactions and waits for their confirmation.
type Submitter interface {
	// SubmitApproval submits a token approval for the spender.
	SubmitApproval(ctx context.Context, token, spender string, amount *big.Int) (TxHandle, error)
	// SubmitBatchPayment submits the batched payment for the invoice IDs
	// with the given attached native value.
	SubmitBatchPayment(ctx context.Context, invoiceIDs []string, attachedValue *big.Int) (TxHandle, error)
	// AwaitConfirmation blocks until the transaction is mined and returns
	// its receipt. A reverted transaction returns a *RevertError.
	AwaitConfirmation(ctx context.Context, tx TxHandle) (*Receipt, error)
}

// FeeOracle reports the per-invoice network fee charged by the invoicing
// contract, in smallest native units.
type FeeOracle interface {
	FeePerInvoice(ctx context.Context) (*big.Int, error)
}
