// Package testutil provides common testing utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/R3E-Network/batchpay/internal/chain"
)

// SubmittedTx records one submission made through the mock chain.
type SubmittedTx struct {
	Kind       string // "approval" or "payment"
	Token      string
	Spender    string
	InvoiceIDs []string
	Amount     *big.Int
	Attached   *big.Int
	Handle     chain.TxHandle
}

// MockChain is a test implementation of chain.Reader, chain.Submitter and
// chain.FeeOracle with scriptable balances and failures.
type MockChain struct {
	mu sync.Mutex

	nativeBalance map[string]*big.Int
	tokenBalance  map[string]map[string]*big.Int // token -> account -> balance
	decimals      map[string]int
	allowance     map[string]*big.Int // token -> allowance for the test's owner/spender
	fee           *big.Int

	readErr     error
	approveErr  map[string]error // by token
	paymentErr  map[string]error // by first invoice ID in the batch
	confirmErr  map[chain.TxHandle]error
	holdStarted chan<- struct{}
	holdRelease <-chan struct{}
	Submissions []SubmittedTx

	seq int
}

// NewMockChain creates a mock chain with zeroed state.
func NewMockChain() *MockChain {
	return &MockChain{
		nativeBalance: make(map[string]*big.Int),
		tokenBalance:  make(map[string]map[string]*big.Int),
		decimals:      make(map[string]int),
		allowance:     make(map[string]*big.Int),
		fee:           big.NewInt(0),
		approveErr:    make(map[string]error),
		paymentErr:    make(map[string]error),
		confirmErr:    make(map[chain.TxHandle]error),
	}
}

// SetNativeBalance sets an account's native balance.
func (m *MockChain) SetNativeBalance(account string, v *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nativeBalance[account] = new(big.Int).Set(v)
}

// SetTokenBalance sets an account's token balance.
func (m *MockChain) SetTokenBalance(token, account string, v *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokenBalance[token] == nil {
		m.tokenBalance[token] = make(map[string]*big.Int)
	}
	m.tokenBalance[token][account] = new(big.Int).Set(v)
}

// SetDecimals sets a token's decimal count.
func (m *MockChain) SetDecimals(token string, d int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decimals[token] = d
}

// SetAllowance sets the current allowance for a token.
func (m *MockChain) SetAllowance(token string, v *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowance[token] = new(big.Int).Set(v)
}

// SetFee sets the per-invoice fee.
func (m *MockChain) SetFee(v *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fee = new(big.Int).Set(v)
}

// FailReads makes every read query return the error.
func (m *MockChain) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// FailApproval makes approvals for the token fail at submission.
func (m *MockChain) FailApproval(token string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approveErr[token] = err
}

// FailPayment makes the payment whose batch starts with the invoice ID fail
// at submission.
func (m *MockChain) FailPayment(firstInvoiceID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentErr[firstInvoiceID] = err
}

// FailConfirmation makes confirmation of the handle fail.
func (m *MockChain) FailConfirmation(handle chain.TxHandle, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmErr[handle] = err
}

// HoldPayments makes the next payment submission close started and then
// block until release is closed. Used to keep a run in flight while a test
// exercises concurrent behavior.
func (m *MockChain) HoldPayments(started chan<- struct{}, release <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holdStarted = started
	m.holdRelease = release
}

// SubmissionCount returns how many transactions were submitted.
func (m *MockChain) SubmissionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Submissions)
}

// Reader implementation

func (m *MockChain) NativeBalance(_ context.Context, account string) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if v, ok := m.nativeBalance[account]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (m *MockChain) TokenBalance(_ context.Context, token, account string) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if v, ok := m.tokenBalance[token][account]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (m *MockChain) TokenDecimals(_ context.Context, token string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, m.readErr
	}
	if d, ok := m.decimals[token]; ok {
		return d, nil
	}
	return 18, nil
}

func (m *MockChain) Allowance(_ context.Context, token, _, _ string) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if v, ok := m.allowance[token]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

// Submitter implementation

func (m *MockChain) SubmitApproval(_ context.Context, token, spender string, amount *big.Int) (chain.TxHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.approveErr[token]; err != nil {
		return "", err
	}

	handle := m.nextHandle()
	m.Submissions = append(m.Submissions, SubmittedTx{
		Kind:    "approval",
		Token:   token,
		Spender: spender,
		Amount:  new(big.Int).Set(amount),
		Handle:  handle,
	})
	// Approval takes effect immediately; confirmation is a separate step.
	m.allowance[token] = new(big.Int).Set(amount)
	return handle, nil
}

func (m *MockChain) SubmitBatchPayment(_ context.Context, invoiceIDs []string, attachedValue *big.Int) (chain.TxHandle, error) {
	m.mu.Lock()
	if m.holdStarted != nil {
		started, release := m.holdStarted, m.holdRelease
		m.holdStarted, m.holdRelease = nil, nil
		m.mu.Unlock()
		close(started)
		<-release
		m.mu.Lock()
	}
	defer m.mu.Unlock()
	if len(invoiceIDs) > 0 {
		if err := m.paymentErr[invoiceIDs[0]]; err != nil {
			return "", err
		}
	}

	handle := m.nextHandle()
	m.Submissions = append(m.Submissions, SubmittedTx{
		Kind:       "payment",
		InvoiceIDs: append([]string(nil), invoiceIDs...),
		Attached:   new(big.Int).Set(attachedValue),
		Handle:     handle,
	})
	return handle, nil
}

func (m *MockChain) AwaitConfirmation(_ context.Context, tx chain.TxHandle) (*chain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.confirmErr[tx]; err != nil {
		return nil, err
	}
	return &chain.Receipt{TxHash: string(tx), Status: true}, nil
}

// FeeOracle implementation

func (m *MockChain) FeePerInvoice(_ context.Context) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return new(big.Int).Set(m.fee), nil
}

func (m *MockChain) nextHandle() chain.TxHandle {
	m.seq++
	return chain.TxHandle(fmt.Sprintf("0xtx%04d", m.seq))
}
