package batch

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/R3E-Network/batchpay/internal/chain"
	"github.com/R3E-Network/batchpay/internal/invoice"
	"github.com/R3E-Network/batchpay/internal/metrics"
	"github.com/R3E-Network/batchpay/pkg/logger"
)

// DefaultMaxBatchSize is the contract's per-transaction invoice limit.
const DefaultMaxBatchSize = 50

// Stage names for group failures.
const (
	StageApproval = "approval"
	StagePayment  = "payment"
)

// GroupFailure records why a group's payment did not complete.
type GroupFailure struct {
	Key      invoice.TokenKey `json:"token_key"`
	Stage    string           `json:"stage"`
	Category string           `json:"category"`
	Detail   string           `json:"detail"`
	Err      error            `json:"-"`
}

// BatchResult summarizes one batch-payment run.
type BatchResult struct {
	// Succeeded lists groups whose payment confirmed on-chain.
	Succeeded []invoice.TokenKey `json:"succeeded"`
	// PartiallyFailed lists groups whose approval confirmed but whose
	// payment did not.
	PartiallyFailed []GroupFailure `json:"partially_failed"`
	// Failed lists groups where nothing committed.
	Failed []GroupFailure `json:"failed"`
	// Insufficient carries the pre-flight findings. Non-empty means no
	// transaction was submitted at all.
	Insufficient []error `json:"-"`
	// InsufficientDetails is the serializable form of Insufficient.
	InsufficientDetails []string `json:"insufficient,omitempty"`
}

// Aborted reports whether the run stopped at the pre-flight gate.
func (r *BatchResult) Aborted() bool { return len(r.Insufficient) > 0 }

// Orchestrator sequences approval and payment transactions for verified
// payment groups. Groups are processed strictly sequentially: concurrent
// submission from one account risks nonce collisions.
type Orchestrator struct {
	store     invoice.Store
	verifier  *Verifier
	submitter chain.Submitter
	fees      chain.FeeOracle
	log       *logger.Logger

	account      string // acting account (allowance owner)
	contract     string // payment contract (allowance spender)
	maxBatchSize int

	mu   sync.Mutex
	busy bool
}

// OrchestratorConfig configures an Orchestrator.
type OrchestratorConfig struct {
	Store        invoice.Store
	Reader       chain.Reader
	Submitter    chain.Submitter
	Fees         chain.FeeOracle
	Account      string
	Contract     string
	MaxBatchSize int
	Logger       *logger.Logger
}

// NewOrchestrator creates a payment orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("batch-orchestrator")
	}
	return &Orchestrator{
		store:        cfg.Store,
		verifier:     NewVerifier(cfg.Reader, cfg.Account),
		submitter:    cfg.Submitter,
		fees:         cfg.Fees,
		log:          log,
		account:      cfg.Account,
		contract:     cfg.Contract,
		maxBatchSize: cfg.MaxBatchSize,
	}
}

// RunBatch executes the payment sequence for a grouping. The grouping is
// snapshotted up front, so selection edits made while the run is in flight
// cannot alter it. Returns ErrRunInProgress if a run is already active.
//
// Pre-flight gate: every group is verified before any transaction is sent.
// Any shortfall aborts the whole run with zero submissions, so a predictable
// partial submission never happens. During execution one group's failure
// never blocks the remaining groups.
func (o *Orchestrator) RunBatch(ctx context.Context, grouping *Grouping) (*BatchResult, error) {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return nil, ErrRunInProgress
	}
	o.busy = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
	}()

	// Snapshot before verifying.
	groups := make([]*PaymentGroup, len(grouping.Groups()))
	copy(groups, grouping.Groups())

	for _, group := range groups {
		if len(group.Invoices) == 0 {
			return nil, ErrEmptyGroup
		}
	}

	// Fee is queried once per run: re-querying per group would make the
	// pre-flight arithmetic and the executed batch disagree under fee moves.
	feePerInvoice, err := o.fees.FeePerInvoice(ctx)
	if err != nil {
		metrics.BatchRunObserved("fee_query_failed")
		return nil, &NetworkError{Err: err}
	}

	result := &BatchResult{}

	// VERIFYING: all groups pass or nothing is sent.
	problems, err := o.verifier.VerifyAll(ctx, groups, feePerInvoice)
	if err != nil {
		metrics.BatchRunObserved("verify_failed")
		return nil, err
	}
	if len(problems) > 0 {
		result.Insufficient = problems
		for _, p := range problems {
			result.InsufficientDetails = append(result.InsufficientDetails, p.Error())
		}
		o.log.WithField("problems", len(problems)).Warn("batch aborted by pre-flight verification")
		metrics.BatchRunObserved("insufficient_funds")
		return result, nil
	}

	// EXECUTING: strictly sequential, classifier order.
	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			// Committed groups stay committed; the rest are recorded.
			for _, remaining := range groups[i:] {
				result.Failed = append(result.Failed, o.groupFailure(remaining, StagePayment, &NetworkError{Err: err}))
			}
			break
		}
		o.executeGroup(ctx, group, feePerInvoice, result)
	}

	status := "succeeded"
	if len(result.Failed) > 0 || len(result.PartiallyFailed) > 0 {
		status = "partial"
		if len(result.Succeeded) == 0 {
			status = "failed"
		}
	}
	metrics.BatchRunObserved(status)
	o.log.WithField("succeeded", len(result.Succeeded)).
		WithField("partially_failed", len(result.PartiallyFailed)).
		WithField("failed", len(result.Failed)).
		Info("batch run finished")

	return result, nil
}

// executeGroup runs the approval + payment sequence for one group and
// records the outcome. Errors are recorded, never returned: one token's
// failure must not block payment of other tokens' groups.
func (o *Orchestrator) executeGroup(ctx context.Context, group *PaymentGroup, feePerInvoice *big.Int, result *BatchResult) {
	log := o.log.WithField("token", group.Key.Symbol).WithField("invoices", len(group.Invoices))

	if len(group.Invoices) > o.maxBatchSize {
		err := &BatchSizeExceededError{Count: len(group.Invoices), Limit: o.maxBatchSize}
		log.WithError(err).Warn("group exceeds batch limit, skipping")
		result.Failed = append(result.Failed, o.groupFailure(group, StagePayment, err))
		metrics.GroupObserved("failed")
		return
	}

	// The contract addresses invoices by numeric id. Catch a bad id here so
	// the guaranteed submission failure cannot cost an approval transaction.
	for _, inv := range group.Invoices {
		if !ValidContractID(inv.ID) {
			err := &InvalidInvoiceIDError{ID: inv.ID}
			log.WithError(err).Warn("group skipped: invoice lacks a contract id")
			result.Failed = append(result.Failed, o.groupFailure(group, StagePayment, err))
			metrics.GroupObserved("failed")
			return
		}
	}

	totalFees := new(big.Int).Mul(feePerInvoice, big.NewInt(int64(len(group.Invoices))))
	approved := false

	if !group.Token.IsNative() {
		required, err := o.tokenPrincipal(ctx, group)
		if err != nil {
			log.WithError(err).Warn("group skipped: cannot derive token principal")
			result.Failed = append(result.Failed, o.groupFailure(group, StageApproval, ClassifyTxError(err)))
			metrics.GroupObserved("failed")
			return
		}

		if err := o.ensureAllowance(ctx, group, required); err != nil {
			log.WithError(err).Warn("approval failed, group skipped")
			result.Failed = append(result.Failed, o.groupFailure(group, StageApproval, ClassifyTxError(err)))
			metrics.GroupObserved("failed")
			return
		}
		approved = true
	}

	attached, err := o.attachedValue(ctx, group, totalFees)
	if err != nil {
		result.Failed = append(result.Failed, o.groupFailure(group, StagePayment, ClassifyTxError(err)))
		metrics.GroupObserved("failed")
		return
	}

	tx, err := o.submitter.SubmitBatchPayment(ctx, group.InvoiceIDs(), attached)
	if err == nil {
		metrics.TxSubmitted("payment")
		_, err = o.submitter.AwaitConfirmation(ctx, tx)
	}
	if err != nil {
		classified := ClassifyTxError(err)
		log.WithError(classified).Warn("batch payment failed")
		failure := o.groupFailure(group, StagePayment, classified)
		if approved {
			result.PartiallyFailed = append(result.PartiallyFailed, failure)
			metrics.GroupObserved("partially_failed")
		} else {
			result.Failed = append(result.Failed, failure)
			metrics.GroupObserved("failed")
		}
		return
	}

	// Confirmed on-chain: flip local state. The chain is the source of
	// truth, so a local bookkeeping failure does not un-succeed the group.
	if err := o.store.MarkPaid(ctx, group.InvoiceIDs()); err != nil {
		log.WithError(err).Error("payment confirmed but local mark-paid failed")
	}

	result.Succeeded = append(result.Succeeded, group.Key)
	metrics.GroupObserved("succeeded")
	log.WithField("tx", string(tx)).Info("group paid")
}

// tokenPrincipal derives the group total in the token's smallest unit.
func (o *Orchestrator) tokenPrincipal(ctx context.Context, group *PaymentGroup) (*big.Int, error) {
	decimals, err := o.verifier.reader.TokenDecimals(ctx, group.Token.Address)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	principal, err := ToFixedPoint(group.TotalAmount, decimals)
	if err != nil {
		return nil, err
	}
	return principal, nil
}

// ensureAllowance checks the current allowance and submits an approval when
// it is insufficient, waiting for confirmation before returning.
func (o *Orchestrator) ensureAllowance(ctx context.Context, group *PaymentGroup, required *big.Int) error {
	allowance, err := o.verifier.reader.Allowance(ctx, group.Token.Address, o.account, o.contract)
	if err != nil {
		return &NetworkError{Err: err}
	}
	if allowance.Cmp(required) >= 0 {
		return nil
	}

	tx, err := o.submitter.SubmitApproval(ctx, group.Token.Address, o.contract, required)
	if err != nil {
		return err
	}
	metrics.TxSubmitted("approval")
	if _, err := o.submitter.AwaitConfirmation(ctx, tx); err != nil {
		return err
	}
	return nil
}

// attachedValue computes the native value to attach: native groups carry
// principal plus fees, token groups carry fees only (the token amount moves
// through the token contract).
func (o *Orchestrator) attachedValue(ctx context.Context, group *PaymentGroup, totalFees *big.Int) (*big.Int, error) {
	if !group.Token.IsNative() {
		return new(big.Int).Set(totalFees), nil
	}
	principal, err := ToFixedPoint(group.TotalAmount, NativeDecimals)
	if err != nil {
		return nil, fmt.Errorf("native amount for %s: %w", group.Key.Symbol, err)
	}
	return new(big.Int).Add(principal, totalFees), nil
}

func (o *Orchestrator) groupFailure(group *PaymentGroup, stage string, err error) GroupFailure {
	return GroupFailure{
		Key:      group.Key,
		Stage:    stage,
		Category: Categorize(err),
		Detail:   err.Error(),
		Err:      err,
	}
}
