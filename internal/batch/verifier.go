package batch

import (
	"context"
	"fmt"
	"math/big"

	"github.com/R3E-Network/batchpay/internal/chain"
)

// Verifier decides, without sending anything, whether the acting account can
// cover payment groups. All queries are read-only chain state.
type Verifier struct {
	reader  chain.Reader
	account string
}

// NewVerifier creates a verifier for the acting account.
func NewVerifier(reader chain.Reader, account string) *Verifier {
	return &Verifier{reader: reader, account: account}
}

// CheckCapability verifies one group against current balances. For token
// groups both the token-principal check and the native-fee check always run;
// problems are accumulated, not short-circuited, so the caller can report
// everything at once. The group must not be empty.
func (v *Verifier) CheckCapability(ctx context.Context, group *PaymentGroup, feePerInvoice *big.Int) ([]error, error) {
	if group == nil || len(group.Invoices) == 0 {
		return nil, ErrEmptyGroup
	}

	count := big.NewInt(int64(len(group.Invoices)))
	totalFees := new(big.Int).Mul(feePerInvoice, count)

	if group.Token.IsNative() {
		principal, err := ToFixedPoint(group.TotalAmount, NativeDecimals)
		if err != nil {
			return nil, fmt.Errorf("native amount for %s: %w", group.Key.Symbol, err)
		}
		required := new(big.Int).Add(principal, totalFees)

		available, err := v.reader.NativeBalance(ctx, v.account)
		if err != nil {
			return nil, &NetworkError{Err: err}
		}
		if available.Cmp(required) < 0 {
			return []error{&InsufficientFundsError{
				Kind:      FundNative,
				Symbol:    group.Key.Symbol,
				Required:  required,
				Available: available,
			}}, nil
		}
		return nil, nil
	}

	var problems []error

	decimals, err := v.reader.TokenDecimals(ctx, group.Token.Address)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	required, err := ToFixedPoint(group.TotalAmount, decimals)
	if err != nil {
		return nil, fmt.Errorf("token amount for %s: %w", group.Key.Symbol, err)
	}

	tokenBalance, err := v.reader.TokenBalance(ctx, group.Token.Address, v.account)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if tokenBalance.Cmp(required) < 0 {
		problems = append(problems, &InsufficientFundsError{
			Kind:      FundToken,
			Symbol:    group.Key.Symbol,
			Required:  required,
			Available: tokenBalance,
		})
	}

	// Fees are always paid in the native currency regardless of invoice token.
	nativeBalance, err := v.reader.NativeBalance(ctx, v.account)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if nativeBalance.Cmp(totalFees) < 0 {
		problems = append(problems, &InsufficientFundsError{
			Kind:      FundFee,
			Symbol:    group.Key.Symbol,
			Required:  totalFees,
			Available: nativeBalance,
		})
	}

	return problems, nil
}

// VerifyAll runs CheckCapability over every group in order and concatenates
// the findings, so the pre-flight gate reports every shortfall in one pass.
func (v *Verifier) VerifyAll(ctx context.Context, groups []*PaymentGroup, feePerInvoice *big.Int) ([]error, error) {
	var problems []error
	for _, group := range groups {
		found, err := v.CheckCapability(ctx, group, feePerInvoice)
		if err != nil {
			return nil, err
		}
		problems = append(problems, found...)
	}
	return problems, nil
}
