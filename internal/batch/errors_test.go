package batch

import (
	"errors"
	"math/big"
	"testing"

	"github.com/R3E-Network/batchpay/internal/chain"
)

func TestInsufficientFundsCategory(t *testing.T) {
	tests := []struct {
		kind FundKind
		want string
	}{
		{kind: FundNative, want: "Insufficient ETH balance"},
		{kind: FundToken, want: "Insufficient ETH balance"},
		{kind: FundFee, want: "Insufficient balance for network fees"},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			e := &InsufficientFundsError{
				Kind:      tc.kind,
				Symbol:    "ETH",
				Required:  big.NewInt(2),
				Available: big.NewInt(1),
			}
			if got := e.Category(); got != tc.want {
				t.Errorf("Category() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidContractID(t *testing.T) {
	valid := []string{"0", "7", "42", "18446744073709551616"}
	for _, id := range valid {
		if !ValidContractID(id) {
			t.Errorf("ValidContractID(%q) = false, want true", id)
		}
	}

	invalid := []string{"", "-1", "+1", "1.5", "0x10", "1_000", "550e8400-e29b-41d4-a716-446655440000", "inv-1"}
	for _, id := range invalid {
		if ValidContractID(id) {
			t.Errorf("ValidContractID(%q) = true, want false", id)
		}
	}
}

func TestClassifyTxError(t *testing.T) {
	t.Run("Revert", func(t *testing.T) {
		classified := ClassifyTxError(&chain.RevertError{TxHash: "0xabc", Reason: "invoice already paid"})
		var revert *OnChainRevertError
		if !errors.As(classified, &revert) {
			t.Fatalf("expected OnChainRevertError, got %T", classified)
		}
		if revert.Reason != "invoice already paid" {
			t.Errorf("unexpected reason: %q", revert.Reason)
		}
	})

	t.Run("UserRejected", func(t *testing.T) {
		classified := ClassifyTxError(&chain.RPCError{Code: 4001, Message: "User rejected the request"})
		var rejected *UserRejectedError
		if !errors.As(classified, &rejected) {
			t.Fatalf("expected UserRejectedError, got %T", classified)
		}
	})

	t.Run("AlreadyCategorizedPassesThrough", func(t *testing.T) {
		in := &InvalidInvoiceIDError{ID: "inv-1"}
		if out := ClassifyTxError(in); out != in {
			t.Errorf("expected pass-through, got %v", out)
		}
	})

	t.Run("FallbackIsNetwork", func(t *testing.T) {
		classified := ClassifyTxError(errors.New("connection refused"))
		var netErr *NetworkError
		if !errors.As(classified, &netErr) {
			t.Fatalf("expected NetworkError, got %T", classified)
		}
	})

	t.Run("NilStaysNil", func(t *testing.T) {
		if err := ClassifyTxError(nil); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})
}
