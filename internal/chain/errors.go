package chain

import (
	"errors"
	"fmt"
	"strings"
)

// RPCError is a JSON-RPC error returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RevertError indicates a transaction was mined but reverted.
type RevertError struct {
	TxHash string
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("transaction %s reverted", e.TxHash)
	}
	return fmt.Sprintf("transaction %s reverted: %s", e.TxHash, e.Reason)
}

// IsUserRejected reports whether the error is a signer declining to sign.
func IsUserRejected(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	// 4001 is the EIP-1193 user-rejected code; some providers report it as
	// a -32000 with a "denied" message.
	if rpcErr.Code == 4001 {
		return true
	}
	msg := strings.ToLower(rpcErr.Message)
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied")
}
