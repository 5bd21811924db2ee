package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// DefaultTxWaitTimeout is the default timeout for waiting for confirmation.
const DefaultTxWaitTimeout = 2 * time.Minute

// DefaultPollInterval is the default interval for polling receipt status.
const DefaultPollInterval = 2 * time.Second

// SubmitApproval submits an ERC-20 approval transaction. Signing is handled
// by the node/wallet backing the RPC endpoint.
func (c *Client) SubmitApproval(ctx context.Context, token, spender string, amount *big.Int) (TxHandle, error) {
	spenderWord, err := encodeAddress(spender)
	if err != nil {
		return "", err
	}
	amountWord, err := encodeUint256(amount)
	if err != nil {
		return "", err
	}

	return c.sendTransaction(ctx, token, nil, callData("approve(address,uint256)", spenderWord, amountWord))
}

// SubmitBatchPayment submits the batched payment transaction for the invoice
// IDs with the given attached native value. Invoice IDs are the numeric
// identifiers assigned by the invoicing contract at creation.
func (c *Client) SubmitBatchPayment(ctx context.Context, invoiceIDs []string, attachedValue *big.Int) (TxHandle, error) {
	ids := make([]*big.Int, 0, len(invoiceIDs))
	for _, raw := range invoiceIDs {
		id, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return "", fmt.Errorf("invoice id %q is not a contract id", raw)
		}
		ids = append(ids, id)
	}

	encoded, err := encodeUint256Array(ids)
	if err != nil {
		return "", err
	}

	return c.sendTransaction(ctx, c.contract, attachedValue, callData("payInvoices(uint256[])", encoded))
}

func (c *Client) sendTransaction(ctx context.Context, to string, value *big.Int, data string) (TxHandle, error) {
	tx := map[string]string{
		"from": c.account,
		"to":   to,
		"data": data,
	}
	if value != nil && value.Sign() > 0 {
		tx["value"] = hexQuantity(value)
	}

	result, err := c.Call(ctx, "eth_sendTransaction", []interface{}{tx})
	if err != nil {
		return "", err
	}

	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("unmarshal transaction hash: %w", err)
	}
	return TxHandle(txHash), nil
}

// AwaitConfirmation polls for a transaction receipt until it is available or
// the context is done. The first query happens immediately, then on a ticker.
// A missing receipt is treated as transient and retried until the wait
// timeout expires. A reverted transaction returns *RevertError.
func (c *Client) AwaitConfirmation(ctx context.Context, tx TxHandle) (*Receipt, error) {
	wctx, cancel := context.WithTimeout(ctx, DefaultTxWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(DefaultPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.transactionReceipt(wctx, tx)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			if !receipt.Status {
				return nil, &RevertError{TxHash: string(tx), Reason: c.revertReason(wctx, tx)}
			}
			return receipt, nil
		}

		// Not mined yet.
		select {
		case <-wctx.Done():
			return nil, fmt.Errorf("wait for %s: %w", tx, wctx.Err())
		case <-ticker.C:
		}
	}
}

type rawReceipt struct {
	TxHash      string `json:"transactionHash"`
	BlockNumber string `json:"blockNumber"`
	GasUsed     string `json:"gasUsed"`
	Status      string `json:"status"`
}

func (c *Client) transactionReceipt(ctx context.Context, tx TxHandle) (*Receipt, error) {
	result, err := c.Call(ctx, "eth_getTransactionReceipt", []interface{}{string(tx)})
	if err != nil {
		return nil, err
	}
	if string(result) == "null" || len(result) == 0 {
		return nil, nil
	}

	var raw rawReceipt
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}

	receipt := &Receipt{TxHash: raw.TxHash}
	if v, err := parseHexBig(raw.BlockNumber); err == nil {
		receipt.BlockNumber = v.Uint64()
	}
	if v, err := parseHexBig(raw.GasUsed); err == nil {
		receipt.GasUsed = v.Uint64()
	}
	if v, err := parseHexBig(raw.Status); err == nil {
		receipt.Status = v.Sign() != 0
	}
	return receipt, nil
}

// revertReason tries to recover a revert reason by replaying the transaction
// as a call. Best effort: an empty string means no reason was available.
func (c *Client) revertReason(ctx context.Context, tx TxHandle) string {
	result, err := c.Call(ctx, "eth_getTransactionByHash", []interface{}{string(tx)})
	if err != nil || string(result) == "null" {
		return ""
	}

	var stored struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Data  string `json:"input"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(result, &stored); err != nil {
		return ""
	}

	_, err = c.Call(ctx, "eth_call", []interface{}{
		map[string]string{"from": stored.From, "to": stored.To, "data": stored.Data, "value": stored.Value},
		"latest",
	})
	if rpcErr, ok := err.(*RPCError); ok {
		if rpcErr.Data != "" {
			return rpcErr.Data
		}
		return rpcErr.Message
	}
	return ""
}
