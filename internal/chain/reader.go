package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
)

// Token read methods use eth_call against the token contract with the
// standard ERC-20 selectors.

// NativeBalance returns the native-currency balance of an account.
func (c *Client) NativeBalance(ctx context.Context, account string) (*big.Int, error) {
	return c.callResultBig(ctx, "eth_getBalance", []interface{}{account, "latest"})
}

// TokenBalance returns the token balance of an account.
func (c *Client) TokenBalance(ctx context.Context, token, account string) (*big.Int, error) {
	holder, err := encodeAddress(account)
	if err != nil {
		return nil, err
	}
	return c.ethCallUint(ctx, token, callData("balanceOf(address)", holder))
}

// TokenDecimals returns the declared decimal count of a token.
func (c *Client) TokenDecimals(ctx context.Context, token string) (int, error) {
	value, err := c.ethCallUint(ctx, token, callData("decimals()"))
	if err != nil {
		return 0, err
	}
	if !value.IsInt64() || value.Int64() > 77 {
		return 0, fmt.Errorf("implausible decimals for %s: %s", token, value)
	}
	return int(value.Int64()), nil
}

// Allowance returns the amount the spender may move on the owner's behalf.
func (c *Client) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	ownerWord, err := encodeAddress(owner)
	if err != nil {
		return nil, err
	}
	spenderWord, err := encodeAddress(spender)
	if err != nil {
		return nil, err
	}
	return c.ethCallUint(ctx, token, callData("allowance(address,address)", ownerWord, spenderWord))
}

// ethCallUint performs a read-only eth_call and decodes a uint256 result.
func (c *Client) ethCallUint(ctx context.Context, to, data string) (*big.Int, error) {
	result, err := c.Call(ctx, "eth_call", []interface{}{
		map[string]string{"to": to, "data": data},
		"latest",
	})
	if err != nil {
		return nil, err
	}
	var hexData string
	if err := json.Unmarshal(result, &hexData); err != nil {
		return nil, fmt.Errorf("unmarshal eth_call result: %w", err)
	}
	return decodeUint256Result(hexData)
}
