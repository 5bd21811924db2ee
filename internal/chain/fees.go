package chain

import (
	"context"
	"math/big"
)

// FeePerInvoice reads the per-invoice network fee from the invoicing
// contract, in smallest native units.
func (c *Client) FeePerInvoice(ctx context.Context) (*big.Int, error) {
	return c.ethCallUint(ctx, c.contract, callData("feePerInvoice()"))
}
