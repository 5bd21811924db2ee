package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// wordSize is the EVM ABI word width in bytes.
const wordSize = 32

// selector returns the 4-byte function selector for a canonical signature.
func selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

// encodeAddress left-pads an address to one ABI word.
func encodeAddress(addr string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(addr), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if len(raw) != 20 {
		return nil, fmt.Errorf("invalid address %q: %d bytes", addr, len(raw))
	}
	word := make([]byte, wordSize)
	copy(word[wordSize-len(raw):], raw)
	return word, nil
}

// encodeUint256 left-pads a non-negative integer to one ABI word.
func encodeUint256(v *big.Int) ([]byte, error) {
	if v == nil || v.Sign() < 0 {
		return nil, fmt.Errorf("uint256 must be non-negative")
	}
	raw := v.Bytes()
	if len(raw) > wordSize {
		return nil, fmt.Errorf("uint256 overflow: %s", v)
	}
	word := make([]byte, wordSize)
	copy(word[wordSize-len(raw):], raw)
	return word, nil
}

// encodeUint256Array encodes a dynamic uint256[] argument: offset word,
// length word, then one word per element.
func encodeUint256Array(values []*big.Int) ([]byte, error) {
	out := make([]byte, 0, (2+len(values))*wordSize)

	offset, err := encodeUint256(big.NewInt(wordSize))
	if err != nil {
		return nil, err
	}
	out = append(out, offset...)

	length, err := encodeUint256(big.NewInt(int64(len(values))))
	if err != nil {
		return nil, err
	}
	out = append(out, length...)

	for _, v := range values {
		word, err := encodeUint256(v)
		if err != nil {
			return nil, err
		}
		out = append(out, word...)
	}
	return out, nil
}

// callData assembles selector + arguments into a 0x-prefixed hex string.
func callData(sig string, args ...[]byte) string {
	data := selector(sig)
	for _, a := range args {
		data = append(data, a...)
	}
	return "0x" + hex.EncodeToString(data)
}

// decodeUint256Result parses a single ABI word returned by eth_call.
func decodeUint256Result(hexData string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(hexData, "0x")
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid call result: %w", err)
	}
	if len(raw) > wordSize {
		raw = raw[:wordSize]
	}
	return new(big.Int).SetBytes(raw), nil
}

// hexQuantity formats a big integer as a 0x-prefixed quantity.
func hexQuantity(v *big.Int) string {
	if v == nil || v.Sign() == 0 {
		return "0x0"
	}
	return "0x" + v.Text(16)
}
