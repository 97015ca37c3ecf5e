package ethrpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// ErrQuantityOverflow is returned for quantities that don't fit into 256 bits.
var ErrQuantityOverflow = errors.New("quantity overflows 256 bits")

// FromHexBig converts a decoded hex quantity into a 256-bit integer. Nil
// input produces nil output.
func FromHexBig(b *hexutil.Big) (*uint256.Int, error) {
	if b == nil {
		return nil, nil
	}
	v, overflow := uint256.FromBig(b.ToInt())
	if overflow || b.ToInt().Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrQuantityOverflow, b.String())
	}
	return v, nil
}

// EncodeQuantity returns the hex quantity representation of v.
func EncodeQuantity(v *uint256.Int) string {
	return v.Hex()
}

// DecodeQuantity decodes a JSON-encoded hex quantity into a 256-bit integer.
func DecodeQuantity(data json.RawMessage) (*uint256.Int, error) {
	var b hexutil.Big
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return FromHexBig(&b)
}

// DecodeUint64 decodes a JSON-encoded hex quantity into uint64.
func DecodeUint64(data json.RawMessage) (uint64, error) {
	var v hexutil.Uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, err
	}
	return uint64(v), nil
}
