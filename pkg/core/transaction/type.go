package transaction

import "fmt"

// Type is the EIP-2718 transaction type.
type Type byte

// Supported transaction types.
const (
	LegacyTxType     Type = 0x00
	DynamicFeeTxType Type = 0x02
)

// String implements the stringer interface.
func (t Type) String() string {
	switch t {
	case LegacyTxType:
		return "legacy"
	case DynamicFeeTxType:
		return "dynamic-fee"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}
