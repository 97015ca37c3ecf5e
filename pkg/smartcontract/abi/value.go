package abi

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/encoding/address"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// ParseValue converts a textual argument into a value accepted by Pack for
// the type. Integers are decimal or 0x-prefixed hex, byte arrays are hex.
func (t Type) ParseValue(s string) (any, error) {
	switch t.Kind {
	case UintKind, IntKind:
		v, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		if !fitsType(t, v) {
			return nil, fmt.Errorf("%s doesn't fit into %s", s, t)
		}
		if t.Kind == UintKind {
			u, _ := uint256.FromBig(v)
			return u, nil
		}
		return v, nil
	case AddressKind:
		return address.StringToUint160(s)
	case BoolKind:
		return strconv.ParseBool(s)
	case FixedBytesKind, BytesKind:
		b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return nil, err
		}
		if t.Kind == FixedBytesKind && len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes got %d", t.Size, len(b))
		}
		return b, nil
	case StringKind:
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}

// FormatValue returns the textual form of a decoded value.
func FormatValue(v any) string {
	switch x := v.(type) {
	case *uint256.Int:
		return x.Dec()
	case *big.Int:
		return x.String()
	case util.Uint160:
		return address.Uint160ToString(x)
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprint(v)
	}
}
