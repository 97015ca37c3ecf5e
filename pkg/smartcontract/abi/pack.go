package abi

import (
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// WordSize is the size of an encoding slot.
const WordSize = 32

var (
	// ErrEncode is returned when arguments don't match declared types.
	ErrEncode = errors.New("abi encoding failed")
	// ErrDecode is returned when data doesn't match the declared shape.
	ErrDecode = errors.New("abi decoding failed")
)

var two256 = new(big.Int).Lsh(big.NewInt(1), 256)

// Pack encodes args according to types using the standard head/tail layout.
// Integers can be passed as *big.Int, *uint256.Int or any Go integer type,
// addresses as util.Uint160, fixed and dynamic byte arrays as []byte.
func Pack(types []Type, args ...any) ([]byte, error) {
	if len(args) != len(types) {
		return nil, fmt.Errorf("%w: %d arguments for %d parameters", ErrEncode, len(args), len(types))
	}
	var (
		headSize = WordSize * len(types)
		head     = make([]byte, 0, headSize)
		tail     []byte
	)
	for i, t := range types {
		if t.IsDynamic() {
			b, err := encodeDynamic(t, args[i])
			if err != nil {
				return nil, fmt.Errorf("%w: argument %d: %w", ErrEncode, i, err)
			}
			head = append(head, uintWord(uint64(headSize+len(tail)))...)
			tail = append(tail, b...)
			continue
		}
		w, err := encodeStatic(t, args[i])
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %w", ErrEncode, i, err)
		}
		head = append(head, w...)
	}
	return append(head, tail...), nil
}

func uintWord(v uint64) []byte {
	b := uint256.NewInt(v).Bytes32()
	return b[:]
}

func encodeStatic(t Type, arg any) ([]byte, error) {
	var w = make([]byte, WordSize)
	switch t.Kind {
	case UintKind, IntKind:
		v, err := toBig(arg)
		if err != nil {
			return nil, err
		}
		if !fitsType(t, v) {
			return nil, fmt.Errorf("%s doesn't fit into %s", v, t)
		}
		if v.Sign() < 0 {
			v = new(big.Int).Add(v, two256)
		}
		v.FillBytes(w)
	case AddressKind:
		var u util.Uint160
		switch a := arg.(type) {
		case util.Uint160:
			u = a
		case *util.Uint160:
			u = *a
		default:
			return nil, fmt.Errorf("%T is not an address", arg)
		}
		copy(w[WordSize-util.Uint160Size:], u[:])
	case BoolKind:
		b, ok := arg.(bool)
		if !ok {
			return nil, fmt.Errorf("%T is not a bool", arg)
		}
		if b {
			w[WordSize-1] = 1
		}
	case FixedBytesKind:
		b, ok := arg.([]byte)
		if !ok {
			return nil, fmt.Errorf("%T is not a byte slice", arg)
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes got %d", t.Size, len(b))
		}
		copy(w, b)
	default:
		return nil, fmt.Errorf("%s is not a static type", t)
	}
	return w, nil
}

func encodeDynamic(t Type, arg any) ([]byte, error) {
	var b []byte
	switch a := arg.(type) {
	case []byte:
		if t.Kind != BytesKind {
			return nil, fmt.Errorf("%T for %s", arg, t)
		}
		b = a
	case string:
		if t.Kind != StringKind {
			return nil, fmt.Errorf("%T for %s", arg, t)
		}
		if !utf8.ValidString(a) {
			return nil, errors.New("string is not valid UTF-8")
		}
		b = []byte(a)
	default:
		return nil, fmt.Errorf("%T for %s", arg, t)
	}
	res := make([]byte, 0, WordSize+padded(len(b)))
	res = append(res, uintWord(uint64(len(b)))...)
	res = append(res, b...)
	return append(res, make([]byte, padded(len(b))-len(b))...), nil
}

func padded(n int) int {
	return (n + WordSize - 1) / WordSize * WordSize
}

func toBig(arg any) (*big.Int, error) {
	switch v := arg.(type) {
	case *big.Int:
		if v == nil {
			return nil, errors.New("nil integer")
		}
		return new(big.Int).Set(v), nil
	case *uint256.Int:
		if v == nil {
			return nil, errors.New("nil integer")
		}
		return v.ToBig(), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("%T is not an integer", arg)
	}
}

// fitsType checks v against the integer range of t.
func fitsType(t Type, v *big.Int) bool {
	if t.Kind == UintKind {
		return v.Sign() >= 0 && v.BitLen() <= t.Size
	}
	if v.Sign() >= 0 {
		return v.BitLen() < t.Size
	}
	return new(big.Int).Not(v).BitLen() < t.Size
}
