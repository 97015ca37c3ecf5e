package abi

import (
	"bytes"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// Unpack decodes data according to types. Decoding is strict: the data must
// have exactly the length implied by the types and values, every value must
// fit its declared width and padding must be zeroed; any violation is
// ErrDecode. Unsigned integers are returned as *uint256.Int, signed ones as
// *big.Int, addresses as util.Uint160, byte arrays as []byte.
func Unpack(types []Type, data []byte) ([]any, error) {
	var (
		headSize = WordSize * len(types)
		end      = headSize
		res      = make([]any, len(types))
	)
	if len(data) < headSize {
		return nil, fmt.Errorf("%w: %d bytes is too short for %d values", ErrDecode, len(data), len(types))
	}
	for i, t := range types {
		word := data[i*WordSize : (i+1)*WordSize]
		if !t.IsDynamic() {
			v, err := decodeStatic(t, word)
			if err != nil {
				return nil, fmt.Errorf("%w: value %d: %w", ErrDecode, i, err)
			}
			res[i] = v
			continue
		}
		v, last, err := decodeDynamic(t, data, word)
		if err != nil {
			return nil, fmt.Errorf("%w: value %d: %w", ErrDecode, i, err)
		}
		res[i] = v
		end = max(end, last)
	}
	if end != len(data) {
		return nil, fmt.Errorf("%w: expected %d bytes got %d", ErrDecode, end, len(data))
	}
	return res, nil
}

func decodeStatic(t Type, w []byte) (any, error) {
	switch t.Kind {
	case UintKind:
		v := new(uint256.Int).SetBytes(w)
		if v.BitLen() > t.Size {
			return nil, fmt.Errorf("value overflows %s", t)
		}
		return v, nil
	case IntKind:
		v := new(big.Int).SetBytes(w)
		if w[0]&0x80 != 0 {
			v.Sub(v, two256)
		}
		if !fitsType(t, v) {
			return nil, fmt.Errorf("value overflows %s", t)
		}
		return v, nil
	case AddressKind:
		if !isZero(w[:WordSize-util.Uint160Size]) {
			return nil, fmt.Errorf("dirty address padding")
		}
		var u util.Uint160
		copy(u[:], w[WordSize-util.Uint160Size:])
		return u, nil
	case BoolKind:
		if !isZero(w[:WordSize-1]) || w[WordSize-1] > 1 {
			return nil, fmt.Errorf("invalid bool")
		}
		return w[WordSize-1] == 1, nil
	case FixedBytesKind:
		if !isZero(w[t.Size:]) {
			return nil, fmt.Errorf("dirty %s padding", t)
		}
		return bytes.Clone(w[:t.Size]), nil
	default:
		return nil, fmt.Errorf("%s is not a static type", t)
	}
}

// decodeDynamic returns the value referenced by the offset word and the end of
// its padded tail.
func decodeDynamic(t Type, data []byte, offWord []byte) (any, int, error) {
	off, err := smallInt(offWord, len(data))
	if err != nil {
		return nil, 0, fmt.Errorf("offset: %w", err)
	}
	if off%WordSize != 0 || off+WordSize > len(data) {
		return nil, 0, fmt.Errorf("offset %d is out of bounds", off)
	}
	n, err := smallInt(data[off:off+WordSize], len(data))
	if err != nil {
		return nil, 0, fmt.Errorf("length: %w", err)
	}
	start := off + WordSize
	last := start + padded(n)
	if last > len(data) {
		return nil, 0, fmt.Errorf("length %d is out of bounds", n)
	}
	if !isZero(data[start+n : last]) {
		return nil, 0, fmt.Errorf("dirty %s padding", t)
	}
	b := bytes.Clone(data[start : start+n])
	if t.Kind == StringKind {
		if !utf8.Valid(b) {
			return nil, 0, fmt.Errorf("string is not valid UTF-8")
		}
		return string(b), last, nil
	}
	return b, last, nil
}

func smallInt(w []byte, limit int) (int, error) {
	v := new(uint256.Int).SetBytes(w)
	if !v.IsUint64() || v.Uint64() > uint64(limit) {
		return 0, fmt.Errorf("%s exceeds data size", v.Dec())
	}
	return int(v.Uint64()), nil
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
