package abi

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the kind of an ABI type.
type Kind byte

// Supported type kinds. Arrays and tuples are not supported.
const (
	UintKind Kind = iota
	IntKind
	AddressKind
	BoolKind
	FixedBytesKind
	BytesKind
	StringKind
)

// Type is an ABI value type. Size is the width in bits for integers and the
// length in bytes for fixed size byte arrays, it's zero for other kinds.
type Type struct {
	Kind Kind
	Size int
}

// Frequently used types.
var (
	Uint8   = Type{Kind: UintKind, Size: 8}
	Uint256 = Type{Kind: UintKind, Size: 256}
	Int256  = Type{Kind: IntKind, Size: 256}
	Address = Type{Kind: AddressKind}
	Bool    = Type{Kind: BoolKind}
	Bytes   = Type{Kind: BytesKind}
	String  = Type{Kind: StringKind}
)

// ParseType parses canonical Solidity type names like "uint256", "bytes32" or
// "address". "uint" and "int" are aliases for 256-bit integers.
func ParseType(s string) (Type, error) {
	switch s {
	case "address":
		return Address, nil
	case "bool":
		return Bool, nil
	case "bytes":
		return Bytes, nil
	case "string":
		return String, nil
	case "uint":
		return Uint256, nil
	case "int":
		return Int256, nil
	}
	var (
		kind   Kind
		suffix string
	)
	switch {
	case strings.HasPrefix(s, "uint"):
		kind, suffix = UintKind, s[4:]
	case strings.HasPrefix(s, "int"):
		kind, suffix = IntKind, s[3:]
	case strings.HasPrefix(s, "bytes"):
		kind, suffix = FixedBytesKind, s[5:]
	default:
		return Type{}, fmt.Errorf("unsupported type %q", s)
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || suffix[0] == '0' {
		return Type{}, fmt.Errorf("unsupported type %q", s)
	}
	t := Type{Kind: kind, Size: n}
	if err := t.validate(); err != nil {
		return Type{}, err
	}
	return t, nil
}

// MustParseType is the same as ParseType, but panics on error.
func MustParseType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Type) validate() error {
	switch t.Kind {
	case UintKind, IntKind:
		if t.Size < 8 || t.Size > 256 || t.Size%8 != 0 {
			return fmt.Errorf("invalid integer width %d", t.Size)
		}
	case FixedBytesKind:
		if t.Size < 1 || t.Size > 32 {
			return fmt.Errorf("invalid fixed bytes length %d", t.Size)
		}
	case AddressKind, BoolKind, BytesKind, StringKind:
	default:
		return fmt.Errorf("unknown kind %d", t.Kind)
	}
	return nil
}

// IsDynamic returns true for types encoded in the tail section.
func (t Type) IsDynamic() bool {
	return t.Kind == BytesKind || t.Kind == StringKind
}

// String returns the canonical type name.
func (t Type) String() string {
	switch t.Kind {
	case UintKind:
		return "uint" + strconv.Itoa(t.Size)
	case IntKind:
		return "int" + strconv.Itoa(t.Size)
	case AddressKind:
		return "address"
	case BoolKind:
		return "bool"
	case FixedBytesKind:
		return "bytes" + strconv.Itoa(t.Size)
	case BytesKind:
		return "bytes"
	case StringKind:
		return "string"
	default:
		return "unknown"
	}
}
