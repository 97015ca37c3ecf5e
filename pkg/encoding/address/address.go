/*
Package address implements the textual form of account addresses: 0x-prefixed
hex with the mixed-case EIP-55 checksum.
*/
package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/eth-go/pkg/crypto/hash"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// ErrInvalidAddress is returned for strings that are not valid addresses,
// including mixed-case strings with a wrong checksum.
var ErrInvalidAddress = errors.New("invalid address")

// Prefix is the hex prefix of textual addresses.
const Prefix = "0x"

// Uint160ToString returns the checksummed textual form of the given address.
func Uint160ToString(u util.Uint160) string {
	return EncodeUint160(u, true)
}

// EncodeUint160 returns the textual form of the given address, with EIP-55
// checksum casing if requested or all-lowercase otherwise.
func EncodeUint160(u util.Uint160, checksum bool) string {
	lower := u.StringBE()
	if !checksum {
		return Prefix + lower
	}
	return Prefix + string(checksumHex(lower))
}

// checksumHex applies EIP-55 casing to a lowercase 40-digit hex string.
func checksumHex(lower string) []byte {
	var (
		res = []byte(lower)
		h   = hash.Keccak256([]byte(lower))
	)
	for i, c := range res {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := h[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			res[i] = c - 'a' + 'A'
		}
	}
	return res
}

// StringToUint160 parses the textual form of an address. The 0x prefix is
// optional. All-lowercase and all-uppercase strings carry no checksum, any
// other casing is treated as EIP-55 checksum and must be valid.
func StringToUint160(s string) (util.Uint160, error) {
	var u util.Uint160

	body := strings.TrimPrefix(strings.TrimPrefix(s, Prefix), "0X")
	if len(body) != util.Uint160Size*2 {
		return u, fmt.Errorf("%w: %q has %d hex digits, expected %d", ErrInvalidAddress, s, len(body), util.Uint160Size*2)
	}
	b, err := hex.DecodeString(body)
	if err != nil {
		return u, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	lower := strings.ToLower(body)
	if body != lower && body != strings.ToUpper(body) && string(checksumHex(lower)) != body {
		return u, fmt.Errorf("%w: %q has bad checksum", ErrInvalidAddress, s)
	}
	copy(u[:], b)
	return u, nil
}

// IsChecksummed returns true if s is an address written with valid EIP-55
// casing.
func IsChecksummed(s string) bool {
	u, err := StringToUint160(s)
	if err != nil {
		return false
	}
	return Prefix+strings.TrimPrefix(s, Prefix) == Uint160ToString(u)
}
