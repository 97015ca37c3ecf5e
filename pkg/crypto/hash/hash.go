/*
Package hash contains the Keccak-256 hashing used for transaction ids,
address derivation, address checksums and contract method selectors.
*/
package hash

import (
	"github.com/nspcc-dev/eth-go/pkg/util"
	"golang.org/x/crypto/sha3"
)

// Keccak256 hashes the incoming byte slices (concatenated) using the legacy
// Keccak-256 function (not the finalized SHA3-256).
func Keccak256(data ...[]byte) util.Uint256 {
	var h util.Uint256
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		_, _ = d.Write(b)
	}
	d.Sum(h[:0])
	return h
}

// Keccak256Bytes is the same as Keccak256, but returns a byte slice.
func Keccak256Bytes(data ...[]byte) []byte {
	h := Keccak256(data...)
	return h[:]
}

// Selector returns the first four bytes of Keccak256 of the given string,
// it's used to identify contract methods and errors by their signature.
func Selector(signature string) [4]byte {
	var s [4]byte
	h := Keccak256([]byte(signature))
	copy(s[:], h[:4])
	return s
}
