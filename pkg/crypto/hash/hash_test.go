package hash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeccak256(t *testing.T) {
	testCases := map[string]string{
		"":    "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		"abc": "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
	}
	for in, out := range testCases {
		h := Keccak256([]byte(in))
		assert.Equal(t, out, h.StringBE())
		assert.Equal(t, out, hex.EncodeToString(Keccak256Bytes([]byte(in))))
	}
}

func TestKeccak256Concat(t *testing.T) {
	assert.Equal(t, Keccak256([]byte("abc")), Keccak256([]byte("a"), []byte("bc")))
}

func TestSelector(t *testing.T) {
	testCases := map[string]string{
		"transfer(address,uint256)": "a9059cbb",
		"balanceOf(address)":        "70a08231",
		"decimals()":                "313ce567",
		"symbol()":                  "95d89b41",
		"name()":                    "06fdde03",
		"totalSupply()":             "18160ddd",
		"Error(string)":             "08c379a0",
	}
	for sig, sel := range testCases {
		s := Selector(sig)
		assert.Equal(t, sel, hex.EncodeToString(s[:]), sig)
	}
}
