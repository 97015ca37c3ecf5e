// Package testchain contains well-known keys and addresses used across tests.
package testchain

import (
	"github.com/nspcc-dev/eth-go/pkg/encoding/address"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

const (
	// ChainID is the chain id of the public test network the fixtures mimic.
	ChainID uint64 = 421614
	// PrivateKeyHex is a well-known test key, never use it with real funds.
	PrivateKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	// SenderAddressString is the checksummed address of PrivateKeyHex.
	SenderAddressString = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
	// RecipientAddressString is an arbitrary transfer recipient.
	RecipientAddressString = "0x3019826431baaacc91604a595791a2d84acf5a56"
	// TokenAddressString is an ERC-20 token contract address.
	TokenAddressString = "0x980b62da83eff3d4576c647993b0c1d7faf17c73"
)

// SenderAddress returns the address of PrivateKeyHex.
func SenderAddress() util.Uint160 {
	return mustDecode(SenderAddressString)
}

// RecipientAddress returns the parsed RecipientAddressString.
func RecipientAddress() util.Uint160 {
	return mustDecode(RecipientAddressString)
}

// TokenAddress returns the parsed TokenAddressString.
func TokenAddress() util.Uint160 {
	return mustDecode(TokenAddressString)
}

func mustDecode(s string) util.Uint160 {
	u, err := address.StringToUint160(s)
	if err != nil {
		panic(err)
	}
	return u
}
