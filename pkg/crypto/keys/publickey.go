package keys

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/nspcc-dev/eth-go/pkg/crypto/hash"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// ErrInvalidSignature is returned for signatures that can't be used to recover
// a public key.
var ErrInvalidSignature = errors.New("invalid signature")

// PublicKey is a secp256k1 public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// NewPublicKeyFromBytes parses compressed or uncompressed public key bytes.
func NewPublicKeyFromBytes(b []byte) (*PublicKey, error) {
	k, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, err
	}
	return &PublicKey{key: k}, nil
}

// Bytes returns the 65-byte uncompressed encoding of the key.
func (p *PublicKey) Bytes() []byte {
	return p.key.SerializeUncompressed()
}

// Address returns the account address for the key: last 20 bytes of Keccak256
// of the uncompressed key without its format byte.
func (p *PublicKey) Address() util.Uint160 {
	var u util.Uint160
	h := hash.Keccak256(p.Bytes()[1:])
	copy(u[:], h[util.Uint256Size-util.Uint160Size:])
	return u
}

// Equal returns true if both keys are the same.
func (p *PublicKey) Equal(other *PublicKey) bool {
	return p.key.IsEqual(other.key)
}

// RecoverPublicKey recovers the signer's public key from the digest and a
// 65-byte R||S||V signature.
func RecoverPublicKey(digest util.Uint256, sig []byte) (*PublicKey, error) {
	if len(sig) != SignatureLen {
		return nil, fmt.Errorf("%w: expected %d bytes got %d", ErrInvalidSignature, SignatureLen, len(sig))
	}
	if sig[SignatureLen-1] > 1 {
		return nil, fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, sig[SignatureLen-1])
	}
	compact := make([]byte, SignatureLen)
	compact[0] = sig[SignatureLen-1] + compactRecoveryBase
	copy(compact[1:], sig[:SignatureLen-1])
	k, _, err := ecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return &PublicKey{key: k}, nil
}

// RecoverAddress is the same as RecoverPublicKey, but returns the address.
func RecoverAddress(digest util.Uint256, sig []byte) (util.Uint160, error) {
	pub, err := RecoverPublicKey(digest, sig)
	if err != nil {
		return util.Uint160{}, err
	}
	return pub.Address(), nil
}
