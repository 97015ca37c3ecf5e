package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/nspcc-dev/eth-go/pkg/util/slice"
)

const (
	// PrivateKeyLen is the length of the raw private key.
	PrivateKeyLen = 32
	// SignatureLen is the length of the recoverable R||S||V signature.
	SignatureLen = 65
	// compactRecoveryBase is the header byte offset used by the compact
	// signature format for uncompressed keys.
	compactRecoveryBase = 27
)

var (
	// ErrInvalidKey is returned for byte strings that are not valid secp256k1
	// private keys.
	ErrInvalidKey = errors.New("invalid private key")
	// ErrDestroyed is returned when a destroyed key is used.
	ErrDestroyed = errors.New("private key is destroyed")
)

// PrivateKey is a secp256k1 private key. It never exposes its raw material:
// String and GoString print the corresponding address only, MarshalJSON
// always fails.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// NewPrivateKey creates a new random private key.
func NewPrivateKey() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: k}, nil
}

// NewPrivateKeyFromHex returns a PrivateKey created from the given hex string,
// 0x prefix is optional.
func NewPrivateKeyFromHex(str string) (*PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(str), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: not a hex string", ErrInvalidKey)
	}
	defer slice.Clean(b)
	return NewPrivateKeyFromBytes(b)
}

// NewPrivateKeyFromBytes returns a PrivateKey from the given 32 bytes. The key
// must be within [1, n-1] where n is the curve order.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeyLen {
		return nil, fmt.Errorf("%w: expected %d bytes got %d", ErrInvalidKey, PrivateKeyLen, len(b))
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
		return nil, fmt.Errorf("%w: out of curve order range", ErrInvalidKey)
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(&s)}, nil
}

// PublicKey derives the public key from the private key.
func (p *PrivateKey) PublicKey() *PublicKey {
	if p.key == nil {
		return nil
	}
	return &PublicKey{key: p.key.PubKey()}
}

// Address returns the account address of the key.
func (p *PrivateKey) Address() util.Uint160 {
	pub := p.PublicKey()
	if pub == nil {
		return util.Uint160{}
	}
	return pub.Address()
}

// SignHash signs the given 32-byte digest and returns a 65-byte R||S||V
// signature where V is the recovery id (0 or 1). Signatures are deterministic
// (RFC6979) and use the low-S form.
func (p *PrivateKey) SignHash(digest util.Uint256) ([]byte, error) {
	if p.key == nil {
		return nil, ErrDestroyed
	}
	compact := ecdsa.SignCompact(p.key, digest[:], false)
	sig := make([]byte, SignatureLen)
	copy(sig, compact[1:])
	sig[SignatureLen-1] = compact[0] - compactRecoveryBase
	return sig, nil
}

// Destroy zeroes the key material, the key can't be used after this call.
func (p *PrivateKey) Destroy() {
	if p.key != nil {
		p.key.Zero()
		p.key = nil
	}
}

// String implements the stringer interface, it returns the address of the
// key, never the key itself.
func (p *PrivateKey) String() string {
	if p.key == nil {
		return "<destroyed key>"
	}
	return "key for " + p.Address().String()
}

// GoString implements fmt.GoStringer, see String.
func (p *PrivateKey) GoString() string {
	return p.String()
}

// MarshalJSON refuses to serialize the key.
func (p *PrivateKey) MarshalJSON() ([]byte, error) {
	return nil, errors.New("private key can't be serialized")
}
