package transaction

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/crypto/hash"
	"github.com/nspcc-dev/eth-go/pkg/crypto/keys"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// TransferGas is the gas consumed by a plain value transfer.
const TransferGas = 21000

// ErrInvalidEncoding is returned when raw transaction bytes can't be decoded.
var ErrInvalidEncoding = errors.New("invalid transaction encoding")

// Transaction is a signed transaction. It's immutable: all getters return
// copies and the encoding and hash are computed once on creation.
type Transaction struct {
	typ       Type
	chainID   uint64
	nonce     uint64
	gas       uint64
	to        util.Uint160
	value     *uint256.Int
	gasPrice  *uint256.Int
	gasFeeCap *uint256.Int
	gasTipCap *uint256.Int
	data      []byte
	sig       [keys.SignatureLen]byte

	raw  []byte
	hash util.Uint256
}

// New creates a signed transaction from a complete request and a 65-byte
// R||S||V signature of its SigningHash. The request is copied, so it can be
// reused by the caller.
func New(r *Request, sig []byte) (*Transaction, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if len(sig) != keys.SignatureLen || sig[keys.SignatureLen-1] > 1 {
		return nil, fmt.Errorf("%w: bad signature", keys.ErrInvalidSignature)
	}
	t := &Transaction{
		typ:     r.Type(),
		chainID: *r.ChainID,
		nonce:   *r.Nonce,
		gas:     *r.Gas,
		to:      *r.To,
		value:   copyInt(r.Value),
		data:    append([]byte{}, r.Data...),
	}
	if t.typ == LegacyTxType {
		t.gasPrice = copyInt(r.GasPrice)
	} else {
		t.gasFeeCap = copyInt(r.GasFeeCap)
		t.gasTipCap = copyInt(r.GasTipCap)
	}
	copy(t.sig[:], sig)
	if err := t.encode(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewTransactionFromBytes decodes a raw (EIP-2718 or EIP-155 legacy)
// transaction.
func NewTransactionFromBytes(b []byte) (*Transaction, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidEncoding)
	}
	var t = new(Transaction)
	switch {
	case b[0] >= 0xc0:
		var lt legacyTx
		if err := rlp.DecodeBytes(b, &lt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
		}
		if lt.V == nil || lt.V.Cmp(big.NewInt(35)) < 0 {
			return nil, fmt.Errorf("%w: transactions without chain id are not supported", ErrInvalidEncoding)
		}
		v := new(big.Int).Sub(lt.V, big.NewInt(35))
		recID := v.Bit(0)
		v.Rsh(v, 1)
		if !v.IsUint64() {
			return nil, fmt.Errorf("%w: chain id is too big", ErrInvalidEncoding)
		}
		t.typ = LegacyTxType
		t.chainID = v.Uint64()
		t.nonce, t.gasPrice, t.gas, t.value, t.data = lt.Nonce, lt.GasPrice, lt.Gas, lt.Value, lt.Data
		if err := t.setToAndSig(lt.To, lt.R, lt.S, uint64(recID)); err != nil {
			return nil, err
		}
	case Type(b[0]) == DynamicFeeTxType:
		var dt dynamicTx
		if err := rlp.DecodeBytes(b[1:], &dt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
		}
		if len(dt.AccessList) != 0 {
			return nil, fmt.Errorf("%w: access lists are not supported", ErrInvalidEncoding)
		}
		t.typ = DynamicFeeTxType
		t.chainID, t.nonce, t.gasTipCap, t.gasFeeCap = dt.ChainID, dt.Nonce, dt.GasTipCap, dt.GasFeeCap
		t.gas, t.value, t.data = dt.Gas, dt.Value, dt.Data
		if err := t.setToAndSig(dt.To, dt.R, dt.S, dt.V); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported type %d", ErrInvalidEncoding, b[0])
	}
	if err := t.encode(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transaction) setToAndSig(to []byte, r, s *uint256.Int, v uint64) error {
	var err error
	t.to, err = util.Uint160DecodeBytesBE(to)
	if err != nil {
		return fmt.Errorf("%w: recipient: %v", ErrInvalidEncoding, err)
	}
	if r == nil || s == nil || v > 1 {
		return fmt.Errorf("%w: bad signature values", ErrInvalidEncoding)
	}
	rb, sb := r.Bytes32(), s.Bytes32()
	copy(t.sig[:32], rb[:])
	copy(t.sig[32:64], sb[:])
	t.sig[64] = byte(v)
	return nil
}

// SigningHash returns the digest to be signed for the given request: EIP-155
// for legacy transactions and EIP-1559 for dynamic fee ones.
func SigningHash(r *Request) (util.Uint256, error) {
	if err := r.Validate(); err != nil {
		return util.Uint256{}, err
	}
	var (
		b   []byte
		err error
	)
	if r.Type() == LegacyTxType {
		b, err = rlp.EncodeToBytes(&legacySigning{
			Nonce:    *r.Nonce,
			GasPrice: r.GasPrice,
			Gas:      *r.Gas,
			To:       r.To.BytesBE(),
			Value:    r.Value,
			Data:     r.Data,
			ChainID:  *r.ChainID,
		})
	} else {
		b, err = encodeTyped(DynamicFeeTxType, &dynamicSigning{
			ChainID:   *r.ChainID,
			Nonce:     *r.Nonce,
			GasTipCap: r.GasTipCap,
			GasFeeCap: r.GasFeeCap,
			Gas:       *r.Gas,
			To:        r.To.BytesBE(),
			Value:     r.Value,
			Data:      r.Data,
		})
	}
	if err != nil {
		return util.Uint256{}, err
	}
	return hash.Keccak256(b), nil
}

func (t *Transaction) encode() error {
	var (
		r   = new(uint256.Int).SetBytes(t.sig[:32])
		s   = new(uint256.Int).SetBytes(t.sig[32:64])
		b   []byte
		err error
	)
	if t.typ == LegacyTxType {
		v := new(big.Int).SetUint64(t.chainID)
		v.Lsh(v, 1)
		v.Add(v, big.NewInt(35+int64(t.sig[64])))
		b, err = rlp.EncodeToBytes(&legacyTx{
			Nonce:    t.nonce,
			GasPrice: t.gasPrice,
			Gas:      t.gas,
			To:       t.to.BytesBE(),
			Value:    t.value,
			Data:     t.data,
			V:        v,
			R:        r,
			S:        s,
		})
	} else {
		b, err = encodeTyped(DynamicFeeTxType, &dynamicTx{
			ChainID:   t.chainID,
			Nonce:     t.nonce,
			GasTipCap: t.gasTipCap,
			GasFeeCap: t.gasFeeCap,
			Gas:       t.gas,
			To:        t.to.BytesBE(),
			Value:     t.value,
			Data:      t.data,
			V:         uint64(t.sig[64]),
			R:         r,
			S:         s,
		})
	}
	if err != nil {
		return fmt.Errorf("encoding transaction: %w", err)
	}
	t.raw = b
	t.hash = hash.Keccak256(b)
	return nil
}

func encodeTyped(typ Type, v any) ([]byte, error) {
	b, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(typ)}, b...), nil
}

// Type returns the transaction type.
func (t *Transaction) Type() Type { return t.typ }

// ChainID returns the chain id the transaction is bound to.
func (t *Transaction) ChainID() uint64 { return t.chainID }

// Nonce returns the sender's sequence number.
func (t *Transaction) Nonce() uint64 { return t.nonce }

// Gas returns the gas limit.
func (t *Transaction) Gas() uint64 { return t.gas }

// To returns the recipient address.
func (t *Transaction) To() util.Uint160 { return t.to }

// Value returns the amount of base units transferred.
func (t *Transaction) Value() *uint256.Int { return copyInt(t.value) }

// GasPrice returns the gas price of a legacy transaction or the max fee per
// gas of a dynamic fee one, that is the highest price the sender can pay.
func (t *Transaction) GasPrice() *uint256.Int {
	if t.typ == LegacyTxType {
		return copyInt(t.gasPrice)
	}
	return copyInt(t.gasFeeCap)
}

// GasFeeCap returns the max fee per gas (nil for legacy transactions).
func (t *Transaction) GasFeeCap() *uint256.Int { return copyInt(t.gasFeeCap) }

// GasTipCap returns the max priority fee per gas (nil for legacy
// transactions).
func (t *Transaction) GasTipCap() *uint256.Int { return copyInt(t.gasTipCap) }

// Data returns a copy of the call data.
func (t *Transaction) Data() []byte { return append([]byte{}, t.data...) }

// Signature returns a copy of the 65-byte R||S||V signature.
func (t *Transaction) Signature() []byte { return append([]byte{}, t.sig[:]...) }

// Hash returns the transaction id.
func (t *Transaction) Hash() util.Uint256 { return t.hash }

// Bytes returns the canonical encoding accepted by eth_sendRawTransaction.
func (t *Transaction) Bytes() []byte { return append([]byte{}, t.raw...) }

// Request returns a complete draft with the same fields as the transaction.
func (t *Transaction) Request() *Request {
	r := &Request{
		ChainID: ptr(t.chainID),
		Nonce:   ptr(t.nonce),
		Gas:     ptr(t.gas),
		To:      ptr(t.to),
		Value:   copyInt(t.value),
		Data:    t.Data(),
	}
	if t.typ == LegacyTxType {
		r.GasPrice = copyInt(t.gasPrice)
	} else {
		r.GasFeeCap = copyInt(t.gasFeeCap)
		r.GasTipCap = copyInt(t.gasTipCap)
	}
	return r
}

// Sender recovers the address that signed the transaction.
func (t *Transaction) Sender() (util.Uint160, error) {
	h, err := SigningHash(t.Request())
	if err != nil {
		return util.Uint160{}, err
	}
	return keys.RecoverAddress(h, t.sig[:])
}

// Cost returns the maximum amount the sender can be charged: value plus gas
// limit multiplied by the gas price (or max fee per gas).
func (t *Transaction) Cost() (*uint256.Int, error) {
	fee, err := Fee(t.GasPrice(), t.gas)
	if err != nil {
		return nil, err
	}
	return fixedn.AddChecked(fee, t.value)
}

// Fee returns gasPrice multiplied by gas, failing on overflow.
func Fee(gasPrice *uint256.Int, gas uint64) (*uint256.Int, error) {
	return fixedn.MulChecked(gasPrice, uint256.NewInt(gas))
}
