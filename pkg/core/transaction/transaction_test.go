package transaction

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/crypto/keys"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eip155Request is the example transaction from EIP-155.
func eip155Request(t *testing.T) *Request {
	to, err := util.Uint160DecodeStringBE(strings.Repeat("35", 20))
	require.NoError(t, err)
	value, err := uint256.FromDecimal("1000000000000000000")
	require.NoError(t, err)
	return &Request{
		ChainID:  ptr[uint64](1),
		Nonce:    ptr[uint64](9),
		Gas:      ptr[uint64](21000),
		GasPrice: uint256.NewInt(20000000000),
		To:       &to,
		Value:    value,
	}
}

func sign(t *testing.T, k *keys.PrivateKey, r *Request) *Transaction {
	h, err := SigningHash(r)
	require.NoError(t, err)
	sig, err := k.SignHash(h)
	require.NoError(t, err)
	tx, err := New(r, sig)
	require.NoError(t, err)
	return tx
}

func TestEIP155Legacy(t *testing.T) {
	k, err := keys.NewPrivateKeyFromHex(strings.Repeat("46", 32))
	require.NoError(t, err)
	r := eip155Request(t)

	h, err := SigningHash(r)
	require.NoError(t, err)
	assert.Equal(t, "daf5a779ae972f972197303d7b574746c7ef83eadac0f2791ad23db92e4c8e53", h.StringBE())

	tx := sign(t, k, r)
	assert.Equal(t, "f86c098504a817c800825208943535353535353535353535353535353535353535880de0b6b3a7640000"+
		"8025a028ef61340bd939bc2195fe537567866003e1a15d3c71ff63e1590620aa636276a067cbe9d8997f761aecb703304b3800ccf555c9f3dc64214b297fb1966a3b6d83",
		hex.EncodeToString(tx.Bytes()))
	assert.Equal(t, LegacyTxType, tx.Type())

	sender, err := tx.Sender()
	require.NoError(t, err)
	assert.Equal(t, k.Address(), sender)

	decoded, err := NewTransactionFromBytes(tx.Bytes())
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), decoded.Hash())
	assert.Equal(t, uint64(1), decoded.ChainID())
	assert.Equal(t, uint64(9), decoded.Nonce())
	assert.Equal(t, tx.Signature(), decoded.Signature())
}

func TestDynamicFee(t *testing.T) {
	k, err := keys.NewPrivateKeyFromHex("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)
	r := eip155Request(t)
	r.ChainID = ptr[uint64](421614)
	r.GasPrice = nil
	r.GasFeeCap = uint256.NewInt(200000000)
	r.GasTipCap = uint256.NewInt(1)
	r.Data = []byte{0xa9, 0x05, 0x9c, 0xbb}

	tx := sign(t, k, r)
	raw := tx.Bytes()
	require.Equal(t, byte(DynamicFeeTxType), raw[0])
	assert.Equal(t, DynamicFeeTxType, tx.Type())

	sender, err := tx.Sender()
	require.NoError(t, err)
	assert.Equal(t, k.Address(), sender)

	decoded, err := NewTransactionFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), decoded.Hash())
	assert.Equal(t, uint64(421614), decoded.ChainID())
	assert.Equal(t, r.Data, decoded.Data())
	assert.Equal(t, uint64(200000000), decoded.GasFeeCap().Uint64())
	assert.Equal(t, uint64(1), decoded.GasTipCap().Uint64())
	assert.Equal(t, decoded.GasFeeCap(), decoded.GasPrice())
	assert.Equal(t, r, decoded.Request())
}

func TestTransactionImmutable(t *testing.T) {
	k, err := keys.NewPrivateKey()
	require.NoError(t, err)
	r := eip155Request(t)
	tx := sign(t, k, r)
	h := tx.Hash()

	r.Value.SetUint64(1)
	*r.Nonce = 100
	tx.Value().SetUint64(2)
	tx.Bytes()[0] = 0
	tx.Signature()[0] ^= 0xff

	assert.Equal(t, "1000000000000000000", tx.Value().Dec())
	assert.Equal(t, uint64(9), tx.Nonce())
	assert.Equal(t, h, tx.Hash())
	sender, err := tx.Sender()
	require.NoError(t, err)
	assert.Equal(t, k.Address(), sender)
}

func TestValidate(t *testing.T) {
	r := eip155Request(t)
	require.NoError(t, r.Validate())

	incomplete := []func(r *Request){
		func(r *Request) { r.To = nil },
		func(r *Request) { r.Value = nil },
		func(r *Request) { r.Nonce = nil },
		func(r *Request) { r.ChainID = nil },
		func(r *Request) { r.Gas = nil },
		func(r *Request) { r.GasPrice = nil },
		func(r *Request) { r.GasFeeCap = uint256.NewInt(1) },
		func(r *Request) { r.GasPrice, r.GasFeeCap = nil, uint256.NewInt(1) },
		func(r *Request) { r.GasPrice, r.GasFeeCap, r.GasTipCap = nil, uint256.NewInt(1), uint256.NewInt(2) },
	}
	for i, f := range incomplete {
		c := r.Copy()
		f(c)
		require.ErrorIs(t, c.Validate(), ErrIncompleteRequest, i)
		_, err := SigningHash(c)
		require.ErrorIs(t, err, ErrIncompleteRequest, i)
		_, err = New(c, make([]byte, keys.SignatureLen))
		require.ErrorIs(t, err, ErrIncompleteRequest, i)
	}
}

func TestNewBadSignature(t *testing.T) {
	r := eip155Request(t)
	_, err := New(r, make([]byte, 64))
	require.ErrorIs(t, err, keys.ErrInvalidSignature)
	sig := make([]byte, 65)
	sig[64] = 2
	_, err = New(r, sig)
	require.ErrorIs(t, err, keys.ErrInvalidSignature)
}

func TestDecodeErrors(t *testing.T) {
	for name, s := range map[string]string{
		"empty":        "",
		"unknown type": "01c0",
		"garbage":      "02ff",
		"bad list":     "c3010203",
		"unprotected":  "f85f800182520894095e7baea6a6c7c4c2dfeb977efac326af552d870a801ba048b55bfa915ac795c431978d8a6a992b628d557da5ff759b307d495a36649353a01fffd310ac743f371de3b9f7f9cb56c0b28ad43601b4ab949f53faa07bd2c804",
	} {
		t.Run(name, func(t *testing.T) {
			b, err := hex.DecodeString(s)
			require.NoError(t, err)
			_, err = NewTransactionFromBytes(b)
			require.ErrorIs(t, err, ErrInvalidEncoding)
		})
	}
}

func TestFeeAndCost(t *testing.T) {
	fee, err := Fee(uint256.NewInt(100000000), TransferGas)
	require.NoError(t, err)
	assert.Equal(t, uint64(2100000000000), fee.Uint64())
	assert.Equal(t, "0.0000021", fixedn.ToString(fee, fixedn.EtherDecimals))

	_, err = Fee(new(uint256.Int).SetAllOne(), 2)
	require.ErrorIs(t, err, fixedn.ErrOverflow)

	k, err := keys.NewPrivateKey()
	require.NoError(t, err)
	tx := sign(t, k, eip155Request(t))
	cost, err := tx.Cost()
	require.NoError(t, err)
	assert.Equal(t, "1000420000000000000", cost.Dec())

	r := eip155Request(t)
	r.Value = new(uint256.Int).SetAllOne()
	tx = sign(t, k, r)
	_, err = tx.Cost()
	require.ErrorIs(t, err, fixedn.ErrOverflow)
}

func TestRequestHelpers(t *testing.T) {
	to := util.Uint160{1, 2, 3}
	r := NewTransferRequest(to, uint256.NewInt(5))
	assert.Equal(t, LegacyTxType, r.Type())
	assert.Equal(t, to, *r.To)

	c := NewCallRequest(to, []byte{1})
	assert.True(t, c.Value.IsZero())
	r.GasTipCap = uint256.NewInt(1)
	assert.Equal(t, DynamicFeeTxType, r.Type())
	assert.Equal(t, "dynamic-fee", r.Type().String())
	assert.Equal(t, "unknown(7)", Type(7).String())

	cp := r.Copy()
	assert.Equal(t, r, cp)
	cp.Value.SetUint64(6)
	assert.Equal(t, uint64(5), r.Value.Uint64())
}

func TestRequestBuilders(t *testing.T) {
	r := NewTransferRequest(util.Uint160{1}, uint256.NewInt(5)).
		WithChainID(1).
		WithNonce(2).
		WithGas(TransferGas).
		WithDynamicFee(uint256.NewInt(10), uint256.NewInt(1))
	require.NoError(t, r.Validate())
	require.Equal(t, DynamicFeeTxType, r.Type())

	r.WithGasPrice(uint256.NewInt(3))
	require.NoError(t, r.Validate())
	require.Equal(t, LegacyTxType, r.Type())
	require.Nil(t, r.GasFeeCap)

	r.WithData([]byte{0xaa})
	require.Equal(t, []byte{0xaa}, r.Data)
}
