package transaction

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// ErrIncompleteRequest is returned when a request lacks fields needed to
// build or sign a transaction.
var ErrIncompleteRequest = errors.New("incomplete transaction request")

// Request is a transaction draft. Any field can be unset (nil) and filled
// later, either by the caller or by the actor from the node's recommendations.
// Setting GasPrice makes it a legacy transaction, setting GasFeeCap or
// GasTipCap makes it a dynamic fee one. Request is not safe for concurrent
// use; signing produces an immutable Transaction.
type Request struct {
	ChainID   *uint64
	Nonce     *uint64
	To        *util.Uint160
	Value     *uint256.Int
	Gas       *uint64
	GasPrice  *uint256.Int
	GasFeeCap *uint256.Int
	GasTipCap *uint256.Int
	Data      []byte
}

// NewTransferRequest creates a plain value transfer draft.
func NewTransferRequest(to util.Uint160, value *uint256.Int) *Request {
	return &Request{
		To:    &to,
		Value: new(uint256.Int).Set(value),
	}
}

// NewCallRequest creates a contract call draft with zero value.
func NewCallRequest(contract util.Uint160, data []byte) *Request {
	return &Request{
		To:    &contract,
		Value: new(uint256.Int),
		Data:  data,
	}
}

// WithChainID sets the chain id and returns the request.
func (r *Request) WithChainID(id uint64) *Request {
	r.ChainID = &id
	return r
}

// WithNonce sets the nonce and returns the request.
func (r *Request) WithNonce(n uint64) *Request {
	r.Nonce = &n
	return r
}

// WithGas sets the gas limit and returns the request.
func (r *Request) WithGas(gas uint64) *Request {
	r.Gas = &gas
	return r
}

// WithGasPrice makes the request a legacy one with the given gas price.
func (r *Request) WithGasPrice(price *uint256.Int) *Request {
	r.GasPrice = copyInt(price)
	r.GasFeeCap, r.GasTipCap = nil, nil
	return r
}

// WithDynamicFee makes the request an EIP-1559 one with the given fee cap and
// priority fee (tip).
func (r *Request) WithDynamicFee(feeCap, tip *uint256.Int) *Request {
	r.GasPrice = nil
	r.GasFeeCap, r.GasTipCap = copyInt(feeCap), copyInt(tip)
	return r
}

// WithData sets the call data and returns the request.
func (r *Request) WithData(data []byte) *Request {
	r.Data = data
	return r
}

// Type returns the type of the transaction this request produces.
func (r *Request) Type() Type {
	if r.GasFeeCap != nil || r.GasTipCap != nil {
		return DynamicFeeTxType
	}
	return LegacyTxType
}

// Validate checks that all fields needed for signing are set.
func (r *Request) Validate() error {
	var missing []string
	if r.To == nil {
		missing = append(missing, "recipient")
	}
	if r.Value == nil {
		missing = append(missing, "value")
	}
	if r.ChainID == nil {
		missing = append(missing, "chain id")
	}
	if r.Nonce == nil {
		missing = append(missing, "nonce")
	}
	if r.Gas == nil {
		missing = append(missing, "gas limit")
	}
	switch r.Type() {
	case LegacyTxType:
		if r.GasPrice == nil {
			missing = append(missing, "gas price")
		}
	case DynamicFeeTxType:
		if r.GasPrice != nil {
			return fmt.Errorf("%w: both gas price and fee caps are set", ErrIncompleteRequest)
		}
		if r.GasFeeCap == nil {
			missing = append(missing, "max fee per gas")
		}
		if r.GasTipCap == nil {
			missing = append(missing, "max priority fee per gas")
		}
		if r.GasFeeCap != nil && r.GasTipCap != nil && r.GasTipCap.Gt(r.GasFeeCap) {
			return fmt.Errorf("%w: priority fee %s exceeds max fee %s", ErrIncompleteRequest, r.GasTipCap.Dec(), r.GasFeeCap.Dec())
		}
	}
	if len(missing) != 0 {
		return fmt.Errorf("%w: missing %v", ErrIncompleteRequest, missing)
	}
	return nil
}

// Copy returns a deep copy of the request.
func (r *Request) Copy() *Request {
	var c = new(Request)
	if r.ChainID != nil {
		c.ChainID = ptr(*r.ChainID)
	}
	if r.Nonce != nil {
		c.Nonce = ptr(*r.Nonce)
	}
	if r.Gas != nil {
		c.Gas = ptr(*r.Gas)
	}
	if r.To != nil {
		c.To = ptr(*r.To)
	}
	c.Value = copyInt(r.Value)
	c.GasPrice = copyInt(r.GasPrice)
	c.GasFeeCap = copyInt(r.GasFeeCap)
	c.GasTipCap = copyInt(r.GasTipCap)
	if r.Data != nil {
		c.Data = append([]byte{}, r.Data...)
	}
	return c
}

func ptr[T any](v T) *T {
	return &v
}

func copyInt(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}
