package actor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
)

// FeeModel selects the kind of fees Actor fills in.
type FeeModel byte

const (
	// FeeModelAuto uses dynamic fees if the latest block has a base fee and
	// legacy gas price otherwise.
	FeeModelAuto FeeModel = iota
	// FeeModelLegacy always uses the node's recommended gas price.
	FeeModelLegacy
	// FeeModelDynamic always uses EIP-1559 fee caps.
	FeeModelDynamic
)

// ErrNoBaseFee is returned when dynamic fees are requested from a node that
// doesn't support them.
var ErrNoBaseFee = errors.New("latest block has no base fee")

// String implements the fmt.Stringer interface.
func (m FeeModel) String() string {
	switch m {
	case FeeModelAuto:
		return "auto"
	case FeeModelLegacy:
		return "legacy"
	case FeeModelDynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("unknown(%d)", byte(m))
	}
}

// ParseFeeModel is the inverse of FeeModel.String, an empty string is auto.
func ParseFeeModel(s string) (FeeModel, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FeeModelAuto, nil
	case "legacy":
		return FeeModelLegacy, nil
	case "dynamic", "eip1559", "eip-1559":
		return FeeModelDynamic, nil
	default:
		return 0, fmt.Errorf("unknown fee model %q", s)
	}
}

// TransactionModifier is a callback that receives a filled request before
// it's signed. It can check fees and other fields and return an error if
// there is anything wrong which will abort the process. It can also change
// fields taking full responsibility on the effects of these modifications.
type TransactionModifier func(r *transaction.Request) error

// DefaultModifier is the default modifier, it does nothing.
func DefaultModifier(r *transaction.Request) error {
	return nil
}

// Fill completes the request with the values recommended by the node: chain
// id, nonce (pending transaction count of the sender), fees and gas limit.
// Fields that are already set are never changed. Requests without a
// recipient are rejected with transaction.ErrIncompleteRequest before any
// network call, so are plain transfers without value; calls with data get
// zero value by default.
func (a *Actor) Fill(ctx context.Context, r *transaction.Request) error {
	if r.To == nil {
		return fmt.Errorf("%w: missing recipient", transaction.ErrIncompleteRequest)
	}
	if r.Value == nil {
		if len(r.Data) == 0 {
			return fmt.Errorf("%w: missing value", transaction.ErrIncompleteRequest)
		}
		r.Value = new(uint256.Int)
	}
	if r.ChainID == nil {
		id := a.chainID
		r.ChainID = &id
	}
	if r.Nonce == nil {
		n, err := a.client.GetTransactionCount(ctx, a.Sender(), true)
		if err != nil {
			return fmt.Errorf("nonce: %w", err)
		}
		r.Nonce = &n
	}
	if err := a.fillFees(ctx, r); err != nil {
		return fmt.Errorf("fees: %w", err)
	}
	if r.Gas == nil {
		gas, err := a.gasLimit(ctx, r)
		if err != nil {
			return fmt.Errorf("gas limit: %w", err)
		}
		r.Gas = &gas
	}
	return nil
}

func (a *Actor) fillFees(ctx context.Context, r *transaction.Request) error {
	switch {
	case r.GasPrice != nil:
		return nil
	case r.GasFeeCap != nil || r.GasTipCap != nil:
		return a.fillDynamic(ctx, r)
	case a.opts.GasPrice != nil:
		r.GasPrice = new(uint256.Int).Set(a.opts.GasPrice)
		return nil
	case a.opts.MaxFeePerGas != nil || a.opts.MaxPriorityFeePerGas != nil:
		return a.fillDynamic(ctx, r)
	}
	switch a.opts.FeeModel {
	case FeeModelLegacy:
		return a.fillLegacy(ctx, r)
	case FeeModelDynamic:
		return a.fillDynamic(ctx, r)
	default:
		h, err := a.client.GetLatestHeader(ctx)
		if err != nil {
			return err
		}
		if h.BaseFee == nil {
			return a.fillLegacy(ctx, r)
		}
		return a.fillDynamicWithBase(ctx, r, h.BaseFee)
	}
}

func (a *Actor) fillLegacy(ctx context.Context, r *transaction.Request) error {
	p, err := a.client.GetGasPrice(ctx)
	if err != nil {
		return err
	}
	r.GasPrice = p
	return nil
}

func (a *Actor) fillDynamic(ctx context.Context, r *transaction.Request) error {
	if r.GasFeeCap != nil || a.opts.MaxFeePerGas != nil {
		// Base fee is only needed for the fee cap.
		return a.fillDynamicWithBase(ctx, r, nil)
	}
	h, err := a.client.GetLatestHeader(ctx)
	if err != nil {
		return err
	}
	if h.BaseFee == nil {
		return ErrNoBaseFee
	}
	return a.fillDynamicWithBase(ctx, r, h.BaseFee)
}

// fillDynamicWithBase fills missing fee caps, the fee cap defaults to twice
// the base fee plus tip which keeps the transaction valid for several full
// blocks of base fee growth.
func (a *Actor) fillDynamicWithBase(ctx context.Context, r *transaction.Request, baseFee *uint256.Int) error {
	if r.GasTipCap == nil {
		if a.opts.MaxPriorityFeePerGas != nil {
			r.GasTipCap = new(uint256.Int).Set(a.opts.MaxPriorityFeePerGas)
		} else {
			tip, err := a.client.GetMaxPriorityFeePerGas(ctx)
			if err != nil {
				return err
			}
			r.GasTipCap = tip
		}
	}
	if r.GasFeeCap == nil {
		if a.opts.MaxFeePerGas != nil {
			r.GasFeeCap = new(uint256.Int).Set(a.opts.MaxFeePerGas)
			return nil
		}
		doubled, err := fixedn.MulChecked(baseFee, uint256.NewInt(2))
		if err != nil {
			return err
		}
		r.GasFeeCap, err = fixedn.AddChecked(doubled, r.GasTipCap)
		if err != nil {
			return err
		}
	}
	return nil
}

// gasLimit estimates gas for calls and, if configured, for transfers; other
// transfers get the default gas limit.
func (a *Actor) gasLimit(ctx context.Context, r *transaction.Request) (uint64, error) {
	if len(r.Data) == 0 && !a.opts.EstimateGas {
		return a.opts.DefaultGas, nil
	}
	from := a.Sender()
	return a.client.EstimateGas(ctx, ethrpc.CallMsg{
		From:  &from,
		To:    r.To,
		Value: r.Value,
		Data:  r.Data,
	})
}

// EstimateFee returns the maximum fee the request can cost after filling: gas
// limit multiplied by the gas price (or fee cap for dynamic fee requests).
// The request itself is not changed.
func (a *Actor) EstimateFee(ctx context.Context, r *transaction.Request) (*uint256.Int, error) {
	c := r.Copy()
	if err := a.Fill(ctx, c); err != nil {
		return nil, err
	}
	price := c.GasPrice
	if c.Type() == transaction.DynamicFeeTxType {
		price = c.GasFeeCap
	}
	return transaction.Fee(price, *c.Gas)
}
