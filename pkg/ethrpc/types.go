/*
Package ethrpc contains a set of types used for JSON-RPC communication with
Ethereum-compatible nodes. It defines basic request/response types, node
errors and call parameters.
*/
package ethrpc

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

const (
	// JSONRPCVersion is the only JSON-RPC protocol version supported.
	JSONRPCVersion = "2.0"

	// BlockLatest refers to the latest block known to the node.
	BlockLatest = "latest"
	// BlockPending refers to the pending state including pool transactions.
	BlockPending = "pending"

	// SubscriptionMethod is the method name of subscription notifications.
	SubscriptionMethod = "eth_subscription"
)

type (
	// Request represents a JSON-RPC request. Params are always passed as an
	// array.
	Request struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  []any  `json:"params"`
		ID      uint64 `json:"id"`
	}

	// Header is a generic JSON-RPC 2.0 response header (ID and JSON-RPC version).
	Header struct {
		ID      json.RawMessage `json:"id"`
		JSONRPC string          `json:"jsonrpc"`
	}

	// HeaderAndError adds an Error (that can be empty) to the Header.
	HeaderAndError struct {
		Header
		Error *Error `json:"error,omitempty"`
	}

	// Response represents a standard raw JSON-RPC 2.0 response.
	Response struct {
		HeaderAndError
		Result json.RawMessage `json:"result,omitempty"`
	}

	// Notification is a subscription event. It looks like a request, but
	// doesn't have an ID.
	Notification struct {
		JSONRPC string             `json:"jsonrpc"`
		Method  string             `json:"method"`
		Params  SubscriptionResult `json:"params"`
	}

	// SubscriptionResult is the payload of a Notification.
	SubscriptionResult struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	}

	// CallMsg contains parameters of eth_call and eth_estimateGas. Unset
	// fields are omitted and picked by the node.
	CallMsg struct {
		From      *util.Uint160
		To        *util.Uint160
		Gas       uint64
		GasPrice  *uint256.Int
		GasFeeCap *uint256.Int
		GasTipCap *uint256.Int
		Value     *uint256.Int
		Data      []byte
	}

	callMsgAux struct {
		From      *util.Uint160   `json:"from,omitempty"`
		To        *util.Uint160   `json:"to,omitempty"`
		Gas       *hexutil.Uint64 `json:"gas,omitempty"`
		GasPrice  *hexutil.Big    `json:"gasPrice,omitempty"`
		GasFeeCap *hexutil.Big    `json:"maxFeePerGas,omitempty"`
		GasTipCap *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
		Value     *hexutil.Big    `json:"value,omitempty"`
		Data      hexutil.Bytes   `json:"data,omitempty"`
	}
)

// NewRequest creates a request with the given method and params.
func NewRequest(id uint64, method string, params ...any) *Request {
	if params == nil {
		params = []any{}
	}
	return &Request{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (c CallMsg) MarshalJSON() ([]byte, error) {
	aux := callMsgAux{
		From:      c.From,
		To:        c.To,
		GasPrice:  toHexBig(c.GasPrice),
		GasFeeCap: toHexBig(c.GasFeeCap),
		GasTipCap: toHexBig(c.GasTipCap),
		Value:     toHexBig(c.Value),
		Data:      c.Data,
	}
	if c.Gas != 0 {
		aux.Gas = (*hexutil.Uint64)(&c.Gas)
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (c *CallMsg) UnmarshalJSON(data []byte) error {
	var aux callMsgAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = CallMsg{From: aux.From, To: aux.To, Data: aux.Data}
	if aux.Gas != nil {
		c.Gas = uint64(*aux.Gas)
	}
	var err error
	for _, f := range []struct {
		src *hexutil.Big
		dst **uint256.Int
	}{{aux.GasPrice, &c.GasPrice}, {aux.GasFeeCap, &c.GasFeeCap}, {aux.GasTipCap, &c.GasTipCap}, {aux.Value, &c.Value}} {
		if *f.dst, err = FromHexBig(f.src); err != nil {
			return err
		}
	}
	return nil
}

func toHexBig(v *uint256.Int) *hexutil.Big {
	if v == nil {
		return nil
	}
	return (*hexutil.Big)(v.ToBig())
}
