package ethrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nspcc-dev/eth-go/pkg/smartcontract/abi"
)

// Error is a JSON-RPC 2.0 error object returned by the node. It's the node
// error of the client: the request reached the node and was rejected.
type Error struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Standard and widely used node error codes.
const (
	ParseErrorCode      = -32700
	InvalidRequestCode  = -32600
	MethodNotFoundCode  = -32601
	InvalidParamsCode   = -32602
	InternalErrorCode   = -32603
	ServerErrorCode     = -32000
	ExecutionRevertCode = 3
)

// ErrNode matches any *Error with errors.Is.
var ErrNode = errors.New("node error")

// NewError is an Error constructor that takes Error contents from its
// parameters.
func NewError(code int64, message string, data any) *Error {
	e := &Error{Code: code, Message: message}
	if data != nil {
		e.Data, _ = json.Marshal(data)
	}
	return e
}

// NewRevertError creates an execution reverted error carrying the
// Error(string) payload for the reason, like nodes do for failed eth_call and
// eth_estimateGas.
func NewRevertError(reason string) *Error {
	return NewError(ExecutionRevertCode, "execution reverted: "+reason, hexutil.Encode(abi.PackRevert(reason)))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Data) == 0 {
		return fmt.Sprintf("%s (%d)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%d) - %s", e.Message, e.Code, string(e.Data))
}

// Is allows to match any node error with ErrNode.
func (e *Error) Is(target error) bool {
	return target == ErrNode
}

// RevertData returns raw revert data if the error carries it.
func (e *Error) RevertData() []byte {
	var s string
	if len(e.Data) == 0 || json.Unmarshal(e.Data, &s) != nil {
		return nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil
	}
	return b
}

// Reason returns the revert reason decoded from the error data, or the
// message if there is no decodable reason.
func (e *Error) Reason() string {
	if data := e.RevertData(); data != nil {
		if r, err := abi.UnpackRevert(data); err == nil {
			return r
		}
	}
	return e.Message
}

// IsReverted returns true for execution reverted errors.
func (e *Error) IsReverted() bool {
	return e.Code == ExecutionRevertCode || strings.Contains(strings.ToLower(e.Message), "execution reverted")
}

// IsNonceError returns true if err is a node error reporting a nonce
// conflict (reused or gapped sequence number).
func IsNonceError(err error) bool {
	return nodeMessageContains(err, "nonce too low", "nonce too high", "replacement transaction underpriced", "invalid nonce")
}

// IsAlreadyKnown returns true if err is a node error reporting that the
// transaction is already in the pool or the chain.
func IsAlreadyKnown(err error) bool {
	return nodeMessageContains(err, "already known", "already exists", "known transaction")
}

func nodeMessageContains(err error, substrs ...string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	msg := strings.ToLower(e.Message)
	for _, s := range substrs {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
