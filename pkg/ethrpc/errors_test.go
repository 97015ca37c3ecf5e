package ethrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorReason(t *testing.T) {
	e := NewRevertError("ERC20: transfer amount exceeds balance")
	assert.True(t, e.IsReverted())
	assert.Equal(t, "ERC20: transfer amount exceeds balance", e.Reason())
	assert.NotEmpty(t, e.RevertData())

	var wrapped error = fmt.Errorf("calling: %w", e)
	require.ErrorIs(t, wrapped, ErrNode)
	var target *Error
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, int64(ExecutionRevertCode), target.Code)

	plain := NewError(ServerErrorCode, "nonce too low: next nonce 5, tx nonce 4", nil)
	assert.Equal(t, "nonce too low: next nonce 5, tx nonce 4 (-32000)", plain.Error())
	assert.Equal(t, plain.Message, plain.Reason())
	assert.Nil(t, plain.RevertData())
	assert.False(t, plain.IsReverted())

	odd := &Error{Code: 3, Message: "execution reverted", Data: json.RawMessage(`{"x":1}`)}
	assert.Nil(t, odd.RevertData())
	assert.Equal(t, "execution reverted", odd.Reason())
	assert.True(t, odd.IsReverted())
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsNonceError(NewError(ServerErrorCode, "nonce too low", nil)))
	assert.True(t, IsNonceError(fmt.Errorf("x: %w", NewError(ServerErrorCode, "Nonce too high", nil))))
	assert.False(t, IsNonceError(errors.New("nonce too low")))
	assert.True(t, IsAlreadyKnown(NewError(ServerErrorCode, "already known", nil)))
	assert.False(t, IsAlreadyKnown(NewError(ServerErrorCode, "insufficient funds", nil)))
	assert.False(t, errors.Is(errors.New("x"), ErrNode))
}

func TestCallMsgJSON(t *testing.T) {
	to := util.Uint160{1}
	c := CallMsg{To: &to, Value: uint256.NewInt(16), Data: []byte{0xde, 0xad}}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"to":"0x0100000000000000000000000000000000000000","value":"0x10","data":"0xdead"}`, string(data))

	c.Gas = 21000
	c.GasPrice = uint256.NewInt(1)
	data, err = json.Marshal(c)
	require.NoError(t, err)
	var actual CallMsg
	require.NoError(t, json.Unmarshal(data, &actual))
	assert.Equal(t, c, actual)
}

func TestQuantity(t *testing.T) {
	v, err := DecodeQuantity(json.RawMessage(`"0x5208"`))
	require.NoError(t, err)
	assert.Equal(t, "0x5208", EncodeQuantity(v))

	_, err = DecodeQuantity(json.RawMessage(`"5208"`))
	require.Error(t, err)

	n, err := DecodeUint64(json.RawMessage(`"0x0"`))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)

	req := NewRequest(1, "eth_gasPrice")
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"eth_gasPrice","params":[],"id":1}`, string(data))
}
