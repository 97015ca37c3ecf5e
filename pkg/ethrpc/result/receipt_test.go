package result

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const receiptJSON = `{
	"blockHash": "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060",
	"blockNumber": "0x5bad55",
	"contractAddress": null,
	"cumulativeGasUsed": "0xb90b0",
	"effectiveGasPrice": "0x5f5e100",
	"from": "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23",
	"gasUsed": "0x5208",
	"logs": [],
	"logsBloom": "0x00",
	"status": "0x1",
	"to": "0x3019826431baaacc91604a595791a2d84acf5a56",
	"transactionHash": "0xdaf5a779ae972f972197303d7b574746c7ef83eadac0f2791ad23db92e4c8e53",
	"transactionIndex": "0x11",
	"type": "0x2"
}`

func TestReceiptJSON(t *testing.T) {
	var r Receipt
	require.NoError(t, json.Unmarshal([]byte(receiptJSON), &r))
	assert.True(t, r.Succeeded())
	assert.Equal(t, uint64(0x5bad55), r.BlockNumber)
	assert.Equal(t, uint64(21000), r.GasUsed)
	assert.Equal(t, uint64(100000000), r.EffectiveGasPrice.Uint64())
	assert.Nil(t, r.ContractAddress)
	require.NotNil(t, r.To)
	assert.Equal(t, "0x3019826431baaacc91604a595791a2d84acf5a56", r.To.String())
	assert.Equal(t, uint64(2), r.Type)

	fee, err := r.Fee()
	require.NoError(t, err)
	assert.Equal(t, uint64(2100000000000), fee.Uint64())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	var r2 Receipt
	require.NoError(t, json.Unmarshal(data, &r2))
	assert.Equal(t, r, r2)
}

func TestReceiptFailed(t *testing.T) {
	r := Receipt{Status: ReceiptStatusFailed}
	assert.False(t, r.Succeeded())
	fee, err := r.Fee()
	require.NoError(t, err)
	assert.True(t, fee.IsZero())

	require.Error(t, json.Unmarshal([]byte(`{"status":"1"}`), &r))
	require.Error(t, json.Unmarshal([]byte(`{"effectiveGasPrice":"0x1`+
		`0000000000000000000000000000000000000000000000000000000000000000"}`), &r))
}

func TestHeaderJSON(t *testing.T) {
	js := `{"number":"0x10","hash":"0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060",
		"parentHash":"0x0000000000000000000000000000000000000000000000000000000000000000",
		"timestamp":"0x6553f100","gasLimit":"0x1c9c380","gasUsed":"0x0","baseFeePerGas":"0x989680","miner":"0x0"}`
	var h Header
	require.NoError(t, json.Unmarshal([]byte(js), &h))
	assert.Equal(t, uint64(16), h.Number)
	assert.Equal(t, uint256.NewInt(10000000), h.BaseFee)

	data, err := json.Marshal(h)
	require.NoError(t, err)
	var h2 Header
	require.NoError(t, json.Unmarshal(data, &h2))
	assert.Equal(t, h, h2)

	require.NoError(t, json.Unmarshal([]byte(`{"number":"0x1"}`), &h2))
	assert.Nil(t, h2.BaseFee)
}
