/*
Package result contains result types of node RPC calls.
*/
package result

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// Receipt statuses.
const (
	ReceiptStatusFailed     uint64 = 0
	ReceiptStatusSuccessful uint64 = 1
)

type (
	// Receipt is the execution result of a transaction included into a
	// block.
	Receipt struct {
		TxHash            util.Uint256
		BlockHash         util.Uint256
		BlockNumber       uint64
		TransactionIndex  uint64
		From              util.Uint160
		To                *util.Uint160
		ContractAddress   *util.Uint160
		Status            uint64
		GasUsed           uint64
		CumulativeGasUsed uint64
		EffectiveGasPrice *uint256.Int
		Type              uint64
		Logs              []Log
	}

	// Log is an event emitted during execution.
	Log struct {
		Address     util.Uint160   `json:"address"`
		Topics      []util.Uint256 `json:"topics"`
		Data        hexutil.Bytes  `json:"data"`
		BlockNumber hexutil.Uint64 `json:"blockNumber"`
		TxHash      util.Uint256   `json:"transactionHash"`
		LogIndex    hexutil.Uint64 `json:"logIndex"`
		Removed     bool           `json:"removed"`
	}

	receiptAux struct {
		TxHash            util.Uint256   `json:"transactionHash"`
		BlockHash         util.Uint256   `json:"blockHash"`
		BlockNumber       hexutil.Uint64 `json:"blockNumber"`
		TransactionIndex  hexutil.Uint64 `json:"transactionIndex"`
		From              util.Uint160   `json:"from"`
		To                *util.Uint160  `json:"to"`
		ContractAddress   *util.Uint160  `json:"contractAddress"`
		Status            hexutil.Uint64 `json:"status"`
		GasUsed           hexutil.Uint64 `json:"gasUsed"`
		CumulativeGasUsed hexutil.Uint64 `json:"cumulativeGasUsed"`
		EffectiveGasPrice *hexutil.Big   `json:"effectiveGasPrice,omitempty"`
		Type              hexutil.Uint64 `json:"type"`
		Logs              []Log          `json:"logs"`
	}
)

// Succeeded returns true if the transaction was executed successfully.
func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}

// Fee returns the amount paid for execution: gas used multiplied by the
// effective gas price.
func (r *Receipt) Fee() (*uint256.Int, error) {
	if r.EffectiveGasPrice == nil {
		return new(uint256.Int), nil
	}
	return fixedn.MulChecked(r.EffectiveGasPrice, uint256.NewInt(r.GasUsed))
}

// MarshalJSON implements the json.Marshaler interface.
func (r Receipt) MarshalJSON() ([]byte, error) {
	aux := receiptAux{
		TxHash:            r.TxHash,
		BlockHash:         r.BlockHash,
		BlockNumber:       hexutil.Uint64(r.BlockNumber),
		TransactionIndex:  hexutil.Uint64(r.TransactionIndex),
		From:              r.From,
		To:                r.To,
		ContractAddress:   r.ContractAddress,
		Status:            hexutil.Uint64(r.Status),
		GasUsed:           hexutil.Uint64(r.GasUsed),
		CumulativeGasUsed: hexutil.Uint64(r.CumulativeGasUsed),
		Type:              hexutil.Uint64(r.Type),
		Logs:              r.Logs,
	}
	if r.EffectiveGasPrice != nil {
		aux.EffectiveGasPrice = (*hexutil.Big)(r.EffectiveGasPrice.ToBig())
	}
	if aux.Logs == nil {
		aux.Logs = []Log{}
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *Receipt) UnmarshalJSON(data []byte) error {
	var aux receiptAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	price, err := ethrpc.FromHexBig(aux.EffectiveGasPrice)
	if err != nil {
		return err
	}
	*r = Receipt{
		TxHash:            aux.TxHash,
		BlockHash:         aux.BlockHash,
		BlockNumber:       uint64(aux.BlockNumber),
		TransactionIndex:  uint64(aux.TransactionIndex),
		From:              aux.From,
		To:                aux.To,
		ContractAddress:   aux.ContractAddress,
		Status:            uint64(aux.Status),
		GasUsed:           uint64(aux.GasUsed),
		CumulativeGasUsed: uint64(aux.CumulativeGasUsed),
		EffectiveGasPrice: price,
		Type:              uint64(aux.Type),
		Logs:              aux.Logs,
	}
	return nil
}
