package result

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

type (
	// Header is a block header as returned by eth_getBlockByNumber (without
	// transactions) and newHeads subscriptions.
	Header struct {
		Number     uint64
		Hash       util.Uint256
		ParentHash util.Uint256
		Timestamp  uint64
		GasLimit   uint64
		GasUsed    uint64
		// BaseFee is nil for chains without EIP-1559 support.
		BaseFee *uint256.Int
	}

	headerAux struct {
		Number     hexutil.Uint64 `json:"number"`
		Hash       util.Uint256   `json:"hash"`
		ParentHash util.Uint256   `json:"parentHash"`
		Timestamp  hexutil.Uint64 `json:"timestamp"`
		GasLimit   hexutil.Uint64 `json:"gasLimit"`
		GasUsed    hexutil.Uint64 `json:"gasUsed"`
		BaseFee    *hexutil.Big   `json:"baseFeePerGas,omitempty"`
	}
)

// MarshalJSON implements the json.Marshaler interface.
func (h Header) MarshalJSON() ([]byte, error) {
	aux := headerAux{
		Number:     hexutil.Uint64(h.Number),
		Hash:       h.Hash,
		ParentHash: h.ParentHash,
		Timestamp:  hexutil.Uint64(h.Timestamp),
		GasLimit:   hexutil.Uint64(h.GasLimit),
		GasUsed:    hexutil.Uint64(h.GasUsed),
	}
	if h.BaseFee != nil {
		aux.BaseFee = (*hexutil.Big)(h.BaseFee.ToBig())
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (h *Header) UnmarshalJSON(data []byte) error {
	var aux headerAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	baseFee, err := ethrpc.FromHexBig(aux.BaseFee)
	if err != nil {
		return err
	}
	*h = Header{
		Number:     uint64(aux.Number),
		Hash:       aux.Hash,
		ParentHash: aux.ParentHash,
		Timestamp:  uint64(aux.Timestamp),
		GasLimit:   uint64(aux.GasLimit),
		GasUsed:    uint64(aux.GasUsed),
		BaseFee:    baseFee,
	}
	return nil
}
