package transaction

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// RLP layouts of the supported transaction types, field order matters.
type (
	legacySigning struct {
		Nonce    uint64
		GasPrice *uint256.Int
		Gas      uint64
		To       []byte
		Value    *uint256.Int
		Data     []byte
		ChainID  uint64
		Zero1    uint
		Zero2    uint
	}

	legacyTx struct {
		Nonce    uint64
		GasPrice *uint256.Int
		Gas      uint64
		To       []byte
		Value    *uint256.Int
		Data     []byte
		V        *big.Int
		R        *uint256.Int
		S        *uint256.Int
	}

	accessTuple struct {
		Address     util.Uint160
		StorageKeys []util.Uint256
	}

	dynamicSigning struct {
		ChainID    uint64
		Nonce      uint64
		GasTipCap  *uint256.Int
		GasFeeCap  *uint256.Int
		Gas        uint64
		To         []byte
		Value      *uint256.Int
		Data       []byte
		AccessList []accessTuple
	}

	dynamicTx struct {
		ChainID    uint64
		Nonce      uint64
		GasTipCap  *uint256.Int
		GasFeeCap  *uint256.Int
		Gas        uint64
		To         []byte
		Value      *uint256.Int
		Data       []byte
		AccessList []accessTuple
		V          uint64
		R          *uint256.Int
		S          *uint256.Int
	}
)
