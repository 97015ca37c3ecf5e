package netmode

import "strconv"

const (
	// MainNet is the Ethereum main network.
	MainNet ChainID = 1
	// Sepolia is the Ethereum test network.
	Sepolia ChainID = 11155111
	// ArbitrumOne is the Arbitrum main network.
	ArbitrumOne ChainID = 42161
	// ArbitrumSepolia is the Arbitrum test network.
	ArbitrumSepolia ChainID = 421614
	// PrivNet is the chain id usually used by local development nodes.
	PrivNet ChainID = 1337
)

// ChainID describes the network transactions are signed for (EIP-155).
type ChainID uint64

// String implements the stringer interface.
func (n ChainID) String() string {
	switch n {
	case MainNet:
		return "mainnet"
	case Sepolia:
		return "sepolia"
	case ArbitrumOne:
		return "arbitrum-one"
	case ArbitrumSepolia:
		return "arbitrum-sepolia"
	case PrivNet:
		return "privnet"
	default:
		return "chain " + strconv.FormatUint(uint64(n), 10)
	}
}
