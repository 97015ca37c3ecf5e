package actor

import (
	"fmt"

	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc/result"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// State is a lifecycle state of a transaction managed by Actor.
type State byte

// Transaction states, a transaction moves from Draft to one of the final
// states (Confirmed, Failed, Rejected or TimedOut) never going back.
const (
	// StateDraft is an incomplete request.
	StateDraft State = iota
	// StateFilled is a complete, but unsigned request.
	StateFilled
	// StateSigned is a signed transaction that is not yet accepted by the
	// node.
	StateSigned
	// StateSubmitted is a transaction accepted by the node, but not yet
	// included into a block.
	StateSubmitted
	// StateConfirmed is an included transaction that executed successfully.
	StateConfirmed
	// StateFailed is an included transaction that reverted. Its fee is
	// paid anyway.
	StateFailed
	// StateTimedOut means the outcome is unknown: the transaction may or
	// may not be included later.
	StateTimedOut
	// StateRejected is a signed transaction refused by the node (bad nonce,
	// insufficient funds and alike), it never gets a receipt.
	StateRejected
)

var stateNames = map[State]string{
	StateDraft:     "draft",
	StateFilled:    "filled",
	StateSigned:    "signed",
	StateSubmitted: "submitted",
	StateConfirmed: "confirmed",
	StateFailed:    "failed",
	StateTimedOut:  "timed out",
	StateRejected:  "rejected",
}

// String implements the fmt.Stringer interface.
func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", byte(s))
}

// IsFinal returns true for states that don't change anymore within Actor.
// TimedOut transactions can still be resolved later by polling for their
// receipts.
func (s State) IsFinal() bool {
	return s == StateConfirmed || s == StateFailed || s == StateTimedOut || s == StateRejected
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	for st, n := range stateNames {
		if n == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", s)
}

// Outcome is the result of Execute. Hash and Tx are set from StateSigned on,
// Receipt is set for Confirmed and Failed transactions, Err describes the
// failure of the last attempted step (nil for reverted transactions, revert
// is not an error of the client).
type Outcome struct {
	State   State
	Hash    util.Uint256
	Tx      *transaction.Transaction
	Receipt *result.Receipt
	Err     error
}
