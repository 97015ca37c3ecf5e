/*
Package journal implements a durable transaction journal.

Journal keeps every transaction the client signs along with its last known
state, so that the fate of a submitted transaction stays queryable by its hash
after restart. It implements actor.Tracker, so an Actor can record its
progress there directly.
*/
package journal

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nspcc-dev/eth-go/pkg/core/storage"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc/result"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"go.uber.org/zap"
)

// Version is the journal storage format version.
const Version = "0.1.0"

var (
	// ErrNotFound is returned for unknown transactions.
	ErrNotFound = errors.New("transaction is not journaled")
	// ErrVersionMismatch is returned when the storage contains a journal of
	// a different format.
	ErrVersionMismatch = errors.New("journal version mismatch")
)

// Record is a journaled transaction with its last known state.
type Record struct {
	Hash  util.Uint256
	State actor.State
	Tx    *transaction.Transaction
	// BlockNumber and GasUsed are set for included (Confirmed or Failed)
	// transactions.
	BlockNumber uint64
	GasUsed     uint64
	Error       string
	Updated     time.Time
}

type recordAux struct {
	Hash        util.Uint256   `json:"hash"`
	State       string         `json:"state"`
	Raw         hexutil.Bytes  `json:"raw"`
	BlockNumber hexutil.Uint64 `json:"blockNumber,omitempty"`
	GasUsed     hexutil.Uint64 `json:"gasUsed,omitempty"`
	Error       string         `json:"error,omitempty"`
	Updated     time.Time      `json:"updated"`
}

// MarshalJSON implements the json.Marshaler interface.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Tx == nil {
		return nil, errors.New("no transaction")
	}
	return json.Marshal(recordAux{
		Hash:        r.Hash,
		State:       r.State.String(),
		Raw:         r.Tx.Bytes(),
		BlockNumber: hexutil.Uint64(r.BlockNumber),
		GasUsed:     hexutil.Uint64(r.GasUsed),
		Error:       r.Error,
		Updated:     r.Updated,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *Record) UnmarshalJSON(data []byte) error {
	var aux recordAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	st, err := actor.ParseState(aux.State)
	if err != nil {
		return err
	}
	tx, err := transaction.NewTransactionFromBytes(aux.Raw)
	if err != nil {
		return err
	}
	if !tx.Hash().Equals(aux.Hash) {
		return fmt.Errorf("hash mismatch: %s vs %s", tx.Hash(), aux.Hash)
	}
	*r = Record{
		Hash:        aux.Hash,
		State:       st,
		Tx:          tx,
		BlockNumber: uint64(aux.BlockNumber),
		GasUsed:     uint64(aux.GasUsed),
		Error:       aux.Error,
		Updated:     aux.Updated,
	}
	return nil
}

// IsPending returns true for transactions whose fate is not known yet:
// signed, submitted or timed out ones. Rejected transactions are never
// pending.
func (r *Record) IsPending() bool {
	switch r.State {
	case actor.StateSigned, actor.StateSubmitted, actor.StateTimedOut:
		return true
	default:
		return false
	}
}

// ReceiptGetter is the RPC needed to resolve pending transactions.
type ReceiptGetter interface {
	GetTransactionReceipt(ctx context.Context, hash util.Uint256) (*result.Receipt, error)
}

// Options are optional Journal parameters.
type Options struct {
	// Clock is used for record timestamps, real clock by default.
	Clock clock.Clock
	// Logger is used to log state changes, no logging if nil.
	Logger *zap.Logger
}

// Journal stores transaction records in a storage.Store. It's safe for
// concurrent use.
type Journal struct {
	lock  sync.Mutex
	store storage.Store
	clock clock.Clock
	log   *zap.Logger
}

// New creates a journal on top of the given store. An empty store is
// initialized with the current Version, a store with another version is
// rejected with ErrVersionMismatch.
func New(store storage.Store, opts Options) (*Journal, error) {
	v, err := store.Get(storage.SYSVersion.Bytes())
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		err = store.PutChangeSet(map[string][]byte{string(storage.SYSVersion.Bytes()): []byte(Version)})
		if err != nil {
			return nil, fmt.Errorf("failed to store version: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to get version: %w", err)
	case string(v) != Version:
		return nil, fmt.Errorf("%w: %q instead of %q", ErrVersionMismatch, v, Version)
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Journal{
		store: store,
		clock: opts.Clock,
		log:   opts.Logger,
	}, nil
}

func key(h util.Uint256) []byte {
	return append(storage.JRTransaction.Bytes(), h.BytesBE()...)
}

// Add journals a signed transaction in Signed state. It overwrites any
// previous record of the same transaction.
func (j *Journal) Add(tx *transaction.Transaction) error {
	j.lock.Lock()
	defer j.lock.Unlock()
	return j.put(&Record{
		Hash:  tx.Hash(),
		State: actor.StateSigned,
		Tx:    tx,
	})
}

// Update changes the state of a journaled transaction. The receipt (if any)
// sets the block number and gas used, the error (if any) is saved as text.
func (j *Journal) Update(h util.Uint256, state actor.State, rec *result.Receipt, txErr error) error {
	j.lock.Lock()
	defer j.lock.Unlock()
	r, err := j.get(h)
	if err != nil {
		return err
	}
	update(r, state, rec, txErr)
	return j.put(r)
}

func update(r *Record, state actor.State, rec *result.Receipt, txErr error) {
	r.State = state
	if rec != nil {
		r.BlockNumber = rec.BlockNumber
		r.GasUsed = rec.GasUsed
	}
	r.Error = ""
	if txErr != nil {
		r.Error = txErr.Error()
	}
}

// Track implements actor.Tracker, outcomes without a signed transaction are
// ignored.
func (j *Journal) Track(o actor.Outcome) error {
	if o.Tx == nil {
		return nil
	}
	j.lock.Lock()
	defer j.lock.Unlock()
	r := &Record{Hash: o.Hash, Tx: o.Tx}
	update(r, o.State, o.Receipt, o.Err)
	return j.put(r)
}

// Get returns the record of the given transaction or ErrNotFound.
func (j *Journal) Get(h util.Uint256) (*Record, error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	return j.get(h)
}

func (j *Journal) get(h util.Uint256) (*Record, error) {
	data, err := j.store.Get(key(h))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	if err != nil {
		return nil, err
	}
	r := new(Record)
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("corrupted record %s: %w", h, err)
	}
	return r, nil
}

func (j *Journal) put(r *Record) error {
	r.Updated = j.clock.Now().UTC()
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	err = j.store.PutChangeSet(map[string][]byte{string(key(r.Hash)): data})
	if err != nil {
		return fmt.Errorf("failed to journal %s: %w", r.Hash, err)
	}
	j.log.Debug("transaction journaled", zap.Stringer("hash", r.Hash), zap.Stringer("state", r.State))
	return nil
}

// List returns all journaled transactions ordered by hash.
func (j *Journal) List() ([]*Record, error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	return j.list(func(*Record) bool { return true })
}

// Pending returns journaled transactions whose fate is not known yet (see
// Record.IsPending) ordered by sender nonce.
func (j *Journal) Pending() ([]*Record, error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	res, err := j.list((*Record).IsPending)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(res, func(a, b *Record) int {
		return cmp.Compare(a.Tx.Nonce(), b.Tx.Nonce())
	})
	return res, nil
}

func (j *Journal) list(filter func(*Record) bool) ([]*Record, error) {
	var (
		res []*Record
		err error
	)
	j.store.Seek(storage.SeekRange{Prefix: storage.JRTransaction.Bytes()}, func(k, v []byte) bool {
		r := new(Record)
		if err = json.Unmarshal(v, r); err != nil {
			err = fmt.Errorf("corrupted record %x: %w", k[1:], err)
			return false
		}
		if filter(r) {
			res = append(res, r)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Resolve checks receipts of all pending transactions and updates the
// records of included ones to Confirmed or Failed. It returns the records
// changed. Transactions still unknown to the node keep their state. RPC
// errors abort the process, records resolved before are kept.
func (j *Journal) Resolve(ctx context.Context, client ReceiptGetter) ([]*Record, error) {
	pending, err := j.Pending()
	if err != nil {
		return nil, err
	}
	var resolved []*Record
	for _, r := range pending {
		rec, err := client.GetTransactionReceipt(ctx, r.Hash)
		if err != nil {
			return resolved, fmt.Errorf("receipt of %s: %w", r.Hash, err)
		}
		if rec == nil {
			continue
		}
		state := actor.StateConfirmed
		if !rec.Succeeded() {
			state = actor.StateFailed
		}
		if err := j.Update(r.Hash, state, rec, nil); err != nil {
			return resolved, err
		}
		j.log.Info("transaction resolved", zap.Stringer("hash", r.Hash), zap.Stringer("state", state))
		r, err = j.Get(r.Hash)
		if err != nil {
			return resolved, err
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}

// Close closes the underlying store.
func (j *Journal) Close() error {
	return j.store.Close()
}
