/*
Package fakenode implements an in-memory Ethereum-like JSON-RPC node for
tests. It serves HTTP requests on the root path and websocket connections on
/ws, keeps balances and nonces, accepts signed transactions and includes them
into blocks either immediately or when Mine is called.
*/
package fakenode

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/crypto/hash"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc/result"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// Contract is a contract deployed on the fake node.
type Contract interface {
	// Call executes a read-only call, it returns return data or an error,
	// *ethrpc.Error errors are passed to the client as is.
	Call(msg ethrpc.CallMsg) ([]byte, error)
	// Execute applies a transaction to the contract state, an error makes
	// the transaction reverted.
	Execute(msg ethrpc.CallMsg) error
}

// ContractFunc is a stateless Contract.
type ContractFunc func(msg ethrpc.CallMsg) ([]byte, error)

// Call implements the Contract interface.
func (f ContractFunc) Call(msg ethrpc.CallMsg) ([]byte, error) { return f(msg) }

// Execute implements the Contract interface.
func (f ContractFunc) Execute(msg ethrpc.CallMsg) error {
	_, err := f(msg)
	return err
}

// Node is a fake node. Exported fields can be changed before the first
// request is made, use setters afterwards.
type Node struct {
	t      testing.TB
	server *httptest.Server

	mu          sync.Mutex
	chainID     uint64
	gasPrice    *uint256.Int
	priorityFee *uint256.Int
	baseFee     *uint256.Int
	estimate    uint64
	autoMine    bool
	block       uint64
	balances    map[util.Uint160]*uint256.Int
	nonces      map[util.Uint160]uint64
	contracts   map[util.Uint160]Contract
	pool        []*transaction.Transaction
	txs         map[util.Uint256]*transaction.Transaction
	receipts    map[util.Uint256]*result.Receipt
	errs        map[string]error
	httpFail    map[string]int
	delays      map[string]time.Duration
	calls       map[string]int
	subs        map[string]*wsConn
	subID       uint64
}

// ErrHTTP can be passed to FailNext to make the node answer with a bare HTTP
// error instead of a JSON-RPC response.
var ErrHTTP = errors.New("http failure")

// New starts a fake node with the given chain id. Gas price defaults to
// 0.1 gwei, base fee to 0.01 gwei, priority fee to 1 wei and gas estimation
// result to the transfer gas. The node is stopped on test cleanup.
func New(t testing.TB, chainID uint64) *Node {
	n := &Node{
		t:           t,
		chainID:     chainID,
		gasPrice:    uint256.NewInt(100000000),
		priorityFee: uint256.NewInt(1),
		baseFee:     uint256.NewInt(10000000),
		estimate:    transaction.TransferGas,
		block:       1,
		balances:    make(map[util.Uint160]*uint256.Int),
		nonces:      make(map[util.Uint160]uint64),
		contracts:   make(map[util.Uint160]Contract),
		txs:         make(map[util.Uint256]*transaction.Transaction),
		receipts:    make(map[util.Uint256]*result.Receipt),
		errs:        make(map[string]error),
		httpFail:    make(map[string]int),
		delays:      make(map[string]time.Duration),
		calls:       make(map[string]int),
		subs:        make(map[string]*wsConn),
	}
	n.server = httptest.NewServer(http.HandlerFunc(n.serveHTTP))
	t.Cleanup(n.server.Close)
	return n
}

// URL returns the HTTP endpoint of the node.
func (n *Node) URL() string {
	return n.server.URL
}

// WSURL returns the websocket endpoint of the node.
func (n *Node) WSURL() string {
	return "ws" + strings.TrimPrefix(n.server.URL, "http") + "/ws"
}

// SetBalance sets the account balance.
func (n *Node) SetBalance(acc util.Uint160, v *uint256.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[acc] = new(uint256.Int).Set(v)
}

// Balance returns the account balance.
func (n *Node) Balance(acc util.Uint160) *uint256.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.balance(acc)
}

func (n *Node) balance(acc util.Uint160) *uint256.Int {
	if b, ok := n.balances[acc]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// SetNonce sets the next nonce of the account.
func (n *Node) SetNonce(acc util.Uint160, nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nonces[acc] = nonce
}

// SetGasPrice sets the legacy gas price recommendation.
func (n *Node) SetGasPrice(v *uint256.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gasPrice = v
}

// SetBaseFee sets the base fee of blocks, nil disables EIP-1559.
func (n *Node) SetBaseFee(v *uint256.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.baseFee = v
}

// SetGasEstimate sets the result of eth_estimateGas for calls to accounts
// without contracts.
func (n *Node) SetGasEstimate(gas uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.estimate = gas
}

// SetAutoMine makes the node include every accepted transaction into a new
// block immediately.
func (n *Node) SetAutoMine(on bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.autoMine = on
}

// Deploy puts a contract at the given address.
func (n *Node) Deploy(addr util.Uint160, c Contract) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contracts[addr] = c
}

// FailNext makes the next request of the method fail with err. *ethrpc.Error
// values are sent as JSON-RPC errors, ErrHTTP produces an HTTP 502 response.
func (n *Node) FailNext(method string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if errors.Is(err, ErrHTTP) {
		n.httpFail[method]++
		return
	}
	n.errs[method] = err
}

// SetDelay makes the node hold HTTP responses to the method for d (or until
// the client goes away).
func (n *Node) SetDelay(method string, d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delays[method] = d
}

// Calls returns the number of requests received for the method.
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// TotalCalls returns the number of requests received.
func (n *Node) TotalCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	var total int
	for _, c := range n.calls {
		total += c
	}
	return total
}

// Pool returns transactions accepted, but not yet included into a block.
func (n *Node) Pool() []*transaction.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*transaction.Transaction{}, n.pool...)
}

// Transaction returns an accepted transaction by hash.
func (n *Node) Transaction(h util.Uint256) *transaction.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.txs[h]
}

// BlockNumber returns the current block number.
func (n *Node) BlockNumber() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.block
}

// Mine creates a new block including all pooled transactions and notifies
// newHeads subscribers.
func (n *Node) Mine() *result.Header {
	n.mu.Lock()
	h := n.mine()
	subs := make([]*wsConn, 0, len(n.subs))
	ids := make([]string, 0, len(n.subs))
	for id, c := range n.subs {
		subs = append(subs, c)
		ids = append(ids, id)
	}
	n.mu.Unlock()

	for i, c := range subs {
		c.notify(ids[i], h)
	}
	return h
}

func (n *Node) mine() *result.Header {
	n.block++
	h := n.header()
	for i, tx := range n.pool {
		n.receipts[tx.Hash()] = n.execute(tx, h, uint64(i))
	}
	n.pool = nil
	return h
}

func (n *Node) header() *result.Header {
	var num [8]byte
	binary.BigEndian.PutUint64(num[:], n.block)
	var parent [8]byte
	binary.BigEndian.PutUint64(parent[:], n.block-1)
	return &result.Header{
		Number:     n.block,
		Hash:       hash.Keccak256(num[:]),
		ParentHash: hash.Keccak256(parent[:]),
		Timestamp:  1700000000 + n.block,
		GasLimit:   30000000,
		BaseFee:    n.baseFee,
	}
}

func (n *Node) execute(tx *transaction.Transaction, h *result.Header, index uint64) *result.Receipt {
	from, _ := tx.Sender()
	to := tx.To()
	price := tx.GasPrice()
	if tx.Type() == transaction.DynamicFeeTxType && n.baseFee != nil {
		price = new(uint256.Int).Add(n.baseFee, tx.GasTipCap())
		if price.Gt(tx.GasFeeCap()) {
			price = tx.GasFeeCap()
		}
	}
	r := &result.Receipt{
		TxHash:            tx.Hash(),
		BlockHash:         h.Hash,
		BlockNumber:       h.Number,
		TransactionIndex:  index,
		From:              from,
		To:                &to,
		Status:            result.ReceiptStatusSuccessful,
		GasUsed:           min(tx.Gas(), transaction.TransferGas),
		EffectiveGasPrice: price,
		Type:              uint64(tx.Type()),
	}
	r.CumulativeGasUsed = r.GasUsed
	if c, ok := n.contracts[to]; ok {
		err := c.Execute(ethrpc.CallMsg{From: &from, To: &to, Value: tx.Value(), Data: tx.Data(), Gas: tx.Gas()})
		if err != nil {
			r.Status = result.ReceiptStatusFailed
			return r
		}
	}
	fee := new(uint256.Int).Mul(price, uint256.NewInt(r.GasUsed))
	total := new(uint256.Int).Add(fee, tx.Value())
	bal := n.balance(from)
	if bal.Lt(total) {
		r.Status = result.ReceiptStatusFailed
		return r
	}
	n.balances[from] = bal.Sub(bal, total)
	n.balances[to] = new(uint256.Int).Add(n.balance(to), tx.Value())
	return r
}

type rawRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *ethrpc.Error   `json:"error,omitempty"`
}

func (n *Node) serveHTTP(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path == "/ws" && req.Method == http.MethodGet {
		n.serveWS(w, req)
		return
	}
	var r rawRequest
	if err := json.NewDecoder(req.Body).Decode(&r); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(response{JSONRPC: ethrpc.JSONRPCVersion, ID: json.RawMessage("null"),
			Error: ethrpc.NewError(ethrpc.ParseErrorCode, "parse error", nil)})
		return
	}
	n.mu.Lock()
	fail := n.httpFail[r.Method] > 0
	if fail {
		n.httpFail[r.Method]--
		n.calls[r.Method]++
	}
	delay := n.delays[r.Method]
	n.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-req.Context().Done():
			return
		}
	}
	if fail {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	resp := n.handle(&r)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *Node) handle(r *rawRequest) *response {
	var resp = &response{JSONRPC: ethrpc.JSONRPCVersion, ID: r.ID}

	n.mu.Lock()
	n.calls[r.Method]++
	injected, ok := n.errs[r.Method]
	if ok {
		delete(n.errs, r.Method)
	}
	n.mu.Unlock()

	var (
		res any
		err error
	)
	if injected != nil {
		err = injected
	} else {
		res, err = n.dispatch(r)
	}
	if err != nil {
		var e *ethrpc.Error
		if !errors.As(err, &e) {
			e = ethrpc.NewError(ethrpc.InternalErrorCode, err.Error(), nil)
		}
		resp.Error = e
		return resp
	}
	if res == nil {
		res = json.RawMessage("null")
	}
	resp.Result = res
	return resp
}

func (n *Node) dispatch(r *rawRequest) (any, error) {
	switch r.Method {
	case "eth_chainId":
		n.mu.Lock()
		defer n.mu.Unlock()
		return hexutil.Uint64(n.chainID), nil
	case "eth_blockNumber":
		n.mu.Lock()
		defer n.mu.Unlock()
		return hexutil.Uint64(n.block), nil
	case "eth_gasPrice":
		n.mu.Lock()
		defer n.mu.Unlock()
		return n.gasPrice.Hex(), nil
	case "eth_maxPriorityFeePerGas":
		n.mu.Lock()
		defer n.mu.Unlock()
		return n.priorityFee.Hex(), nil
	case "eth_getBlockByNumber":
		n.mu.Lock()
		defer n.mu.Unlock()
		return n.header(), nil
	case "eth_getBalance":
		var acc util.Uint160
		if err := param(r, 0, &acc); err != nil {
			return nil, err
		}
		return n.Balance(acc).Hex(), nil
	case "eth_getTransactionCount":
		var acc util.Uint160
		if err := param(r, 0, &acc); err != nil {
			return nil, err
		}
		n.mu.Lock()
		defer n.mu.Unlock()
		return hexutil.Uint64(n.nonces[acc]), nil
	case "eth_call", "eth_estimateGas":
		var msg ethrpc.CallMsg
		if err := param(r, 0, &msg); err != nil {
			return nil, err
		}
		return n.call(r.Method, msg)
	case "eth_sendRawTransaction":
		var raw hexutil.Bytes
		if err := param(r, 0, &raw); err != nil {
			return nil, err
		}
		return n.send(raw)
	case "eth_getTransactionReceipt":
		var h util.Uint256
		if err := param(r, 0, &h); err != nil {
			return nil, err
		}
		n.mu.Lock()
		defer n.mu.Unlock()
		if rec, ok := n.receipts[h]; ok {
			return rec, nil
		}
		return nil, nil
	default:
		return nil, ethrpc.NewError(ethrpc.MethodNotFoundCode, "the method "+r.Method+" does not exist/is not available", nil)
	}
}

func param(r *rawRequest, i int, v any) error {
	if len(r.Params) <= i {
		return ethrpc.NewError(ethrpc.InvalidParamsCode, "missing value for required argument", nil)
	}
	if err := json.Unmarshal(r.Params[i], v); err != nil {
		return ethrpc.NewError(ethrpc.InvalidParamsCode, "invalid argument: "+err.Error(), nil)
	}
	return nil
}

func (n *Node) call(method string, msg ethrpc.CallMsg) (any, error) {
	n.mu.Lock()
	var (
		c        Contract
		ok       bool
		estimate = n.estimate
	)
	if msg.To != nil {
		c, ok = n.contracts[*msg.To]
	}
	n.mu.Unlock()

	if !ok {
		if method == "eth_call" {
			return hexutil.Bytes{}, nil
		}
		return hexutil.Uint64(estimate), nil
	}
	out, err := c.Call(msg)
	if err != nil {
		return nil, err
	}
	if method == "eth_call" {
		return hexutil.Bytes(out), nil
	}
	return hexutil.Uint64(estimate + 30000), nil
}

func (n *Node) send(raw []byte) (any, error) {
	tx, err := transaction.NewTransactionFromBytes(raw)
	if err != nil {
		return nil, ethrpc.NewError(ethrpc.ServerErrorCode, "rlp: "+err.Error(), nil)
	}
	from, err := tx.Sender()
	if err != nil {
		return nil, ethrpc.NewError(ethrpc.ServerErrorCode, "invalid sender", nil)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if tx.ChainID() != n.chainID {
		return nil, ethrpc.NewError(ethrpc.ServerErrorCode, "invalid chain id for signer", nil)
	}
	if _, ok := n.txs[tx.Hash()]; ok {
		return nil, ethrpc.NewError(ethrpc.ServerErrorCode, "already known", nil)
	}
	next := n.nonces[from]
	switch {
	case tx.Nonce() < next:
		return nil, ethrpc.NewError(ethrpc.ServerErrorCode, "nonce too low: next nonce "+hexutil.EncodeUint64(next), nil)
	case tx.Nonce() > next:
		return nil, ethrpc.NewError(ethrpc.ServerErrorCode, "nonce too high", nil)
	}
	n.nonces[from] = next + 1
	n.txs[tx.Hash()] = tx
	n.pool = append(n.pool, tx)
	if n.autoMine {
		n.mine()
	}
	return tx.Hash(), nil
}

// subscribe registers a newHeads subscriber.
func (n *Node) subscribe(c *wsConn) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subID++
	id := hexutil.EncodeUint64(n.subID)
	n.subs[id] = c
	return id
}

func (n *Node) unsubscribe(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.subs[id]
	delete(n.subs, id)
	return ok
}

type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) write(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteJSON(v)
}

func (c *wsConn) notify(id string, h *result.Header) {
	raw, _ := json.Marshal(h)
	c.write(ethrpc.Notification{
		JSONRPC: ethrpc.JSONRPCVersion,
		Method:  ethrpc.SubscriptionMethod,
		Params:  ethrpc.SubscriptionResult{Subscription: id, Result: raw},
	})
}

func (n *Node) serveWS(w http.ResponseWriter, req *http.Request) {
	var upgrader = websocket.Upgrader{}
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	c := &wsConn{conn: ws}
	var own []string
	defer func() {
		for _, id := range own {
			n.unsubscribe(id)
		}
		ws.Close()
	}()
	for {
		var r rawRequest
		if err := ws.ReadJSON(&r); err != nil {
			return
		}
		switch r.Method {
		case "eth_subscribe":
			var kind string
			if err := param(&r, 0, &kind); err != nil || kind != "newHeads" {
				c.write(response{JSONRPC: ethrpc.JSONRPCVersion, ID: r.ID,
					Error: ethrpc.NewError(ethrpc.InvalidParamsCode, "unsupported subscription", nil)})
				continue
			}
			n.mu.Lock()
			n.calls[r.Method]++
			n.mu.Unlock()
			id := n.subscribe(c)
			own = append(own, id)
			c.write(response{JSONRPC: ethrpc.JSONRPCVersion, ID: r.ID, Result: id})
		case "eth_unsubscribe":
			var id string
			_ = param(&r, 0, &id)
			c.write(response{JSONRPC: ethrpc.JSONRPCVersion, ID: r.ID, Result: n.unsubscribe(id)})
		default:
			c.write(n.handle(&r))
		}
	}
}
