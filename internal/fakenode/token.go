package fakenode

import (
	"bytes"
	"errors"
	"sync"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/smartcontract/abi"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

var tokenABI = abi.MustParseContract(
	"name()(string)",
	"symbol()(string)",
	"decimals()(uint8)",
	"totalSupply()(uint256)",
	"balanceOf(address)(uint256)",
	"transfer(address,uint256)(bool)",
)

// Token is a minimal ERC-20 contract. Raw outputs can be overridden per
// method to emulate broken tokens.
type Token struct {
	Name     string
	Symbol   string
	Decimals uint8

	mu       sync.Mutex
	balances map[util.Uint160]*uint256.Int
	raw      map[string][]byte
}

// NewToken creates a token with the given metadata and no holders.
func NewToken(name, symbol string, decimals uint8) *Token {
	return &Token{
		Name:     name,
		Symbol:   symbol,
		Decimals: decimals,
		balances: make(map[util.Uint160]*uint256.Int),
		raw:      make(map[string][]byte),
	}
}

// Mint credits the account.
func (t *Token) Mint(acc util.Uint160, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[acc] = new(uint256.Int).Add(t.balanceOf(acc), amount)
}

// BalanceOf returns the token balance of the account.
func (t *Token) BalanceOf(acc util.Uint160) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balanceOf(acc)
}

func (t *Token) balanceOf(acc util.Uint160) *uint256.Int {
	if b, ok := t.balances[acc]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// SetRawOutput makes the method return data as is.
func (t *Token) SetRawOutput(method string, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw[method] = data
}

func (t *Token) method(data []byte) (*abi.Method, []any, error) {
	for _, name := range tokenABI.Methods() {
		m, _ := tokenABI.Method(name)
		sel := m.Selector()
		if len(data) >= abi.SelectorSize && bytes.Equal(data[:abi.SelectorSize], sel[:]) {
			args, err := m.UnpackInput(data)
			if err != nil {
				return nil, nil, ethrpc.NewRevertError("bad arguments")
			}
			return m, args, nil
		}
	}
	return nil, nil, ethrpc.NewError(ethrpc.ExecutionRevertCode, "execution reverted", nil)
}

// Call implements the Contract interface.
func (t *Token) Call(msg ethrpc.CallMsg) ([]byte, error) {
	m, args, err := t.method(msg.Data)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if raw, ok := t.raw[m.Name]; ok {
		return raw, nil
	}
	switch m.Name {
	case "name":
		return m.PackOutput(t.Name)
	case "symbol":
		return m.PackOutput(t.Symbol)
	case "decimals":
		return m.PackOutput(t.Decimals)
	case "totalSupply":
		total := new(uint256.Int)
		for _, b := range t.balances {
			total.Add(total, b)
		}
		return m.PackOutput(total)
	case "balanceOf":
		return m.PackOutput(t.balanceOf(args[0].(util.Uint160)))
	default:
		if err := t.transfer(msg, args, false); err != nil {
			return nil, ethrpc.NewRevertError(err.Error())
		}
		return m.PackOutput(true)
	}
}

// Execute implements the Contract interface.
func (t *Token) Execute(msg ethrpc.CallMsg) error {
	m, args, err := t.method(msg.Data)
	if err != nil {
		return err
	}
	if m.Name != "transfer" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transfer(msg, args, true)
}

func (t *Token) transfer(msg ethrpc.CallMsg, args []any, apply bool) error {
	if msg.From == nil {
		return errors.New("transfer from the zero address")
	}
	var (
		to     = args[0].(util.Uint160)
		amount = args[1].(*uint256.Int)
		bal    = t.balanceOf(*msg.From)
	)
	if bal.Lt(amount) {
		return errors.New("ERC20: transfer amount exceeds balance")
	}
	if apply {
		t.balances[*msg.From] = bal.Sub(bal, amount)
		t.balances[to] = new(uint256.Int).Add(t.balanceOf(to), amount)
	}
	return nil
}
