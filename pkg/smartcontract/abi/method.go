package abi

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/eth-go/pkg/crypto/hash"
)

// SelectorSize is the length of a method selector.
const SelectorSize = 4

// selectorCacheSize is the number of method selectors kept in memory.
const selectorCacheSize = 1024

// selectors maps canonical signatures to selectors.
var selectors, _ = lru.New(selectorCacheSize) // Never errors for positive size.

// ErrInvalidSignature is returned for unparsable method signatures.
var ErrInvalidSignature = errors.New("invalid method signature")

// Argument is a named method parameter or return value.
type Argument struct {
	Name string
	Type Type
}

// Method describes a contract method: its name, parameters and the shape of
// its return data.
type Method struct {
	Name    string
	Inputs  []Argument
	Outputs []Argument
}

// NewMethod creates a method description from types.
func NewMethod(name string, inputs []Type, outputs []Type) *Method {
	m := &Method{Name: name}
	for _, t := range inputs {
		m.Inputs = append(m.Inputs, Argument{Type: t})
	}
	for _, t := range outputs {
		m.Outputs = append(m.Outputs, Argument{Type: t})
	}
	return m
}

// ParseMethod parses human-readable method descriptions like
// "balanceOf(address)(uint256)" or
// "transfer(address to, uint256 amount) returns (bool)". The return part is
// optional.
func ParseMethod(s string) (*Method, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "function "))
	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSignature, s)
	}
	name := s[:open]
	if !isIdentifier(name) {
		return nil, fmt.Errorf("%w: bad method name %q", ErrInvalidSignature, name)
	}
	inputs, rest, err := parseArgList(s[open:])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSignature, s, err)
	}
	var outputs []Argument
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "returns"))
	if rest != "" {
		outputs, rest, err = parseArgList(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSignature, s, err)
		}
		if strings.TrimSpace(rest) != "" {
			return nil, fmt.Errorf("%w: trailing %q", ErrInvalidSignature, rest)
		}
	}
	return &Method{Name: name, Inputs: inputs, Outputs: outputs}, nil
}

// MustParseMethod is the same as ParseMethod, but panics on error.
func MustParseMethod(s string) *Method {
	m, err := ParseMethod(s)
	if err != nil {
		panic(err)
	}
	return m
}

func parseArgList(s string) ([]Argument, string, error) {
	if len(s) == 0 || s[0] != '(' {
		return nil, "", errors.New("missing parameter list")
	}
	closing := strings.IndexByte(s, ')')
	if closing < 0 {
		return nil, "", errors.New("unbalanced parentheses")
	}
	body := strings.TrimSpace(s[1:closing])
	if strings.ContainsAny(body, "([") {
		return nil, "", errors.New("tuples and arrays are not supported")
	}
	if body == "" {
		return nil, s[closing+1:], nil
	}
	var args []Argument
	for _, p := range strings.Split(body, ",") {
		fields := strings.Fields(p)
		if len(fields) == 0 {
			return nil, "", errors.New("empty parameter")
		}
		t, err := ParseType(fields[0])
		if err != nil {
			return nil, "", err
		}
		var a = Argument{Type: t}
		for _, f := range fields[1:] {
			switch f {
			case "memory", "calldata", "storage":
			default:
				if a.Name != "" || !isIdentifier(f) {
					return nil, "", fmt.Errorf("bad parameter %q", p)
				}
				a.Name = f
			}
		}
		args = append(args, a)
	}
	return args, s[closing+1:], nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// InputTypes returns types of method parameters.
func (m *Method) InputTypes() []Type {
	return argTypes(m.Inputs)
}

// OutputTypes returns types of method return values.
func (m *Method) OutputTypes() []Type {
	return argTypes(m.Outputs)
}

func argTypes(args []Argument) []Type {
	res := make([]Type, len(args))
	for i := range args {
		res[i] = args[i].Type
	}
	return res
}

// Signature returns the canonical signature used to compute the selector,
// like "transfer(address,uint256)".
func (m *Method) Signature() string {
	return m.Name + "(" + joinTypes(m.Inputs) + ")"
}

// String returns the signature with return types.
func (m *Method) String() string {
	if len(m.Outputs) == 0 {
		return m.Signature()
	}
	return m.Signature() + "(" + joinTypes(m.Outputs) + ")"
}

func joinTypes(args []Argument) string {
	names := make([]string, len(args))
	for i := range args {
		names[i] = args[i].Type.String()
	}
	return strings.Join(names, ",")
}

// Selector returns the 4-byte method identifier.
func (m *Method) Selector() [SelectorSize]byte {
	sig := m.Signature()
	if v, ok := selectors.Get(sig); ok {
		return v.([SelectorSize]byte)
	}
	sel := hash.Selector(sig)
	selectors.Add(sig, sel)
	return sel
}

// Pack returns call data: the selector followed by encoded arguments.
func (m *Method) Pack(args ...any) ([]byte, error) {
	b, err := Pack(m.InputTypes(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}
	sel := m.Selector()
	return append(sel[:], b...), nil
}

// Unpack decodes return data of the method.
func (m *Method) Unpack(data []byte) ([]any, error) {
	res, err := Unpack(m.OutputTypes(), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}
	return res, nil
}

// UnpackInput decodes call data produced by Pack, checking the selector.
func (m *Method) UnpackInput(data []byte) ([]any, error) {
	sel := m.Selector()
	if len(data) < SelectorSize || !bytes.Equal(data[:SelectorSize], sel[:]) {
		return nil, fmt.Errorf("%w: %s: selector mismatch", ErrDecode, m.Name)
	}
	return Unpack(m.InputTypes(), data[SelectorSize:])
}

// PackOutput encodes return values of the method, it's the inverse of
// Unpack.
func (m *Method) PackOutput(values ...any) ([]byte, error) {
	return Pack(m.OutputTypes(), values...)
}
