package abi

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrUnknownMethod is returned for methods missing from a Contract.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrAmbiguousMethod is returned when an overloaded method is requested
	// by name only.
	ErrAmbiguousMethod = errors.New("ambiguous method")
)

// Contract is a data-driven contract interface: a set of methods indexed by
// name and signature. It's immutable after creation and safe for concurrent
// use.
type Contract struct {
	byName map[string][]*Method
	bySig  map[string]*Method
}

// NewContract creates a contract interface from method descriptions.
// Overloaded methods are allowed, but signatures must be unique.
func NewContract(methods ...*Method) (*Contract, error) {
	c := &Contract{
		byName: make(map[string][]*Method, len(methods)),
		bySig:  make(map[string]*Method, len(methods)),
	}
	for _, m := range methods {
		sig := m.Signature()
		if _, ok := c.bySig[sig]; ok {
			return nil, fmt.Errorf("duplicate method %s", sig)
		}
		c.bySig[sig] = m
		c.byName[m.Name] = append(c.byName[m.Name], m)
	}
	return c, nil
}

// ParseContract creates a contract interface from method signatures, see
// ParseMethod.
func ParseContract(signatures ...string) (*Contract, error) {
	methods := make([]*Method, 0, len(signatures))
	for _, s := range signatures {
		m, err := ParseMethod(s)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return NewContract(methods...)
}

// MustParseContract is the same as ParseContract, but panics on error. It's
// intended for package-level interface definitions.
func MustParseContract(signatures ...string) *Contract {
	c, err := ParseContract(signatures...)
	if err != nil {
		panic(err)
	}
	return c
}

type jsonArgument struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type jsonEntry struct {
	Type    string         `json:"type"`
	Name    string         `json:"name"`
	Inputs  []jsonArgument `json:"inputs"`
	Outputs []jsonArgument `json:"outputs"`
}

// ParseJSON creates a contract interface from the JSON ABI produced by
// Solidity compilers. Only functions are taken into account; events,
// errors and constructors are skipped.
func ParseJSON(data []byte) (*Contract, error) {
	var entries []jsonEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid JSON ABI: %w", err)
	}
	var methods []*Method
	for _, e := range entries {
		if e.Type != "function" && e.Type != "" {
			continue
		}
		m := &Method{Name: e.Name}
		for _, lst := range []struct {
			src []jsonArgument
			dst *[]Argument
		}{{e.Inputs, &m.Inputs}, {e.Outputs, &m.Outputs}} {
			for _, a := range lst.src {
				t, err := ParseType(a.Type)
				if err != nil {
					return nil, fmt.Errorf("method %s: %w", e.Name, err)
				}
				*lst.dst = append(*lst.dst, Argument{Name: a.Name, Type: t})
			}
		}
		methods = append(methods, m)
	}
	return NewContract(methods...)
}

// Method returns the method with the given name or signature like
// "safeTransferFrom(address,address,uint256)". Overloaded methods can only be
// requested by signature.
func (c *Contract) Method(name string) (*Method, error) {
	if strings.ContainsRune(name, '(') {
		m, err := ParseMethod(name)
		if err != nil {
			return nil, err
		}
		res, ok := c.bySig[m.Signature()]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, m.Signature())
		}
		return res, nil
	}
	ms := c.byName[name]
	switch len(ms) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	case 1:
		return ms[0], nil
	}
	sigs := make([]string, len(ms))
	for i := range ms {
		sigs[i] = ms[i].Signature()
	}
	slices.Sort(sigs)
	return nil, fmt.Errorf("%w: %s, use one of %s", ErrAmbiguousMethod, name, strings.Join(sigs, ", "))
}

// Methods returns sorted method names, overloaded ones are listed once.
func (c *Contract) Methods() []string {
	names := make([]string, 0, len(c.byName))
	for n := range c.byName {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Pack returns call data for the named method.
func (c *Contract) Pack(name string, args ...any) ([]byte, error) {
	m, err := c.Method(name)
	if err != nil {
		return nil, err
	}
	return m.Pack(args...)
}

// Unpack decodes return data of the named method.
func (c *Contract) Unpack(name string, data []byte) ([]any, error) {
	m, err := c.Method(name)
	if err != nil {
		return nil, err
	}
	return m.Unpack(data)
}
