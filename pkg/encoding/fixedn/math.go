package fixedn

import (
	"fmt"

	"github.com/holiman/uint256"
)

// MulChecked returns a*b or ErrOverflow if the product doesn't fit into 256
// bits.
func MulChecked(a, b *uint256.Int) (*uint256.Int, error) {
	res, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s", ErrOverflow, a.Dec(), b.Dec())
	}
	return res, nil
}

// AddChecked returns a+b or ErrOverflow if the sum doesn't fit into 256 bits.
func AddChecked(a, b *uint256.Int) (*uint256.Int, error) {
	res, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, fmt.Errorf("%w: %s + %s", ErrOverflow, a.Dec(), b.Dec())
	}
	return res, nil
}

// Pow10 returns 10^n for n within [0, MaxPrecision].
func Pow10(n int) (*uint256.Int, error) {
	if n < 0 || n > MaxPrecision {
		return nil, fmt.Errorf("%w: 10^%d", ErrOverflow, n)
	}
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(n))), nil
}
