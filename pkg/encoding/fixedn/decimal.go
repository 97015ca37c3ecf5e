/*
Package fixedn converts between decimal strings and integer amounts of base
units. An amount is an unsigned 256-bit integer; a human readable value is the
amount divided by 10^precision. All conversions are exact, no floating point
arithmetic is involved.
*/
package fixedn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Commonly used precisions.
const (
	// EtherDecimals is the precision of the native currency.
	EtherDecimals = 18
	// GweiDecimals is the precision of gwei expressed in wei.
	GweiDecimals = 9
	// MaxPrecision is the largest precision for which 10^precision fits
	// into 256 bits.
	MaxPrecision = 77
)

var (
	// ErrInvalidFormat is returned for malformed decimal strings and for
	// values that can't be represented with the given precision.
	ErrInvalidFormat = errors.New("invalid decimal format")
	// ErrOverflow is returned when the value doesn't fit into 256 bits.
	ErrOverflow = errors.New("value overflows 256 bits")
)

// FromString converts a decimal string like "0.001" into an integer amount of
// base units, 10^-precision each. The string must be digits optionally
// followed by a point and more digits; signs, exponents and whitespace are
// rejected. Fractional digits beyond precision are only accepted if they're
// zeros.
func FromString(s string, precision int) (*uint256.Int, error) {
	if precision < 0 || precision > MaxPrecision {
		return nil, fmt.Errorf("%w: precision %d is out of range", ErrInvalidFormat, precision)
	}
	intPart, fracPart, hasPoint := strings.Cut(s, ".")
	if !isDigits(intPart) || (hasPoint && !isDigits(fracPart)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if len(fracPart) > precision {
		if strings.TrimRight(fracPart[precision:], "0") != "" {
			return nil, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidFormat, s, precision)
		}
		fracPart = fracPart[:precision]
	}
	digits := strings.TrimLeft(intPart+fracPart+strings.Repeat("0", precision-len(fracPart)), "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return v, nil
}

// ToString converts an integer amount of base units into a decimal string with
// the given precision. Trailing fractional zeros are trimmed and the point is
// omitted for integral values, so ToString(0, 18) is "0".
func ToString(v *uint256.Int, precision int) string {
	if v == nil {
		v = new(uint256.Int)
	}
	digits := v.Dec()
	if precision <= 0 {
		return digits
	}
	if len(digits) <= precision {
		digits = strings.Repeat("0", precision-len(digits)+1) + digits
	}
	var (
		point = len(digits) - precision
		frac  = strings.TrimRight(digits[point:], "0")
	)
	if frac == "" {
		return digits[:point]
	}
	return digits[:point] + "." + frac
}

// Normalize returns the canonical form of the decimal string s: no leading
// integer zeros and no trailing fractional zeros.
func Normalize(s string, precision int) (string, error) {
	v, err := FromString(s, precision)
	if err != nil {
		return "", err
	}
	return ToString(v, precision), nil
}

func isDigits(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
