package domain

import (
	"fmt"
	"math/big"
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Amount is a non-negative token quantity in base units, bounded by 2^256-1.
// The zero value is zero. Amounts are immutable; arithmetic returns new values.
type Amount struct {
	v *big.Int
}

// ZeroAmount is the zero quantity.
var ZeroAmount = Amount{}

// NewAmount creates an amount from a uint64.
func NewAmount(v uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(v)}
}

// AmountFromBig copies b into an amount, rejecting negative or oversized values.
func AmountFromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return ZeroAmount, nil
	}
	if b.Sign() < 0 || b.Cmp(maxUint256) > 0 {
		return ZeroAmount, fmt.Errorf("%w: amount %s out of range", ErrInvalidParameters, b)
	}
	return Amount{v: new(big.Int).Set(b)}, nil
}

// ParseAmount parses a base-10 amount.
func ParseAmount(s string) (Amount, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return ZeroAmount, fmt.Errorf("%w: amount %q is not a base-10 integer", ErrInvalidParameters, s)
	}
	return AmountFromBig(b)
}

// MustParseAmount is ParseAmount that panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Big returns a copy of the underlying integer.
func (a Amount) Big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.v == nil || a.v.Sign() == 0 }

// Cmp compares a and b.
func (a Amount) Cmp(b Amount) int { return a.Big().Cmp(b.Big()) }

// Equal reports whether a and b are the same quantity.
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

// Add returns a+b, failing when the sum exceeds 2^256-1.
func (a Amount) Add(b Amount) (Amount, error) {
	return AmountFromBig(new(big.Int).Add(a.Big(), b.Big()))
}

// Sub returns a-b, failing when b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	return AmountFromBig(new(big.Int).Sub(a.Big(), b.Big()))
}

// MulDiv returns a*num/den rounded down. The intermediate product is unbounded.
func (a Amount) MulDiv(num, den Amount) (Amount, error) {
	if den.IsZero() {
		return ZeroAmount, fmt.Errorf("%w: division by zero", ErrInvalidParameters)
	}
	p := new(big.Int).Mul(a.Big(), num.Big())
	return AmountFromBig(p.Quo(p, den.Big()))
}

// String returns the base-10 form.
func (a Amount) String() string { return a.Big().String() }

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
