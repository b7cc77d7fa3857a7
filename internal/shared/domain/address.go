package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the width of an account address in bytes.
const AddressLength = 20

// Address identifies an account on the asset ledger.
type Address [AddressLength]byte

// ZeroAddress is the unset account.
var ZeroAddress Address

// ParseAddress decodes a 0x-prefixed 40 character hex string.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := decodeHex(s, AddressLength)
	if err != nil {
		return a, fmt.Errorf("%w: address %q: %v", ErrInvalidParameters, s, err)
	}
	copy(a[:], raw)
	return a, nil
}

// MustParseAddress is ParseAddress that panics on error. Intended for tests and constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes right-aligns b into an address, keeping the last 20 bytes.
func AddressFromBytes(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == ZeroAddress }

// String returns the lowercase 0x-prefixed hex form.
func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func decodeHex(s string, size int) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != size*2 {
		return nil, fmt.Errorf("expected %d hex characters, got %d", size*2, len(s))
	}
	return hex.DecodeString(s)
}
