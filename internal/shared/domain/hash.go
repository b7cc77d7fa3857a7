package domain

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// HashLength is the width of a content address in bytes.
const HashLength = 32

// Hash is a keccak-256 content address.
type Hash [HashLength]byte

// ZeroHash is the unset digest.
var ZeroHash Hash

// ParseHash decodes a 0x-prefixed 64 character hex string.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := decodeHex(s, HashLength)
	if err != nil {
		return h, fmt.Errorf("%w: hash %q: %v", ErrInvalidParameters, s, err)
	}
	copy(h[:], raw)
	return h, nil
}

// MustParseHash is ParseHash that panics on error.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// IsZero reports whether the digest is unset.
func (h Hash) IsZero() bool { return h == ZeroHash }

// String returns the lowercase 0x-prefixed hex form.
func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Keccak256 returns the legacy keccak-256 digest of the concatenated inputs.
func Keccak256(data ...[]byte) Hash {
	var h Hash
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.Sum(h[:0])
	return h
}

// WordEncoder packs fields into consecutive 32-byte big-endian words, the
// same layout a contract ABI encoder produces for static types. Field order
// is part of every derived identity and must never change.
type WordEncoder struct {
	buf []byte
}

// NewWordEncoder returns an encoder with room for n words.
func NewWordEncoder(n int) *WordEncoder {
	return &WordEncoder{buf: make([]byte, 0, n*32)}
}

// Address appends a left-padded address word.
func (e *WordEncoder) Address(a Address) *WordEncoder {
	var w [32]byte
	copy(w[32-AddressLength:], a[:])
	e.buf = append(e.buf, w[:]...)
	return e
}

// Hash appends a digest word.
func (e *WordEncoder) Hash(h Hash) *WordEncoder {
	e.buf = append(e.buf, h[:]...)
	return e
}

// Uint64 appends an unsigned integer word.
func (e *WordEncoder) Uint64(v uint64) *WordEncoder {
	var w [32]byte
	for i := 0; i < 8; i++ {
		w[31-i] = byte(v >> (8 * i))
	}
	e.buf = append(e.buf, w[:]...)
	return e
}

// Amount appends a 256-bit unsigned integer word.
func (e *WordEncoder) Amount(a Amount) *WordEncoder {
	var w [32]byte
	a.Big().FillBytes(w[:])
	e.buf = append(e.buf, w[:]...)
	return e
}

// Bytes returns the encoded words.
func (e *WordEncoder) Bytes() []byte { return e.buf }

// Sum returns the keccak-256 digest of the encoded words.
func (e *WordEncoder) Sum() Hash { return Keccak256(e.buf) }
