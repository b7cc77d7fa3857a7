package domain_test

import (
	"math/big"
	"testing"

	"github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_ZeroValue(t *testing.T) {
	var a domain.Amount
	assert.True(t, a.IsZero())
	assert.Equal(t, "0", a.String())
	assert.True(t, a.Equal(domain.NewAmount(0)))
}

func TestAmount_Arithmetic(t *testing.T) {
	a := domain.NewAmount(1_000_000)
	b := domain.NewAmount(1000)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "1001000", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "999000", diff.String())

	_, err = b.Sub(a)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)

	fee, err := a.MulDiv(domain.MustParseAmount("25000000000000000"), domain.MustParseAmount("1000000000000000000"))
	require.NoError(t, err)
	assert.Equal(t, "25000", fee.String())

	_, err = a.MulDiv(b, domain.ZeroAmount)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestAmount_Bounds(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	top, err := domain.AmountFromBig(max)
	require.NoError(t, err)

	_, err = top.Add(domain.NewAmount(1))
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)

	_, err = domain.AmountFromBig(big.NewInt(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)

	_, err = domain.ParseAmount("12abc")
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestAmount_BigIsCopy(t *testing.T) {
	a := domain.NewAmount(5)
	b := a.Big()
	b.SetInt64(9)
	assert.Equal(t, "5", a.String())
}
