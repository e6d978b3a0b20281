package wallet

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F"))
	assert.True(t, IsValidAddress("0x0000000000000000000000000000000000000000"))

	assert.False(t, IsValidAddress(""))
	assert.False(t, IsValidAddress("not-an-address"))
	assert.False(t, IsValidAddress("0x123"))
	assert.False(t, IsValidAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976FFF"))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x71C7...976F",
		ShortAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F"))

	assert.Equal(t, "", ShortAddress(""))

	// Short strings pass through untouched.
	assert.Equal(t, "0x1234", ShortAddress("0x1234"))
	assert.Equal(t, "0x12345678", ShortAddress("0x12345678"))
}

func TestFormatBalance(t *testing.T) {
	mon := func(s string) *big.Int {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			t.Fatalf("bad big.Int literal %q", s)
		}
		return v
	}

	assert.Equal(t, "0.00", FormatBalance(nil))
	assert.Equal(t, "0.00", FormatBalance(big.NewInt(0)))
	assert.Equal(t, "0.00", FormatBalance(big.NewInt(-5)))

	// Dust below the threshold renders as zero.
	assert.Equal(t, "0.00", FormatBalance(big.NewInt(99_999_999_999_999)))

	// 1 MON
	assert.Equal(t, "1.0000", FormatBalance(mon("1000000000000000000")))

	// 1.5 MON
	assert.Equal(t, "1.5000", FormatBalance(mon("1500000000000000000")))

	// 0.1234 MON (fraction truncated, not rounded)
	assert.Equal(t, "0.1234", FormatBalance(mon("123456789000000000")))

	// 12345.6789... MON
	assert.Equal(t, "12345.6789", FormatBalance(mon("12345678900000000000000")))
}
