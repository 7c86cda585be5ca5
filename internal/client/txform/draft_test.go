package txform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCardNumber(t *testing.T) {
	assert.Equal(t, "9999000000000001", NormalizeCardNumber("9999 0000 0000 0001"))
	assert.Equal(t, "9999000000000001", NormalizeCardNumber("9999-0000-0000-0001-777"))
	assert.Equal(t, "", NormalizeCardNumber("abcd"))
}

func TestNormalizeCVV(t *testing.T) {
	assert.Equal(t, "123", NormalizeCVV("1a2b3"))
	assert.Equal(t, "1234", NormalizeCVV("123456"))
}

func TestNormalizeExpiration(t *testing.T) {
	tests := map[string]string{
		"":        "",
		"1":       "1",
		"12":      "12",
		"123":     "12/3",
		"1299":    "12/99",
		"12/99":   "12/99",
		"12/9999": "12/99",
		"ab0125":  "01/25",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeExpiration(in), "input %q", in)
	}
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, "1.5", ParseAmount(" 1.5 ").String())
	assert.True(t, ParseAmount("abc").IsZero())
	assert.True(t, ParseAmount("").IsZero())
	assert.Equal(t, "-2", ParseAmount("-2").String())
}

func TestFormatCard(t *testing.T) {
	assert.Equal(t, "9999 0000 0000 0001", FormatCard("9999000000000001"))
	assert.Equal(t, "9999 00", FormatCard("999900"))
	assert.Equal(t, "", FormatCard(""))
}
