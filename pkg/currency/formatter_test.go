package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		amount float64
		code   string
		want   string
	}{
		{250, "EUR", "250,00 €"},
		{1234.5, "EUR", "1.234,50 €"},
		{600, "usd", "$600.00"},
		{1500000, "IDR", "IDR 1.500.000"},
		{-42.1, "GBP", "-£42.10"},
		{10, "CHF", "10.00 CHF"},
		{0, "", "0.00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Format(c.amount, c.code), "%v %s", c.amount, c.code)
	}
}

func TestFormatIDR(t *testing.T) {
	assert.Equal(t, "IDR 999", FormatIDR(999))
	assert.Equal(t, "IDR 1.000", FormatIDR(999.6))
}
