package currency

import (
	"fmt"
	"math"
	"strings"
)

type style struct {
	symbol      string
	thousands   string
	decimal     string
	decimals    int
	symbolAfter bool
}

var styles = map[string]style{
	"EUR": {symbol: "€", thousands: ".", decimal: ",", decimals: 2, symbolAfter: true},
	"USD": {symbol: "$", thousands: ",", decimal: ".", decimals: 2},
	"GBP": {symbol: "£", thousands: ",", decimal: ".", decimals: 2},
	"IDR": {symbol: "IDR ", thousands: ".", decimal: ",", decimals: 0},
}

// Format renders amount in the conventions of the ISO currency code.
// Unknown codes fall back to "<amount> <CODE>" with two decimals.
func Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	st, ok := styles[code]
	if !ok {
		st = style{symbol: " " + code, thousands: ",", decimal: ".", decimals: 2, symbolAfter: true}
		if code == "" {
			st.symbol = ""
		}
	}

	factor := math.Pow10(st.decimals)
	rounded := math.Round(amount*factor) / factor

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	whole := math.Floor(rounded)
	intStr := fmt.Sprintf("%.0f", whole)
	formatted := addThousandsSeparator(intStr, st.thousands)

	if st.decimals > 0 {
		frac := math.Round((rounded - whole) * factor)
		formatted += st.decimal + fmt.Sprintf("%0*d", st.decimals, int64(frac))
	}

	var result string
	if st.symbolAfter {
		if strings.HasPrefix(st.symbol, " ") || st.symbol == "" {
			result = formatted + st.symbol
		} else {
			result = formatted + " " + st.symbol
		}
	} else {
		result = st.symbol + formatted
	}

	if negative {
		result = "-" + result
	}

	return result
}

func FormatIDR(amount float64) string {
	return Format(amount, "IDR")
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 || sep == "" {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
