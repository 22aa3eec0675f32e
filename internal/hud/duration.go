package hud

import (
	"math"
	"strconv"
	"strings"
)

// Placeholder is rendered wherever a value is absent or not finite.
const Placeholder = "—"

// exactDigits is enough fractional digits to print any float64 exactly.
const exactDigits = 1100

// FormatDuration formats milliseconds for display: two decimals below 1ms,
// one decimal below 100ms, whole milliseconds otherwise.
func FormatDuration(ms float64) string {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return Placeholder
	}
	switch {
	case ms < 1:
		return toFixed(ms, 2) + "ms"
	case ms < 100:
		return toFixed(ms, 1) + "ms"
	default:
		return strconv.FormatFloat(math.Round(ms), 'f', 0, 64) + "ms"
	}
}

// toFixed formats x with the given number of decimals. Exact ties round
// away from zero, unlike strconv which rounds them to even.
func toFixed(x float64, decimals int) string {
	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}

	exact := strconv.FormatFloat(x, 'f', exactDigits, 64)
	cut := strings.IndexByte(exact, '.') + 1 + decimals
	head := exact[:cut]
	if exact[cut] < '5' {
		return sign + head
	}

	v, err := strconv.ParseFloat(head, 64)
	if err != nil {
		return sign + strconv.FormatFloat(x, 'f', decimals, 64)
	}
	return sign + strconv.FormatFloat(v+math.Pow10(-decimals), 'f', decimals, 64)
}
