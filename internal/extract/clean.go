package extract

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ppiankov/claimflow/internal/model"
)

// Clean normalizes a captured value. It collapses whitespace runs, trims,
// strips trailing colons and commas, and returns "" for empty values and
// placeholders made only of punctuation or whitespace ("-", "_", "...").
func Clean(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	value = strings.TrimRight(value, ",: ")

	if value == "" || isPlaceholder(value) {
		return ""
	}
	return value
}

// isPlaceholder reports whether s holds no letters, digits or symbols
func isPlaceholder(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// parseAmount turns "12,345.67" into a present Amount. Unparseable input is absent.
func parseAmount(raw string) model.Amount {
	digits := strings.ReplaceAll(raw, ",", "")
	if digits == "" {
		return model.Amount{}
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil || v < 0 {
		return model.Amount{}
	}
	return model.NewAmount(v)
}
