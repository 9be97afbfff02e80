package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var priceNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice reads a catalog price such as "$1,299.99" or "129". It
// returns 0 for "N/A", empty or unparseable values, which Item treats as
// unknown.
func ParsePrice(s string) float64 {
	s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	if s == "" || strings.EqualFold(s, "n/a") {
		return 0
	}
	m := priceNumber.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// RankBefore orders search results: higher score first, then priced items
// before unpriced ones, then lower price, then id.
func RankBefore(a Item, aScore float64, b Item, bScore float64) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	if a.HasPrice() != b.HasPrice() {
		return a.HasPrice()
	}
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.ID < b.ID
}
