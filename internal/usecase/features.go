package usecase

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"furnish/internal/adapter/analyzer"
	"furnish/internal/domain"
)

const maxKeyFeatures = 4

type featurePattern struct {
	re       *regexp.Regexp
	priority int
}

var featurePatterns = []featurePattern{
	{regexp.MustCompile(`(?i)(\d+\s*(?:drawer|shelf|shelves|tier|piece|seater|seat)s?)`), 1},
	{regexp.MustCompile(`(?i)(adjustable|foldable|convertible|extendable|reclining)`), 1},
	{regexp.MustCompile(`(?i)(storage|space-saving)`), 1},
	{regexp.MustCompile(`(?i)(ergonomic|lumbar support)`), 1},
	{regexp.MustCompile(`(?i)(upholstered|cushioned|padded)`), 1},
	{regexp.MustCompile(`(?i)(leather|velvet|linen|wood|metal)`), 2},
	{regexp.MustCompile(`(?i)(modular|sectional)`), 1},
}

var defaultFeatures = []string{"Quality Construction", "Stylish Design"}

var bestForByCategory = map[string]string{
	analyzer.CategorySofa:    "Perfect for living room relaxation",
	analyzer.CategoryBed:     "Ideal for comfortable sleeping",
	analyzer.CategoryChair:   "Comfortable seating",
	analyzer.CategoryTable:   "Functional surface for any space",
	analyzer.CategoryOttoman: "Extra seating and a place to put your feet up",
	analyzer.CategoryStorage: "Keeps your space organized",
}

// deriveFeatures fills KeyFeatures and BestFor from the title and description.
func deriveFeatures(it domain.Item) domain.Item {
	desc, _ := it.Attr(domain.AttrDescription)
	text := strings.ToLower(it.Title + " " + desc)

	type hit struct {
		text     string
		priority int
	}
	var hits []hit
	for _, p := range featurePatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			hits = append(hits, hit{text: m[1], priority: p.priority})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].priority < hits[j].priority
	})

	// a Caser is stateful, so each call gets its own
	caser := cases.Title(language.English)
	var features []string
	seen := make(map[string]struct{})
	for _, h := range hits {
		key := strings.TrimSpace(h.text)
		if _, dup := seen[key]; dup || len(features) >= maxKeyFeatures {
			continue
		}
		seen[key] = struct{}{}
		features = append(features, caser.String(key))
	}
	if len(features) == 0 {
		features = append([]string(nil), defaultFeatures...)
	}

	it.KeyFeatures = features
	it.BestFor = bestFor(it)
	return it
}

func bestFor(it domain.Item) string {
	if s, ok := bestForByCategory[itemCategory(it)]; ok {
		return s
	}
	return "Enhance your living space"
}
