package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"furnish/internal/adapter/analyzer"
	"furnish/internal/domain"
)

var ordinalWords = map[string]int{
	"first": 1, "1st": 1,
	"second": 2, "2nd": 2,
	"third": 3, "3rd": 3,
	"fourth": 4, "4th": 4,
	"fifth": 5, "5th": 5,
	"sixth": 6, "6th": 6,
	"seventh": 7, "7th": 7,
	"eighth": 8, "8th": 8,
	"ninth": 9, "9th": 9,
	"tenth": 10, "10th": 10,
}

var numberedRef = regexp.MustCompile(`(?:#|\bnumber\s+|\bno\.?\s*|\b(?:item|option|product|choice)\s+)(\d{1,2})\b`)

var deicticWords = map[string]struct{}{
	"it": {}, "that": {}, "this": {}, "thing": {},
}

// referenceCue says what kind of pointer an utterance carries.
type referenceCue int

const (
	cueNone referenceCue = iota
	cueOrdinal
	cueSuperlative
	cueDescriptor
	cueDeictic
)

// resolveReference maps an utterance onto an index into shown. It never
// picks a default when more than one candidate remains: those cases come
// back Ambiguous with the candidate indexes.
func resolveReference(text string, tokens []string, shown []domain.Item, superlative string) (domain.Reference, referenceCue) {
	if len(shown) == 0 {
		return domain.Reference{}, cueNone
	}

	if ordinals := ordinalIndexes(text, tokens, len(shown)); len(ordinals) > 0 {
		return pick(ordinals, len(shown)), cueOrdinal
	}

	if superlative != domain.SuperlativeNone {
		return pick(extremePriceIndexes(shown, superlative), len(shown)), cueSuperlative
	}

	if descriptors := descriptorTerms(tokens, shown); len(descriptors) > 0 {
		return pick(matchDescriptors(shown, descriptors), len(shown)), cueDescriptor
	}

	cue := cueNone
	for _, tok := range tokens {
		if _, ok := deicticWords[tok]; ok {
			cue = cueDeictic
			break
		}
	}

	// a pronoun, or no pointer at all, can only mean the single shown item
	if len(shown) == 1 {
		return domain.Reference{Index: 0, Resolved: true}, cue
	}
	return domain.Reference{Ambiguous: true, Candidates: allIndexes(len(shown))}, cue
}

// ordinalIndexes returns the distinct 0-based indexes named by ordinals.
// Out-of-range ordinals are returned as -1 so the caller can clarify.
func ordinalIndexes(text string, tokens []string, n int) []int {
	seen := make(map[int]struct{})
	var out []int
	add := func(pos int) {
		idx := pos - 1
		if pos < 1 || pos > n {
			idx = -1
		}
		if _, dup := seen[idx]; dup {
			return
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}

	for i, tok := range tokens {
		if pos, ok := ordinalWords[tok]; ok {
			add(pos)
			continue
		}
		// "the last one", but not "last time" or "at last"
		if tok == "last" && i+1 < len(tokens) && (tokens[i+1] == "one" || isItemNoun(tokens[i+1])) {
			add(n)
		}
	}
	for _, m := range numberedRef.FindAllStringSubmatch(strings.ToLower(text), -1) {
		if pos, err := strconv.Atoi(m[1]); err == nil {
			add(pos)
		}
	}
	return out
}

func isItemNoun(tok string) bool {
	if _, ok := analyzer.CategoryOf(tok); ok {
		return true
	}
	switch tok {
	case "item", "option", "product", "choice", "pick":
		return true
	}
	return false
}

// pick turns a candidate set into a Reference: one valid index resolves,
// anything else is ambiguous.
func pick(candidates []int, n int) domain.Reference {
	if len(candidates) == 1 && candidates[0] >= 0 {
		return domain.Reference{Index: candidates[0], Resolved: true}
	}
	valid := make([]int, 0, len(candidates))
	for _, c := range candidates {
		if c >= 0 {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		valid = allIndexes(n)
	}
	return domain.Reference{Ambiguous: true, Candidates: valid}
}

// extremePriceIndexes returns the cheapest or priciest priced items.
func extremePriceIndexes(shown []domain.Item, superlative string) []int {
	var best []int
	var bestPrice float64
	for i, it := range shown {
		if !it.HasPrice() {
			continue
		}
		better := len(best) == 0 ||
			(superlative == domain.SuperlativeCheapest && it.Price < bestPrice) ||
			(superlative == domain.SuperlativePriciest && it.Price > bestPrice)
		switch {
		case better:
			best = []int{i}
			bestPrice = it.Price
		case it.Price == bestPrice:
			best = append(best, i)
		}
	}
	if len(best) == 0 {
		return allIndexes(len(shown))
	}
	return best
}

// descriptorTerms returns the tokens describing an item ("the blue one",
// "the FANYE sofa") rather than asking about it.
func descriptorTerms(tokens []string, shown []domain.Item) []string {
	brands := shownBrands(shown)
	var out []string
	for _, tok := range tokens {
		if _, ok := analyzer.ColorOf(tok); ok {
			out = append(out, tok)
			continue
		}
		if _, ok := analyzer.MaterialOf(tok); ok {
			out = append(out, tok)
			continue
		}
		if _, ok := brands[tok]; ok {
			out = append(out, tok)
			continue
		}
		if c, ok := analyzer.CategoryOf(tok); ok && analyzer.IsFurniture(c) {
			out = append(out, tok)
		}
	}
	return out
}

// matchDescriptors returns the indexes of items whose title or attributes
// mention every descriptor.
func matchDescriptors(shown []domain.Item, descriptors []string) []int {
	var out []int
	for i, it := range shown {
		if itemMentionsAll(it, descriptors) {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		return allIndexes(len(shown))
	}
	return out
}

func itemMentionsAll(it domain.Item, terms []string) bool {
	var b strings.Builder
	b.WriteString(strings.ToLower(it.Title))
	for _, v := range it.Attributes {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(v))
	}
	text := b.String()
	category := itemCategory(it)

	for _, term := range terms {
		if c, ok := analyzer.ColorOf(term); ok && analyzer.ColorMatches(c, text) {
			continue
		}
		if m, ok := analyzer.MaterialOf(term); ok && analyzer.MaterialMatches(m, text) {
			continue
		}
		if c, ok := analyzer.CategoryOf(term); ok && c == category {
			continue
		}
		if strings.Contains(text, term) {
			continue
		}
		return false
	}
	return true
}

func shownBrands(shown []domain.Item) map[string]struct{} {
	brands := make(map[string]struct{})
	for _, it := range shown {
		if b, ok := it.Attr(domain.AttrBrand); ok {
			brands[strings.ToLower(b)] = struct{}{}
		}
	}
	return brands
}

// itemCategory returns the item's category attribute, or classifies its title.
func itemCategory(it domain.Item) string {
	if c, ok := it.Attr(domain.AttrCategory); ok {
		if cat, known := analyzer.HeadCategory(c); known {
			return cat
		}
	}
	return analyzer.ClassifyTitle(it.Title)
}

func allIndexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
