package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"furnish/internal/adapter/analyzer"
	"furnish/internal/domain"
)

// ContextualizeOptions tunes constraint carry-over.
type ContextualizeOptions struct {
	MaxCarryTurns         int     // preceding search turns folded into a query
	ResetOnCategoryChange bool    // a contradicting category drops carried filters
	PriceStep             float64 // fraction applied by "cheaper" / "more expensive"
}

// Contextualizer folds multi-turn constraints into one self-contained Query.
type Contextualizer struct {
	classifier *IntentClassifier
	tokenizer  *analyzer.Tokenizer
	opts       ContextualizeOptions
}

// NewContextualizer creates a new contextualizer.
func NewContextualizer(classifier *IntentClassifier, opts ContextualizeOptions) *Contextualizer {
	if opts.PriceStep <= 0 || opts.PriceStep >= 1 {
		opts.PriceStep = 0.2
	}
	return &Contextualizer{
		classifier: classifier,
		tokenizer:  analyzer.NewTokenizer(true),
		opts:       opts,
	}
}

// extraction is what a single utterance says on its own.
type extraction struct {
	filters     domain.Filters
	category    string // may be a non-furniture category
	refinements []refinement
	residue     []string
}

// Contextualize builds the Query for a search or show_more utterance.
func (c *Contextualizer) Contextualize(utterance string, session domain.SessionContext) domain.Query {
	q := domain.Query{Raw: utterance}
	brands := brandLookup(session.LastShown)

	current := c.extract(utterance, brands)
	if current.category != "" && !analyzer.IsFurniture(current.category) {
		q.OutOfDomain = current.category
		q.Resolved = strings.TrimSpace(utterance)
		return q
	}

	acc, carriedResidue := c.carry(utterance, session.History, session.LastShown, brands)
	if c.opts.ResetOnCategoryChange && current.filters.Category != "" &&
		acc.Category != "" && acc.Category != current.filters.Category {
		acc = domain.Filters{}
		carriedResidue = nil
	}

	filters := acc.Merge(current.filters)
	filters, toneWords := c.refine(filters, current.refinements, session.LastShown)

	residue := dedupeWords(append(append(carriedResidue, current.residue...), toneWords...))
	q.Filters = filters
	q.Resolved = resolvedText(filters, residue)
	if q.Resolved == "" {
		q.Resolved = strings.TrimSpace(utterance)
	}
	return q
}

// carry accumulates filters from the preceding search turns, oldest first.
// shown holds the results of the latest of those turns.
func (c *Contextualizer) carry(utterance string, history []domain.Turn, shown []domain.Item, brands map[string]string) (domain.Filters, []string) {
	limit := c.opts.MaxCarryTurns
	if limit <= 0 {
		return domain.Filters{}, nil
	}

	var turns []string
	skippedCurrent := false
	for i := len(history) - 1; i >= 0 && len(turns) < limit; i-- {
		t := history[i]
		if t.Role != domain.RoleUser {
			continue
		}
		// clients may already have appended the current utterance
		if !skippedCurrent && i == len(history)-1 && strings.EqualFold(strings.TrimSpace(t.Text), strings.TrimSpace(utterance)) {
			skippedCurrent = true
			continue
		}
		if !c.classifier.IsSearchTurn(t.Text) {
			continue
		}
		turns = append(turns, t.Text)
	}

	var acc domain.Filters
	var residue []string
	priceMove := refineNone
	for i := len(turns) - 1; i >= 0; i-- {
		ex := c.extract(turns[i], brands)
		if ex.category != "" && !analyzer.IsFurniture(ex.category) {
			acc, residue, priceMove = domain.Filters{}, nil, refineNone
			continue
		}
		if c.opts.ResetOnCategoryChange && ex.filters.Category != "" &&
			acc.Category != "" && acc.Category != ex.filters.Category {
			acc, residue, priceMove = domain.Filters{}, nil, refineNone
		}
		acc = acc.Merge(ex.filters)
		if ex.filters.PriceMin > 0 || ex.filters.PriceMax > 0 {
			priceMove = refineNone
		}
		// without the items shown back then, refinements can only move
		// bounds that were already stated
		acc, _ = c.refine(acc, ex.refinements, nil)
		for _, r := range ex.refinements {
			if r == refineCheaper || r == refinePricier {
				priceMove = r
			}
		}
		residue = append(residue, ex.residue...)
	}
	return holdPriceMove(acc, priceMove, shown), residue
}

// holdPriceMove keeps a replayed "cheaper" or "more expensive" at least as
// tight as the results it produced: those results are the shown items.
func holdPriceMove(f domain.Filters, move refinement, shown []domain.Item) domain.Filters {
	switch move {
	case refineCheaper:
		if hi, ok := shownPriceBound(shown, true); ok && (f.PriceMax == 0 || hi < f.PriceMax) {
			f.PriceMax = hi
			if f.PriceMin >= f.PriceMax {
				f.PriceMin = 0
			}
		}
	case refinePricier:
		if lo, ok := shownPriceBound(shown, false); ok && lo > f.PriceMin {
			f.PriceMin = lo
			if f.PriceMax > 0 && f.PriceMax <= f.PriceMin {
				f.PriceMax = 0
			}
		}
	}
	return f
}

// extract reads the constraints stated by one utterance.
func (c *Contextualizer) extract(text string, brands map[string]string) extraction {
	lower := normalizeUtterance(text)
	lo, hi, rest := extractPrice(lower)

	ex := extraction{refinements: refinementsOf(rest)}
	ex.filters.PriceMin = lo
	ex.filters.PriceMax = hi

	if cat, ok := analyzer.HeadCategory(rest); ok {
		ex.category = cat
		if analyzer.IsFurniture(cat) {
			ex.filters.Category = cat
		}
	}

	for _, tok := range c.tokenizer.Tokenize(rest) {
		if b, ok := brands[tok]; ok {
			if ex.filters.Brand == "" {
				ex.filters.Brand = b
			}
			continue
		}
		if col, ok := analyzer.ColorOf(tok); ok {
			if ex.filters.Color == "" {
				ex.filters.Color = col
			}
			continue
		}
		if m, ok := analyzer.MaterialOf(tok); ok {
			if ex.filters.Material == "" {
				ex.filters.Material = m
			}
			continue
		}
		if sz, ok := analyzer.SizeOf(tok); ok {
			if ex.filters.Size == domain.SizeAny {
				ex.filters.Size = domain.Size(sz)
			}
			continue
		}
		if _, ok := analyzer.CategoryOf(tok); ok {
			continue
		}
		if isFillerWord(tok) {
			continue
		}
		ex.residue = append(ex.residue, tok)
	}
	return ex
}

// refine applies directional adjustments. Price moves are relative to the
// tighter of the existing bound and the shown items; tone moves shift the
// active color, or the color of the first shown item.
func (c *Contextualizer) refine(f domain.Filters, refs []refinement, shown []domain.Item) (domain.Filters, []string) {
	var words []string
	for _, r := range refs {
		switch r {
		case refineCheaper:
			ref := f.PriceMax
			if hi, ok := shownPriceBound(shown, true); ok && (ref == 0 || hi < ref) {
				ref = hi
			}
			if ref == 0 {
				words = append(words, "affordable")
				continue
			}
			f.PriceMax = roundCents(ref * (1 - c.opts.PriceStep))
			if f.PriceMin >= f.PriceMax {
				f.PriceMin = 0
			}
		case refinePricier:
			ref := f.PriceMin
			if lo, ok := shownPriceBound(shown, false); ok && lo > ref {
				ref = lo
			}
			if ref == 0 {
				words = append(words, "premium")
				continue
			}
			f.PriceMin = roundCents(ref * (1 + c.opts.PriceStep))
			if f.PriceMax > 0 && f.PriceMax <= f.PriceMin {
				f.PriceMax = 0
			}
		case refineBigger:
			f.Size = domain.SizeLarge
		case refineSmaller:
			f.Size = domain.SizeSmall
		case refineLighter, refineDarker:
			base := f.Color
			if base == "" {
				base = shownColor(shown)
			}
			if base == "" {
				if r == refineLighter {
					words = append(words, "light")
				} else {
					words = append(words, "dark")
				}
				continue
			}
			if r == refineLighter {
				f.Color = analyzer.LighterColor(base)
			} else {
				f.Color = analyzer.DarkerColor(base)
			}
		}
	}
	return f, words
}

// resolvedText renders filters and descriptive words as a standalone query.
func resolvedText(f domain.Filters, residue []string) string {
	var parts []string
	if f.Size != domain.SizeAny {
		parts = append(parts, string(f.Size))
	}
	if f.Color != "" {
		parts = append(parts, f.Color)
	}
	if f.Material != "" {
		parts = append(parts, f.Material)
	}
	if f.Brand != "" {
		parts = append(parts, f.Brand)
	}
	parts = append(parts, residue...)
	if f.Category != "" && f.Category != analyzer.CategoryOther {
		parts = append(parts, analyzer.ExpandCategory(f.Category))
	}
	if p := pricePhrase(f); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

func pricePhrase(f domain.Filters) string {
	switch {
	case f.PriceMin > 0 && f.PriceMax > 0:
		return fmt.Sprintf("between %s and %s", formatPrice(f.PriceMin), formatPrice(f.PriceMax))
	case f.PriceMax > 0:
		return "under " + formatPrice(f.PriceMax)
	case f.PriceMin > 0:
		return "over " + formatPrice(f.PriceMin)
	}
	return ""
}

const priceNum = `\$?\s*(\d+(?:\.\d+)?)\s*(k\b)?\s*(?:dollars|bucks|usd)?`

var (
	priceBetween = regexp.MustCompile(`\b(?:between|from)\s*` + priceNum + `\s*(?:and|to|-)\s*` + priceNum)
	priceRange   = regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)\s*(k\b)?\s*(?:-|to)\s*\$?\s*(\d+(?:\.\d+)?)\s*(k\b)?`)
	priceUnder   = regexp.MustCompile(`(?:\b(?:under|below|less than|cheaper than|at most|up to|no more than|max(?:imum)?(?: of)?|within|budget(?: of| is)?(?: around| about)?)|<)\s*` + priceNum)
	priceOver    = regexp.MustCompile(`(?:\b(?:over|above|more than|at least|starting at|min(?:imum)?(?: of)?)|>)\s*` + priceNum)
	priceSuffix  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(k\b)?\s*\$`)
	priceBare    = regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)\s*(k\b)?`)
)

// extractPrice finds price bounds in lowercase text and returns the text
// with the matched phrases removed.
func extractPrice(text string) (lo, hi float64, rest string) {
	rest = strings.ReplaceAll(text, ",", "")

	if m := priceBetween.FindStringSubmatch(rest); m != nil {
		lo, hi = parseAmount(m[1], m[2]), parseAmount(m[3], m[4])
		rest = strings.Replace(rest, m[0], " ", 1)
	} else if m := priceRange.FindStringSubmatch(rest); m != nil {
		lo, hi = parseAmount(m[1], m[2]), parseAmount(m[3], m[4])
		rest = strings.Replace(rest, m[0], " ", 1)
	}
	if lo > hi && hi > 0 {
		lo, hi = hi, lo
	}

	if hi == 0 {
		if m := priceUnder.FindStringSubmatch(rest); m != nil {
			hi = parseAmount(m[1], m[2])
			rest = strings.Replace(rest, m[0], " ", 1)
		}
	}
	if lo == 0 {
		if m := priceOver.FindStringSubmatch(rest); m != nil {
			lo = parseAmount(m[1], m[2])
			rest = strings.Replace(rest, m[0], " ", 1)
		}
	}
	if hi == 0 && lo == 0 {
		for _, re := range []*regexp.Regexp{priceSuffix, priceBare} {
			if m := re.FindStringSubmatch(rest); m != nil {
				hi = parseAmount(m[1], m[2])
				rest = strings.Replace(rest, m[0], " ", 1)
				break
			}
		}
	}
	return lo, hi, rest
}

func parseAmount(num, thousands string) float64 {
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if thousands == "k" {
		v *= 1000
	}
	return v
}

// refinement is a directional adjustment relative to the current results.
type refinement int

const (
	refineNone refinement = iota
	refineCheaper
	refinePricier
	refineBigger
	refineSmaller
	refineLighter
	refineDarker
)

var refinementPhrases = []struct {
	phrase string
	kind   refinement
}{
	{"less expensive", refineCheaper},
	{"more affordable", refineCheaper},
	{"lower price", refineCheaper},
	{"cheaper", refineCheaper},
	{"more expensive", refinePricier},
	{"higher price", refinePricier},
	{"higher end", refinePricier},
	{"higher-end", refinePricier},
	{"pricier", refinePricier},
	{"fancier", refinePricier},
	{"bigger", refineBigger},
	{"larger", refineBigger},
	{"roomier", refineBigger},
	{"smaller", refineSmaller},
	{"more compact", refineSmaller},
	{"lighter", refineLighter},
	{"darker", refineDarker},
}

// refinementsOf lists the refinements a text asks for, once each.
func refinementsOf(text string) []refinement {
	var out []refinement
	seen := make(map[refinement]struct{})
	for _, rp := range refinementPhrases {
		if !strings.Contains(text, rp.phrase) {
			continue
		}
		if _, dup := seen[rp.kind]; dup {
			continue
		}
		seen[rp.kind] = struct{}{}
		out = append(out, rp.kind)
	}
	return out
}

// refinementOf returns the first refinement in text, ignoring price
// comparisons with an explicit amount ("cheaper than $300").
func refinementOf(text string) refinement {
	_, _, rest := extractPrice(text)
	if refs := refinementsOf(rest); len(refs) > 0 {
		return refs[0]
	}
	return refineNone
}

var fillerWords = map[string]struct{}{
	"one": {}, "ones": {}, "item": {}, "product": {}, "option": {}, "furniture": {},
	"piece": {}, "thing": {}, "stuff": {}, "the": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "them": {}, "it": {}, "what": {}, "about": {},
	"how": {}, "which": {}, "more": {}, "less": {}, "than": {}, "there": {},
	"price": {}, "priced": {}, "color": {}, "colour": {}, "size": {}, "material": {},
	"brand": {}, "made": {}, "dollar": {}, "buck": {}, "budget": {}, "under": {},
	"over": {}, "below": {}, "above": {}, "around": {}, "cheap": {}, "cheaper": {},
	"expensive": {}, "pricier": {}, "affordable": {}, "bigger": {}, "smaller": {},
	"lighter": {}, "darker": {}, "larger": {}, "fancier": {}, "roomier": {}, "higher": {},
	"lower": {}, "end": {}, "else": {}, "anything": {}, "other": {}, "again": {},
	"maybe": {}, "now": {}, "instead": {}, "really": {}, "very": {}, "good": {},
	"nice": {}, "new": {}, "buy": {}, "shop": {}, "store": {}, "home": {}, "us": {},
	"they": {}, "he": {}, "she": {}, "him": {}, "her": {}, "their": {}, "who": {},
	"okay": {}, "ok": {}, "yes": {}, "no": {}, "hi": {}, "hello": {}, "hey": {},
	"thank": {}, "thanks": {}, "search": {}, "looking": {}, "look": {}, "give": {},
	"see": {}, "let": {}, "all": {}, "only": {}, "same": {}, "too": {}, "much": {},
}

func isFillerWord(tok string) bool {
	if _, ok := fillerWords[tok]; ok {
		return true
	}
	if _, err := strconv.ParseFloat(tok, 64); err == nil {
		return true
	}
	return len(tok) < 2
}

// brandLookup maps lowercase brand tokens onto the brand as the catalog
// spells it. Only single-token brands are recognised.
func brandLookup(shown []domain.Item) map[string]string {
	out := make(map[string]string)
	for _, it := range shown {
		b, ok := it.Attr(domain.AttrBrand)
		if !ok || strings.ContainsAny(b, " \t") {
			continue
		}
		out[analyzer.Singular(strings.ToLower(b))] = b
	}
	return out
}

// shownPriceBound returns the highest (or lowest) known price among shown.
func shownPriceBound(shown []domain.Item, highest bool) (float64, bool) {
	found := false
	var bound float64
	for _, it := range shown {
		if !it.HasPrice() {
			continue
		}
		if !found || (highest && it.Price > bound) || (!highest && it.Price < bound) {
			bound = it.Price
			found = true
		}
	}
	return bound, found
}

func shownColor(shown []domain.Item) string {
	for _, it := range shown {
		v, ok := it.Attr(domain.AttrColor)
		if !ok {
			continue
		}
		for _, tok := range analyzer.NewTokenizer(false).Tokenize(v) {
			if c, ok := analyzer.ColorOf(tok); ok {
				return c
			}
		}
	}
	return ""
}

func dedupeWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatPrice renders a price as "$129.99", or "$500" for whole amounts.
func formatPrice(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("$%.0f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}
