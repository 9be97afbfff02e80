package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"furnish/internal/adapter/analyzer"
	"furnish/internal/domain"
)

const (
	greetingText    = "Hello! I can help you find furniture. What are you looking for?"
	outOfDomainText = "I couldn't find any furniture matching your search. This is a furniture store - try searching for sofas, beds, chairs, tables, or other home furnishings."
	noResultsText   = "I couldn't find any furniture matching your search. Try different keywords or filters."
	noMoreText      = "That's everything I have for that search. Try rephrasing it or loosening a filter to see other pieces."
)

var categoryPlural = map[string]string{
	analyzer.CategorySofa:    "sofas",
	analyzer.CategoryChair:   "chairs",
	analyzer.CategoryBed:     "beds",
	analyzer.CategoryTable:   "tables",
	analyzer.CategoryOttoman: "ottomans",
	analyzer.CategoryStorage: "storage pieces",
}

var attributeLabels = map[string]string{
	domain.AttrBrand:       "brand",
	domain.AttrCategory:    "category",
	domain.AttrMaterial:    "material",
	domain.AttrColor:       "color",
	domain.AttrDimensions:  "dimensions",
	domain.AttrDescription: "description",
	domain.AttrPrice:       "price",
}

// Synthesizer turns classifier and retrieval outcomes into envelopes.
type Synthesizer struct {
	blurber *Blurber
}

// NewSynthesizer creates a new synthesizer.
func NewSynthesizer(blurber *Blurber) *Synthesizer {
	return &Synthesizer{blurber: blurber}
}

// Greeting returns the canned opener.
func (s *Synthesizer) Greeting() domain.Envelope {
	return domain.NewGreeting(greetingText)
}

// OutOfDomain answers requests for things a furniture store does not sell.
func (s *Synthesizer) OutOfDomain() domain.Envelope {
	return domain.NewNoResults(outOfDomainText)
}

// NoResults suggests a rephrase, naming the constraints that were active.
func (s *Synthesizer) NoResults(q domain.Query, intent domain.Intent) domain.Envelope {
	if intent == domain.IntentShowMore {
		return domain.NewNoResults(noMoreText)
	}
	if q.Filters.IsZero() {
		return domain.NewNoResults(noResultsText)
	}
	return domain.NewNoResults(fmt.Sprintf(
		"I couldn't find any %s. Try rephrasing your search or relaxing one of the filters.",
		describeFilters(q.Filters)))
}

// Products builds a products envelope with features and blurbs filled in.
func (s *Synthesizer) Products(ctx context.Context, items []domain.Item, intent domain.Intent) (domain.Envelope, error) {
	enriched := make([]domain.Item, len(items))
	for i, it := range items {
		enriched[i] = deriveFeatures(it)
	}

	enriched, err := s.blurber.Blurb(ctx, enriched)
	if err != nil {
		return domain.Envelope{}, err
	}
	return domain.NewProducts(productsText(len(enriched), intent), enriched), nil
}

func productsText(n int, intent domain.Intent) string {
	if intent == domain.IntentShowMore {
		if n == 1 {
			return "Here is one more option:"
		}
		return fmt.Sprintf("Here are %d more options:", n)
	}
	switch n {
	case 1:
		return "I found the perfect match:"
	case 2:
		return "I found 2 great options:"
	}
	return fmt.Sprintf("I found %d products:", n)
}

// Answer responds to a follow-up question using only attributes of the
// referenced item. Ambiguous references become a clarifying question.
func (s *Synthesizer) Answer(cls domain.Classification, shown []domain.Item) domain.Envelope {
	ref := cls.Reference
	if !ref.Resolved || ref.Index < 0 || ref.Index >= len(shown) {
		candidates := ref.Candidates
		if len(candidates) == 0 {
			candidates = allIndexes(len(shown))
		}
		return clarify(candidates, shown)
	}

	it := shown[ref.Index]
	name := itemName(it)
	payload := domain.AnswerPayload{ItemID: it.ID, Attribute: cls.Attribute, Available: true}

	switch {
	case cls.Value != "":
		payload.Text, payload.Available = checkValue(it, name, cls.Attribute, cls.Value)
	case cls.Superlative != domain.SuperlativeNone && cls.Attribute == "" && !it.HasPrice():
		payload.Attribute = domain.AttrPrice
		payload.Text, payload.Available = unavailable("price", name), false
	case cls.Superlative != domain.SuperlativeNone && cls.Attribute == "":
		word := "cheapest"
		if cls.Superlative == domain.SuperlativePriciest {
			word = "most expensive"
		}
		payload.Text = fmt.Sprintf("The %s option is #%d, %s, at %s.", word, ref.Index+1, name, formatPrice(it.Price))
	case cls.Attribute == "":
		payload.Text = summarize(it, name)
	default:
		payload.Text, payload.Available = describeAttribute(it, name, cls.Attribute)
	}
	return domain.NewAnswer(payload)
}

func clarify(candidates []int, shown []domain.Item) domain.Envelope {
	lines := make([]string, 0, len(candidates))
	for _, idx := range candidates {
		if idx < 0 || idx >= len(shown) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s", idx+1, shown[idx].Title))
	}
	text := "Which one do you mean?\n" + strings.Join(lines, "\n") +
		"\nYou can say \"the first one\", \"the second one\" and so on."
	return domain.NewAnswer(domain.AnswerPayload{Text: text, Clarifying: true})
}

func describeAttribute(it domain.Item, name, attr string) (string, bool) {
	label := attributeLabels[attr]
	if label == "" {
		label = attr
	}

	if attr == domain.AttrPrice {
		if !it.HasPrice() {
			return unavailable(label, name), false
		}
		return fmt.Sprintf("%s costs %s.", capitalize(name), formatPrice(it.Price)), true
	}

	v, ok := it.Attr(attr)
	if !ok {
		return unavailable(label, name), false
	}
	switch attr {
	case domain.AttrDimensions:
		return fmt.Sprintf("%s measures %s.", capitalize(name), v), true
	case domain.AttrBrand:
		return fmt.Sprintf("%s is made by %s.", capitalize(name), v), true
	case domain.AttrDescription:
		return fmt.Sprintf("Here's what the catalog says about %s: %s", name, truncateText(v, 400)), true
	}
	return fmt.Sprintf("The %s of %s is %s.", label, name, v), true
}

func checkValue(it domain.Item, name, attr, value string) (string, bool) {
	label := attributeLabels[attr]
	v, ok := it.Attr(attr)
	if !ok {
		return unavailable(label, name), false
	}
	var matches bool
	switch attr {
	case domain.AttrColor:
		matches = analyzer.ColorMatches(value, v)
	case domain.AttrMaterial:
		matches = analyzer.MaterialMatches(value, v)
	default:
		matches = strings.Contains(strings.ToLower(v), value)
	}
	if matches {
		return fmt.Sprintf("Yes, the %s of %s is %s.", label, name, v), true
	}
	return fmt.Sprintf("No, the %s of %s is %s.", label, name, v), true
}

// summarize lists the attributes the item actually has.
func summarize(it domain.Item, name string) string {
	var parts []string
	if it.HasPrice() {
		parts = append(parts, fmt.Sprintf("It costs %s.", formatPrice(it.Price)))
	}
	for _, key := range []string{domain.AttrBrand, domain.AttrMaterial, domain.AttrColor, domain.AttrDimensions} {
		if v, ok := it.Attr(key); ok {
			parts = append(parts, fmt.Sprintf("%s: %s.", capitalize(attributeLabels[key]), v))
		}
	}
	if len(it.KeyFeatures) > 0 {
		parts = append(parts, "Key features: "+strings.Join(it.KeyFeatures, ", ")+".")
	}
	if len(parts) == 0 {
		return fmt.Sprintf("That's %s. The catalog has no further details about it.", name)
	}
	return fmt.Sprintf("That's %s. %s", name, strings.Join(parts, " "))
}

func unavailable(label, name string) string {
	return fmt.Sprintf("Sorry, the %s of %s isn't available.", label, name)
}

// itemName refers to an item by its title, shortened for prose.
func itemName(it domain.Item) string {
	title := strings.TrimSpace(it.Title)
	if title == "" {
		return "this item"
	}
	return "the " + truncateText(title, 80)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r)) + s[size:]
}

// describeFilters renders active filters as a noun phrase, e.g.
// "large grey leather sofas from FANYE under $500".
func describeFilters(f domain.Filters) string {
	var words []string
	if f.Size != domain.SizeAny {
		words = append(words, string(f.Size))
	}
	if f.Color != "" {
		words = append(words, f.Color)
	}
	if f.Material != "" {
		words = append(words, f.Material)
	}
	noun := "furniture"
	if p, ok := categoryPlural[f.Category]; ok {
		noun = p
	}
	words = append(words, noun)
	if f.Brand != "" {
		words = append(words, "from "+f.Brand)
	}
	if p := pricePhrase(f); p != "" {
		words = append(words, p)
	}
	return strings.Join(words, " ")
}

// NextLastShown computes last_shown after a products reply: search replaces
// it, show_more appends and evicts the oldest items beyond k.
func NextLastShown(prev, items []domain.Item, intent domain.Intent, k int) []domain.Item {
	var combined []domain.Item
	if intent == domain.IntentShowMore {
		combined = append(combined, prev...)
	}
	combined = append(combined, items...)

	seen := make(map[string]struct{}, len(combined))
	out := make([]domain.Item, 0, len(combined))
	for _, it := range combined {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it.Clone())
	}
	if k > 0 && len(out) > k {
		if intent == domain.IntentShowMore {
			out = out[len(out)-k:]
		} else {
			out = out[:k]
		}
	}
	return out
}
