package usecase

import (
	"strings"

	"furnish/internal/adapter/analyzer"
	"furnish/internal/domain"
)

var showMorePhrases = []string{
	"show me more", "show more", "see more", "more options", "more results",
	"more please", "more of these", "more like this", "more like these",
	"anything else", "what else", "other options", "something else",
	"any others", "any other ones", "next page", "load more",
}

var greetingWords = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "hiya": {}, "howdy": {}, "greeting": {},
	"yo": {}, "morning": {}, "afternoon": {}, "evening": {}, "thank": {},
	"thanks": {}, "thx": {}, "bye": {}, "goodbye": {},
}

// greetingFiller may accompany a greeting without turning it into a request.
var greetingFiller = map[string]struct{}{
	"good": {}, "there": {}, "you": {}, "so": {}, "much": {}, "all": {},
	"everyone": {}, "again": {}, "how": {}, "are": {}, "doing": {}, "ok": {},
	"okay": {}, "great": {}, "cool": {}, "nice": {}, "a": {}, "lot": {},
}

var questionOpeners = map[string]struct{}{
	"what": {}, "which": {}, "how": {}, "who": {}, "is": {}, "are": {},
	"does": {}, "do": {}, "can": {}, "tell": {}, "describe": {}, "has": {},
	"where": {},
}

var searchOpeners = map[string]struct{}{
	"show": {}, "find": {}, "search": {}, "looking": {}, "need": {}, "want": {},
	"get": {}, "give": {}, "recommend": {}, "suggest": {},
}

// attributeWords map question vocabulary onto the attribute asked about.
var attributeWords = map[string]string{
	"material": domain.AttrMaterial, "made": domain.AttrMaterial,
	"color": domain.AttrColor, "colour": domain.AttrColor,
	"brand": domain.AttrBrand, "manufacturer": domain.AttrBrand, "maker": domain.AttrBrand,
	"dimension": domain.AttrDimensions, "size": domain.AttrDimensions,
	"width": domain.AttrDimensions, "wide": domain.AttrDimensions,
	"height": domain.AttrDimensions, "tall": domain.AttrDimensions,
	"length": domain.AttrDimensions, "long": domain.AttrDimensions,
	"depth": domain.AttrDimensions, "deep": domain.AttrDimensions,
	"measurement": domain.AttrDimensions, "measure": domain.AttrDimensions,
	"price": domain.AttrPrice, "cost": domain.AttrPrice,
	"category": domain.AttrCategory, "kind": domain.AttrCategory, "type": domain.AttrCategory,
	"description": domain.AttrDescription, "detail": domain.AttrDescription,
	"feature": domain.AttrDescription,
}

// IntentClassifier decides what a user utterance asks for. It is rule
// based so that control flow never depends on free-text generation.
type IntentClassifier struct {
	tokenizer *analyzer.Tokenizer
}

// NewIntentClassifier creates a new intent classifier.
func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{tokenizer: analyzer.NewTokenizer(false)}
}

// Classify labels utterance against the session. Follow-up questions carry
// the resolved reference into last_shown, or an ambiguity marker.
func (c *IntentClassifier) Classify(utterance string, session domain.SessionContext) domain.Classification {
	text := normalizeUtterance(utterance)
	tokens := c.tokenizer.Tokenize(text)

	if isShowMore(text, tokens) {
		return domain.Classification{Intent: domain.IntentShowMore}
	}
	if isGreeting(tokens) {
		return domain.Classification{Intent: domain.IntentGreeting}
	}
	if len(session.LastShown) > 0 {
		if cls, ok := c.followUp(text, tokens, session.LastShown); ok {
			return cls
		}
	}
	return domain.Classification{Intent: domain.IntentSearch}
}

// IsSearchTurn reports whether a historical user turn stated a product need,
// as opposed to a greeting or a question about shown items. The
// contextualizer only carries constraints forward from such turns.
func (c *IntentClassifier) IsSearchTurn(text string) bool {
	text = normalizeUtterance(text)
	tokens := c.tokenizer.Tokenize(text)
	if isGreeting(tokens) {
		return false
	}
	question := isQuestion(text, tokens)
	if _, ok := attributeQuestion(tokens); ok && question && !seeksProducts(text, tokens) {
		return false
	}
	if len(ordinalIndexes(text, tokens, len(ordinalWords))) > 0 {
		return false
	}
	return !(question && hasDeicticWord(tokens))
}

func (c *IntentClassifier) followUp(text string, tokens []string, shown []domain.Item) (domain.Classification, bool) {
	superlative := superlativeOf(text)
	if superlative == domain.SuperlativeNone && refinementOf(text) != refineNone {
		return domain.Classification{}, false
	}

	question := isQuestion(text, tokens)
	attr, hasAttr := attributeQuestion(tokens)
	attr, value, valueAt := valueCheck(tokens, attr)
	refTokens := tokens
	if value != "" {
		hasAttr = true
		// the value being checked does not describe which item is meant
		refTokens = append(append([]string(nil), tokens[:valueAt]...), tokens[valueAt+1:]...)
	}

	described, cue := resolveReference(text, refTokens, shown, domain.SuperlativeNone)
	hasOrdinal := cue == cueOrdinal
	hasDeictic := hasDeicticWord(tokens)

	// "do you have leather sofas?" names no shown item; it is a product need
	pointer := hasOrdinal || hasDeictic || mentionsShown(tokens) || (cue == cueDescriptor && described.Resolved)
	if !pointer && superlative == domain.SuperlativeNone && (value != "" || seeksProducts(text, tokens)) {
		return domain.Classification{}, false
	}

	switch {
	case superlative != domain.SuperlativeNone && (question || hasDeictic || mentionsShown(tokens)):
	case hasAttr && (question || hasOrdinal || hasDeictic):
	case hasOrdinal && !startsWithAny(tokens, searchOpeners):
	case hasDeictic && question && startsWithAny(tokens, map[string]struct{}{"tell": {}, "describe": {}}):
	default:
		return domain.Classification{}, false
	}

	ref, _ := resolveReference(text, refTokens, shown, superlative)
	return domain.Classification{
		Intent:      domain.IntentFollowUp,
		Reference:   ref,
		Attribute:   attr,
		Value:       value,
		Superlative: superlative,
	}, true
}

func normalizeUtterance(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("’", "'", " ", " ").Replace(s)
}

func isShowMore(text string, tokens []string) bool {
	if len(tokens) == 1 && (tokens[0] == "more" || tokens[0] == "next") {
		return true
	}
	for _, p := range showMorePhrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// isGreeting requires an opener and nothing that looks like a product need.
func isGreeting(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	opener := false
	for _, tok := range tokens {
		if _, ok := greetingWords[tok]; ok {
			opener = true
			continue
		}
		if _, ok := greetingFiller[tok]; ok {
			continue
		}
		return false
	}
	return opener
}

func isQuestion(text string, tokens []string) bool {
	if strings.HasSuffix(text, "?") {
		return true
	}
	return startsWithAny(tokens, questionOpeners)
}

func startsWithAny(tokens []string, set map[string]struct{}) bool {
	if len(tokens) == 0 {
		return false
	}
	_, ok := set[tokens[0]]
	return ok
}

func hasDeicticWord(tokens []string) bool {
	for i, tok := range tokens {
		if _, ok := deicticWords[tok]; ok {
			return true
		}
		if tok == "its" || (tok == "one" && i > 0) {
			return true
		}
	}
	return false
}

// mentionsShown reports phrases that point at the displayed list as a whole.
func mentionsShown(tokens []string) bool {
	for _, tok := range tokens {
		switch tok {
		case "these", "those", "them", "one", "option":
			return true
		}
	}
	return false
}

// seeksProducts reports wording that asks the store for items ("do you
// have", "is there", a budget) rather than about an item on screen.
func seeksProducts(text string, tokens []string) bool {
	for _, tok := range tokens {
		switch tok {
		case "have", "there", "sell", "carry", "stock":
			return true
		}
	}
	lo, hi, _ := extractPrice(text)
	return lo > 0 || hi > 0
}

// attributeQuestion returns the first attribute the utterance asks about.
// Price words only count in question form ("how much"), so "cheaper" and
// "more expensive" remain refinements.
func attributeQuestion(tokens []string) (string, bool) {
	for i, tok := range tokens {
		if tok == "much" && i > 0 && tokens[i-1] == "how" {
			return domain.AttrPrice, true
		}
		if (tok == "big" || tok == "large" || tok == "expensive") && i > 0 && tokens[i-1] == "how" {
			if tok == "expensive" {
				return domain.AttrPrice, true
			}
			return domain.AttrDimensions, true
		}
		if a, ok := attributeWords[tok]; ok {
			return a, true
		}
	}
	return "", false
}

// valueCheck handles yes/no questions such as "is it leather?" or "does the
// first one come in grey?". It returns the attribute, the canonical value
// checked and the token index of that value. The last value word wins so
// that "is the blue one leather" checks leather.
func valueCheck(tokens []string, attr string) (string, string, int) {
	if len(tokens) == 0 {
		return attr, "", -1
	}
	switch tokens[0] {
	case "is", "does", "do", "are", "can", "has":
	default:
		return attr, "", -1
	}
	for i := len(tokens) - 1; i > 0; i-- {
		tok := tokens[i]
		if c, ok := analyzer.ColorOf(tok); ok && (attr == "" || attr == domain.AttrColor) {
			return domain.AttrColor, c, i
		}
		if m, ok := analyzer.MaterialOf(tok); ok && (attr == "" || attr == domain.AttrMaterial) {
			return domain.AttrMaterial, m, i
		}
	}
	return attr, "", -1
}

var cheapestPhrases = []string{"cheapest", "least expensive", "lowest price", "most affordable", "lowest priced", "lowest-priced"}
var priciestPhrases = []string{"most expensive", "priciest", "highest price", "highest priced", "highest-priced", "costliest"}

func superlativeOf(text string) string {
	for _, p := range cheapestPhrases {
		if strings.Contains(text, p) {
			return domain.SuperlativeCheapest
		}
	}
	for _, p := range priciestPhrases {
		if strings.Contains(text, p) {
			return domain.SuperlativePriciest
		}
	}
	return domain.SuperlativeNone
}
