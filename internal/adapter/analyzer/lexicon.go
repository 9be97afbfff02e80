package analyzer

import (
	"strings"
)

// Furniture categories the catalog carries.
const (
	CategorySofa    = "sofa"
	CategoryChair   = "chair"
	CategoryBed     = "bed"
	CategoryTable   = "table"
	CategoryOttoman = "ottoman"
	CategoryStorage = "storage"
	CategoryOther   = "other"

	// Categories users ask for that a furniture catalog cannot serve.
	CategorySports      = "sports"
	CategoryElectronics = "electronics"
)

// categoryTerms maps singular tokens onto their category.
var categoryTerms = map[string]string{
	"sofa": CategorySofa, "couch": CategorySofa, "sectional": CategorySofa,
	"loveseat": CategorySofa, "settee": CategorySofa, "futon": CategorySofa,

	"chair": CategoryChair, "armchair": CategoryChair, "recliner": CategoryChair,
	"stool": CategoryChair, "rocker": CategoryChair,

	"bed": CategoryBed, "bedframe": CategoryBed, "headboard": CategoryBed,
	"daybed": CategoryBed, "bunk": CategoryBed,

	"table": CategoryTable, "desk": CategoryTable, "console": CategoryTable,
	"nightstand": CategoryStorage, "stand": CategoryStorage,

	"ottoman": CategoryOttoman, "footstool": CategoryOttoman, "pouf": CategoryOttoman,

	"dresser": CategoryStorage, "cabinet": CategoryStorage, "wardrobe": CategoryStorage,
	"bookshelf": CategoryStorage, "bookcase": CategoryStorage, "shelf": CategoryStorage,
	"chest": CategoryStorage, "sideboard": CategoryStorage,

	"sport": CategorySports, "sports": CategorySports, "gym": CategorySports,
	"fitness": CategorySports, "exercise": CategorySports, "treadmill": CategorySports,
	"dumbbell": CategorySports, "yoga": CategorySports,

	"electronic": CategoryElectronics, "electronics": CategoryElectronics,
	"tv": CategoryElectronics, "television": CategoryElectronics, "laptop": CategoryElectronics,
	"phone": CategoryElectronics, "headphone": CategoryElectronics, "gadget": CategoryElectronics,
	"appliance": CategoryElectronics,
}

// categoryExpansion folds a category into retrieval-friendly wording.
var categoryExpansion = map[string]string{
	CategorySofa:    "sofa couch sectional living room seating",
	CategoryBed:     "bed frame bedroom sleeping",
	CategoryChair:   "chair seating dining office",
	CategoryTable:   "table desk surface",
	CategoryOttoman: "ottoman footstool",
	CategoryStorage: "dresser nightstand storage cabinet",
}

// colorTerms maps tokens onto a canonical color.
var colorTerms = map[string]string{
	"red": "red", "blue": "blue", "green": "green", "black": "black",
	"white": "white", "grey": "grey", "gray": "grey", "brown": "brown",
	"yellow": "yellow", "navy": "navy", "beige": "beige", "tan": "tan",
	"pink": "pink", "orange": "orange", "purple": "purple", "cream": "cream",
	"ivory": "ivory", "teal": "teal", "charcoal": "charcoal", "walnut": "walnut",
}

// colorAliases lists the spellings an item attribute may use for a color.
var colorAliases = map[string][]string{
	"grey": {"grey", "gray"},
}

// lighterTone and darkerTone drive "lighter color" / "darker color".
var lighterTone = map[string]string{
	"black": "charcoal", "charcoal": "grey", "grey": "white", "navy": "blue",
	"blue": "teal", "brown": "tan", "walnut": "brown", "tan": "beige",
	"beige": "cream", "cream": "white", "ivory": "white", "red": "pink",
	"purple": "pink", "green": "teal",
}

var darkerTone = map[string]string{
	"white": "grey", "cream": "beige", "ivory": "beige", "beige": "tan",
	"tan": "brown", "brown": "walnut", "grey": "charcoal", "charcoal": "black",
	"teal": "blue", "blue": "navy", "pink": "red", "yellow": "orange",
}

// materialTerms maps tokens onto a canonical material.
var materialTerms = map[string]string{
	"wood": "wood", "wooden": "wood", "oak": "wood", "pine": "wood",
	"metal": "metal", "steel": "metal", "iron": "metal",
	"fabric": "fabric", "upholstered": "fabric",
	"leather": "leather", "pu": "leather",
	"velvet": "velvet", "linen": "linen", "plastic": "plastic",
	"rattan": "rattan", "wicker": "rattan", "glass": "glass", "marble": "marble",
}

var materialAliases = map[string][]string{
	"wood":  {"wood", "wooden", "oak", "pine", "walnut", "acacia"},
	"metal": {"metal", "steel", "iron", "aluminum"},
}

var largeTerms = map[string]struct{}{
	"large": {}, "big": {}, "oversized": {}, "xl": {}, "king": {}, "queen": {}, "huge": {},
}

var smallTerms = map[string]struct{}{
	"small": {}, "compact": {}, "mini": {}, "twin": {}, "tiny": {},
}

// CategoryOf returns the category named by a singular token.
func CategoryOf(token string) (string, bool) {
	c, ok := categoryTerms[token]
	return c, ok
}

// IsFurniture reports whether category belongs to the catalog.
func IsFurniture(category string) bool {
	switch category {
	case CategorySports, CategoryElectronics:
		return false
	}
	return category != ""
}

// ExpandCategory returns descriptive retrieval words for a category.
func ExpandCategory(category string) string {
	if e, ok := categoryExpansion[category]; ok {
		return e
	}
	return category
}

// ColorOf returns the canonical color named by a token.
func ColorOf(token string) (string, bool) {
	c, ok := colorTerms[token]
	return c, ok
}

// MaterialOf returns the canonical material named by a token.
func MaterialOf(token string) (string, bool) {
	m, ok := materialTerms[token]
	return m, ok
}

// SizeOf reports "large" or "small" for size words.
func SizeOf(token string) (string, bool) {
	if _, ok := largeTerms[token]; ok {
		return "large", true
	}
	if _, ok := smallTerms[token]; ok {
		return "small", true
	}
	return "", false
}

// LighterColor and DarkerColor shift a color one tone.
func LighterColor(color string) string {
	if c, ok := lighterTone[color]; ok {
		return c
	}
	return color
}

func DarkerColor(color string) string {
	if c, ok := darkerTone[color]; ok {
		return c
	}
	return color
}

// ColorMatches reports whether text mentions color under any of its spellings.
func ColorMatches(color, text string) bool {
	return mentionsAny(text, aliases(colorAliases, color))
}

// MaterialMatches reports whether text mentions material under any alias.
func MaterialMatches(material, text string) bool {
	return mentionsAny(text, aliases(materialAliases, material))
}

// SizeMatches reports whether a title advertises the requested size.
func SizeMatches(size, title string) bool {
	terms := largeTerms
	if size == "small" {
		terms = smallTerms
	}
	for _, tok := range NewTokenizer(false).Tokenize(title) {
		if _, ok := terms[tok]; ok {
			return true
		}
	}
	return false
}

func aliases(table map[string][]string, key string) []string {
	if a, ok := table[key]; ok {
		return a
	}
	return []string{key}
}

func mentionsAny(text string, terms []string) bool {
	text = strings.ToLower(text)
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// clauseBreaks end the part of a title that names the main product; what
// follows describes accessories ("Lazy Chair with Ottoman").
var clauseBreaks = []string{" with ", " w/ ", " for ", " featuring ", " including ", " plus "}

// HeadCategory returns the category named by the head noun of text. The
// head noun of a product phrase comes last in its main clause, so the last
// category word before any accessory clause wins: "Sofa Side Table" is a
// table, "Recliner Chair with Speakers" is a chair. Non-furniture categories
// are reported too so callers can turn them away.
func HeadCategory(text string) (string, bool) {
	main := " " + strings.ToLower(text) + " "
	cut := false
	for _, br := range clauseBreaks {
		if i := strings.Index(main, br); i > 0 {
			main = main[:i]
			cut = true
		}
	}

	if c, ok := lastCategory(main); ok {
		return c, true
	}
	if cut {
		// nothing in the main clause; fall back to the whole text
		return lastCategory(text)
	}
	return "", false
}

func lastCategory(text string) (string, bool) {
	found := ""
	for _, tok := range NewTokenizer(false).Tokenize(text) {
		if c, ok := categoryTerms[tok]; ok {
			found = c
		}
	}
	return found, found != ""
}

// ClassifyTitle returns the furniture category of the main product a title
// sells, or CategoryOther.
func ClassifyTitle(title string) string {
	c, ok := HeadCategory(title)
	if !ok || !IsFurniture(c) {
		return CategoryOther
	}
	return c
}
