package domain

import "strings"

// Role identifies the author of a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps wire role names onto a Role. "bot" is the name the chat
// client uses for assistant turns.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "human":
		return RoleUser, true
	case "assistant", "bot":
		return RoleAssistant, true
	}
	return "", false
}

// Turn is one utterance in the conversation. Turns are never edited once
// appended; history is ordered oldest-first.
type Turn struct {
	Role Role
	Text string
}

// Attribute keys carried by catalog items.
const (
	AttrBrand       = "brand"
	AttrCategory    = "category"
	AttrMaterial    = "material"
	AttrColor       = "color"
	AttrDimensions  = "dimensions"
	AttrDescription = "description"
)

// Item is a catalog entry. Items are owned by the Catalog Index; the engine
// only reads them. Price 0 means the catalog has no price for the item.
type Item struct {
	ID         string
	Title      string
	Image      string
	Price      float64
	Score      float64 // similarity from the last retrieval, never persisted
	Attributes map[string]string

	// Derived presentation fields filled in by the synthesizer.
	KeyFeatures []string
	BestFor     string
	Blurb       string
}

// Attr returns a trimmed attribute value and whether it is present.
func (it Item) Attr(key string) (string, bool) {
	v, ok := it.Attributes[key]
	v = strings.TrimSpace(v)
	if !ok || v == "" || strings.EqualFold(v, "n/a") {
		return "", false
	}
	return v, true
}

// HasPrice reports whether the catalog supplied a price.
func (it Item) HasPrice() bool {
	return it.Price > 0
}

// Clone returns a copy that shares no mutable state with it.
func (it Item) Clone() Item {
	out := it
	if it.Attributes != nil {
		out.Attributes = make(map[string]string, len(it.Attributes))
		for k, v := range it.Attributes {
			out.Attributes[k] = v
		}
	}
	if it.KeyFeatures != nil {
		out.KeyFeatures = append([]string(nil), it.KeyFeatures...)
	}
	return out
}

// SessionContext is the conversational memory the client resends on every
// request. The server keeps no copy of it.
type SessionContext struct {
	History   []Turn
	LastShown []Item
}

// Clone deep-copies the session so callers' slices are never mutated.
func (s SessionContext) Clone() SessionContext {
	out := SessionContext{
		History: append([]Turn(nil), s.History...),
	}
	if s.LastShown != nil {
		out.LastShown = make([]Item, len(s.LastShown))
		for i, it := range s.LastShown {
			out.LastShown[i] = it.Clone()
		}
	}
	return out
}

// Size is a coarse size constraint.
type Size string

const (
	SizeAny   Size = ""
	SizeLarge Size = "large"
	SizeSmall Size = "small"
)

// Filters are the attribute constraints a retrieved item must satisfy.
// Zero values mean "no constraint".
type Filters struct {
	Category string
	Color    string
	Material string
	Size     Size
	Brand    string
	PriceMin float64
	PriceMax float64
}

// IsZero reports whether no constraint is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// Merge overlays the non-zero fields of next onto f.
func (f Filters) Merge(next Filters) Filters {
	out := f
	if next.Category != "" {
		out.Category = next.Category
	}
	if next.Color != "" {
		out.Color = next.Color
	}
	if next.Material != "" {
		out.Material = next.Material
	}
	if next.Size != SizeAny {
		out.Size = next.Size
	}
	if next.Brand != "" {
		out.Brand = next.Brand
	}
	if next.PriceMin > 0 {
		out.PriceMin = next.PriceMin
	}
	if next.PriceMax > 0 {
		out.PriceMax = next.PriceMax
	}
	if out.PriceMin > 0 && out.PriceMax > 0 && out.PriceMin > out.PriceMax {
		// the newest bound wins when the two cross
		if next.PriceMax > 0 {
			out.PriceMin = 0
		} else {
			out.PriceMax = 0
		}
	}
	return out
}

// Query is a search request after contextualization. Resolved must be
// interpretable without access to the conversation history.
type Query struct {
	Raw      string
	Resolved string
	Filters  Filters

	// OutOfDomain is set when the user asked for something the furniture
	// catalog cannot carry (e.g. sports equipment).
	OutOfDomain string
}

// Intent is the classified purpose of a user utterance.
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentFollowUp Intent = "follow_up_question"
	IntentSearch   Intent = "search"
	IntentShowMore Intent = "show_more"
)

// Reference is the outcome of resolving "the second one" / "it" against
// last_shown. At most one of Resolved and Ambiguous is true; neither means
// the utterance carried no usable reference and nothing could be defaulted.
type Reference struct {
	Index      int // 0-based index into last_shown, valid when Resolved
	Resolved   bool
	Ambiguous  bool
	Candidates []int // indexes the reference could point at when Ambiguous
}

// Superlative comparisons a follow-up can ask across last_shown.
const (
	SuperlativeNone     = ""
	SuperlativeCheapest = "cheapest"
	SuperlativePriciest = "priciest"
)

// AttrPrice names the item price when a follow-up asks about it.
const AttrPrice = "price"

// Classification is the Intent Classifier's output.
type Classification struct {
	Intent    Intent
	Reference Reference

	// Follow-up details: the attribute asked about ("" for a general
	// question), a value the user is checking ("is it leather?"), and any
	// superlative comparison over the shown items.
	Attribute   string
	Value       string
	Superlative string
}
