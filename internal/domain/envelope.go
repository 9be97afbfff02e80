package domain

// EnvelopeKind tags which payload a reply carries.
type EnvelopeKind string

const (
	KindGreeting  EnvelopeKind = "greeting"
	KindAnswer    EnvelopeKind = "answer"
	KindProducts  EnvelopeKind = "products"
	KindNoResults EnvelopeKind = "no_results"
)

// GreetingPayload is the body of a greeting reply.
type GreetingPayload struct {
	Text string
}

// AnswerPayload is the body of an answer reply. Clarifying questions for
// unresolved references reuse this shape with Clarifying set.
type AnswerPayload struct {
	Text       string
	ItemID     string // referenced item, empty for clarifications
	Attribute  string
	Available  bool
	Clarifying bool
}

// ProductsPayload is the body of a products reply.
type ProductsPayload struct {
	Text  string
	Items []Item
}

// NoResultsPayload is the body of a no_results reply.
type NoResultsPayload struct {
	Text string
}

// Envelope is a tagged union: Kind names the single non-nil payload. Build
// envelopes with the New* constructors so the tag and payload always agree.
type Envelope struct {
	Kind      EnvelopeKind
	Greeting  *GreetingPayload
	Answer    *AnswerPayload
	Products  *ProductsPayload
	NoResults *NoResultsPayload
}

func NewGreeting(text string) Envelope {
	return Envelope{Kind: KindGreeting, Greeting: &GreetingPayload{Text: text}}
}

func NewAnswer(p AnswerPayload) Envelope {
	return Envelope{Kind: KindAnswer, Answer: &p}
}

func NewProducts(text string, items []Item) Envelope {
	return Envelope{Kind: KindProducts, Products: &ProductsPayload{Text: text, Items: items}}
}

func NewNoResults(text string) Envelope {
	return Envelope{Kind: KindNoResults, NoResults: &NoResultsPayload{Text: text}}
}

// Text returns the human-readable reply text of whichever payload is set.
func (e Envelope) Text() string {
	switch e.Kind {
	case KindGreeting:
		return e.Greeting.Text
	case KindAnswer:
		return e.Answer.Text
	case KindProducts:
		return e.Products.Text
	case KindNoResults:
		return e.NoResults.Text
	}
	return ""
}

// Items returns the recommended items; nil for every kind but products.
func (e Envelope) Items() []Item {
	if e.Kind == KindProducts && e.Products != nil {
		return e.Products.Items
	}
	return nil
}

// Reply is what the engine returns for one request: the envelope plus the
// session state the caller must resend next time.
type Reply struct {
	Envelope Envelope
	Session  SessionContext
	Intent   Intent
}
