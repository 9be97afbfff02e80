package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"furnish/internal/domain"
)

func TestClassifyWithoutShownItems(t *testing.T) {
	c := NewIntentClassifier()
	empty := domain.SessionContext{}

	tests := []struct {
		utterance string
		want      domain.Intent
	}{
		{"Hello", domain.IntentGreeting},
		{"Hi there, thanks!", domain.IntentGreeting},
		{"good morning", domain.IntentGreeting},
		{"Hello, show me sofas", domain.IntentSearch},
		{"show me grey sofas under $500", domain.IntentSearch},
		{"more", domain.IntentShowMore},
		{"Show me more", domain.IntentShowMore},
		{"what else do you have?", domain.IntentShowMore},
		// nothing shown yet, so there is nothing to ask about
		{"what is the material of the second one?", domain.IntentSearch},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.utterance, empty).Intent)
		})
	}
}

func TestClassifyFollowUps(t *testing.T) {
	c := NewIntentClassifier()
	session := domain.SessionContext{LastShown: shownSofas()}

	tests := []struct {
		name      string
		utterance string
		attribute string
		value     string
		ref       domain.Reference
	}{
		{
			name:      "ordinal",
			utterance: "What is the material of the second one?",
			attribute: domain.AttrMaterial,
			ref:       domain.Reference{Index: 1, Resolved: true},
		},
		{
			name:      "last one",
			utterance: "how much is the last one?",
			attribute: domain.AttrPrice,
			ref:       domain.Reference{Index: 2, Resolved: true},
		},
		{
			name:      "descriptor and value check",
			utterance: "is the blue one leather?",
			attribute: domain.AttrMaterial,
			value:     "leather",
			ref:       domain.Reference{Index: 1, Resolved: true},
		},
		{
			name:      "brand descriptor and value check",
			utterance: "does the FANYE sofa come in grey?",
			attribute: domain.AttrColor,
			value:     "grey",
			ref:       domain.Reference{Index: 0, Resolved: true},
		},
		{
			name:      "pronoun with several shown",
			utterance: "what is that one made of?",
			attribute: domain.AttrMaterial,
			ref:       domain.Reference{Ambiguous: true, Candidates: []int{0, 1, 2}},
		},
		{
			name:      "ordinal out of range",
			utterance: "tell me about the fifth one",
			ref:       domain.Reference{Ambiguous: true, Candidates: []int{0, 1, 2}},
		},
		{
			name:      "tell me about that",
			utterance: "tell me about that one",
			ref:       domain.Reference{Ambiguous: true, Candidates: []int{0, 1, 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := c.Classify(tt.utterance, session)
			assert.Equal(t, domain.IntentFollowUp, cls.Intent)
			assert.Equal(t, tt.attribute, cls.Attribute)
			assert.Equal(t, tt.value, cls.Value)
			assert.Equal(t, tt.ref, cls.Reference)
		})
	}
}

func TestClassifySuperlative(t *testing.T) {
	c := NewIntentClassifier()
	cls := c.Classify("which one is the cheapest?", domain.SessionContext{LastShown: shownSofas()})

	assert.Equal(t, domain.IntentFollowUp, cls.Intent)
	assert.Equal(t, domain.SuperlativeCheapest, cls.Superlative)
	assert.Equal(t, domain.Reference{Index: 1, Resolved: true}, cls.Reference)
}

func TestClassifyPronounWithSingleItem(t *testing.T) {
	c := NewIntentClassifier()
	session := domain.SessionContext{LastShown: shownSofas()[1:2]}

	cls := c.Classify("is it leather?", session)
	assert.Equal(t, domain.IntentFollowUp, cls.Intent)
	assert.Equal(t, domain.AttrMaterial, cls.Attribute)
	assert.Equal(t, "leather", cls.Value)
	assert.Equal(t, domain.Reference{Index: 0, Resolved: true}, cls.Reference)
}

func TestClassifyRefinementsAreSearches(t *testing.T) {
	c := NewIntentClassifier()
	session := domain.SessionContext{LastShown: shownSofas()}

	for _, u := range []string{
		"show me cheaper ones",
		"something lighter",
		"show me grey sofas under $500",
		"I need a bed",
	} {
		assert.Equal(t, domain.IntentSearch, c.Classify(u, session).Intent, u)
	}
	assert.Equal(t, domain.IntentShowMore, c.Classify("show me more", session).Intent)
	assert.Equal(t, domain.IntentGreeting, c.Classify("thanks!", session).Intent)
}

func TestClassifyProductQuestionsAreSearches(t *testing.T) {
	c := NewIntentClassifier()
	session := domain.SessionContext{LastShown: shownSofas()}

	for _, u := range []string{
		"do you have leather sofas?",
		"is there a grey sofa under 500?",
		"are there blue beds?",
		"do you have anything made of oak?",
	} {
		assert.Equal(t, domain.IntentSearch, c.Classify(u, session).Intent, u)
		assert.True(t, c.IsSearchTurn(u), u)
	}
}

func TestIsSearchTurn(t *testing.T) {
	c := NewIntentClassifier()

	assert.True(t, c.IsSearchTurn("grey sofas under $500"))
	assert.True(t, c.IsSearchTurn("I want a leather chair"))
	assert.False(t, c.IsSearchTurn("hello"))
	assert.False(t, c.IsSearchTurn("what is the price of the second one?"))
	assert.False(t, c.IsSearchTurn("is it leather?"))
}
