package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"furnish/internal/adapter/analyzer"
	"furnish/internal/domain"
)

func followUp(index int, attr, value string) domain.Classification {
	return domain.Classification{
		Intent:    domain.IntentFollowUp,
		Reference: domain.Reference{Index: index, Resolved: true},
		Attribute: attr,
		Value:     value,
	}
}

func TestAnswerAttributes(t *testing.T) {
	s := NewSynthesizer(NewBlurber(nil, BlurbOptions{}))
	shown := shownSofas()

	tests := []struct {
		name      string
		cls       domain.Classification
		text      string
		available bool
	}{
		{"present", followUp(1, domain.AttrMaterial, ""), "The material of the Chesterfield Sofa is Genuine Leather.", true},
		{"absent", followUp(2, domain.AttrMaterial, ""), "Sorry, the material of the Sectional Couch isn't available.", false},
		{"price", followUp(0, domain.AttrPrice, ""), "The Modern Sofa costs $300.", true},
		{"brand", followUp(0, domain.AttrBrand, ""), "The Modern Sofa is made by FANYE.", true},
		{"dimensions absent", followUp(0, domain.AttrDimensions, ""), "Sorry, the dimensions of the Modern Sofa isn't available.", false},
		{"value matches", followUp(1, domain.AttrMaterial, "leather"), "Yes, the material of the Chesterfield Sofa is Genuine Leather.", true},
		{"value differs", followUp(0, domain.AttrColor, "blue"), "No, the color of the Modern Sofa is Grey.", true},
		{"value unknown", followUp(2, domain.AttrMaterial, "leather"), "Sorry, the material of the Sectional Couch isn't available.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := s.Answer(tt.cls, shown)
			require.Equal(t, domain.KindAnswer, env.Kind)
			assert.Equal(t, tt.text, env.Answer.Text)
			assert.Equal(t, tt.available, env.Answer.Available)
			assert.Equal(t, shown[tt.cls.Reference.Index].ID, env.Answer.ItemID)
			assert.False(t, env.Answer.Clarifying)
		})
	}
}

func TestAnswerSuperlative(t *testing.T) {
	s := NewSynthesizer(NewBlurber(nil, BlurbOptions{}))
	cls := domain.Classification{
		Intent:      domain.IntentFollowUp,
		Reference:   domain.Reference{Index: 1, Resolved: true},
		Superlative: domain.SuperlativeCheapest,
	}

	env := s.Answer(cls, shownSofas())
	assert.Equal(t, "The cheapest option is #2, the Chesterfield Sofa, at $150.", env.Answer.Text)
}

func TestAnswerSuperlativeWithoutPrice(t *testing.T) {
	s := NewSynthesizer(NewBlurber(nil, BlurbOptions{}))
	shown := []domain.Item{item("u1", "Rattan Armchair", 0, nil)}

	cls := NewIntentClassifier().Classify("which is the cheapest?", domain.SessionContext{LastShown: shown})
	require.Equal(t, domain.IntentFollowUp, cls.Intent)
	require.Equal(t, domain.Reference{Index: 0, Resolved: true}, cls.Reference)

	env := s.Answer(cls, shown)
	require.Equal(t, domain.KindAnswer, env.Kind)
	assert.Equal(t, "Sorry, the price of the Rattan Armchair isn't available.", env.Answer.Text)
	assert.False(t, env.Answer.Available)
	assert.Equal(t, "u1", env.Answer.ItemID)
	assert.NotContains(t, env.Answer.Text, "$")
}

func TestAnswerSummary(t *testing.T) {
	s := NewSynthesizer(NewBlurber(nil, BlurbOptions{}))

	env := s.Answer(followUp(0, "", ""), shownSofas())
	assert.Equal(t, "That's the Modern Sofa. It costs $300. Brand: FANYE. Material: Fabric. Color: Grey.", env.Answer.Text)
}

func TestAnswerClarifies(t *testing.T) {
	s := NewSynthesizer(NewBlurber(nil, BlurbOptions{}))
	cls := domain.Classification{
		Intent:    domain.IntentFollowUp,
		Reference: domain.Reference{Ambiguous: true, Candidates: []int{0, 2}},
		Attribute: domain.AttrColor,
	}

	env := s.Answer(cls, shownSofas())
	require.Equal(t, domain.KindAnswer, env.Kind)
	assert.True(t, env.Answer.Clarifying)
	assert.Empty(t, env.Answer.ItemID)
	assert.Equal(t, "Which one do you mean?\n1. Modern Sofa\n3. Sectional Couch\n"+
		"You can say \"the first one\", \"the second one\" and so on.", env.Answer.Text)
}

func TestNoResults(t *testing.T) {
	s := NewSynthesizer(NewBlurber(nil, BlurbOptions{}))

	env := s.NoResults(domain.Query{Filters: domain.Filters{Category: analyzer.CategorySofa, Color: "grey", PriceMax: 500}}, domain.IntentSearch)
	require.Equal(t, domain.KindNoResults, env.Kind)
	assert.Equal(t, "I couldn't find any grey sofas under $500. Try rephrasing your search or relaxing one of the filters.", env.Text())

	assert.Equal(t, noResultsText, s.NoResults(domain.Query{}, domain.IntentSearch).Text())
	assert.Equal(t, noMoreText, s.NoResults(domain.Query{}, domain.IntentShowMore).Text())
	assert.Equal(t, outOfDomainText, s.OutOfDomain().Text())
	assert.Equal(t, domain.KindGreeting, s.Greeting().Kind)
}

func TestProductsUseTemplateWithoutGenerator(t *testing.T) {
	s := NewSynthesizer(NewBlurber(nil, BlurbOptions{}))

	env, err := s.Products(context.Background(), shownSofas()[:2], domain.IntentSearch)
	require.NoError(t, err)
	require.Equal(t, domain.KindProducts, env.Kind)
	assert.Equal(t, "I found 2 great options:", env.Text())

	items := env.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Modern Sofa at $300, made of fabric.", items[0].Blurb)
	assert.Equal(t, "Chesterfield Sofa at $150, made of genuine leather.", items[1].Blurb)
	assert.Equal(t, "Perfect for living room relaxation", items[0].BestFor)
	assert.NotEmpty(t, items[0].KeyFeatures)
}

func TestProductsText(t *testing.T) {
	assert.Equal(t, "I found the perfect match:", productsText(1, domain.IntentSearch))
	assert.Equal(t, "I found 4 products:", productsText(4, domain.IntentSearch))
	assert.Equal(t, "Here is one more option:", productsText(1, domain.IntentShowMore))
	assert.Equal(t, "Here are 3 more options:", productsText(3, domain.IntentShowMore))
}

func TestBlurbFallsBackOnGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	b := NewBlurber(gen, BlurbOptions{})

	out, err := b.Blurb(context.Background(), shownSofas())
	require.NoError(t, err)
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, "Sectional Couch at $450, in black.", out[2].Blurb)
}

func TestBlurbCleansGeneratedText(t *testing.T) {
	gen := &fakeGenerator{text: "\n  \"A roomy grey sofa for lazy Sundays.\"\nSecond line"}
	b := NewBlurber(gen, BlurbOptions{})

	out, err := b.Blurb(context.Background(), shownSofas()[:1])
	require.NoError(t, err)
	assert.Equal(t, "A roomy grey sofa for lazy Sundays.", out[0].Blurb)

	gen.text = strings.Repeat("word ", 60)
	b = NewBlurber(gen, BlurbOptions{MaxChars: 40})
	out, err = b.Blurb(context.Background(), shownSofas()[:1])
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out[0].Blurb), 40)
	assert.True(t, strings.HasSuffix(out[0].Blurb, "..."))
}

func TestBlurbDoesNotMutateInput(t *testing.T) {
	items := shownSofas()
	_, err := NewBlurber(nil, BlurbOptions{}).Blurb(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, items[0].Blurb)
}

func TestBlurbCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBlurber(nil, BlurbOptions{}).Blurb(ctx, shownSofas())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 10))
	assert.Equal(t, "the quick...", truncateText("the quick brown fox jumps", 15))
	assert.Equal(t, "abc", truncateText("abcdef", 3))
}

func TestDeriveFeatures(t *testing.T) {
	it := deriveFeatures(item("d1", "3 Drawer Wooden Dresser with Storage", 0, nil))
	assert.Equal(t, []string{"3 Drawer", "Storage", "Wood"}, it.KeyFeatures)
	assert.Equal(t, "Keeps your space organized", it.BestFor)

	plain := deriveFeatures(item("p1", "Wall Clock", 0, nil))
	assert.Equal(t, defaultFeatures, plain.KeyFeatures)
	assert.Equal(t, "Enhance your living space", plain.BestFor)

	byAttr := deriveFeatures(item("b1", "Nordic Accent Piece", 0, map[string]string{domain.AttrCategory: "Accent Chairs"}))
	assert.Equal(t, "Comfortable seating", byAttr.BestFor)
}
