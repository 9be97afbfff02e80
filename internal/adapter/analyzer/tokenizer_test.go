package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		dropStops bool
		expected  []string
	}{
		{
			name:     "plurals folded",
			input:    "Grey Sofas and Couches",
			expected: []string{"grey", "sofa", "and", "couch"},
		},
		{
			name:     "apostrophes joined",
			input:    "what's the material?",
			expected: []string{"what", "the", "material"},
		},
		{
			name:      "stopwords dropped",
			input:     "I want to find a leather chair please",
			dropStops: true,
			expected:  []string{"leather", "chair"},
		},
		{
			name:     "digits kept",
			input:    "the 2nd one under $500",
			expected: []string{"the", "2nd", "one", "under", "500"},
		},
		{
			name:     "empty",
			input:    "   ",
			expected: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok := NewTokenizer(tc.dropStops)
			assert.Equal(t, tc.expected, tok.Tokenize(tc.input))
		})
	}
}

func TestSingular(t *testing.T) {
	cases := map[string]string{
		"sofas":       "sofa",
		"couches":     "couch",
		"shelves":     "shelf",
		"accessories": "accessory",
		"glass":       "glass",
		"this":        "this",
		"its":         "its",
		"dressers":    "dresser",
		"boxes":       "box",
	}
	for in, want := range cases {
		assert.Equal(t, want, Singular(in), in)
	}
}

func TestClassifyTitle(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"FANYE Oversized 6 Seaters Modular Storage Sectional Sofa Couch", CategorySofa},
		{"MoNiBloom Massage Gaming Recliner Chair with Speakers", CategoryChair},
		{"jela Kids Couch Large, Floor Sofa Modular", CategorySofa},
		{"Lazy Chair with Ottoman", CategoryChair},
		{"Ottoman Storage Bench", CategoryOttoman},
		{"Sofa Side Table", CategoryTable},
		{"Queen Bed Frame with Headboard", CategoryBed},
		{"3-Drawer Dresser for Bedroom", CategoryStorage},
		{"Decorative Throw Pillow", CategoryOther},
	}

	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyTitle(tc.title))
		})
	}
}

func TestAttributeMatching(t *testing.T) {
	assert.True(t, ColorMatches("grey", "Light Gray"))
	assert.False(t, ColorMatches("red", "Navy Blue"))
	assert.True(t, MaterialMatches("wood", "Solid Oak Frame"))
	assert.True(t, SizeMatches("large", "King Size Platform Bed"))
	assert.False(t, SizeMatches("small", "King Size Platform Bed"))
}

func TestToneShift(t *testing.T) {
	assert.Equal(t, "white", LighterColor("grey"))
	assert.Equal(t, "charcoal", DarkerColor("grey"))
	assert.Equal(t, "magenta", LighterColor("magenta"))
}
