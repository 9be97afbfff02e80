package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits utterances and titles into lowercase word tokens.
type Tokenizer struct {
	stopwords map[string]struct{}
	dropStops bool
}

// NewTokenizer creates a new Tokenizer. With dropStopwords set, filler words
// are removed, which is what the contextualizer wants; the intent classifier
// keeps them because "it" and "that" carry meaning there.
func NewTokenizer(dropStopwords bool) *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		dropStops: dropStopwords,
	}
}

// Tokenize splits text into tokens. Plurals are folded to their singular so
// "sofas" and "sofa" match the same lexicon entry.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if t.dropStops {
			if _, isStop := t.stopwords[word]; isStop {
				continue
			}
		}
		tokens = append(tokens, Singular(word))
	}

	return tokens
}

// IsStopword reports whether word is filler.
func (t *Tokenizer) IsStopword(word string) bool {
	_, ok := t.stopwords[strings.ToLower(word)]
	return ok
}

// Singular folds common English plural endings. It is deliberately narrow:
// only forms that occur in furniture vocabulary are handled.
func Singular(word string) string {
	if irregular, ok := irregularPlurals[word]; ok {
		return irregular
	}
	n := len(word)
	switch {
	case n <= 3:
		return word
	case strings.HasSuffix(word, "ies") && n > 4:
		return word[:n-3] + "y"
	case strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "sses"), strings.HasSuffix(word, "xes"):
		return word[:n-2]
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:n-1]
	}
	return word
}

var irregularPlurals = map[string]string{
	"shelves": "shelf",
	"leaves":  "leaf",
	"knives":  "knife",
	"does":    "does",
	"canvas":  "canvas",
	"series":  "series",
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if r == '\'' || r == '’' {
			continue // "what's" -> "whats"
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns a set of common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "in", "is", "its", "of", "on", "to", "was",
		"were", "will", "with", "have", "had", "but", "not", "you",
		"your", "we", "our", "i", "im", "me", "my", "if", "or", "so",
		"can", "do", "does", "did", "would", "could", "should",
		"please", "want", "need", "looking", "find", "show", "get",
		"some", "any", "just", "also", "like", "something", "id",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
