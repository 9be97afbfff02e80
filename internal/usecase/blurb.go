package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"furnish/internal/domain"
	"furnish/internal/metrics"
	"furnish/internal/port"
)

// BlurbOptions bounds generated blurbs.
type BlurbOptions struct {
	MaxChars  int
	MaxTokens int
}

// Blurber writes one-line item blurbs, falling back to a template when
// generation is unavailable.
type Blurber struct {
	generator port.Generator
	opts      BlurbOptions
}

// NewBlurber creates a new blurber. A nil generator always uses the template.
func NewBlurber(generator port.Generator, opts BlurbOptions) *Blurber {
	if opts.MaxChars <= 0 {
		opts.MaxChars = 140
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 48
	}
	return &Blurber{generator: generator, opts: opts}
}

// Blurb fills in Blurb for every item, concurrently. Generation failures
// never surface; only a cancelled ctx does.
func (b *Blurber) Blurb(ctx context.Context, items []domain.Item) ([]domain.Item, error) {
	out := make([]domain.Item, len(items))
	copy(out, items)
	if len(out) == 0 {
		return out, nil
	}

	p := pool.New().WithMaxGoroutines(len(out))
	for i := range out {
		p.Go(func() {
			out[i].Blurb = b.one(ctx, out[i])
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Blurber) one(ctx context.Context, it domain.Item) string {
	if b.generator == nil {
		return b.template(it)
	}

	text, err := b.generator.Generate(ctx, b.prompt(it), b.opts.MaxTokens)
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
		}
		zerolog.Ctx(ctx).Debug().Err(err).Str("item", it.ID).Msg("blurb fallback")
		metrics.IncBlurbFallback()
		return b.template(it)
	}

	text = cleanBlurb(text)
	if text == "" {
		return b.template(it)
	}
	return truncateText(text, b.opts.MaxChars)
}

func (b *Blurber) prompt(it domain.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write one short sentence (at most %d characters) recommending this furniture item to a shopper.\n", b.opts.MaxChars)
	sb.WriteString("Use only the facts below. Do not invent measurements, materials or prices.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", it.Title)
	if it.HasPrice() {
		fmt.Fprintf(&sb, "Price: %s\n", formatPrice(it.Price))
	}
	for _, key := range []string{domain.AttrBrand, domain.AttrMaterial, domain.AttrColor, domain.AttrDimensions} {
		if v, ok := it.Attr(key); ok {
			fmt.Fprintf(&sb, "%s: %s\n", capitalize(attributeLabels[key]), v)
		}
	}
	if len(it.KeyFeatures) > 0 {
		fmt.Fprintf(&sb, "Features: %s\n", strings.Join(it.KeyFeatures, ", "))
	}
	sb.WriteString("\nSentence:")
	return sb.String()
}

// template builds the deterministic blurb from title, price and the most
// telling attribute.
func (b *Blurber) template(it domain.Item) string {
	var sb strings.Builder
	sb.WriteString(it.Title)
	if it.HasPrice() {
		sb.WriteString(" at ")
		sb.WriteString(formatPrice(it.Price))
	}
	switch {
	case hasAttr(it, domain.AttrMaterial):
		v, _ := it.Attr(domain.AttrMaterial)
		sb.WriteString(", made of ")
		sb.WriteString(strings.ToLower(v))
	case hasAttr(it, domain.AttrColor):
		v, _ := it.Attr(domain.AttrColor)
		sb.WriteString(", in ")
		sb.WriteString(strings.ToLower(v))
	case hasAttr(it, domain.AttrBrand):
		v, _ := it.Attr(domain.AttrBrand)
		sb.WriteString(", by ")
		sb.WriteString(v)
	}
	sb.WriteString(".")
	return truncateText(sb.String(), b.opts.MaxChars)
}

func hasAttr(it domain.Item, key string) bool {
	_, ok := it.Attr(key)
	return ok
}

// cleanBlurb keeps the first non-empty line and strips wrapping quotes.
func cleanBlurb(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\"'“”")
		line = strings.TrimSpace(strings.TrimPrefix(line, "Sentence:"))
		if line != "" {
			return line
		}
	}
	return ""
}

// truncateText cuts s to at most n runes, on a word boundary when possible.
func truncateText(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	const ellipsis = "..."
	runes := []rune(s)
	if n <= len(ellipsis) {
		return string(runes[:n])
	}
	cut := string(runes[:n-len(ellipsis)])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:-") + ellipsis
}
