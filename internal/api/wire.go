package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"furnish/internal/adapter/fs"
	"furnish/internal/domain"
)

// RecommendRequest is the body of POST /recommend and the arguments of the
// recommend tool.
type RecommendRequest struct {
	Query        string        `json:"query"`
	History      []WireTurn    `json:"history"`
	LastProducts []WireProduct `json:"last_products"`
}

// WireTurn names its author with "from"; older clients send "from_user".
type WireTurn struct {
	From     string `json:"from"`
	FromUser string `json:"from_user"`
	Text     string `json:"text"`
}

// WireProduct is an item as the chat client sees it: attributes flattened
// next to the presentation fields. Price may be a number or "$129.99".
type WireProduct struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Image       string            `json:"image,omitempty"`
	Price       json.RawMessage   `json:"price,omitempty"`
	Brand       string            `json:"brand,omitempty"`
	Category    string            `json:"category,omitempty"`
	Material    string            `json:"material,omitempty"`
	Color       string            `json:"color,omitempty"`
	Dimensions  string            `json:"dimensions,omitempty"`
	Description string            `json:"description,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	KeyFeatures []string          `json:"key_features,omitempty"`
	BestFor     string            `json:"best_for,omitempty"`
	Blurb       string            `json:"blurb,omitempty"`
}

// RecommendResponse carries the envelope plus the last_products the client
// must send back on its next request.
type RecommendResponse struct {
	Type            string        `json:"type"`
	Response        string        `json:"response"`
	Recommendations []WireProduct `json:"recommendations,omitempty"`
	LastProducts    []WireProduct `json:"last_products"`
	RequestID       string        `json:"request_id,omitempty"`
}

// Session converts the request into the engine's session context.
func (r RecommendRequest) Session() (domain.SessionContext, error) {
	var s domain.SessionContext
	for i, t := range r.History {
		name := t.From
		if name == "" {
			name = t.FromUser
		}
		role, ok := domain.ParseRole(name)
		if !ok {
			return s, fmt.Errorf("%w: history[%d] has unknown author %q", domain.ErrValidation, i, name)
		}
		s.History = append(s.History, domain.Turn{Role: role, Text: t.Text})
	}
	for _, p := range r.LastProducts {
		s.LastShown = append(s.LastShown, p.Item())
	}
	return s, nil
}

// Item converts the wire product. Flat fields win over the attributes map.
func (p WireProduct) Item() domain.Item {
	it := domain.Item{
		ID:          strings.TrimSpace(p.ID),
		Title:       p.Title,
		Image:       p.Image,
		Price:       fs.PriceValue(p.Price),
		KeyFeatures: p.KeyFeatures,
		BestFor:     p.BestFor,
		Blurb:       p.Blurb,
	}

	attrs := make(map[string]string, len(p.Attributes)+6)
	for k, v := range p.Attributes {
		attrs[strings.ToLower(k)] = v
	}
	flat := map[string]string{
		domain.AttrBrand:       p.Brand,
		domain.AttrCategory:    p.Category,
		domain.AttrMaterial:    p.Material,
		domain.AttrColor:       p.Color,
		domain.AttrDimensions:  p.Dimensions,
		domain.AttrDescription: p.Description,
	}
	for k, v := range flat {
		if strings.TrimSpace(v) != "" {
			attrs[k] = v
		}
	}
	if len(attrs) > 0 {
		it.Attributes = attrs
	}
	return it
}

// ProductFromItem flattens it for the client.
func ProductFromItem(it domain.Item) WireProduct {
	p := WireProduct{
		ID:          it.ID,
		Title:       it.Title,
		Image:       it.Image,
		KeyFeatures: it.KeyFeatures,
		BestFor:     it.BestFor,
		Blurb:       it.Blurb,
	}
	if it.HasPrice() {
		p.Price = json.RawMessage(strconv.Quote("$" + strconv.FormatFloat(it.Price, 'f', 2, 64)))
	}
	p.Brand, _ = it.Attr(domain.AttrBrand)
	p.Category, _ = it.Attr(domain.AttrCategory)
	p.Material, _ = it.Attr(domain.AttrMaterial)
	p.Color, _ = it.Attr(domain.AttrColor)
	p.Dimensions, _ = it.Attr(domain.AttrDimensions)
	p.Description, _ = it.Attr(domain.AttrDescription)

	for k, v := range it.Attributes {
		switch k {
		case domain.AttrBrand, domain.AttrCategory, domain.AttrMaterial,
			domain.AttrColor, domain.AttrDimensions, domain.AttrDescription:
			continue
		}
		if p.Attributes == nil {
			p.Attributes = make(map[string]string)
		}
		p.Attributes[k] = v
	}
	return p
}

// ResponseFromReply renders an engine reply.
func ResponseFromReply(r domain.Reply) RecommendResponse {
	resp := RecommendResponse{
		Type:         string(r.Envelope.Kind),
		Response:     r.Envelope.Text(),
		LastProducts: products(r.Session.LastShown),
	}
	if r.Envelope.Kind == domain.KindProducts {
		resp.Recommendations = products(r.Envelope.Items())
	}
	return resp
}

func products(items []domain.Item) []WireProduct {
	out := make([]WireProduct, 0, len(items))
	for _, it := range items {
		out = append(out, ProductFromItem(it))
	}
	return out
}
