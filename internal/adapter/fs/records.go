package fs

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"furnish/internal/adapter/analyzer"
	"furnish/internal/domain"
)

// Record is one catalog row as exported by the product feed. Several
// fields accept the feed's alternative names.
type Record struct {
	ID                string          `json:"id"`
	UniqID            string          `json:"uniq_id"`
	Title             string          `json:"title"`
	Image             string          `json:"image"`
	Images            json.RawMessage `json:"images"`
	Price             json.RawMessage `json:"price"`
	Brand             string          `json:"brand"`
	Category          string          `json:"category"`
	Categories        json.RawMessage `json:"categories"`
	Material          string          `json:"material"`
	Color             string          `json:"color"`
	Description       string          `json:"description"`
	Dimensions        string          `json:"dimensions"`
	PackageDimensions string          `json:"package_dimensions"`
}

// Item converts the record, dropping empty attributes.
func (r Record) Item() (domain.Item, error) {
	id := firstNonEmpty(r.ID, r.UniqID)
	if id == "" {
		return domain.Item{}, fmt.Errorf("record %q has no id", r.Title)
	}

	it := domain.Item{
		ID:    id,
		Title: strings.TrimSpace(r.Title),
		Image: firstNonEmpty(r.Image, firstString(r.Images)),
		Price: PriceValue(r.Price),
	}

	attrs := map[string]string{
		domain.AttrBrand:       r.Brand,
		domain.AttrCategory:    firstNonEmpty(r.Category, mostSpecificCategory(r.Categories)),
		domain.AttrMaterial:    r.Material,
		domain.AttrColor:       r.Color,
		domain.AttrDescription: r.Description,
		domain.AttrDimensions:  firstNonEmpty(r.Dimensions, r.PackageDimensions),
	}
	for k, v := range attrs {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if it.Attributes == nil {
			it.Attributes = make(map[string]string)
		}
		it.Attributes[k] = v
	}
	return it, nil
}

// PriceValue reads a price given either as a JSON number or a string such
// as "$129.99".
func PriceValue(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return domain.ParsePrice(s)
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// stringList accepts a string, a JSON list, or a string holding a list
// such as "['a.jpg', 'b.jpg']".
func stringList(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			list = strings.Split(s[1:len(s)-1], ",")
		} else {
			list = []string{s}
		}
	}

	out := make([]string, 0, len(list))
	for _, v := range list {
		v = strings.Trim(strings.TrimSpace(v), `'"`)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstString(raw json.RawMessage) string {
	if list := stringList(raw); len(list) > 0 {
		return list[0]
	}
	return ""
}

// mostSpecificCategory picks the deepest breadcrumb that names a known
// category, or the deepest breadcrumb when none does.
func mostSpecificCategory(raw json.RawMessage) string {
	list := stringList(raw)
	for i := len(list) - 1; i >= 0; i-- {
		if _, ok := analyzer.HeadCategory(list[i]); ok {
			return list[i]
		}
	}
	if len(list) > 0 {
		return list[len(list)-1]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ReadRecords parses a JSON array or a JSON-lines file.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return records, nil
	}

	var records []Record
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(text, &r); err != nil {
			return nil, fmt.Errorf("failed to parse %s:%d: %w", path, line, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}
