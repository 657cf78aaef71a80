package types

import (
	"bytes"
	"encoding/json"
)

// RecommendationCard is one entry of a RECOMMENDATIONS tag. Only the fields
// the concierge reads are typed; every other key, and any typed key whose
// value is not a string, is kept in Extra and written back unchanged.
type RecommendationCard struct {
	Name     string
	City     string
	Category string
	Detail   string
	Price    string
	ImageURL string
	Images   []string
	Extra    map[string]any

	// opaque holds an entry that is not a JSON object.
	opaque json.RawMessage
}

var cardStringFields = []string{"name", "city", "category", "detail", "price", "image_url"}

func (c *RecommendationCard) stringField(key string) *string {
	switch key {
	case "name":
		return &c.Name
	case "city":
		return &c.City
	case "category":
		return &c.Category
	case "detail":
		return &c.Detail
	case "price":
		return &c.Price
	case "image_url":
		return &c.ImageURL
	}
	return nil
}

// IsObject reports whether the entry was a JSON object. Other entries are
// passed through and get no images.
func (c RecommendationCard) IsObject() bool { return c.opaque == nil }

func (c *RecommendationCard) UnmarshalJSON(data []byte) error {
	*c = RecommendationCard{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		c.opaque = append(json.RawMessage(nil), trimmed...)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return err
	}

	for _, key := range cardStringFields {
		if v, ok := fields[key].(string); ok && v != "" {
			*c.stringField(key) = v
			delete(fields, key)
		}
	}
	if raw, ok := fields["images"].([]any); ok {
		images := make([]string, 0, len(raw))
		for _, v := range raw {
			u, isString := v.(string)
			if !isString {
				images = nil
				break
			}
			images = append(images, u)
		}
		if images != nil {
			c.Images = images
			delete(fields, "images")
		}
	}
	if len(fields) > 0 {
		c.Extra = fields
	}
	return nil
}

func (c RecommendationCard) MarshalJSON() ([]byte, error) {
	if c.opaque != nil {
		return c.opaque, nil
	}
	out := make(map[string]any, len(c.Extra)+len(cardStringFields)+1)
	for k, v := range c.Extra {
		out[k] = v
	}
	for _, key := range cardStringFields {
		if v := *c.stringField(key); v != "" {
			out[key] = v
		}
	}
	if c.Images != nil {
		out["images"] = c.Images
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ImageRequest addresses a single image slot of a card.
type ImageRequest struct {
	Name     string
	Category string
	City     string
	Index    int
}

// ItineraryPlan mirrors the ITINERARY_PLAN tag payload.
type ItineraryPlan struct {
	Destination    string         `json:"destination"`
	Days           int            `json:"days"`
	BudgetTotal    float64        `json:"budget_total"`
	BudgetCurrency string         `json:"budget_currency"`
	GeneratedAt    string         `json:"generated_at,omitempty"`
	DaysPlan       []ItineraryDay `json:"days_plan"`
}

type ItineraryDay struct {
	Day   int             `json:"day"`
	Theme string          `json:"theme"`
	Items []ItineraryItem `json:"items"`
}

type ItineraryItem struct {
	Time     string  `json:"time"`
	Activity string  `json:"activity"`
	Place    string  `json:"place"`
	Cost     float64 `json:"cost"`
	Category string  `json:"category"`
	Tip      string  `json:"tip,omitempty"`
}
