// Package places holds the verified tourism dataset that grounds the
// concierge's recommendations.
package places

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultPromptLimit = 15
	NoContext          = "No real dataset context available."
)

type Place struct {
	Name       string
	City       string
	State      string
	Category   string
	Type       string
	Rating     string
	Price      string
	TimeNeeded string
	BestTime   string
	ClosedOn   string
}

// columns maps dataset headers onto Place fields.
var columns = map[string]func(*Place, string){
	"name":                        func(p *Place, v string) { p.Name = v },
	"city":                        func(p *Place, v string) { p.City = v },
	"state":                       func(p *Place, v string) { p.State = v },
	"significance":                func(p *Place, v string) { p.Category = v },
	"type":                        func(p *Place, v string) { p.Type = v },
	"google review rating":        func(p *Place, v string) { p.Rating = v },
	"entrance fee in inr":         func(p *Place, v string) { p.Price = v },
	"time needed to visit in hrs": func(p *Place, v string) { p.TimeNeeded = v },
	"best time to visit":          func(p *Place, v string) { p.BestTime = v },
	"weekly off":                  func(p *Place, v string) { p.ClosedOn = v },
}

// Parse reads the dataset. Unknown columns are ignored and rows without a
// name are skipped.
func Parse(r io.Reader) ([]Place, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	setters := make([]func(*Place, string), len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		setters[i] = columns[key]
	}

	var out []Place
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("read row %d: %w", len(out)+1, err)
		}
		p := Place{Price: "0", ClosedOn: "None"}
		for i, v := range record {
			if i < len(setters) && setters[i] != nil {
				setters[i](&p, strings.TrimSpace(v))
			}
		}
		if p.Name == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type Catalog struct {
	places []Place
	limit  int
	memo   *cache.Cache
}

func NewCatalog(places []Place, limit int) *Catalog {
	if limit <= 0 {
		limit = DefaultPromptLimit
	}
	return &Catalog{
		places: places,
		limit:  limit,
		memo:   cache.New(cache.NoExpiration, 0),
	}
}

// LoadCatalog reads the dataset at path. A missing or unreadable file yields
// an empty catalog; the concierge still answers, just without grounding.
func LoadCatalog(path string, limit int, logger *slog.Logger) *Catalog {
	l := logger.With(slog.String("method", "LoadCatalog"), slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		l.Warn("Tourism dataset not available", slog.Any("error", err))
		return NewCatalog(nil, limit)
	}
	defer f.Close()

	places, err := Parse(f)
	if err != nil {
		l.Warn("Tourism dataset partially loaded", slog.Int("rows", len(places)), slog.Any("error", err))
	} else {
		l.Info("Tourism dataset loaded", slog.Int("rows", len(places)))
	}
	return NewCatalog(places, limit)
}

func (c *Catalog) Len() int { return len(c.places) }

// PromptContext renders the first rows of the dataset for the system prompt.
func (c *Catalog) PromptContext() string {
	if len(c.places) == 0 {
		return NoContext
	}
	key := strconv.Itoa(c.limit)
	if cached, ok := c.memo.Get(key); ok {
		return cached.(string)
	}

	var b strings.Builder
	b.WriteString("Verified Indian Tourism Data:\n")
	for i, p := range c.places {
		if i == c.limit {
			break
		}
		fee := "Free"
		if p.Price != "" && p.Price != "0" {
			fee = "Rs. " + p.Price
		}
		closed := ""
		if p.ClosedOn != "" && !strings.EqualFold(p.ClosedOn, "none") {
			closed = "(Closed on " + p.ClosedOn + ")"
		}
		fmt.Fprintf(&b, "- %s (%s, %s) | Type: %s/%s | Rating: %s/5 | Fee: %s | Best Time: %s | Time Needed: %s hrs %s\n",
			p.Name, p.City, p.State, p.Type, p.Category, p.Rating, fee, p.BestTime, p.TimeNeeded, closed)
	}
	out := b.String()
	c.memo.Set(key, out, cache.NoExpiration)
	return out
}
