// Package tags pulls the structured intent markers out of free-form model replies.
//
// A marker looks like [KIND: <json>] and may appear anywhere in the reply.
// Model output is unreliable, so extraction never fails: a marker whose
// payload cannot be decoded is reported as a ParseError result and the caller
// decides what to skip.
package tags

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

type Kind string

const (
	KindRecommendations Kind = "RECOMMENDATIONS"
	KindBookingState    Kind = "BOOKING_STATE"
	KindItineraryPlan   Kind = "ITINERARY_PLAN"
)

type Status int

const (
	NoTag Status = iota
	Parsed
	ParseError
)

func (s Status) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case ParseError:
		return "parse_error"
	default:
		return "no_tag"
	}
}

var (
	markerRe = regexp.MustCompile(`(?i)\[\s*(RECOMMENDATIONS|BOOKING_STATE|ITINERARY_PLAN)\s*:\s*`)

	errUnbalanced  = errors.New("payload brackets are not balanced")
	errMissingJSON = errors.New("marker is not followed by a JSON payload")
	errWrongShape  = errors.New("payload has the wrong JSON type for this marker")
)

// Result is the outcome of looking for one marker. Start and End delimit the
// whole marker in the source text, closing bracket included when present.
type Result struct {
	Status  Status
	Kind    Kind
	Raw     string
	Payload any
	Err     error
	Start   int
	End     int
}

func (r Result) Found() bool { return r.Status != NoTag }

// Recommendations returns the decoded cards of a parsed RECOMMENDATIONS marker.
func (r Result) Recommendations() ([]types.RecommendationCard, bool) {
	cards, ok := r.Payload.([]types.RecommendationCard)
	return cards, ok && r.Status == Parsed && r.Kind == KindRecommendations
}

// BookingState returns the decoded object of a parsed BOOKING_STATE marker.
func (r Result) BookingState() (map[string]any, bool) {
	m, ok := r.Payload.(map[string]any)
	return m, ok && r.Status == Parsed && r.Kind == KindBookingState
}

// Itinerary returns the decoded plan of a parsed ITINERARY_PLAN marker.
func (r Result) Itinerary() (*types.ItineraryPlan, bool) {
	p, ok := r.Payload.(*types.ItineraryPlan)
	return p, ok && r.Status == Parsed && r.Kind == KindItineraryPlan
}

// Extract returns the first marker in text, or a NoTag result.
func Extract(text string) Result {
	all := ExtractAll(text)
	if len(all) == 0 {
		return Result{Status: NoTag}
	}
	return all[0]
}

// ExtractAll returns at most one result per kind, ordered by position. Only
// the first marker of each kind is honoured, and markers nested inside an
// earlier marker's payload are ignored.
func ExtractAll(text string) []Result {
	var results []Result
	seen := make(map[Kind]bool, 3)
	claimed := 0
	for _, m := range markerRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] < claimed {
			continue
		}
		kind := Kind(strings.ToUpper(text[m[2]:m[3]]))
		if seen[kind] {
			continue
		}
		seen[kind] = true

		r := parseAt(text, kind, m[0], m[1])
		if !errors.Is(r.Err, errUnbalanced) {
			claimed = r.End
		}
		results = append(results, r)
	}
	return results
}

// Find returns the first marker of the given kind.
func Find(text string, kind Kind) Result {
	for _, r := range ExtractAll(text) {
		if r.Kind == kind {
			return r
		}
	}
	return Result{Status: NoTag}
}

func parseAt(text string, kind Kind, start, payloadFrom int) Result {
	res := Result{Status: ParseError, Kind: kind, Start: start, End: payloadFrom}

	p := skipFence(text, payloadFrom)
	if p >= len(text) || (text[p] != '[' && text[p] != '{') {
		res.Raw = rawUntilClose(text, payloadFrom)
		res.End = payloadFrom + len(res.Raw)
		res.Err = errMissingJSON
		return res
	}

	closeAt := matchBracket(text, p)
	if closeAt < 0 {
		res.Raw = text[p:]
		res.End = len(text)
		res.Err = errUnbalanced
		return res
	}
	res.Raw = text[p : closeAt+1]

	end := closeAt + 1
	q := skipSpace(text, end)
	if strings.HasPrefix(text[q:], "```") {
		q = skipSpace(text, q+3)
	}
	if q < len(text) && text[q] == ']' {
		end = q + 1
	}
	res.End = end

	payload, err := decode(kind, res.Raw)
	if err != nil {
		res.Err = err
		return res
	}
	res.Status = Parsed
	res.Payload = payload
	return res
}

func decode(kind Kind, raw string) (any, error) {
	data := []byte(repairJSON(raw))
	switch kind {
	case KindRecommendations:
		if raw[0] != '[' {
			return nil, errWrongShape
		}
		var cards []types.RecommendationCard
		if err := json.Unmarshal(data, &cards); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return cards, nil
	case KindBookingState:
		if raw[0] != '{' {
			return nil, errWrongShape
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return m, nil
	case KindItineraryPlan:
		if raw[0] != '{' {
			return nil, errWrongShape
		}
		var plan types.ItineraryPlan
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return &plan, nil
	}
	return nil, fmt.Errorf("unknown tag kind %q", kind)
}

// Replace swaps the marker described by r for a freshly encoded one carrying
// payload. Offsets of other results taken from the same text are stale afterwards.
func Replace(text string, r Result, payload any) (string, error) {
	if r.Status != Parsed {
		return text, fmt.Errorf("replace %s: marker was not parsed", r.Kind)
	}
	if r.Start < 0 || r.End > len(text) || r.Start > r.End {
		return text, fmt.Errorf("replace %s: span [%d,%d) outside text", r.Kind, r.Start, r.End)
	}
	marker, err := Render(r.Kind, payload)
	if err != nil {
		return text, err
	}
	return text[:r.Start] + marker + text[r.End:], nil
}

// Render encodes payload in the marker wire format.
func Render(kind Kind, payload any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("encode %s: %w", kind, err)
	}
	return fmt.Sprintf("[%s: %s]", kind, bytes.TrimRight(buf.Bytes(), "\n")), nil
}
