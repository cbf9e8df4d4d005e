package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Field names one of the four series a page embeds for the chart.
type Field int

const (
	FieldDates Field = iota
	FieldLocks
	FieldRocks
	FieldRates
)

var fields = []Field{FieldDates, FieldLocks, FieldRocks, FieldRates}

// Attr is the data attribute the page template writes the field to.
func (f Field) Attr() string {
	switch f {
	case FieldDates:
		return "data-dates"
	case FieldLocks:
		return "data-locks"
	case FieldRocks:
		return "data-rocks"
	case FieldRates:
		return "data-rates"
	}
	return ""
}

// Key is the JSON object key used by the import format.
func (f Field) Key() string {
	switch f {
	case FieldDates:
		return "dates"
	case FieldLocks:
		return "lockCounts"
	case FieldRocks:
		return "rockCounts"
	case FieldRates:
		return "successRates"
	}
	return ""
}

// Source is a handle to page-embedded chart data: each field is a
// serialized array.
type Source interface {
	Lookup(f Field) (string, bool)
}

// Attrs is a Source backed by data-* attributes.
type Attrs map[string]string

func (a Attrs) Lookup(f Field) (string, bool) {
	v, ok := a[f.Attr()]
	return v, ok
}

// JSONSource is a Source backed by a JSON object keyed by Field.Key.
type JSONSource map[string]json.RawMessage

func (s JSONSource) Lookup(f Field) (string, bool) {
	v, ok := s[f.Key()]
	return string(v), ok
}

// ReadJSONSource decodes one JSON object from r.
func ReadJSONSource(r io.Reader) (JSONSource, error) {
	var s JSONSource
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode chart data: %w", err)
	}
	return s, nil
}

// FindElement parses an HTML document and returns the attributes of the
// element with the given id. A nil Source and no error means the element is
// not in the document.
func FindElement(r io.Reader, id string) (Source, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	n := findByID(doc, id)
	if n == nil {
		return nil, nil
	}
	attrs := make(Attrs, len(n.Attr))
	for _, a := range n.Attr {
		attrs[strings.ToLower(a.Key)] = a.Val
	}
	return attrs, nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// Payload holds the four aligned series of a reporting window. Index i of
// every slice describes the same period.
type Payload struct {
	Dates        []string  `json:"dates"`
	LockCounts   []float64 `json:"lockCounts"`
	RockCounts   []float64 `json:"rockCounts"`
	SuccessRates []float64 `json:"successRates"`
}

// Len is the number of periods, or zero when any series is empty.
func (p Payload) Len() int {
	if p.Empty() {
		return 0
	}
	return len(p.Dates)
}

// Empty reports whether any of the series has no values.
func (p Payload) Empty() bool {
	return len(p.Dates) == 0 || len(p.LockCounts) == 0 || len(p.RockCounts) == 0 || len(p.SuccessRates) == 0
}

func (p Payload) clone() Payload {
	return Payload{
		Dates:        slices.Clone(p.Dates),
		LockCounts:   slices.Clone(p.LockCounts),
		RockCounts:   slices.Clone(p.RockCounts),
		SuccessRates: slices.Clone(p.SuccessRates),
	}
}

// Attrs serializes the payload the way the page template embeds it.
func (p Payload) Attrs() (Attrs, error) {
	values := map[Field]any{
		FieldDates: nonNil(p.Dates),
		FieldLocks: nonNil(p.LockCounts),
		FieldRocks: nonNil(p.RockCounts),
		FieldRates: nonNil(p.SuccessRates),
	}
	attrs := make(Attrs, len(values))
	for f, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.Attr(), err)
		}
		attrs[f.Attr()] = string(b)
	}
	return attrs, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Extract reads and validates the four series from src.
//
// A nil src yields KindMissing. A field that is absent or is not an array of
// the expected element type yields KindMalformed. When everything decodes but
// a series is empty, the empty payload is returned along with a KindEmpty
// error so callers can tell "no data yet" apart from broken data.
func Extract(src Source) (Payload, error) {
	if src == nil {
		return Payload{}, newDataError(KindMissing, "", nil)
	}

	var p Payload
	for _, f := range fields {
		raw, ok := src.Lookup(f)
		if !ok {
			return Payload{}, newDataError(KindMalformed, f.Key(), errors.New("field is absent"))
		}
		var err error
		switch f {
		case FieldDates:
			p.Dates, err = decodeArray[string](raw)
		case FieldLocks:
			p.LockCounts, err = decodeArray[float64](raw)
		case FieldRocks:
			p.RockCounts, err = decodeArray[float64](raw)
		case FieldRates:
			p.SuccessRates, err = decodeArray[float64](raw)
		}
		if err != nil {
			return Payload{}, newDataError(KindMalformed, f.Key(), err)
		}
	}

	if p.Empty() {
		return p, newDataError(KindEmpty, "", nil)
	}

	n := len(p.Dates)
	if len(p.LockCounts) != n || len(p.RockCounts) != n || len(p.SuccessRates) != n {
		return Payload{}, newDataError(KindMalformed, "", fmt.Errorf(
			"series lengths differ: dates=%d locks=%d rocks=%d rates=%d",
			n, len(p.LockCounts), len(p.RockCounts), len(p.SuccessRates)))
	}
	for i := 0; i < n; i++ {
		if p.LockCounts[i] < 0 || p.RockCounts[i] < 0 {
			return Payload{}, newDataError(KindMalformed, "", fmt.Errorf("negative count at %s", p.Dates[i]))
		}
		if r := p.SuccessRates[i]; r < 0 || r > 100 {
			return Payload{}, newDataError(KindMalformed, FieldRates.Key(), fmt.Errorf("rate %v at %s is outside [0, 100]", r, p.Dates[i]))
		}
	}

	return p, nil
}

func decodeArray[T any](raw string) ([]T, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "[") {
		return nil, errors.New("not an array")
	}
	var items []*T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	out := make([]T, len(items))
	for i, v := range items {
		if v == nil {
			return nil, fmt.Errorf("element %d is null", i)
		}
		out[i] = *v
	}
	return out, nil
}
