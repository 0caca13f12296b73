package markerplan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Marker is one timeline occurrence of a keyword.
type Marker struct {
	Index         int     `json:"index"`
	Keyword       string  `json:"keyword"`
	Start         float64 `json:"start_seconds"`
	End           float64 `json:"end_seconds"`
	Duration      float64 `json:"duration_seconds"`
	StartTimecode string  `json:"start_timecode,omitempty"`
	EndTimecode   string  `json:"end_timecode,omitempty"`
}

// Open reports whether the marker has no usable end on the timeline.
func (m Marker) Open() bool {
	return m.End <= m.Start
}

// Plan is the parsed marker file.
type Plan struct {
	SequenceName string
	Markers      []Marker
}

// Keywords returns the distinct non-empty keywords in marker order.
func (p Plan) Keywords() []string {
	seen := make(map[string]bool, len(p.Markers))
	var out []string
	for _, m := range p.Markers {
		if m.Keyword == "" || seen[m.Keyword] {
			continue
		}
		seen[m.Keyword] = true
		out = append(out, m.Keyword)
	}
	return out
}

var utf8BOM = []byte("\ufeff")

// Load reads a marker file. The document may be an object with a "keywords"
// (or "markers") array, or a bare array. When records are malformed the
// returned error is ValidationErrors and the plan still holds every marker
// that could be read, sorted by index.
func Load(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read markers: %w", err)
	}
	return Parse(data)
}

// Parse decodes marker file contents.
func Parse(data []byte) (Plan, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return Plan{}, errors.New("marker file is empty")
	}
	if !gjson.ValidBytes(data) {
		return Plan{}, errors.New("marker file is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	var plan Plan
	list := root
	if root.IsObject() {
		plan.SequenceName = strings.TrimSpace(root.Get("sequence_name").String())
		list = root.Get("keywords")
		if !list.Exists() {
			list = root.Get("markers")
		}
	}
	if !list.IsArray() {
		return Plan{}, errors.New("marker file has no keywords array")
	}

	var errs ValidationErrors
	list.ForEach(func(_, rec gjson.Result) bool {
		pos := len(plan.Markers) + 1
		m, recErrs := parseMarker(rec, pos)
		errs = append(errs, recErrs...)
		plan.Markers = append(plan.Markers, m)
		return true
	})

	sort.SliceStable(plan.Markers, func(i, j int) bool {
		return plan.Markers[i].Index < plan.Markers[j].Index
	})

	if len(errs) > 0 {
		return plan, errs
	}
	return plan, nil
}

func parseMarker(rec gjson.Result, pos int) (Marker, ValidationErrors) {
	var errs ValidationErrors
	m := Marker{Index: pos}

	if idx := rec.Get("index"); idx.Exists() {
		m.Index = int(idx.Int())
	}
	m.Keyword = strings.TrimSpace(rec.Get("keyword").String())
	if m.Keyword == "" {
		errs = append(errs, ValidationError{Record: m.Index, Field: "keyword", Message: "is empty"})
	}

	m.Start = number(rec, "start_seconds", "start")
	if m.Start < 0 {
		errs = append(errs, ValidationError{Record: m.Index, Field: "start_seconds", Message: "is negative"})
		m.Start = 0
	}
	m.End = number(rec, "end_seconds", "end")
	m.Duration = number(rec, "duration_seconds", "duration")
	if m.Duration < 0 {
		m.Duration = 0
	}

	if m.End <= m.Start && m.Duration > 0 {
		m.End = m.Start + m.Duration
	}
	if m.Duration == 0 && m.End > m.Start {
		m.Duration = m.End - m.Start
	}
	if m.End <= m.Start {
		errs = append(errs, ValidationError{Record: m.Index, Field: "end_seconds", Message: "has no usable end; clips keep their own length"})
	}

	m.StartTimecode = rec.Get("start_timecode").String()
	m.EndTimecode = rec.Get("end_timecode").String()
	return m, errs
}

// number reads the first present key as a float. Strings holding numbers are
// accepted; anything else reads as 0.
func number(rec gjson.Result, keys ...string) float64 {
	for _, k := range keys {
		if v := rec.Get(k); v.Exists() {
			return v.Float()
		}
	}
	return 0
}
