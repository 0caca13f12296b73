package segment

import (
	"strings"

	"github.com/tidwall/gjson"
)

const defaultScore = 0.5

// Raw is one candidate as emitted by the detector, after field aliasing.
// Missing or malformed numbers read as 0.
type Raw struct {
	Start       float64 `json:"start_sec"`
	End         float64 `json:"end_sec"`
	Quality     float64 `json:"quality_score"`
	Uniqueness  float64 `json:"uniqueness_score"`
	DedupeGroup *int    `json:"dedupe_group,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	Type        string  `json:"type,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Valid reports whether the raw interval is usable at all.
func (r Raw) Valid() bool {
	return r.End > r.Start
}

var (
	startKeys      = []string{"start_sec", "start_time", "start_seconds", "start"}
	endKeys        = []string{"end_sec", "end_time", "end_seconds", "end"}
	qualityKeys    = []string{"quality_score", "quality"}
	uniquenessKeys = []string{"uniqueness_score", "uniqueness"}
	confidenceKeys = []string{"confidence", "score"}
	notesKeys      = []string{"notes", "description", "script_notes"}
)

// ParseRaws decodes a detector reply. It accepts a bare array or an object
// carrying a "segments" array; non-object entries are ignored.
func ParseRaws(data []byte) []Raw {
	if !gjson.ValidBytes(data) {
		return nil
	}
	return FromResult(gjson.ParseBytes(data))
}

// FromResult decodes raws from an already parsed JSON value.
func FromResult(v gjson.Result) []Raw {
	if v.IsObject() {
		v = v.Get("segments")
	}
	if !v.IsArray() {
		return nil
	}
	var out []Raw
	v.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			out = append(out, parseRaw(item))
		}
		return true
	})
	return out
}

func parseRaw(item gjson.Result) Raw {
	r := Raw{
		Start: first(item, startKeys).Float(),
		End:   first(item, endKeys).Float(),
		Type:  strings.TrimSpace(item.Get("type").String()),
	}

	q, hasQ := numberOf(item, qualityKeys)
	c, hasC := numberOf(item, confidenceKeys)
	switch {
	case hasQ:
		r.Quality = q
	case hasC:
		r.Quality = c
	default:
		r.Quality = defaultScore
	}
	if hasC {
		r.Confidence = c
	} else {
		r.Confidence = r.Quality
	}
	if u, ok := numberOf(item, uniquenessKeys); ok {
		r.Uniqueness = u
	} else {
		r.Uniqueness = defaultScore
	}
	r.Quality = clamp01(r.Quality)
	r.Uniqueness = clamp01(r.Uniqueness)
	r.Confidence = clamp01(r.Confidence)

	if g := item.Get("dedupe_group"); g.Type == gjson.Number {
		n := int(g.Int())
		r.DedupeGroup = &n
	}

	notes := strings.TrimSpace(first(item, notesKeys).String())
	if tags := item.Get("tags"); tags.IsArray() {
		var parts []string
		for _, t := range tags.Array() {
			if s := strings.TrimSpace(t.String()); s != "" {
				parts = append(parts, s)
			}
		}
		notes = strings.TrimSpace(notes + " " + strings.Join(parts, " "))
	} else if tags.Type == gjson.String {
		notes = strings.TrimSpace(notes + " " + tags.Str)
	}
	r.Notes = notes
	return r
}

func first(item gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func numberOf(item gjson.Result, keys []string) (float64, bool) {
	v := first(item, keys)
	switch v.Type {
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		if strings.TrimSpace(v.Str) == "" {
			return 0, false
		}
		return v.Float(), true
	}
	return 0, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
