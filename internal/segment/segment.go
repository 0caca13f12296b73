// Package segment models candidate time ranges proposed for a keyword inside
// a source video, and normalizes untrusted detector output into them.
package segment

import (
	"fmt"
	"strings"
)

// Tier records which quality pass admitted a segment.
type Tier string

const (
	TierStrict   Tier = "strict"
	TierLenient  Tier = "lenient"
	TierFallback Tier = "fallback"
)

// Segment is a normalized candidate interval inside one video.
type Segment struct {
	VideoID     string  `json:"video_id"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Quality     float64 `json:"quality_score"`
	Uniqueness  float64 `json:"uniqueness_score"`
	DedupeGroup *int    `json:"dedupe_group,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	Type        string  `json:"type,omitempty"`
	Confidence  float64 `json:"confidence"`
	Tier        Tier    `json:"tier,omitempty"`
}

// Duration returns End-Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Score is the ranking weight used by deduplication.
func (s Segment) Score() float64 {
	return 0.75*s.Quality + 0.25*s.Uniqueness
}

// ID identifies a segment by video and start rounded to centiseconds.
func (s Segment) ID() string {
	return fmt.Sprintf("%s|%.2f", s.VideoID, s.Start)
}

// Signature is the text compared when looking for lexical duplicates.
func (s Segment) Signature() string {
	return strings.TrimSpace(s.Notes + " " + s.Type)
}
