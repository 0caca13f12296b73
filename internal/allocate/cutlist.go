package allocate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Source tags where a clip came from.
type Source string

const (
	SourceAIBest       Source = "ai_best"
	SourceTimeFallback Source = "time_based_fallback"
	SourceHashFallback Source = "fallback_hash"
)

// Clip is one source interval placed on the timeline.
type Clip struct {
	VideoPath   string  `json:"video_path"`
	VideoName   string  `json:"video_name"`
	ClipStart   float64 `json:"clip_start"`
	ClipEnd     float64 `json:"clip_end"`
	TimelinePos float64 `json:"timeline_pos"`
	Duration    float64 `json:"duration"`
	Source      Source  `json:"source"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description,omitempty"`
	Type        string  `json:"type,omitempty"`
}

// CutEntry is one marker with the clips assigned to it.
type CutEntry struct {
	Index            int     `json:"index"`
	Keyword          string  `json:"keyword"`
	TimelineStart    float64 `json:"timeline_start"`
	TimelineEnd      float64 `json:"timeline_end"`
	TimelineDuration float64 `json:"timeline_duration"`
	Clips            []Clip  `json:"clips"`
}

// ClipCount is the number of clips in the entry.
func (e CutEntry) ClipCount() int {
	return len(e.Clips)
}

// MarshalJSON writes clip_count alongside the stored fields.
func (e CutEntry) MarshalJSON() ([]byte, error) {
	type entry CutEntry
	if e.Clips == nil {
		e.Clips = []Clip{}
	}
	return json.Marshal(struct {
		entry
		ClipCount int `json:"clip_count"`
	}{entry(e), e.ClipCount()})
}

// CutList is the full allocation result, in marker index order.
type CutList struct {
	RunID          string     `json:"run_id"`
	GeneratedAt    time.Time  `json:"generated_at"`
	FillPolicy     string     `json:"fill_policy"`
	ClipsPerMarker int        `json:"clips_per_marker"`
	Cuts           []CutEntry `json:"cuts"`
}

// Summary holds counts derived from a cut list.
type Summary struct {
	Count            int `json:"count"`
	TotalClips       int `json:"total_clips"`
	MarkersWithClips int `json:"markers_with_clips"`
	AIClips          int `json:"ai_clips"`
	TimeFallback     int `json:"time_fallback_clips"`
	HashFallback     int `json:"hash_fallback_clips"`
}

// Summary counts markers and clips by source.
func (c CutList) Summary() Summary {
	s := Summary{Count: len(c.Cuts)}
	for _, cut := range c.Cuts {
		if len(cut.Clips) > 0 {
			s.MarkersWithClips++
		}
		s.TotalClips += len(cut.Clips)
		for _, clip := range cut.Clips {
			switch clip.Source {
			case SourceAIBest:
				s.AIClips++
			case SourceTimeFallback:
				s.TimeFallback++
			case SourceHashFallback:
				s.HashFallback++
			}
		}
	}
	return s
}

// MarshalJSON flattens the summary counts into the document.
func (c CutList) MarshalJSON() ([]byte, error) {
	type list CutList
	if c.Cuts == nil {
		c.Cuts = []CutEntry{}
	}
	return json.Marshal(struct {
		list
		Summary
	}{list(c), c.Summary()})
}

// Load reads a cut list written by Save.
func Load(path string) (CutList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CutList{}, fmt.Errorf("cut list %s not found; run build first", path)
		}
		return CutList{}, fmt.Errorf("read cut list: %w", err)
	}
	var cl CutList
	if err := json.Unmarshal(data, &cl); err != nil {
		return CutList{}, fmt.Errorf("decode cut list: %w", err)
	}
	return cl, nil
}

// Save writes the cut list atomically.
func Save(path string, cl CutList) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure cut list dir: %w", err)
	}

	data, err := json.MarshalIndent(cl, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cut list: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp cut list: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace cut list: %w", err)
	}
	return nil
}
