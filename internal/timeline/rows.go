// Package timeline flattens a cut list into export rows and writes them as
// CSV or as a CMX3600 EDL.
package timeline

import (
	"strings"

	"broll/internal/allocate"
	"broll/internal/config"
)

// Row is one flattened clip placement.
type Row struct {
	SceneIndex  int             `json:"scene_index"`
	MarkerIndex int             `json:"marker_index"`
	Keyword     string          `json:"keyword"`
	BinName     string          `json:"bin_name"`
	VideoIndex  int             `json:"video_index"`
	VideoPath   string          `json:"video_path"`
	SrcStart    float64         `json:"src_start"`
	SrcEnd      float64         `json:"src_end"`
	Duration    float64         `json:"duration_sec"`
	TimelinePos float64         `json:"timeline_pos"`
	Source      allocate.Source `json:"source"`
	Type        string          `json:"type"`
	Notes       string          `json:"notes"`
}

// Options controls interleaving and caps. Zero caps mean unlimited.
// VideoOrder fixes video_index numbering (1-based); videos not listed are
// numbered after it in order of first use.
type Options struct {
	Mode          string
	MaxPerVideo   int
	MaxPerKeyword int
	VideoOrder    []string
}

// OptionsFromConfig maps the rows section of the project config.
func OptionsFromConfig(c config.RowsConfig, videoOrder []string) Options {
	return Options{Mode: c.Mode, MaxPerVideo: c.MaxPerVideo, MaxPerKeyword: c.MaxPerKeyword, VideoOrder: videoOrder}
}

type placed struct {
	marker int
	clip   allocate.Clip
}

type keywordGroup struct {
	keyword string
	videos  []string
	byVideo map[string][]placed
}

// BuildRows groups clips per keyword (first marker order) and per video
// (first use order), then emits them sequentially or round-robin across
// videos, numbering scenes from 1.
func BuildRows(cl allocate.CutList, opt Options) []Row {
	index := make(map[string]int, len(opt.VideoOrder))
	for i, v := range opt.VideoOrder {
		if _, ok := index[v]; !ok {
			index[v] = i + 1
		}
	}
	videoIndex := func(path string) int {
		if n, ok := index[path]; ok {
			return n
		}
		n := len(index) + 1
		index[path] = n
		return n
	}

	var rows []Row
	for _, g := range groupClips(cl) {
		var picked []placed
		if opt.Mode == config.RowsSequential {
			picked = sequential(g, opt.MaxPerVideo)
		} else {
			picked = roundRobin(g, opt.MaxPerVideo)
		}
		if opt.MaxPerKeyword > 0 && len(picked) > opt.MaxPerKeyword {
			picked = picked[:opt.MaxPerKeyword]
		}
		for _, p := range picked {
			rows = append(rows, Row{
				SceneIndex:  len(rows) + 1,
				MarkerIndex: p.marker,
				Keyword:     g.keyword,
				BinName:     BinName(g.keyword),
				VideoIndex:  videoIndex(p.clip.VideoPath),
				VideoPath:   p.clip.VideoPath,
				SrcStart:    p.clip.ClipStart,
				SrcEnd:      p.clip.ClipEnd,
				Duration:    p.clip.Duration,
				TimelinePos: p.clip.TimelinePos,
				Source:      p.clip.Source,
				Type:        rowType(p.clip),
				Notes:       p.clip.Description,
			})
		}
	}
	return rows
}

// BinName is the keyword with spaces replaced by underscores.
func BinName(keyword string) string {
	return strings.ReplaceAll(strings.TrimSpace(keyword), " ", "_")
}

func rowType(c allocate.Clip) string {
	if c.Type != "" {
		return c.Type
	}
	return string(c.Source)
}

func groupClips(cl allocate.CutList) []*keywordGroup {
	var groups []*keywordGroup
	byKeyword := make(map[string]*keywordGroup)
	for _, cut := range cl.Cuts {
		for _, clip := range cut.Clips {
			g, ok := byKeyword[cut.Keyword]
			if !ok {
				g = &keywordGroup{keyword: cut.Keyword, byVideo: make(map[string][]placed)}
				byKeyword[cut.Keyword] = g
				groups = append(groups, g)
			}
			if _, seen := g.byVideo[clip.VideoPath]; !seen {
				g.videos = append(g.videos, clip.VideoPath)
			}
			g.byVideo[clip.VideoPath] = append(g.byVideo[clip.VideoPath], placed{marker: cut.Index, clip: clip})
		}
	}
	return groups
}

func sequential(g *keywordGroup, perVideo int) []placed {
	var out []placed
	for _, v := range g.videos {
		items := g.byVideo[v]
		if perVideo > 0 && len(items) > perVideo {
			items = items[:perVideo]
		}
		out = append(out, items...)
	}
	return out
}

func roundRobin(g *keywordGroup, perVideo int) []placed {
	var out []placed
	for round := 0; ; round++ {
		if perVideo > 0 && round >= perVideo {
			return out
		}
		added := false
		for _, v := range g.videos {
			if items := g.byVideo[v]; round < len(items) {
				out = append(out, items[round])
				added = true
			}
		}
		if !added {
			return out
		}
	}
}
