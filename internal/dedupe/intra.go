package dedupe

import (
	"sort"

	"broll/internal/segment"
)

// Options is one pass of the intra-video deduplicator.
type Options struct {
	MinQuality       float64
	MaxKeep          int
	IoUThreshold     float64
	TextSimThreshold float64
	SkipNMS          bool
}

// Intra filters the segments of one (video, keyword) pair: quality gate,
// collapse of dedupe groups, greedy suppression of candidates that overlap in
// time or in wording with a better one, then the MaxKeep cap. The result is
// ordered by start time.
func Intra(segs []segment.Segment, opt Options) []segment.Segment {
	ranked := make([]segment.Segment, 0, len(segs))
	for _, s := range segs {
		if s.Quality >= opt.MinQuality {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})

	ranked = collapseGroups(ranked)

	var kept []segment.Segment
	for _, cand := range ranked {
		if opt.MaxKeep > 0 && len(kept) >= opt.MaxKeep {
			break
		}
		if !opt.SkipNMS && suppressed(cand, kept, opt) {
			continue
		}
		kept = append(kept, cand)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start < kept[j].Start
	})
	return kept
}

// collapseGroups keeps the first (best ranked) member of each dedupe group.
func collapseGroups(ranked []segment.Segment) []segment.Segment {
	seen := make(map[int]bool)
	out := ranked[:0:0]
	for _, s := range ranked {
		if s.DedupeGroup != nil {
			if seen[*s.DedupeGroup] {
				continue
			}
			seen[*s.DedupeGroup] = true
		}
		out = append(out, s)
	}
	return out
}

func suppressed(cand segment.Segment, kept []segment.Segment, opt Options) bool {
	for _, k := range kept {
		if Overlap(cand, k) >= opt.IoUThreshold {
			return true
		}
		if TextSimilarity(cand.Notes, k.Notes) >= opt.TextSimThreshold {
			return true
		}
	}
	return false
}
