// Package pool turns per-video detector output into the deduplicated
// per-keyword segment pools consumed by marker allocation.
package pool

import (
	"broll/internal/config"
	"broll/internal/dedupe"
	"broll/internal/segment"
)

// SelectForVideo runs the strict pass over one (video, keyword) candidate
// list and, when it keeps fewer than MinKeepPerVideo segments, a lenient pass;
// the larger result wins and ties keep strict. If both come back empty while a
// usable raw candidate exists, that first candidate is returned on its own.
func SelectForVideo(raws []segment.Raw, videoID string, cfg config.Config) []segment.Segment {
	norm := segment.NormalizeAll(raws, videoID, cfg.Normalize)

	strict := dedupe.Intra(norm, tierOptions(cfg.Dedupe, cfg.Dedupe.Strict, false))
	result := tag(strict, segment.TierStrict)

	if len(strict) < cfg.Dedupe.MinKeepPerVideo {
		lenient := dedupe.Intra(norm, tierOptions(cfg.Dedupe, cfg.Dedupe.Lenient, cfg.Dedupe.Lenient.SkipNMS))
		if len(lenient) > len(strict) {
			result = tag(lenient, segment.TierLenient)
		}
	}

	if len(result) == 0 {
		if seg, ok := firstUsable(raws, videoID, cfg.Normalize); ok {
			seg.Tier = segment.TierFallback
			result = []segment.Segment{seg}
		}
	}
	return result
}

func tierOptions(d config.DedupeConfig, t config.TierConfig, skipNMS bool) dedupe.Options {
	return dedupe.Options{
		MinQuality:       t.MinQuality,
		MaxKeep:          t.MaxKeep,
		IoUThreshold:     d.IoUThreshold,
		TextSimThreshold: d.TextSimThreshold,
		SkipNMS:          skipNMS,
	}
}

func tag(segs []segment.Segment, tier segment.Tier) []segment.Segment {
	for i := range segs {
		segs[i].Tier = tier
	}
	return segs
}

// firstUsable takes the first raw candidate with end > start. Normalization
// is applied when it succeeds; otherwise the raw bounds are used as-is.
func firstUsable(raws []segment.Raw, videoID string, p config.NormalizeConfig) (segment.Segment, bool) {
	for _, r := range raws {
		if !r.Valid() {
			continue
		}
		if seg, ok := segment.Normalize(r, videoID, p); ok {
			return seg, true
		}
		return segment.Segment{
			VideoID:    videoID,
			Start:      r.Start,
			End:        r.End,
			Quality:    r.Quality,
			Uniqueness: r.Uniqueness,
			Notes:      r.Notes,
			Type:       r.Type,
			Confidence: r.Confidence,
		}, true
	}
	return segment.Segment{}, false
}
