package segment

import "broll/internal/config"

// Normalize pads a raw candidate and bounds its duration to the policy
// limits. Segments with no positive extent are dropped (ok == false).
func Normalize(r Raw, videoID string, p config.NormalizeConfig) (Segment, bool) {
	if !r.Valid() {
		return Segment{}, false
	}

	mid := (r.Start + r.End) / 2
	start := r.Start - p.PadSec
	if start < 0 {
		start = 0
	}
	end := r.End + p.PadSec
	if end <= start {
		return Segment{}, false
	}

	if end-start < p.MinSegDur {
		end = start + p.MinSegDur
	}
	if p.MaxSegDur > 0 && end-start > p.MaxSegDur {
		half := p.MaxSegDur / 2
		start, end = mid-half, mid+half
		if start < 0 {
			start, end = 0, p.MaxSegDur
		}
	}

	return Segment{
		VideoID:     videoID,
		Start:       start,
		End:         end,
		Quality:     r.Quality,
		Uniqueness:  r.Uniqueness,
		DedupeGroup: r.DedupeGroup,
		Notes:       r.Notes,
		Type:        r.Type,
		Confidence:  r.Confidence,
	}, true
}

// NormalizeAll normalizes raws in order, dropping the unusable ones.
func NormalizeAll(raws []Raw, videoID string, p config.NormalizeConfig) []Segment {
	out := make([]Segment, 0, len(raws))
	for _, r := range raws {
		if seg, ok := Normalize(r, videoID, p); ok {
			out = append(out, seg)
		}
	}
	return out
}
