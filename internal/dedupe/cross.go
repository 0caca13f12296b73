package dedupe

import "broll/internal/segment"

// CrossVideo drops segments whose signature is too close to one accepted for
// an earlier video of the same keyword. sets are per-video results in video
// order; signatures holds what earlier calls accepted for this keyword and is
// returned extended with this call's survivors. A video that had candidates
// keeps at least its best one.
func CrossVideo(sets [][]segment.Segment, threshold float64, signatures []string) ([][]segment.Segment, []string) {
	out := make([][]segment.Segment, len(sets))
	for i, set := range sets {
		prior := signatures
		var kept []segment.Segment
		for _, s := range set {
			if !similarToAny(s.Signature(), prior, threshold) {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 && len(set) > 0 {
			kept = []segment.Segment{best(set)}
		}
		for _, s := range kept {
			signatures = append(signatures, s.Signature())
		}
		out[i] = kept
	}
	return out, signatures
}

func similarToAny(sig string, accepted []string, threshold float64) bool {
	tokens := Tokens(sig)
	for _, other := range accepted {
		if jaccard(tokens, Tokens(other)) > threshold {
			return true
		}
	}
	return false
}

func best(set []segment.Segment) segment.Segment {
	b := set[0]
	for _, s := range set[1:] {
		if s.Score() > b.Score() {
			b = s
		}
	}
	return b
}
