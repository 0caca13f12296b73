package pool

import (
	"sort"

	"broll/internal/config"
	"broll/internal/dedupe"
	"broll/internal/logx"
	"broll/internal/segment"
)

// Candidates are the raw detector results for one video under a keyword.
type Candidates struct {
	VideoID string
	Raws    []segment.Raw
}

// KeywordState is everything allocation tracks for one keyword. Pool is
// frozen once built; Cursor and the fallback fields only move forward while
// markers for the keyword are filled.
type KeywordState struct {
	Keyword    string
	Pool       []segment.Segment
	Cursor     int
	Signatures []string

	// LastVideo and LastEnd locate the most recently consumed source
	// interval, where time-based fallback chunks continue from.
	LastVideo string
	LastEnd   float64
	// FallbackAttempts offsets hashed video selection between markers.
	FallbackAttempts int
}

// Remaining reports how many pool entries the cursor has not reached.
func (s *KeywordState) Remaining() int {
	return len(s.Pool) - s.Cursor
}

// States maps keyword text to its state.
type States map[string]*KeywordState

// Get returns the state for keyword, creating an empty one on first use.
func (s States) Get(keyword string) *KeywordState {
	st, ok := s[keyword]
	if !ok {
		st = &KeywordState{Keyword: keyword}
		s[keyword] = st
	}
	return st
}

// Build assembles the pool for one keyword from its videos, in video order.
// Each video contributes at most d.PerVideo raws and the sorted pool is cut
// to d.PoolLimit().
func Build(keyword string, videos []Candidates, d Demand, cfg config.Config, logger logx.Logger) *KeywordState {
	logger = logx.OrDiscard(logger)
	st := &KeywordState{Keyword: keyword}

	sets := make([][]segment.Segment, len(videos))
	for i, v := range videos {
		raws := d.capRaws(v.Raws)
		sets[i] = SelectForVideo(raws, v.VideoID, cfg)
		if len(raws) > 0 && len(sets[i]) < len(raws) {
			logger.Printf("keyword %q video %s: kept %d of %d candidates", keyword, v.VideoID, len(sets[i]), len(raws))
		}
	}

	sets, st.Signatures = dedupe.CrossVideo(sets, cfg.Dedupe.CrossVideoSimThreshold, st.Signatures)
	for _, set := range sets {
		st.Pool = append(st.Pool, set...)
	}
	sort.SliceStable(st.Pool, func(i, j int) bool {
		a, b := st.Pool[i], st.Pool[j]
		if a.Score() != b.Score() {
			return a.Score() > b.Score()
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Duration() > b.Duration()
	})
	if limit := d.PoolLimit(); limit > 0 && len(st.Pool) > limit {
		logger.Printf("keyword %q: pool trimmed from %d to %d for %d markers", keyword, len(st.Pool), limit, d.Markers)
		st.Pool = st.Pool[:limit]
	}

	logger.Printf("keyword %q: %d videos, %d segments in pool", keyword, len(videos), len(st.Pool))
	return st
}

// BuildAll builds an independent state per keyword. Keywords missing from
// demands are built without limits.
func BuildAll(keywords []string, candidates map[string][]Candidates, demands map[string]Demand, cfg config.Config, logger logx.Logger) States {
	states := make(States, len(keywords))
	for _, kw := range keywords {
		states[kw] = Build(kw, candidates[kw], demands[kw], cfg, logger)
	}
	return states
}
