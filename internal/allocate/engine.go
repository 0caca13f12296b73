// Package allocate fills timeline markers with clips drawn from per-keyword
// segment pools, falling back to synthetic chunks when a pool runs dry.
package allocate

import (
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"broll/internal/config"
	"broll/internal/logx"
	"broll/internal/pool"
	"broll/pkg/markerplan"
)

const (
	timeFallbackConfidence = 0.2
	hashFallbackConfidence = 0.1

	// maxClipsPerMarker bounds the duration policy on very long markers.
	maxClipsPerMarker = 64
)

// Engine assigns clips to markers. One Engine run owns the keyword states it
// is handed; markers sharing a keyword are filled strictly in index order.
type Engine struct {
	cfg    config.AllocationConfig
	videos []string
	logger logx.Logger
}

// NewEngine returns an engine. videos lists every available source video and
// is only used when a keyword has no pooled segments at all.
func NewEngine(cfg config.AllocationConfig, videos []string, logger logx.Logger) *Engine {
	return &Engine{cfg: cfg, videos: videos, logger: logx.OrDiscard(logger)}
}

// Run fills every marker in index order and returns the cut list.
func (e *Engine) Run(markers []markerplan.Marker, states pool.States) CutList {
	ordered := append([]markerplan.Marker(nil), markers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	cl := CutList{
		RunID:          uuid.NewString(),
		GeneratedAt:    time.Now().UTC(),
		FillPolicy:     e.cfg.FillPolicy,
		ClipsPerMarker: e.cfg.ClipsTarget(),
		Cuts:           make([]CutEntry, 0, len(ordered)),
	}
	for _, m := range ordered {
		if m.Keyword == "" {
			e.logger.Printf("marker %d: empty keyword, left without clips", m.Index)
			cl.Cuts = append(cl.Cuts, newEntry(m))
			continue
		}
		cl.Cuts = append(cl.Cuts, e.Fill(m, states.Get(m.Keyword)))
	}
	return cl
}

// Fill assigns clips to one marker, advancing the keyword's cursor.
func (e *Engine) Fill(m markerplan.Marker, st *pool.KeywordState) CutEntry {
	entry := newEntry(m)
	f := e.newFiller(m)
	if !f.room() {
		e.logger.Printf("keyword %q: marker %d is %.3fs, below min_remaining_sec %.3f; left without clips",
			m.Keyword, m.Index, f.remaining(), e.cfg.MinRemainingSec)
		return entry
	}
	poolEmpty := len(st.Pool) == 0
	used := make(map[string]bool)

	for f.wantMore() && st.Cursor < len(st.Pool) {
		if !f.room() {
			break
		}
		seg := st.Pool[st.Cursor]
		st.Cursor++

		if used[seg.ID()] {
			continue
		}
		if seg.Duration() <= e.cfg.MinSegmentSec {
			continue
		}
		dur := f.fit(seg.Duration())
		if dur < e.cfg.MinClipSec && len(f.clips) > 0 {
			continue
		}
		used[seg.ID()] = true
		f.add(Clip{
			VideoPath:   seg.VideoID,
			ClipStart:   seg.Start,
			ClipEnd:     seg.Start + dur,
			Source:      SourceAIBest,
			Confidence:  seg.Confidence,
			Description: seg.Notes,
			Type:        seg.Type,
		})
		st.LastVideo, st.LastEnd = seg.VideoID, seg.End
	}

	if f.wantMore() && f.room() {
		if poolEmpty {
			e.hashFallback(f, st, m)
		} else {
			e.timeFallback(f, st)
		}
	}

	if e.cfg.FillPolicy != config.FillDuration || m.Open() {
		if got, want := len(f.clips), e.cfg.ClipsTarget(); got < want {
			e.logger.Printf("keyword %q: only got %d/%d clips (marker %d)", m.Keyword, got, want, m.Index)
		}
	}
	entry.Clips = f.clips
	return entry
}

// timeFallback continues in the last consumed video right after the last
// consumed interval, in fixed chunks.
func (e *Engine) timeFallback(f *filler, st *pool.KeywordState) {
	video, next := st.LastVideo, st.LastEnd
	if video == "" {
		last := st.Pool[len(st.Pool)-1]
		video, next = last.VideoID, last.End
	}
	e.logger.Printf("keyword %q: pool exhausted, time-based fallback in %s from %.3f", st.Keyword, video, next)

	e.chunks(f, video, next+e.cfg.FallbackGapSec, SourceTimeFallback, timeFallbackConfidence, func(end float64) {
		st.LastVideo, st.LastEnd = video, end
	})
}

// hashFallback picks a video deterministically from the keyword text and the
// keyword's fallback attempt count, and an offset from the keyword and marker
// index. Runs over the same inputs produce the same clips.
func (e *Engine) hashFallback(f *filler, st *pool.KeywordState, m markerplan.Marker) {
	if len(e.videos) == 0 {
		e.logger.Printf("keyword %q: no segments and no videos, marker %d left without clips", m.Keyword, m.Index)
		return
	}
	attempt := st.FallbackAttempts
	st.FallbackAttempts++

	video := e.videos[(uint64(hashString(m.Keyword))+uint64(attempt))%uint64(len(e.videos))]
	var offset float64
	if e.cfg.HashOffsetRangeSec > 0 {
		offset = float64(hashString(m.Keyword+"#"+strconv.Itoa(m.Index)) % uint32(e.cfg.HashOffsetRangeSec))
	}
	e.logger.Printf("keyword %q: no AI segments, hashed fallback %s at %.0fs", m.Keyword, video, offset)

	e.chunks(f, video, offset, SourceHashFallback, hashFallbackConfidence, nil)
}

func (e *Engine) chunks(f *filler, video string, next float64, src Source, conf float64, consumed func(end float64)) {
	for f.wantMore() && f.room() {
		dur := f.fit(e.cfg.FallbackChunkSec)
		if dur <= 0 || dur < e.cfg.MinClipSec && len(f.clips) > 0 {
			return
		}
		f.add(Clip{
			VideoPath:  video,
			ClipStart:  next,
			ClipEnd:    next + dur,
			Source:     src,
			Confidence: conf,
		})
		if consumed != nil {
			consumed(next + dur)
		}
		next += dur + e.cfg.FallbackGapSec
	}
}

func newEntry(m markerplan.Marker) CutEntry {
	return CutEntry{
		Index:            m.Index,
		Keyword:          m.Keyword,
		TimelineStart:    m.Start,
		TimelineEnd:      m.End,
		TimelineDuration: m.Duration,
	}
}

// filler tracks the fill position inside one marker.
type filler struct {
	cfg    config.AllocationConfig
	target int
	pos    float64
	end    float64
	clips  []Clip
}

func (e *Engine) newFiller(m markerplan.Marker) *filler {
	f := &filler{cfg: e.cfg, target: e.cfg.ClipsTarget(), pos: m.Start, end: m.End}
	if m.Open() {
		f.end = math.Inf(1)
	} else if e.cfg.FillPolicy == config.FillDuration {
		f.target = maxClipsPerMarker
	}
	return f
}

func (f *filler) remaining() float64 {
	return f.end - f.pos
}

func (f *filler) wantMore() bool {
	return len(f.clips) < f.target
}

// room reports whether another clip fits. The first clip only needs
// min_remaining_sec and is capped to the marker; later ones also need
// min_clip_sec.
func (f *filler) room() bool {
	r := f.remaining()
	if r <= 0 || r < f.cfg.MinRemainingSec {
		return false
	}
	return len(f.clips) == 0 || r >= f.cfg.MinClipSec
}

func (f *filler) fit(d float64) float64 {
	return math.Min(d, f.remaining())
}

func (f *filler) add(c Clip) {
	c.TimelinePos = f.pos
	c.Duration = c.ClipEnd - c.ClipStart
	c.VideoName = filepath.Base(c.VideoPath)
	f.pos += c.Duration
	f.clips = append(f.clips, c)
}
