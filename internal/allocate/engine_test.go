package allocate

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"broll/internal/config"
	"broll/internal/pool"
	"broll/internal/segment"
	"broll/pkg/markerplan"
)

type recordLogger struct {
	lines []string
}

func (r *recordLogger) Printf(format string, v ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

func (r *recordLogger) contains(sub string) bool {
	for _, l := range r.lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

func allocCfg(clips int) config.AllocationConfig {
	cfg := config.Default().Allocation
	cfg.ClipsPerMarker = clips
	return cfg
}

func seg(video string, start, end float64) segment.Segment {
	return segment.Segment{VideoID: video, Start: start, End: end, Quality: 0.8, Uniqueness: 0.5, Confidence: 0.8}
}

func marker(index int, keyword string, start, end float64) markerplan.Marker {
	return markerplan.Marker{Index: index, Keyword: keyword, Start: start, End: end, Duration: end - start}
}

func TestFillCursorScenario(t *testing.T) {
	st := &pool.KeywordState{Keyword: "Narrator", Pool: []segment.Segment{
		seg("/r/a.mp4", 0, 3),
		seg("/r/b.mp4", 10, 13),
		seg("/r/a.mp4", 20, 23),
		seg("/r/c.mp4", 30, 33),
		seg("/r/b.mp4", 40, 43),
	}}
	eng := NewEngine(allocCfg(2), nil, nil)

	m1 := eng.Fill(marker(1, "Narrator", 0, 10), st)
	m2 := eng.Fill(marker(2, "Narrator", 20, 30), st)
	m3 := eng.Fill(marker(3, "Narrator", 40, 50), st)

	wantStarts := [][]float64{{0, 10}, {20, 30}, {40}}
	for i, entry := range []CutEntry{m1, m2, m3} {
		if entry.ClipCount() != 2 {
			t.Fatalf("marker %d: expected 2 clips, got %d", i+1, entry.ClipCount())
		}
		for j, want := range wantStarts[i] {
			if entry.Clips[j].ClipStart != want || entry.Clips[j].Source != SourceAIBest {
				t.Errorf("marker %d clip %d: got %+v want start %g", i+1, j, entry.Clips[j], want)
			}
		}
	}

	fb := m3.Clips[1]
	if fb.Source != SourceTimeFallback {
		t.Fatalf("expected time-based fallback, got %q", fb.Source)
	}
	if fb.VideoPath != "/r/b.mp4" || math.Abs(fb.ClipStart-43.5) > 1e-9 || math.Abs(fb.Duration-3) > 1e-9 {
		t.Errorf("fallback chunk: got %+v", fb)
	}
	if fb.TimelinePos != 43 {
		t.Errorf("fallback timeline pos: got %g want 43", fb.TimelinePos)
	}
	if st.Cursor != 5 {
		t.Errorf("cursor: got %d want 5", st.Cursor)
	}
}

func TestFillCursorDisjointAcrossMarkers(t *testing.T) {
	var segs []segment.Segment
	for i := 0; i < 9; i++ {
		segs = append(segs, seg("/r/v.mp4", float64(i*10), float64(i*10+3)))
	}
	st := &pool.KeywordState{Keyword: "k", Pool: segs}
	eng := NewEngine(allocCfg(3), nil, nil)

	seen := map[float64]int{}
	for i := 1; i <= 3; i++ {
		entry := eng.Fill(marker(i, "k", float64(i*100), float64(i*100+10)), st)
		for _, c := range entry.Clips {
			if c.Source != SourceAIBest {
				t.Fatalf("marker %d: unexpected fallback with a deep enough pool", i)
			}
			if prev, dup := seen[c.ClipStart]; dup {
				t.Fatalf("segment at %g given to markers %d and %d", c.ClipStart, prev, i)
			}
			seen[c.ClipStart] = i
		}
	}
	if len(seen) != 9 {
		t.Fatalf("expected 9 distinct segments, got %d", len(seen))
	}
}

func TestFillSkipsDuplicatesAndShortSegments(t *testing.T) {
	st := &pool.KeywordState{Keyword: "k", Pool: []segment.Segment{
		seg("/r/a.mp4", 5, 8),
		seg("/r/a.mp4", 5, 8),
		seg("/r/a.mp4", 30, 30.5),
		seg("/r/a.mp4", 50, 53),
	}}
	eng := NewEngine(allocCfg(2), nil, nil)

	entry := eng.Fill(marker(1, "k", 0, 20), st)
	if entry.ClipCount() != 2 {
		t.Fatalf("expected 2 clips, got %d", entry.ClipCount())
	}
	if entry.Clips[0].ClipStart != 5 || entry.Clips[1].ClipStart != 50 {
		t.Errorf("unexpected clips %+v", entry.Clips)
	}
	if st.Cursor != 4 {
		t.Errorf("skipped entries must still advance the cursor: got %d", st.Cursor)
	}
}

func TestFillStopsWhenMarkerIsFull(t *testing.T) {
	st := &pool.KeywordState{Keyword: "k", Pool: []segment.Segment{
		seg("/r/a.mp4", 0, 3),
		seg("/r/a.mp4", 10, 13),
	}}
	log := &recordLogger{}
	eng := NewEngine(allocCfg(2), nil, log)

	entry := eng.Fill(marker(1, "k", 0, 4), st)
	if entry.ClipCount() != 1 {
		t.Fatalf("expected 1 clip, got %d", entry.ClipCount())
	}
	if st.Cursor != 1 {
		t.Errorf("cursor should not consume what does not fit: got %d", st.Cursor)
	}
	if !log.contains(`keyword "k": only got 1/2 clips`) {
		t.Errorf("expected shortfall log, got %v", log.lines)
	}

	next := eng.Fill(marker(2, "k", 10, 20), st)
	if next.Clips[0].ClipStart != 10 {
		t.Errorf("next marker should get the unconsumed segment, got %+v", next.Clips[0])
	}
}

func TestFillCapsFirstClipToShortMarker(t *testing.T) {
	st := &pool.KeywordState{Keyword: "k", Pool: []segment.Segment{seg("/r/a.mp4", 0, 3)}}
	entry := NewEngine(allocCfg(3), nil, nil).Fill(marker(1, "k", 5, 6), st)
	if entry.ClipCount() != 1 {
		t.Fatalf("expected 1 clip, got %d", entry.ClipCount())
	}
	if c := entry.Clips[0]; c.Duration != 1 || c.ClipEnd != 1 {
		t.Errorf("clip should be capped to the marker: %+v", c)
	}
}

func TestFillLeavesTooShortMarkerEmpty(t *testing.T) {
	st := &pool.KeywordState{Keyword: "k", Pool: []segment.Segment{
		seg("/r/a.mp4", 0, 3),
		seg("/r/b.mp4", 10, 13),
	}}
	log := &recordLogger{}
	eng := NewEngine(allocCfg(2), []string{"/r/a.mp4"}, log)

	entry := eng.Fill(marker(1, "k", 5, 5.1), st)
	if entry.ClipCount() != 0 {
		t.Fatalf("expected no clips in a 0.1s marker, got %+v", entry.Clips)
	}
	if st.Cursor != 0 || st.FallbackAttempts != 0 {
		t.Errorf("short marker must not consume the pool: cursor %d, fallback attempts %d", st.Cursor, st.FallbackAttempts)
	}
	if !log.contains("below min_remaining_sec") {
		t.Errorf("expected short marker log, got %v", log.lines)
	}

	next := eng.Fill(marker(2, "k", 10, 20), st)
	if next.ClipCount() != 2 || next.Clips[0].ClipStart != 0 || next.Clips[0].Source != SourceAIBest {
		t.Errorf("next marker should still get the top of the pool, got %+v", next.Clips)
	}
}

func TestFillOpenMarkerKeepsSegmentLength(t *testing.T) {
	st := &pool.KeywordState{Keyword: "k", Pool: []segment.Segment{
		seg("/r/a.mp4", 0, 4),
		seg("/r/a.mp4", 10, 15),
	}}
	entry := NewEngine(allocCfg(2), nil, nil).Fill(markerplan.Marker{Index: 1, Keyword: "k", Start: 7}, st)
	if entry.ClipCount() != 2 {
		t.Fatalf("expected 2 clips, got %d", entry.ClipCount())
	}
	if entry.Clips[0].Duration != 4 || entry.Clips[1].Duration != 5 || entry.Clips[1].TimelinePos != 11 {
		t.Errorf("unexpected clips %+v", entry.Clips)
	}
}

func TestFillDurationPolicy(t *testing.T) {
	cfg := allocCfg(3)
	cfg.FillPolicy = config.FillDuration
	st := &pool.KeywordState{Keyword: "k", Pool: []segment.Segment{
		seg("/r/a.mp4", 0, 3),
		seg("/r/b.mp4", 10, 13),
	}}

	entry := NewEngine(cfg, nil, nil).Fill(marker(1, "k", 0, 10), st)
	var sources []Source
	total := 0.0
	for _, c := range entry.Clips {
		sources = append(sources, c.Source)
		total += c.Duration
	}
	if len(sources) != 3 || sources[2] != SourceTimeFallback {
		t.Fatalf("unexpected sources %v", sources)
	}
	if math.Abs(total-9) > 1e-9 {
		t.Errorf("filled duration: got %g want 9", total)
	}
}

func TestHashFallbackDeterministic(t *testing.T) {
	videos := []string{"/r/a.mp4", "/r/b.mp4", "/r/c.mp4"}
	run := func() []CutEntry {
		states := pool.States{}
		eng := NewEngine(allocCfg(3), videos, nil)
		return []CutEntry{
			eng.Fill(marker(1, "Lighthouse", 0, 10), states.Get("Lighthouse")),
			eng.Fill(marker(2, "Lighthouse", 20, 30), states.Get("Lighthouse")),
		}
	}

	first, second := run(), run()
	for i := range first {
		if first[i].ClipCount() != 3 {
			t.Fatalf("marker %d: expected 3 clips, got %d", i+1, first[i].ClipCount())
		}
		for j, c := range first[i].Clips {
			if c.Source != SourceHashFallback {
				t.Errorf("marker %d clip %d: source %q", i+1, j, c.Source)
			}
			if c != second[i].Clips[j] {
				t.Errorf("marker %d clip %d differs between runs: %+v vs %+v", i+1, j, c, second[i].Clips[j])
			}
		}
	}

	h := uint64(hashString("Lighthouse"))
	if first[0].Clips[0].VideoPath != videos[h%3] || first[1].Clips[0].VideoPath != videos[(h+1)%3] {
		t.Errorf("attempt counter should rotate the video: %s then %s", first[0].Clips[0].VideoPath, first[1].Clips[0].VideoPath)
	}
	if off := first[0].Clips[0].ClipStart; off < 0 || off >= 50 {
		t.Errorf("offset %g outside range", off)
	}
}

func TestHashFallbackWithoutVideos(t *testing.T) {
	log := &recordLogger{}
	entry := NewEngine(allocCfg(2), nil, log).Fill(marker(4, "Ghost", 0, 10), &pool.KeywordState{Keyword: "Ghost"})
	if entry.ClipCount() != 0 {
		t.Fatalf("expected no clips, got %d", entry.ClipCount())
	}
	if !log.contains("only got 0/2 clips") {
		t.Errorf("expected shortfall log, got %v", log.lines)
	}
}

func TestRunOrdersMarkersAndKeepsEmptyKeywords(t *testing.T) {
	states := pool.States{
		"Harbor": {Keyword: "Harbor", Pool: []segment.Segment{seg("/r/a.mp4", 0, 3), seg("/r/a.mp4", 10, 13)}},
	}
	markers := []markerplan.Marker{
		marker(3, "Harbor", 40, 50),
		marker(1, "Harbor", 0, 10),
		marker(2, "", 20, 30),
	}

	cl := NewEngine(allocCfg(2), []string{"/r/a.mp4"}, nil).Run(markers, states)
	if len(cl.Cuts) != 3 {
		t.Fatalf("expected 3 cut entries, got %d", len(cl.Cuts))
	}
	for i, cut := range cl.Cuts {
		if cut.Index != i+1 {
			t.Errorf("cut %d has index %d", i, cut.Index)
		}
	}
	if cl.Cuts[0].Clips[0].ClipStart != 0 || cl.Cuts[0].Clips[1].ClipStart != 10 {
		t.Errorf("first Harbor marker should take the top of the pool: %+v", cl.Cuts[0].Clips)
	}
	if cl.Cuts[1].ClipCount() != 0 {
		t.Errorf("empty keyword should have no clips")
	}
	for _, c := range cl.Cuts[2].Clips {
		if c.Source == SourceAIBest {
			t.Errorf("exhausted pool must not produce ai_best clips: %+v", c)
		}
	}

	sum := cl.Summary()
	if sum.Count != 3 || sum.MarkersWithClips != 2 || sum.AIClips != 2 || sum.TimeFallback != 2 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if cl.RunID == "" {
		t.Error("expected run id")
	}
}
