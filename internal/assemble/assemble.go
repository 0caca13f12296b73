// Package assemble wires marker plans, the video library and cached analysis
// into a cut list and flattened timeline rows.
package assemble

import (
	"time"

	"broll/internal/allocate"
	"broll/internal/analyze"
	"broll/internal/config"
	"broll/internal/library"
	"broll/internal/logx"
	"broll/internal/pool"
	"broll/internal/state"
	"broll/internal/timeline"
	"broll/pkg/markerplan"
)

// Inputs is everything a build reads.
type Inputs struct {
	Config  config.Config
	Plan    markerplan.Plan
	Library *library.Library
	Store   *analyze.Store
	Logger  logx.Logger
}

// Output is everything a build produces.
type Output struct {
	States  pool.States
	CutList allocate.CutList
	Rows    []timeline.Row
	Record  state.BuildRecord
}

// Videos lists the keyword's source videos in library order, capped at
// analyzer.videos_per_keyword.
func Videos(cfg config.Config, lib *library.Library, keyword string) []string {
	videos := lib.ForKeyword(keyword)
	if n := cfg.Analyzer.VideosPerKeyword; n > 0 && len(videos) > n {
		videos = videos[:n]
	}
	paths := make([]string, len(videos))
	for i, v := range videos {
		paths[i] = v.Path
	}
	return paths
}

// Demands sizes every keyword from the markers that use it and the videos
// it draws from.
func Demands(cfg config.Config, plan markerplan.Plan, lib *library.Library) map[string]pool.Demand {
	counts := make(map[string]int)
	for _, m := range plan.Markers {
		counts[m.Keyword]++
	}
	out := make(map[string]pool.Demand)
	for _, kw := range plan.Keywords() {
		out[kw] = pool.NewDemand(counts[kw], len(Videos(cfg, lib, kw)), cfg)
	}
	return out
}

// Pairs lists every (keyword, video) pair to analyse, keyword by keyword in
// marker order and videos in library order, each with its keyword's
// per-video quota.
func Pairs(cfg config.Config, plan markerplan.Plan, lib *library.Library) []analyze.Pair {
	demands := Demands(cfg, plan, lib)
	var out []analyze.Pair
	for _, kw := range plan.Keywords() {
		for _, v := range Videos(cfg, lib, kw) {
			out = append(out, analyze.Pair{Keyword: kw, VideoPath: v, Limit: demands[kw].PerVideo})
		}
	}
	return out
}

// Candidates gathers cached raws per keyword.
func Candidates(cfg config.Config, plan markerplan.Plan, lib *library.Library, store *analyze.Store) map[string][]pool.Candidates {
	out := make(map[string][]pool.Candidates)
	for _, kw := range plan.Keywords() {
		out[kw] = store.Candidates(kw, Videos(cfg, lib, kw))
	}
	return out
}

// Pools builds every keyword's segment pool from the cached analysis.
func Pools(in Inputs) pool.States {
	return pool.BuildAll(in.Plan.Keywords(),
		Candidates(in.Config, in.Plan, in.Library, in.Store),
		Demands(in.Config, in.Plan, in.Library),
		in.Config, in.Logger)
}

// Current fingerprints the inputs a build would consume right now.
func Current(cfg config.Config, plan markerplan.Plan, store *analyze.Store) state.BuildRecord {
	return state.BuildRecord{
		PolicyHash:   state.PolicyHash(cfg),
		MarkersHash:  state.ValueHash(plan.Markers),
		AnalysisHash: store.Hash(),
	}
}

// Run builds the keyword pools, fills every marker and flattens the result.
func Run(in Inputs) Output {
	logger := logx.OrDiscard(in.Logger)
	keywords := in.Plan.Keywords()
	logger.Printf("build: %d markers, %d keywords, %d videos", len(in.Plan.Markers), len(keywords), len(in.Library.All))

	states := Pools(in)

	videos := in.Library.Paths()
	engine := allocate.NewEngine(in.Config.Allocation, videos, logger)
	cl := engine.Run(in.Plan.Markers, states)

	rows := timeline.BuildRows(cl, timeline.OptionsFromConfig(in.Config.Rows, videos))

	sum := cl.Summary()
	rec := Current(in.Config, in.Plan, in.Store)
	rec.RunID = cl.RunID
	rec.BuiltAt = time.Now().UTC()
	rec.Markers = sum.Count
	rec.Clips = sum.TotalClips

	logger.Printf("build: %d clips (%d ai, %d time fallback, %d hash fallback), %d rows",
		sum.TotalClips, sum.AIClips, sum.TimeFallback, sum.HashFallback, len(rows))

	return Output{States: states, CutList: cl, Rows: rows, Record: rec}
}
