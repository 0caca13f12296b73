package pool

import (
	"broll/internal/config"
	"broll/internal/segment"
)

const (
	demandBuffer = 3
	minDemand    = 6
	minPerVideo  = 3
	minPoolLimit = 10
)

// Demand sizes a keyword's analysis from the markers that draw on it. The
// zero value imposes no limits.
type Demand struct {
	Markers  int `json:"markers"`
	Target   int `json:"target"`
	PerVideo int `json:"per_video"`
}

// NewDemand returns the demand of markers sharing one keyword whose segments
// come from videos source videos. Target is what those markers can consume
// plus a small buffer; PerVideo spreads it over the videos and never exceeds
// analyzer.max_segments_per_video.
func NewDemand(markers, videos int, cfg config.Config) Demand {
	target := max(minDemand, markers*cfg.Allocation.ClipsTarget()+demandBuffer)
	per := max(minPerVideo, target/max(1, videos)+1)
	if limit := cfg.Analyzer.MaxSegmentsPerVideo; limit > 0 && per > limit {
		per = limit
	}
	return Demand{Markers: markers, Target: target, PerVideo: per}
}

// PoolLimit is how many segments the keyword pool keeps, best first. Zero
// means unlimited.
func (d Demand) PoolLimit() int {
	if d.Target <= 0 {
		return 0
	}
	return max(d.Target, minPoolLimit)
}

// capRaws keeps the first PerVideo raws, as the detector would have returned
// for this quota.
func (d Demand) capRaws(raws []segment.Raw) []segment.Raw {
	if d.PerVideo > 0 && len(raws) > d.PerVideo {
		return raws[:d.PerVideo]
	}
	return raws
}
