package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fill policies accepted by allocation.fill_policy.
const (
	FillClips    = "clips"
	FillDuration = "duration"
)

// Row interleaving modes accepted by rows.mode.
const (
	RowsRoundRobin = "round_robin"
	RowsSequential = "sequential"
)

// Analyzer providers accepted by analyzer.provider.
const (
	ProviderFile   = "file"
	ProviderOpenAI = "openai"
)

// Config captures the assembly policy for a b-roll project.
type Config struct {
	Version    int              `yaml:"version"`
	Inputs     InputsConfig     `yaml:"inputs"`
	Normalize  NormalizeConfig  `yaml:"normalize"`
	Dedupe     DedupeConfig     `yaml:"dedupe"`
	Allocation AllocationConfig `yaml:"allocation"`
	Rows       RowsConfig       `yaml:"rows"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer"`
	Outputs    OutputsConfig    `yaml:"outputs"`
}

// InputsConfig points at the files produced by the editor and download steps.
type InputsConfig struct {
	MarkersFile string `yaml:"markers_file"`
	LinksFile   string `yaml:"links_file"`
	ResourceDir string `yaml:"resource_dir"`
}

// NormalizeConfig bounds candidate segment durations.
type NormalizeConfig struct {
	PadSec    float64 `yaml:"pad_sec"`
	MinSegDur float64 `yaml:"min_seg_dur"`
	MaxSegDur float64 `yaml:"max_seg_dur"`
}

// TierConfig is one quality tier of the per-video retry.
type TierConfig struct {
	MinQuality float64 `yaml:"min_quality"`
	MaxKeep    int     `yaml:"max_keep"`
	SkipNMS    bool    `yaml:"skip_nms,omitempty"`
}

// DedupeConfig holds the overlap and similarity thresholds.
type DedupeConfig struct {
	IoUThreshold           float64    `yaml:"iou_threshold"`
	TextSimThreshold       float64    `yaml:"text_sim_threshold"`
	MinKeepPerVideo        int        `yaml:"min_keep_per_video"`
	CrossVideoSimThreshold float64    `yaml:"cross_video_text_sim_threshold"`
	Strict                 TierConfig `yaml:"strict"`
	Lenient                TierConfig `yaml:"lenient"`
}

// AllocationConfig controls how markers are filled from keyword pools.
type AllocationConfig struct {
	FillPolicy         string  `yaml:"fill_policy"`
	ClipsPerMarker     int     `yaml:"clips_per_marker"`
	MinSegmentSec      float64 `yaml:"min_segment_sec"`
	MinRemainingSec    float64 `yaml:"min_remaining_sec"`
	MinClipSec         float64 `yaml:"min_clip_sec"`
	FallbackChunkSec   float64 `yaml:"fallback_chunk_sec"`
	FallbackGapSec     float64 `yaml:"fallback_gap_sec"`
	HashOffsetRangeSec int     `yaml:"hash_offset_range_sec"`
}

// RowsConfig controls flattened row export.
type RowsConfig struct {
	Mode          string `yaml:"mode"`
	MaxPerVideo   int    `yaml:"max_per_video"`
	MaxPerKeyword int    `yaml:"max_per_keyword"`
}

// AnalyzerConfig selects and tunes the segment analyzer.
type AnalyzerConfig struct {
	Provider            string `yaml:"provider"`
	SegmentsFile        string `yaml:"segments_file"`
	Model               string `yaml:"model"`
	APIKeyEnv           string `yaml:"api_key_env"`
	BaseURL             string `yaml:"base_url,omitempty"`
	Concurrency         int    `yaml:"concurrency"`
	VideosPerKeyword    int    `yaml:"videos_per_keyword"`
	MaxSegmentsPerVideo int    `yaml:"max_segments_per_video"`
	TimeoutSec          int    `yaml:"timeout_sec"`
}

// OutputsConfig names the files written by build and export.
type OutputsConfig struct {
	CutList     string  `yaml:"cut_list"`
	TimelineCSV string  `yaml:"timeline_csv"`
	EDL         string  `yaml:"edl"`
	FrameRate   float64 `yaml:"frame_rate"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Inputs: InputsConfig{
			MarkersFile: "track3_keywords.json",
			LinksFile:   "dl_links.txt",
			ResourceDir: "resource",
		},
		Normalize: NormalizeConfig{
			PadSec:    0.2,
			MinSegDur: 1.5,
			MaxSegDur: 6.0,
		},
		Dedupe: DedupeConfig{
			IoUThreshold:           0.6,
			TextSimThreshold:       0.8,
			MinKeepPerVideo:        2,
			CrossVideoSimThreshold: 0.85,
			Strict:                 TierConfig{MinQuality: 0.6, MaxKeep: 8},
			Lenient:                TierConfig{MinQuality: 0.35, MaxKeep: 5},
		},
		Allocation: AllocationConfig{
			FillPolicy:         FillClips,
			ClipsPerMarker:     3,
			MinSegmentSec:      0.6,
			MinRemainingSec:    0.8,
			MinClipSec:         1.8,
			FallbackChunkSec:   3.0,
			FallbackGapSec:     0.5,
			HashOffsetRangeSec: 50,
		},
		Rows: RowsConfig{
			Mode: RowsRoundRobin,
		},
		Analyzer: AnalyzerConfig{
			Provider:            ProviderFile,
			SegmentsFile:        "raw_segments.json",
			Model:               "gpt-4o-mini",
			APIKeyEnv:           "OPENAI_API_KEY",
			Concurrency:         4,
			VideosPerKeyword:    3,
			MaxSegmentsPerVideo: 12,
			TimeoutSec:          120,
		},
		Outputs: OutputsConfig{
			CutList:     "cut_list.json",
			TimelineCSV: "timeline.csv",
			EDL:         "timeline.edl",
			FrameRate:   30,
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero values left behind by a partial YAML document.
func (c *Config) ApplyDefaults() {
	d := Default()

	if c.Version == 0 {
		c.Version = d.Version
	}

	c.Inputs.MarkersFile = firstNonEmpty(c.Inputs.MarkersFile, d.Inputs.MarkersFile)
	c.Inputs.LinksFile = firstNonEmpty(c.Inputs.LinksFile, d.Inputs.LinksFile)
	c.Inputs.ResourceDir = firstNonEmpty(c.Inputs.ResourceDir, d.Inputs.ResourceDir)

	if c.Normalize.MinSegDur <= 0 {
		c.Normalize.MinSegDur = d.Normalize.MinSegDur
	}
	if c.Normalize.MaxSegDur <= 0 {
		c.Normalize.MaxSegDur = d.Normalize.MaxSegDur
	}
	if c.Normalize.PadSec < 0 {
		c.Normalize.PadSec = 0
	}

	if c.Dedupe.IoUThreshold <= 0 {
		c.Dedupe.IoUThreshold = d.Dedupe.IoUThreshold
	}
	if c.Dedupe.TextSimThreshold <= 0 {
		c.Dedupe.TextSimThreshold = d.Dedupe.TextSimThreshold
	}
	if c.Dedupe.MinKeepPerVideo <= 0 {
		c.Dedupe.MinKeepPerVideo = d.Dedupe.MinKeepPerVideo
	}
	if c.Dedupe.CrossVideoSimThreshold <= 0 {
		c.Dedupe.CrossVideoSimThreshold = d.Dedupe.CrossVideoSimThreshold
	}
	if c.Dedupe.Strict.MaxKeep <= 0 {
		c.Dedupe.Strict.MaxKeep = d.Dedupe.Strict.MaxKeep
	}
	if c.Dedupe.Lenient.MaxKeep <= 0 {
		c.Dedupe.Lenient.MaxKeep = d.Dedupe.Lenient.MaxKeep
	}

	c.Allocation.FillPolicy = strings.ToLower(firstNonEmpty(c.Allocation.FillPolicy, d.Allocation.FillPolicy))
	if c.Allocation.ClipsPerMarker <= 0 {
		c.Allocation.ClipsPerMarker = d.Allocation.ClipsPerMarker
	}
	if c.Allocation.MinSegmentSec <= 0 {
		c.Allocation.MinSegmentSec = d.Allocation.MinSegmentSec
	}
	if c.Allocation.MinRemainingSec <= 0 {
		c.Allocation.MinRemainingSec = d.Allocation.MinRemainingSec
	}
	if c.Allocation.MinClipSec <= 0 {
		c.Allocation.MinClipSec = d.Allocation.MinClipSec
	}
	if c.Allocation.FallbackChunkSec <= 0 {
		c.Allocation.FallbackChunkSec = d.Allocation.FallbackChunkSec
	}
	if c.Allocation.FallbackGapSec < 0 {
		c.Allocation.FallbackGapSec = 0
	}
	if c.Allocation.HashOffsetRangeSec <= 0 {
		c.Allocation.HashOffsetRangeSec = d.Allocation.HashOffsetRangeSec
	}

	c.Rows.Mode = strings.ToLower(firstNonEmpty(c.Rows.Mode, d.Rows.Mode))

	c.Analyzer.Provider = strings.ToLower(firstNonEmpty(c.Analyzer.Provider, d.Analyzer.Provider))
	c.Analyzer.SegmentsFile = firstNonEmpty(c.Analyzer.SegmentsFile, d.Analyzer.SegmentsFile)
	c.Analyzer.Model = firstNonEmpty(c.Analyzer.Model, d.Analyzer.Model)
	c.Analyzer.APIKeyEnv = firstNonEmpty(c.Analyzer.APIKeyEnv, d.Analyzer.APIKeyEnv)
	if c.Analyzer.Concurrency <= 0 {
		c.Analyzer.Concurrency = d.Analyzer.Concurrency
	}
	if c.Analyzer.VideosPerKeyword <= 0 {
		c.Analyzer.VideosPerKeyword = d.Analyzer.VideosPerKeyword
	}
	if c.Analyzer.MaxSegmentsPerVideo <= 0 {
		c.Analyzer.MaxSegmentsPerVideo = d.Analyzer.MaxSegmentsPerVideo
	}
	if c.Analyzer.TimeoutSec <= 0 {
		c.Analyzer.TimeoutSec = d.Analyzer.TimeoutSec
	}

	c.Outputs.CutList = firstNonEmpty(c.Outputs.CutList, d.Outputs.CutList)
	c.Outputs.TimelineCSV = firstNonEmpty(c.Outputs.TimelineCSV, d.Outputs.TimelineCSV)
	c.Outputs.EDL = firstNonEmpty(c.Outputs.EDL, d.Outputs.EDL)
	if c.Outputs.FrameRate <= 0 {
		c.Outputs.FrameRate = d.Outputs.FrameRate
	}
}

// ClipsTarget returns the per-marker clip count for the clips fill policy,
// clamped to the 2..3 range the editor integration expects.
func (a AllocationConfig) ClipsTarget() int {
	n := a.ClipsPerMarker
	if n < 2 {
		return 2
	}
	if n > 3 {
		return 3
	}
	return n
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
