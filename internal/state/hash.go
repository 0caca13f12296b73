package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"broll/internal/config"
)

// policyInput is the canonical structure hashed for build policy changes.
type policyInput struct {
	Normalize  config.NormalizeConfig  `json:"normalize"`
	Dedupe     config.DedupeConfig     `json:"dedupe"`
	Allocation config.AllocationConfig `json:"allocation"`
	Rows       config.RowsConfig       `json:"rows"`

	// VideosPerKeyword picks which cached pairs a build reads.
	VideosPerKeyword int `json:"videos_per_keyword"`
}

type analyzerInput struct {
	Provider            string `json:"provider"`
	Model               string `json:"model,omitempty"`
	BaseURL             string `json:"base_url,omitempty"`
	MaxSegmentsPerVideo int    `json:"max_segments_per_video"`
	SegmentsDigest      string `json:"segments_digest,omitempty"`
}

type pairInput struct {
	Keyword   string `json:"keyword"`
	VideoPath string `json:"video_path"`
	Size      int64  `json:"size"`
	ModUnix   int64  `json:"mod_unix"`
}

// PolicyHash returns a deterministic hash of every config section that
// changes what build produces from the same analysis.
func PolicyHash(cfg config.Config) string {
	return hashJSON(policyInput{
		Normalize:  cfg.Normalize,
		Dedupe:     cfg.Dedupe,
		Allocation: cfg.Allocation,
		Rows:       cfg.Rows,

		VideosPerKeyword: cfg.Analyzer.VideosPerKeyword,
	})
}

// AnalyzerHash identifies the analyzer setup. For the file provider the
// segments file digest is folded in so edits to it invalidate the cache.
func AnalyzerHash(cfg config.AnalyzerConfig, segmentsDigest string) string {
	in := analyzerInput{
		Provider:            cfg.Provider,
		MaxSegmentsPerVideo: cfg.MaxSegmentsPerVideo,
	}
	switch cfg.Provider {
	case config.ProviderFile:
		in.SegmentsDigest = segmentsDigest
	case config.ProviderOpenAI:
		in.Model = cfg.Model
		in.BaseURL = cfg.BaseURL
	}
	return hashJSON(in)
}

// PairInputHash hashes one (keyword, video) pair along with the video's
// size and modification time. A missing video hashes with zero size.
func PairInputHash(keyword, videoPath string) string {
	in := pairInput{Keyword: keyword, VideoPath: videoPath}
	if info, err := os.Stat(videoPath); err == nil {
		in.Size = info.Size()
		in.ModUnix = info.ModTime().Unix()
	}
	return hashJSON(in)
}

// FileDigest returns the sha256 of a file's contents, or "" when it cannot
// be read.
func FileDigest(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return fmt.Sprintf("sha256:%x", h.Sum(nil))
}

// ValueHash hashes any JSON-encodable value.
func ValueHash(v any) string {
	return hashJSON(v)
}

func hashJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("sha256:error-%v", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", sum)
}
