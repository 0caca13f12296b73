// Package analyze runs the segment detector over (keyword, video) pairs and
// caches what it returns.
package analyze

import (
	"context"
	"fmt"
	"path/filepath"

	"broll/internal/config"
	"broll/internal/segment"
)

// Pair is one unit of analysis. Limit is the segment quota asked of the
// analyzer (zero leaves it to the analyzer's own maximum) and is not part of
// the key.
type Pair struct {
	Keyword   string `json:"keyword"`
	VideoPath string `json:"video_path"`
	Limit     int    `json:"limit,omitempty"`
}

// Key identifies the pair inside the analysis store.
func (p Pair) Key() string {
	return p.Keyword + "|" + p.VideoPath
}

// VideoName is the base name of the video file.
func (p Pair) VideoName() string {
	return filepath.Base(p.VideoPath)
}

// Analyzer produces raw candidate segments for a pair.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, pair Pair) ([]segment.Raw, error)
}

// New builds the analyzer selected by cfg.Provider. segmentsFile is the
// resolved path used by the file provider.
func New(cfg config.AnalyzerConfig, segmentsFile string) (Analyzer, error) {
	switch cfg.Provider {
	case config.ProviderFile:
		return NewFileAnalyzer(segmentsFile)
	case config.ProviderOpenAI:
		return NewOpenAIAnalyzer(cfg)
	default:
		return nil, fmt.Errorf("unknown analyzer provider %q", cfg.Provider)
	}
}
