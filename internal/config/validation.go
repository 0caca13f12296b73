package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// ValidateStrict runs all strict validations against the config and returns
// structured results. Relative input paths resolve against projectRoot.
func (c Config) ValidateStrict(projectRoot string) []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateInputs(projectRoot)...)
	results = append(results, c.validateNormalize()...)
	results = append(results, c.validateDedupe()...)
	results = append(results, c.validateAllocation()...)
	results = append(results, c.validateRows()...)
	results = append(results, c.validateAnalyzer(projectRoot)...)
	return results
}

func (c Config) validateInputs(projectRoot string) []ValidationResult {
	var results []ValidationResult
	if !pathExists(projectRoot, c.Inputs.MarkersFile) {
		results = append(results, errorf("markers file %q not found", c.Inputs.MarkersFile))
	}
	if !pathExists(projectRoot, c.Inputs.LinksFile) {
		results = append(results, warnf("links file %q not found", c.Inputs.LinksFile))
	}
	if !pathExists(projectRoot, c.Inputs.ResourceDir) {
		results = append(results, warnf("resource dir %q not found; every keyword will use fallback clips", c.Inputs.ResourceDir))
	}
	return results
}

func (c Config) validateNormalize() []ValidationResult {
	var results []ValidationResult
	n := c.Normalize
	if n.PadSec < 0 {
		results = append(results, errorf("normalize.pad_sec must not be negative (got %g)", n.PadSec))
	}
	if n.MinSegDur > n.MaxSegDur {
		results = append(results, errorf("normalize.min_seg_dur %g exceeds max_seg_dur %g", n.MinSegDur, n.MaxSegDur))
	}
	return results
}

func (c Config) validateDedupe() []ValidationResult {
	var results []ValidationResult
	d := c.Dedupe
	for _, th := range []struct {
		name  string
		value float64
	}{
		{"dedupe.iou_threshold", d.IoUThreshold},
		{"dedupe.text_sim_threshold", d.TextSimThreshold},
		{"dedupe.cross_video_text_sim_threshold", d.CrossVideoSimThreshold},
		{"dedupe.strict.min_quality", d.Strict.MinQuality},
		{"dedupe.lenient.min_quality", d.Lenient.MinQuality},
	} {
		if th.value < 0 || th.value > 1 {
			results = append(results, errorf("%s must be within [0,1] (got %g)", th.name, th.value))
		}
	}
	if d.Lenient.MinQuality > d.Strict.MinQuality {
		results = append(results, warnf("dedupe.lenient.min_quality %g is stricter than strict.min_quality %g", d.Lenient.MinQuality, d.Strict.MinQuality))
	}
	if d.Lenient.MaxKeep > d.Strict.MaxKeep {
		results = append(results, warnf("dedupe.lenient.max_keep %d exceeds strict.max_keep %d", d.Lenient.MaxKeep, d.Strict.MaxKeep))
	}
	return results
}

func (c Config) validateAllocation() []ValidationResult {
	var results []ValidationResult
	a := c.Allocation
	switch a.FillPolicy {
	case FillClips:
		if a.ClipsPerMarker != a.ClipsTarget() {
			results = append(results, warnf("allocation.clips_per_marker %d is clamped to %d", a.ClipsPerMarker, a.ClipsTarget()))
		}
	case FillDuration:
	default:
		results = append(results, errorf("allocation.fill_policy %q is not one of %s", a.FillPolicy, strings.Join([]string{FillClips, FillDuration}, ", ")))
	}
	if a.MinClipSec < a.MinRemainingSec {
		results = append(results, warnf("allocation.min_clip_sec %g is below min_remaining_sec %g", a.MinClipSec, a.MinRemainingSec))
	}
	return results
}

func (c Config) validateRows() []ValidationResult {
	switch c.Rows.Mode {
	case RowsRoundRobin, RowsSequential:
		return nil
	}
	return []ValidationResult{errorf("rows.mode %q is not one of %s, %s", c.Rows.Mode, RowsRoundRobin, RowsSequential)}
}

func (c Config) validateAnalyzer(projectRoot string) []ValidationResult {
	var results []ValidationResult
	switch c.Analyzer.Provider {
	case ProviderFile:
		if !pathExists(projectRoot, c.Analyzer.SegmentsFile) {
			results = append(results, warnf("analyzer.segments_file %q not found", c.Analyzer.SegmentsFile))
		}
	case ProviderOpenAI:
		if strings.TrimSpace(os.Getenv(c.Analyzer.APIKeyEnv)) == "" {
			results = append(results, warnf("analyzer.api_key_env %s is not set", c.Analyzer.APIKeyEnv))
		}
	default:
		results = append(results, errorf("analyzer.provider %q is not one of %s, %s", c.Analyzer.Provider, ProviderFile, ProviderOpenAI))
	}
	return results
}

func pathExists(root, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if !filepath.IsAbs(value) {
		value = filepath.Join(root, value)
	}
	_, err := os.Stat(value)
	return err == nil
}

func errorf(format string, args ...any) ValidationResult {
	return ValidationResult{Level: "error", Message: fmt.Sprintf(format, args...)}
}

func warnf(format string, args ...any) ValidationResult {
	return ValidationResult{Level: "warning", Message: fmt.Sprintf(format, args...)}
}
