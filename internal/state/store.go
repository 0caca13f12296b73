package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BuildRecord captures the inputs of the last successful build.
type BuildRecord struct {
	PolicyHash   string    `json:"policy_hash"`
	MarkersHash  string    `json:"markers_hash"`
	AnalysisHash string    `json:"analysis_hash"`
	RunID        string    `json:"run_id"`
	BuiltAt      time.Time `json:"built_at"`
	Markers      int       `json:"markers"`
	Clips        int       `json:"clips"`
}

// Built reports whether the record describes a completed build.
func (r *BuildRecord) Built() bool {
	return r != nil && r.RunID != ""
}

// Load reads the build record from path. A missing or corrupt file returns
// an empty record without error.
func Load(path string) (*BuildRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &BuildRecord{}, nil
	}

	var rec BuildRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return &BuildRecord{}, nil
	}
	return &rec, nil
}

// Save writes the build record atomically to path.
func (r *BuildRecord) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure build record dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode build record: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp build record: %w", err)
	}
	return os.Rename(tmp, path)
}
