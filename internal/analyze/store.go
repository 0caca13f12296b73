package analyze

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"broll/internal/pool"
	"broll/internal/segment"
	"broll/internal/state"
)

const storeVersion = 1

// Store is the per-pair analysis cache persisted to .broll/analysis.json.
type Store struct {
	Version      int              `json:"version"`
	AnalyzerHash string           `json:"analyzer_hash"`
	Entries      map[string]Entry `json:"entries"`
}

// Entry keeps the outcome of analysing one pair.
type Entry struct {
	Pair
	InputHash  string        `json:"input_hash"`
	Analyzer   string        `json:"analyzer"`
	AnalyzedAt time.Time     `json:"analyzed_at"`
	Raws       []segment.Raw `json:"raws"`
	Error      string        `json:"error,omitempty"`
}

// Failed reports whether the last attempt errored.
func (e Entry) Failed() bool { return e.Error != "" }

// LoadStore reads the cache, returning an empty store when the file is missing.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newStore(), nil
		}
		return nil, fmt.Errorf("read analysis cache: %w", err)
	}

	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode analysis cache: %w", err)
	}
	s.normalize()
	return &s, nil
}

// Save writes the cache atomically, creating its directory if needed.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure analysis dir: %w", err)
	}
	s.normalize()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analysis cache: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp analysis cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace analysis cache: %w", err)
	}
	return nil
}

// Get returns the entry for pair when present.
func (s *Store) Get(pair Pair) (Entry, bool) {
	if s == nil || s.Entries == nil {
		return Entry{}, false
	}
	e, ok := s.Entries[pair.Key()]
	return e, ok
}

// Set stores an entry under its pair key.
func (s *Store) Set(e Entry) {
	if s.Entries == nil {
		s.Entries = map[string]Entry{}
	}
	s.Entries[e.Key()] = e
}

// Prune drops entries whose pair is no longer part of the project.
func (s *Store) Prune(current []Pair) int {
	keep := make(map[string]bool, len(current))
	for _, p := range current {
		keep[p.Key()] = true
	}
	removed := 0
	for key := range s.Entries {
		if !keep[key] {
			delete(s.Entries, key)
			removed++
		}
	}
	return removed
}

// Priors summarises the cache for change detection.
func (s *Store) Priors() map[string]state.Prior {
	out := make(map[string]state.Prior, len(s.Entries))
	for key, e := range s.Entries {
		out[key] = state.Prior{Hash: e.InputHash, Failed: e.Failed()}
	}
	return out
}

// Candidates returns the cached raws for keyword, one entry per video in the
// order given. Videos without a successful entry are omitted.
func (s *Store) Candidates(keyword string, videos []string) []pool.Candidates {
	var out []pool.Candidates
	for _, v := range videos {
		e, ok := s.Get(Pair{Keyword: keyword, VideoPath: v})
		if !ok || e.Failed() {
			continue
		}
		out = append(out, pool.Candidates{VideoID: v, Raws: e.Raws})
	}
	return out
}

// Hash fingerprints the analysis results build consumes.
func (s *Store) Hash() string {
	keys := make([]string, 0, len(s.Entries))
	for k := range s.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	type item struct {
		Key   string        `json:"key"`
		Raws  []segment.Raw `json:"raws"`
		Error string        `json:"error,omitempty"`
	}
	items := make([]item, len(keys))
	for i, k := range keys {
		e := s.Entries[k]
		items[i] = item{Key: k, Raws: e.Raws, Error: e.Error}
	}
	return state.ValueHash(items)
}

func (s *Store) normalize() {
	if s.Version == 0 {
		s.Version = storeVersion
	}
	if s.Entries == nil {
		s.Entries = map[string]Entry{}
	}
}

func newStore() *Store {
	return &Store{Version: storeVersion, Entries: map[string]Entry{}}
}
