package analyze

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"broll/internal/segment"
)

// FileAnalyzer serves segments from a pre-computed JSON document shaped
// {"<keyword>": {"<video path or file name>": [raw, ...]}}.
type FileAnalyzer struct {
	path string
	doc  gjson.Result
}

// NewFileAnalyzer reads and validates the segments document.
func NewFileAnalyzer(path string) (*FileAnalyzer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segments file: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("segments file %s is not valid JSON", path)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("segments file %s must be a JSON object keyed by keyword", path)
	}
	return &FileAnalyzer{path: path, doc: doc}, nil
}

func (f *FileAnalyzer) Name() string { return "file" }

// Analyze returns the raws recorded for the pair. A keyword or video absent
// from the document yields no raws.
func (f *FileAnalyzer) Analyze(ctx context.Context, pair Pair) ([]segment.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	videos, ok := lookupKey(f.doc, pair.Keyword, strings.EqualFold)
	if !ok || !videos.IsObject() {
		return nil, nil
	}
	entry, ok := lookupKey(videos, pair.VideoPath, func(key, path string) bool {
		return key == path ||
			key == filepath.Base(path) ||
			strings.HasSuffix(filepath.ToSlash(path), "/"+strings.TrimPrefix(filepath.ToSlash(key), "/"))
	})
	if !ok {
		return nil, nil
	}
	return segment.FromResult(entry), nil
}

// lookupKey scans obj's members because keys may hold characters that are
// special in gjson paths. Exact matches win over match.
func lookupKey(obj gjson.Result, want string, match func(key, want string) bool) (gjson.Result, bool) {
	var exact, loose gjson.Result
	var haveExact, haveLoose bool
	obj.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if key == want {
			exact, haveExact = v, true
			return false
		}
		if !haveLoose && match(key, want) {
			loose, haveLoose = v, true
		}
		return true
	})
	if haveExact {
		return exact, true
	}
	return loose, haveLoose
}
