// Package library finds downloaded source videos and maps keywords to the
// folders they were downloaded into.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

var videoExts = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true}

// Video is one source file. Index is its 1-based position in the library.
type Video struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Library is the set of videos under a resource directory.
type Library struct {
	Root    string
	All     []Video
	folders []string
}

// Scan walks root for video files, sorted by path. A missing root yields an
// empty library.
func Scan(root string) (*Library, error) {
	lib := &Library{Root: root}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return lib, nil
		}
		return nil, fmt.Errorf("stat resource dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("resource path %s is not a directory", root)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && filepath.Dir(path) == root {
				lib.folders = append(lib.folders, d.Name())
			}
			return nil
		}
		if videoExts[strings.ToLower(filepath.Ext(path))] {
			lib.All = append(lib.All, Video{Path: path, Name: d.Name()})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan resource dir: %w", err)
	}

	sort.Slice(lib.All, func(i, j int) bool { return lib.All[i].Path < lib.All[j].Path })
	for i := range lib.All {
		lib.All[i].Index = i + 1
	}
	sort.Strings(lib.folders)
	return lib, nil
}

// Paths lists every video path in library order.
func (l *Library) Paths() []string {
	out := make([]string, len(l.All))
	for i, v := range l.All {
		out[i] = v.Path
	}
	return out
}

// ForKeyword returns the videos inside the keyword's folder, or nil when no
// folder matches.
func (l *Library) ForKeyword(keyword string) []Video {
	folder := l.folderFor(keyword)
	if folder == "" {
		return nil
	}
	prefix := filepath.Join(l.Root, folder) + string(filepath.Separator)
	var out []Video
	for _, v := range l.All {
		if strings.HasPrefix(v.Path, prefix) {
			out = append(out, v)
		}
	}
	return out
}

func (l *Library) folderFor(keyword string) string {
	have := make(map[string]bool, len(l.folders))
	for _, f := range l.folders {
		have[f] = true
	}
	for _, c := range FolderCandidates(keyword) {
		if have[c] {
			return c
		}
	}
	key := strings.ToLower(Slugify(keyword))
	if key == "" {
		return ""
	}
	for _, f := range l.folders {
		if strings.Contains(strings.ToLower(f), key) {
			return f
		}
	}
	return ""
}

// Slugify keeps letters, digits and underscores, turning every other run of
// characters into a single underscore.
func Slugify(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// FolderCandidates lists folder names tried verbatim for keyword, most
// literal first.
func FolderCandidates(keyword string) []string {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return nil
	}
	slug := Slugify(kw)
	var out []string
	seen := map[string]bool{}
	for _, c := range []string{kw, strings.ReplaceAll(kw, " ", "_"), slug, strings.ToLower(slug)} {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
