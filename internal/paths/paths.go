package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"broll/internal/config"
)

// ProjectPaths captures canonical locations for a b-roll project.
type ProjectPaths struct {
	Root         string
	ConfigFile   string
	MarkersFile  string
	LinksFile    string
	ResourceDir  string
	SegmentsFile string
	MetaDir      string
	LogsDir      string
	AnalysisFile string
	BuildFile    string
	CutListFile  string
	TimelineCSV  string
	EDLFile      string
}

// Resolve determines the project root using the optional --project flag or the
// current working directory when the flag is empty.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if projectFlag != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	return newProjectPaths(root), nil
}

func newProjectPaths(root string) ProjectPaths {
	metaDir := filepath.Join(root, ".broll")
	return ProjectPaths{
		Root:         root,
		ConfigFile:   filepath.Join(root, "broll.yaml"),
		MarkersFile:  filepath.Join(root, "track3_keywords.json"),
		LinksFile:    filepath.Join(root, "dl_links.txt"),
		ResourceDir:  filepath.Join(root, "resource"),
		SegmentsFile: filepath.Join(root, "raw_segments.json"),
		MetaDir:      metaDir,
		LogsDir:      filepath.Join(root, "logs"),
		AnalysisFile: filepath.Join(metaDir, "analysis.json"),
		BuildFile:    filepath.Join(metaDir, "build.json"),
		CutListFile:  filepath.Join(root, "cut_list.json"),
		TimelineCSV:  filepath.Join(root, "timeline.csv"),
		EDLFile:      filepath.Join(root, "timeline.edl"),
	}
}

// ApplyConfig points input and output locations at the files named in cfg.
func ApplyConfig(pp ProjectPaths, cfg config.Config) ProjectPaths {
	set := func(dst *string, value string) {
		if value != "" {
			*dst = resolveProjectPath(pp.Root, value)
		}
	}
	set(&pp.MarkersFile, cfg.Inputs.MarkersFile)
	set(&pp.LinksFile, cfg.Inputs.LinksFile)
	set(&pp.ResourceDir, cfg.Inputs.ResourceDir)
	set(&pp.SegmentsFile, cfg.Analyzer.SegmentsFile)
	set(&pp.CutListFile, cfg.Outputs.CutList)
	set(&pp.TimelineCSV, cfg.Outputs.TimelineCSV)
	set(&pp.EDLFile, cfg.Outputs.EDL)
	return pp
}

func resolveProjectPath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// Rel returns path relative to the project root when it lives inside it.
func (p ProjectPaths) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// EnsureRoot makes sure the project root exists on disk.
func (p ProjectPaths) EnsureRoot() error {
	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return fmt.Errorf("create project root: %w", err)
	}
	return nil
}

// EnsureMetaDirs creates the logs and resource directories alongside the
// hidden .broll metadata directory.
func (p ProjectPaths) EnsureMetaDirs() error {
	dirs := []string{p.MetaDir, p.LogsDir, p.ResourceDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
