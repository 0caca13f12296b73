package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"broll/internal/config"
	"broll/internal/logx"
	"broll/internal/paths"
)

const (
	markersTemplate = `{
  "sequence_name": "",
  "count": 0,
  "keywords": [],
  "version": 1
}
`
	linksTemplate    = ""
	segmentsTemplate = "{}\n"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a b-roll project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
}

func resolveInitDir(projectFlag string, args []string) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if len(args) > 0 {
		if args[0] == "." {
			return cwd, nil
		}
		return filepath.Join(cwd, args[0]), nil
	}

	return nextAvailableDir(cwd)
}

func nextAvailableDir(base string) (string, error) {
	for i := 1; ; i++ {
		candidate := filepath.Join(base, fmt.Sprintf("broll-%d", i))
		exists, err := paths.DirExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveInitDir(projectDir, args)
	if err != nil {
		return err
	}

	pp, err := paths.Resolve(dir)
	if err != nil {
		return err
	}
	if err := pp.EnsureRoot(); err != nil {
		return err
	}
	if err := pp.EnsureMetaDirs(); err != nil {
		return err
	}

	logger, closer, err := logx.New(pp, "init")
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Printf("project=%s", pp.Root)

	cfg := config.Default()
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	files := []struct {
		path     string
		contents string
	}{
		{pp.ConfigFile, string(data)},
		{pp.MarkersFile, markersTemplate},
		{pp.LinksFile, linksTemplate},
		{pp.SegmentsFile, segmentsTemplate},
	}

	var created []string
	for _, f := range files {
		ok, err := writeIfMissing(f.path, f.contents)
		if err != nil {
			return err
		}
		if ok {
			logger.Printf("created %s", f.path)
			created = append(created, pp.Rel(f.path))
		} else {
			logger.Printf("exists %s", f.path)
		}
	}

	if len(created) == 0 {
		cmd.Printf("Project already initialized at %s\n", pp.Root)
		return nil
	}

	cmd.Printf("Initialized project at %s\n", pp.Root)
	for _, entry := range created {
		cmd.Printf("  created %s\n", entry)
	}
	return nil
}

func writeIfMissing(path, contents string) (bool, error) {
	exists, err := paths.FileExists(path)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", filepath.Base(path), err)
	}
	if exists {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
