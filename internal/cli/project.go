package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"broll/internal/config"
	"broll/internal/logx"
	"broll/internal/paths"
	"broll/pkg/markerplan"
)

// projectEnv is the resolved project every command works against.
type projectEnv struct {
	pp  paths.ProjectPaths
	cfg config.Config
}

func openProject() (projectEnv, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return projectEnv{}, err
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return projectEnv{}, err
	}
	pp = paths.ApplyConfig(pp, cfg)

	if err := ensureProjectDirs(pp); err != nil {
		return projectEnv{}, err
	}
	return projectEnv{pp: pp, cfg: cfg}, nil
}

func ensureProjectDirs(pp paths.ProjectPaths) error {
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return fmt.Errorf("project directory does not exist: %s", pp.Root)
	}
	return pp.EnsureMetaDirs()
}

func (env projectEnv) logger(command string) (*log.Logger, io.Closer, error) {
	return logx.New(env.pp, command)
}

// loadPlan reads the marker file. Record-level problems are returned
// separately so callers can report them and keep going.
func (env projectEnv) loadPlan() (markerplan.Plan, markerplan.ValidationErrors, error) {
	plan, err := markerplan.Load(env.pp.MarkersFile)
	if err == nil {
		return plan, nil, nil
	}
	var issues markerplan.ValidationErrors
	if errors.As(err, &issues) {
		return plan, issues, nil
	}
	return markerplan.Plan{}, nil, err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
