package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"broll/internal/allocate"
	"broll/internal/library"
	"broll/internal/timeline"
)

const (
	formatCSV  = "csv"
	formatEDL  = "edl"
	formatJSON = "json"
)

var (
	exportFormat string
	exportOutput string
)

type exportResult struct {
	Project string `json:"project"`
	Format  string `json:"format"`
	Path    string `json:"path"`
	RunID   string `json:"run_id"`
	Clips   int    `json:"clips"`
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Re-export the saved cut list as CSV, EDL or JSON",
		RunE:  runExport,
	}

	cmd.Flags().StringVar(&exportFormat, "format", formatCSV, "Export format: csv, edl or json")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path (defaults to the configured output file)")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	env, err := openProject()
	if err != nil {
		return err
	}
	logger, closer, err := env.logger("export")
	if err != nil {
		return err
	}
	defer closer.Close()

	cl, err := allocate.Load(env.pp.CutListFile)
	if err != nil {
		return err
	}

	format := strings.ToLower(strings.TrimSpace(exportFormat))
	target := strings.TrimSpace(exportOutput)
	if target != "" && !filepath.IsAbs(target) {
		target = filepath.Join(env.pp.Root, target)
	}

	switch format {
	case formatCSV:
		if target == "" {
			target = env.pp.TimelineCSV
		}
		lib, err := library.Scan(env.pp.ResourceDir)
		if err != nil {
			return err
		}
		rows := timeline.BuildRows(cl, timeline.OptionsFromConfig(env.cfg.Rows, lib.Paths()))
		if err := timeline.SaveCSV(target, rows); err != nil {
			return err
		}
	case formatEDL:
		if target == "" {
			target = env.pp.EDLFile
		}
		if err := timeline.SaveEDL(target, cl, edlTitle(env), env.cfg.Outputs.FrameRate); err != nil {
			return err
		}
	case formatJSON:
		if target == "" {
			target = env.pp.CutListFile
		}
		if err := allocate.Save(target, cl); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown export format %q (want %s, %s or %s)", exportFormat, formatCSV, formatEDL, formatJSON)
	}
	logger.Printf("exported %s run=%s to %s", format, cl.RunID, target)

	res := exportResult{
		Project: env.pp.Root,
		Format:  format,
		Path:    target,
		RunID:   cl.RunID,
		Clips:   cl.Summary().TotalClips,
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d clips as %s to %s\n", res.Clips, format, env.pp.Rel(target))
	return nil
}

// edlTitle prefers the marker file's sequence name.
func edlTitle(env projectEnv) string {
	if plan, _, err := env.loadPlan(); err == nil && plan.SequenceName != "" {
		return plan.SequenceName
	}
	return filepath.Base(env.pp.Root)
}
