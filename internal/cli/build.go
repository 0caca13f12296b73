package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"broll/internal/allocate"
	"broll/internal/analyze"
	"broll/internal/assemble"
	"broll/internal/library"
	"broll/internal/timeline"
	"broll/internal/tui"
)

var (
	buildDryRun     bool
	buildNoProgress bool
)

type buildJSONOutput struct {
	Project string            `json:"project"`
	RunID   string            `json:"run_id"`
	DryRun  bool              `json:"dry_run"`
	Summary allocate.Summary  `json:"summary"`
	Rows    int               `json:"rows"`
	Outputs map[string]string `json:"outputs,omitempty"`
	Cuts    []buildJSONCut    `json:"cuts"`
}

type buildJSONCut struct {
	Index   int            `json:"index"`
	Keyword string         `json:"keyword"`
	Start   float64        `json:"timeline_start"`
	End     float64        `json:"timeline_end"`
	Clips   int            `json:"clips"`
	Sources map[string]int `json:"sources"`
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fill every marker with clips and write the cut list and timeline CSV",
		RunE:  runBuild,
	}

	cmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Show the allocation without writing any files")
	cmd.Flags().BoolVar(&buildNoProgress, "no-progress", false, "Disable the phase spinner")
	return cmd
}

func runBuild(cmd *cobra.Command, _ []string) error {
	env, err := openProject()
	if err != nil {
		return err
	}
	logger, closer, err := env.logger("build")
	if err != nil {
		return err
	}
	defer closer.Close()

	var status *tui.StatusWriter
	if tui.DetectMode(cmd.ErrOrStderr(), buildNoProgress, outputJSON) == tui.ModeTUI {
		status = tui.NewStatusWriter(cmd.ErrOrStderr())
		defer status.Stop()
	}
	phase := func(msg string) {
		logger.Printf("phase: %s", msg)
		if status != nil {
			status.Update(msg)
		}
	}

	phase("loading markers")
	plan, issues, err := env.loadPlan()
	if err != nil {
		return err
	}
	for _, issue := range issues {
		logger.Printf("marker issue: %s", issue.Error())
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", issue.Error())
	}
	if len(plan.Markers) == 0 {
		return fmt.Errorf("no markers in %s", env.pp.Rel(env.pp.MarkersFile))
	}

	phase("scanning library")
	lib, err := library.Scan(env.pp.ResourceDir)
	if err != nil {
		return err
	}

	store, err := analyze.LoadStore(env.pp.AnalysisFile)
	if err != nil {
		return err
	}
	if len(store.Entries) == 0 && len(lib.All) > 0 {
		logger.Printf("analysis cache is empty")
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: no cached analysis; run `broll analyze` first or every clip will be a fallback")
	}

	phase("building pools and allocating clips")
	result := assemble.Run(assemble.Inputs{
		Config:  env.cfg,
		Plan:    plan,
		Library: lib,
		Store:   store,
		Logger:  logger,
	})

	outputs := map[string]string{}
	if !buildDryRun {
		phase("writing outputs")
		if err := allocate.Save(env.pp.CutListFile, result.CutList); err != nil {
			return err
		}
		outputs["cut_list"] = env.pp.CutListFile
		if err := timeline.SaveCSV(env.pp.TimelineCSV, result.Rows); err != nil {
			return err
		}
		outputs["timeline_csv"] = env.pp.TimelineCSV
		if err := result.Record.Save(env.pp.BuildFile); err != nil {
			return err
		}
		logger.Printf("wrote %s and %s", env.pp.CutListFile, env.pp.TimelineCSV)
	}
	if status != nil {
		status.Stop()
	}

	if outputJSON {
		return writeBuildJSON(cmd, env.pp.Root, result, outputs)
	}
	writeBuildTable(cmd, env.pp.Root, result.CutList)
	printBuildSummary(cmd, result, outputs, env)
	return nil
}

func sourceCounts(cut allocate.CutEntry) map[string]int {
	counts := map[string]int{}
	for _, c := range cut.Clips {
		counts[string(c.Source)]++
	}
	return counts
}

func formatSources(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}

func writeBuildTable(cmd *cobra.Command, root string, cl allocate.CutList) {
	fmt.Fprintf(cmd.OutOrStdout(), "Project: %s\n", root)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "MARKER\tKEYWORD\tSTART\tEND\tCLIPS\tSOURCES")
	for _, cut := range cl.Cuts {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%d\t%s\n",
			cut.Index,
			tui.NonEmptyOrDash(cut.Keyword),
			cut.TimelineStart,
			cut.TimelineEnd,
			cut.ClipCount(),
			formatSources(sourceCounts(cut)),
		)
	}
	w.Flush()
}

func printBuildSummary(cmd *cobra.Command, result assemble.Output, outputs map[string]string, env projectEnv) {
	s := result.CutList.Summary()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%d markers, %d clips (%d ai, %d time fallback, %d hash fallback), %d timeline rows\n",
		s.Count, s.TotalClips, s.AIClips, s.TimeFallback, s.HashFallback, len(result.Rows))
	if len(outputs) == 0 {
		fmt.Fprintln(out, "Dry run: no files written.")
		return
	}
	fmt.Fprintf(out, "Wrote %s and %s\n", env.pp.Rel(outputs["cut_list"]), env.pp.Rel(outputs["timeline_csv"]))
}

func writeBuildJSON(cmd *cobra.Command, root string, result assemble.Output, outputs map[string]string) error {
	payload := buildJSONOutput{
		Project: root,
		RunID:   result.CutList.RunID,
		DryRun:  len(outputs) == 0,
		Summary: result.CutList.Summary(),
		Rows:    len(result.Rows),
		Cuts:    make([]buildJSONCut, 0, len(result.CutList.Cuts)),
	}
	if len(outputs) > 0 {
		payload.Outputs = outputs
	}
	for _, cut := range result.CutList.Cuts {
		payload.Cuts = append(payload.Cuts, buildJSONCut{
			Index:   cut.Index,
			Keyword: cut.Keyword,
			Start:   cut.TimelineStart,
			End:     cut.TimelineEnd,
			Clips:   cut.ClipCount(),
			Sources: sourceCounts(cut),
		})
	}
	return writeJSON(cmd.OutOrStdout(), payload)
}
