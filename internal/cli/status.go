package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"broll/internal/allocate"
	"broll/internal/analyze"
	"broll/internal/assemble"
	"broll/internal/library"
	"broll/internal/paths"
	"broll/internal/state"
	"broll/pkg/markerplan"
)

type statusKeyword struct {
	Keyword       string `json:"keyword"`
	Markers       int    `json:"markers"`
	Videos        int    `json:"videos"`
	Analyzed      int    `json:"analyzed"`
	Failed        int    `json:"failed"`
	Pool          int    `json:"pool"`
	AIClips       int    `json:"ai_clips"`
	FallbackClips int    `json:"fallback_clips"`
}

type statusOutput struct {
	Project  string          `json:"project"`
	Build    string          `json:"build"`
	Reason   string          `json:"reason,omitempty"`
	RunID    string          `json:"run_id,omitempty"`
	BuiltAt  *time.Time      `json:"built_at,omitempty"`
	Markers  int             `json:"markers"`
	Videos   int             `json:"videos"`
	Keywords []statusKeyword `json:"keywords"`
	Issues   []string        `json:"issues,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarise keyword pools, clip sources and whether the cut list is current",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	env, err := openProject()
	if err != nil {
		return err
	}

	plan, issues, err := env.loadPlan()
	if err != nil {
		return err
	}
	lib, err := library.Scan(env.pp.ResourceDir)
	if err != nil {
		return err
	}
	store, err := analyze.LoadStore(env.pp.AnalysisFile)
	if err != nil {
		return err
	}
	rec, err := state.Load(env.pp.BuildFile)
	if err != nil {
		return err
	}

	var cl *allocate.CutList
	exists, _ := paths.FileExists(env.pp.CutListFile)
	if exists {
		if loaded, err := allocate.Load(env.pp.CutListFile); err == nil {
			cl = &loaded
		} else {
			exists = false
		}
	}

	out := collectStatus(env, plan, lib, store, cl)
	out.Build, out.Reason = state.Staleness(rec, assemble.Current(env.cfg, plan, store), exists)
	if rec.Built() {
		out.RunID = rec.RunID
		built := rec.BuiltAt
		out.BuiltAt = &built
	}
	for _, issue := range issues {
		out.Issues = append(out.Issues, issue.Error())
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	writeStatusTable(cmd, out)
	return nil
}

func collectStatus(env projectEnv, plan markerplan.Plan, lib *library.Library, store *analyze.Store, cl *allocate.CutList) statusOutput {
	out := statusOutput{
		Project:  env.pp.Root,
		Markers:  len(plan.Markers),
		Videos:   len(lib.All),
	}

	keywords := plan.Keywords()
	out.Keywords = make([]statusKeyword, 0, len(keywords))
	states := assemble.Pools(assemble.Inputs{Config: env.cfg, Plan: plan, Library: lib, Store: store})

	byKeyword := make(map[string]*statusKeyword, len(keywords))
	for _, kw := range keywords {
		row := statusKeyword{Keyword: kw, Pool: len(states.Get(kw).Pool)}
		for _, v := range assemble.Videos(env.cfg, lib, kw) {
			row.Videos++
			if e, ok := store.Get(analyze.Pair{Keyword: kw, VideoPath: v}); ok {
				if e.Failed() {
					row.Failed++
				} else {
					row.Analyzed++
				}
			}
		}
		out.Keywords = append(out.Keywords, row)
		byKeyword[kw] = &out.Keywords[len(out.Keywords)-1]
	}
	for _, m := range plan.Markers {
		if row, ok := byKeyword[m.Keyword]; ok {
			row.Markers++
		}
	}

	if cl != nil {
		for _, cut := range cl.Cuts {
			row, ok := byKeyword[cut.Keyword]
			if !ok {
				continue
			}
			for _, c := range cut.Clips {
				if c.Source == allocate.SourceAIBest {
					row.AIClips++
				} else {
					row.FallbackClips++
				}
			}
		}
	}
	return out
}

func writeStatusTable(cmd *cobra.Command, out statusOutput) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Project: %s\n", out.Project)
	build := out.Build
	if out.Reason != "" {
		build += " (" + out.Reason + ")"
	}
	fmt.Fprintf(w, "Cut list: %s\n", build)
	if out.BuiltAt != nil {
		fmt.Fprintf(w, "Last build: %s at %s\n", out.RunID, out.BuiltAt.Local().Format(time.DateTime))
	}
	fmt.Fprintf(w, "Markers: %d  Videos: %d\n\n", out.Markers, out.Videos)

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "KEYWORD\tMARKERS\tVIDEOS\tANALYZED\tFAILED\tPOOL\tAI CLIPS\tFALLBACK")
	for _, k := range out.Keywords {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			k.Keyword, k.Markers, k.Videos, k.Analyzed, k.Failed, k.Pool, k.AIClips, k.FallbackClips)
	}
	tw.Flush()

	if len(out.Issues) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "Marker issues:")
		for _, issue := range out.Issues {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", issue)
		}
	}
}
