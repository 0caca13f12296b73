package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"broll/internal/analyze"
	"broll/internal/assemble"
	"broll/internal/config"
	"broll/internal/library"
	"broll/internal/state"
	"broll/internal/tui"
)

var (
	analyzeForce       bool
	analyzeConcurrency int
	analyzeNoProgress  bool
)

type analyzeJSONPair struct {
	Keyword  string `json:"keyword"`
	Video    string `json:"video"`
	Status   string `json:"status"`
	Reason   string `json:"reason"`
	Segments int    `json:"segments"`
	Error    string `json:"error,omitempty"`
}

type analyzeSummary struct {
	Analyzed int `json:"analyzed"`
	Cached   int `json:"cached"`
	Empty    int `json:"empty"`
	Failed   int `json:"failed"`
	Pruned   int `json:"pruned"`
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Detect candidate segments for every keyword video",
		RunE:  runAnalyze,
	}

	cmd.Flags().BoolVar(&analyzeForce, "force", false, "Re-analyze pairs even when the cache is up to date")
	cmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 0, "Parallel analyzer calls (defaults to analyzer.concurrency)")
	cmd.Flags().BoolVar(&analyzeNoProgress, "no-progress", false, "Disable interactive progress output")
	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := openProject()
	if err != nil {
		return err
	}
	logger, closer, err := env.logger("analyze")
	if err != nil {
		return err
	}
	defer closer.Close()

	plan, issues, err := env.loadPlan()
	if err != nil {
		return err
	}
	for _, issue := range issues {
		logger.Printf("marker issue: %s", issue.Error())
	}

	lib, err := library.Scan(env.pp.ResourceDir)
	if err != nil {
		return err
	}

	store, err := analyze.LoadStore(env.pp.AnalysisFile)
	if err != nil {
		return err
	}

	digest := ""
	if env.cfg.Analyzer.Provider == config.ProviderFile {
		digest = state.FileDigest(env.pp.SegmentsFile)
	}
	analyzerHash := state.AnalyzerHash(env.cfg.Analyzer, digest)

	pairs := assemble.Pairs(env.cfg, plan, lib)
	tasks := analyze.Plan(store, pairs, analyzerHash, analyzeForce)
	logger.Printf("%d pairs across %d keywords (force=%v)", len(pairs), len(plan.Keywords()), analyzeForce)

	var an analyze.Analyzer
	analyzerName := ""
	if needsAnalysis(tasks) {
		an, err = analyze.New(env.cfg.Analyzer, env.pp.SegmentsFile)
		if err != nil {
			return err
		}
		analyzerName = an.Name()
	}

	concurrency := analyzeConcurrency
	if concurrency <= 0 {
		concurrency = env.cfg.Analyzer.Concurrency
	}
	opts := analyze.Options{Concurrency: concurrency, Logger: logger}

	out := cmd.OutOrStdout()
	mode := tui.DetectMode(out, analyzeNoProgress, outputJSON)

	var results []analyze.Result
	if mode == tui.ModeTUI && len(tasks) > 0 {
		fmt.Fprintf(out, "Project: %s\n", env.pp.Root)
		model := tui.NewProgressModel("analyze", tui.AnalysisColumns())
		for _, task := range tasks {
			model.AddRow(task.Key(), tui.AnalysisRow(task))
		}
		err := tui.RunWithWork(out, model, func(send func(tea.Msg)) {
			opts.Reporter = tui.NewAnalysisReporter(send)
			results = analyze.Run(ctx, an, tasks, opts)
		})
		if err != nil {
			return err
		}
	} else {
		results = analyze.Run(ctx, an, tasks, opts)
	}

	analyze.Apply(store, analyzerName, analyzerHash, results)
	summary := summarizeAnalysis(results)
	summary.Pruned = store.Prune(pairs)
	if err := store.Save(env.pp.AnalysisFile); err != nil {
		return err
	}
	logger.Printf("analyzed=%d cached=%d empty=%d failed=%d pruned=%d",
		summary.Analyzed, summary.Cached, summary.Empty, summary.Failed, summary.Pruned)

	switch mode {
	case tui.ModeJSON:
		if err := writeAnalyzeJSON(cmd, env.pp.Root, analyzerName, store, results, summary); err != nil {
			return err
		}
	case tui.ModePlain:
		writeAnalyzeTable(cmd, env.pp.Root, results)
		printAnalyzeSummary(cmd, summary)
	default:
		printAnalyzeSummary(cmd, summary)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d pair(s) failed analysis; see %s", summary.Failed, env.pp.Rel(env.pp.LogsDir))
	}
	return nil
}

func needsAnalysis(tasks []analyze.Task) bool {
	for _, t := range tasks {
		if t.Action == state.ActionAnalyze {
			return true
		}
	}
	return false
}

func summarizeAnalysis(results []analyze.Result) analyzeSummary {
	var s analyzeSummary
	for _, res := range results {
		switch tui.ResultStatus(res) {
		case tui.StatusCached:
			s.Cached++
		case tui.StatusError:
			s.Failed++
		case tui.StatusEmpty:
			s.Empty++
			s.Analyzed++
		default:
			s.Analyzed++
		}
	}
	return s
}

func writeAnalyzeTable(cmd *cobra.Command, root string, results []analyze.Result) {
	fmt.Fprintf(cmd.OutOrStdout(), "Project: %s\n", root)
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No keyword videos to analyze.")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "KEYWORD\tVIDEO\tSTATUS\tSEGMENTS\tNOTE")
	for _, res := range results {
		segments := "-"
		if !res.Skipped() && res.Err == nil {
			segments = fmt.Sprint(len(res.Raws))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", res.Keyword, res.VideoName(), tui.ResultStatus(res), segments, tui.ResultNote(res))
	}
	w.Flush()
}

func printAnalyzeSummary(cmd *cobra.Command, s analyzeSummary) {
	fmt.Fprintf(cmd.OutOrStdout(), "\nAnalyzed %d, cached %d, empty %d, failed %d", s.Analyzed, s.Cached, s.Empty, s.Failed)
	if s.Pruned > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", pruned %d stale", s.Pruned)
	}
	fmt.Fprintln(cmd.OutOrStdout())
}

func writeAnalyzeJSON(cmd *cobra.Command, root, analyzerName string, store *analyze.Store, results []analyze.Result, summary analyzeSummary) error {
	payload := struct {
		Project  string            `json:"project"`
		Analyzer string            `json:"analyzer,omitempty"`
		Pairs    []analyzeJSONPair `json:"pairs"`
		Summary  analyzeSummary    `json:"summary"`
	}{
		Project:  root,
		Analyzer: analyzerName,
		Pairs:    make([]analyzeJSONPair, 0, len(results)),
		Summary:  summary,
	}
	for _, res := range results {
		p := analyzeJSONPair{
			Keyword: res.Keyword,
			Video:   res.VideoPath,
			Status:  tui.ResultStatus(res),
			Reason:  res.Reason,
		}
		if e, ok := store.Get(res.Pair); ok {
			p.Segments = len(e.Raws)
		}
		if res.Err != nil {
			p.Error = res.Err.Error()
		}
		payload.Pairs = append(payload.Pairs, p)
	}
	return writeJSON(cmd.OutOrStdout(), payload)
}
