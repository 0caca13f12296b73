package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"broll/internal/library"
	"broll/internal/paths"
	"broll/pkg/markerplan"
)

const (
	levelError   = "error"
	levelWarning = "warning"
)

type validateFinding struct {
	Source  string `json:"source"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type validateOutput struct {
	Project  string            `json:"project"`
	Markers  int               `json:"markers"`
	Keywords int               `json:"keywords"`
	Videos   int               `json:"videos"`
	Findings []validateFinding `json:"findings"`
	Errors   int               `json:"errors"`
	Warnings int               `json:"warnings"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check configuration, markers, download links and the video library",
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	env, err := openProject()
	if err != nil {
		return err
	}

	out := collectValidation(env)
	if outputJSON {
		if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	} else {
		writeValidateTable(cmd, out)
	}

	if out.Errors > 0 {
		return fmt.Errorf("validation found %d error(s)", out.Errors)
	}
	return nil
}

func collectValidation(env projectEnv) validateOutput {
	out := validateOutput{Project: env.pp.Root, Findings: []validateFinding{}}
	add := func(source, level, msg string) {
		out.Findings = append(out.Findings, validateFinding{Source: source, Level: level, Message: msg})
		if level == levelError {
			out.Errors++
		} else {
			out.Warnings++
		}
	}

	for _, r := range env.cfg.ValidateStrict(env.pp.Root) {
		add("config", r.Level, r.Message)
	}

	plan, issues, err := env.loadPlan()
	switch {
	case err != nil:
		add("markers", levelError, err.Error())
	default:
		for _, issue := range issues {
			add("markers", levelWarning, issue.Error())
		}
		if len(plan.Markers) == 0 {
			add("markers", levelWarning, "marker file has no markers")
		}
	}
	out.Markers = len(plan.Markers)
	keywords := plan.Keywords()
	out.Keywords = len(keywords)

	if ok, _ := paths.FileExists(env.pp.LinksFile); ok {
		groups, err := markerplan.LoadLinks(env.pp.LinksFile)
		if err != nil {
			add("links", levelError, err.Error())
		} else {
			for _, kw := range markerplan.Coverage(plan, groups) {
				add("links", levelWarning, fmt.Sprintf("keyword %q has no download group", kw))
			}
		}
	}

	lib, err := library.Scan(env.pp.ResourceDir)
	if err != nil {
		add("library", levelError, err.Error())
		return out
	}
	out.Videos = len(lib.All)
	for _, kw := range keywords {
		if len(lib.ForKeyword(kw)) == 0 {
			add("library", levelWarning, fmt.Sprintf("keyword %q has no videos; its markers will use fallback clips", kw))
		}
	}
	return out
}

func writeValidateTable(cmd *cobra.Command, out validateOutput) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Project: %s\n", out.Project)
	fmt.Fprintf(w, "Markers: %d  Keywords: %d  Videos: %d\n", out.Markers, out.Keywords, out.Videos)

	if len(out.Findings) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tSOURCE\tMESSAGE")
	for _, f := range out.Findings {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", strings.ToUpper(f.Level), f.Source, f.Message)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d error(s), %d warning(s)\n", out.Errors, out.Warnings)
}
