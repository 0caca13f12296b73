package tui

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"broll/internal/analyze"
)

// Analysis table columns.
const (
	ColKeyword  = "KEYWORD"
	ColVideo    = "VIDEO"
	ColStatus   = "STATUS"
	ColSegments = "SEGMENTS"
	ColNote     = "NOTE"
)

// AnalysisColumns is the table layout used by the analyze command.
func AnalysisColumns() []Column {
	return []Column{
		{Header: ColKeyword, Width: 20},
		{Header: ColVideo, Width: 28},
		{Header: ColStatus, Width: 9},
		{Header: ColSegments, Width: 8},
		{Header: ColNote, Width: 36},
	}
}

// AnalysisRow is the initial pending row for task.
func AnalysisRow(task analyze.Task) []string {
	return []string{task.Keyword, task.VideoName(), StatusPending, "-", task.Reason}
}

// ResultStatus maps a finished result to its table status.
func ResultStatus(res analyze.Result) string {
	switch {
	case res.Skipped():
		return StatusCached
	case res.Err != nil:
		return StatusError
	case len(res.Raws) == 0:
		return StatusEmpty
	}
	return StatusAnalyzed
}

// ResultNote is the NOTE column text for a finished result.
func ResultNote(res analyze.Result) string {
	switch {
	case res.Err != nil:
		return res.Err.Error()
	case res.Skipped():
		return res.Reason
	}
	return FormatElapsed(res.Duration)
}

// AnalysisReporter forwards analyze progress to the table program.
type AnalysisReporter struct {
	send func(tea.Msg)
}

// NewAnalysisReporter wraps a tea send function.
func NewAnalysisReporter(send func(tea.Msg)) *AnalysisReporter {
	return &AnalysisReporter{send: send}
}

// Start implements analyze.Reporter.
func (r *AnalysisReporter) Start(task analyze.Task) {
	r.send(RowUpdateMsg{Key: task.Key(), Fields: map[string]string{
		ColStatus: StatusAnalyzing,
		ColNote:   task.Reason,
	}})
}

// Complete implements analyze.Reporter.
func (r *AnalysisReporter) Complete(res analyze.Result) {
	segments := "-"
	if !res.Skipped() && res.Err == nil {
		segments = strconv.Itoa(len(res.Raws))
	}
	r.send(RowUpdateMsg{Key: res.Key(), Fields: map[string]string{
		ColStatus:   ResultStatus(res),
		ColSegments: segments,
		ColNote:     ResultNote(res),
	}})
}
