package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"broll/internal/analyze"
	"broll/internal/segment"
	"broll/internal/state"
)

func analysisModel() ProgressModel {
	m := NewProgressModel("Analyzing", AnalysisColumns())
	m.AddRow("k|a.mp4", []string{"k", "a.mp4", StatusPending, "-", "new pair"})
	m.AddRow("k|b.mp4", []string{"k", "b.mp4", StatusPending, "-", "new pair"})
	return m
}

func TestRowUpdateAppliesKnownColumns(t *testing.T) {
	m := analysisModel()
	next, _ := m.Update(RowUpdateMsg{Key: "k|a.mp4", Fields: map[string]string{
		ColStatus:   StatusAnalyzed,
		ColSegments: "4",
		"UNKNOWN":   "ignored",
	}})
	m = next.(ProgressModel)

	row := m.Rows()[0]
	if row.Fields[2] != StatusAnalyzed || row.Fields[3] != "4" {
		t.Fatalf("row not updated: %v", row.Fields)
	}
	if m.Rows()[1].Fields[2] != StatusPending {
		t.Fatalf("other row changed: %v", m.Rows()[1].Fields)
	}
}

func TestRowUpdateUnknownKey(t *testing.T) {
	m := analysisModel()
	next, _ := m.Update(RowUpdateMsg{Key: "nope", Fields: map[string]string{ColStatus: StatusError}})
	m = next.(ProgressModel)
	for _, row := range m.Rows() {
		if row.Fields[2] != StatusPending {
			t.Fatalf("unexpected change: %v", row.Fields)
		}
	}
}

func TestCountsAndFooter(t *testing.T) {
	m := analysisModel()
	next, _ := m.Update(RowUpdateMsg{Key: "k|b.mp4", Fields: map[string]string{ColStatus: StatusCached}})
	m = next.(ProgressModel)

	settled, total := m.Counts()
	if settled != 1 || total != 2 {
		t.Fatalf("counts: %d/%d", settled, total)
	}
	if view := m.View(); !strings.Contains(view, "1/2 settled") {
		t.Fatalf("footer missing:\n%s", view)
	}

	next, cmd := m.Update(WorkDoneMsg{})
	m = next.(ProgressModel)
	if !m.Done() || cmd == nil {
		t.Fatal("work done should quit")
	}
	if strings.Contains(m.View(), "settled") {
		t.Fatal("footer should disappear when done")
	}
}

func TestErrorMsgQuits(t *testing.T) {
	m := analysisModel()
	next, cmd := m.Update(ErrorMsg{Err: errors.New("disk full")})
	m = next.(ProgressModel)
	if cmd == nil || !m.Done() || m.Err() == nil {
		t.Fatal("error should stop the model")
	}
	if !strings.Contains(m.View(), "disk full") {
		t.Fatalf("view: %q", m.View())
	}
}

func TestCtrlCQuits(t *testing.T) {
	m := analysisModel()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !next.(ProgressModel).Done() || cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
}

func TestTickStopsAfterDone(t *testing.T) {
	m := analysisModel()
	if _, cmd := m.Update(tickMsg(time.Now())); cmd == nil {
		t.Fatal("tick should reschedule while running")
	}
	next, _ := m.Update(WorkDoneMsg{})
	if _, cmd := next.(ProgressModel).Update(tickMsg(time.Now())); cmd != nil {
		t.Fatal("tick should stop after done")
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"harbor_at_night.mp4", 10, "harbor_..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d): got %q want %q", tt.in, tt.max, got, tt.want)
		}
	}
	if NonEmptyOrDash("  ") != "-" || NonEmptyOrDash("x") != "x" {
		t.Error("NonEmptyOrDash")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := map[time.Duration]string{
		850 * time.Millisecond:  "850ms",
		4200 * time.Millisecond: "4.2s",
		37 * time.Second:        "37s",
		125 * time.Second:       "2m05s",
	}
	for d, want := range tests {
		if got := FormatElapsed(d); got != want {
			t.Errorf("FormatElapsed(%s): got %q want %q", d, got, want)
		}
	}
}

func TestAnalysisReporter(t *testing.T) {
	var msgs []tea.Msg
	r := NewAnalysisReporter(func(m tea.Msg) { msgs = append(msgs, m) })
	task := analyze.Task{Pair: analyze.Pair{Keyword: "k", VideoPath: "/v/a.mp4"}, Action: state.ActionAnalyze, Reason: state.ReasonNew}

	r.Start(task)
	r.Complete(analyze.Result{Task: task, Raws: []segment.Raw{{Start: 0, End: 1}}})
	r.Complete(analyze.Result{Task: task, Err: errors.New("timeout")})

	if len(msgs) != 3 {
		t.Fatalf("messages: %d", len(msgs))
	}
	start := msgs[0].(RowUpdateMsg)
	if start.Key != "k|/v/a.mp4" || start.Fields[ColStatus] != StatusAnalyzing {
		t.Fatalf("start: %+v", start)
	}
	done := msgs[1].(RowUpdateMsg)
	if done.Fields[ColStatus] != StatusAnalyzed || done.Fields[ColSegments] != "1" {
		t.Fatalf("complete: %+v", done)
	}
	failed := msgs[2].(RowUpdateMsg)
	if failed.Fields[ColStatus] != StatusError || failed.Fields[ColNote] != "timeout" {
		t.Fatalf("failed: %+v", failed)
	}
}

func TestResultStatus(t *testing.T) {
	skip := analyze.Result{Task: analyze.Task{Action: state.ActionSkip}}
	empty := analyze.Result{Task: analyze.Task{Action: state.ActionAnalyze}}
	if ResultStatus(skip) != StatusCached || ResultStatus(empty) != StatusEmpty {
		t.Fatal("status mapping")
	}
}
