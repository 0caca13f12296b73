package state

import "testing"

func TestDetectChangesForce(t *testing.T) {
	items := []Item{{Key: "a", Hash: "h"}}
	prior := map[string]Prior{"a": {Hash: "h"}}
	got := DetectChanges("g", prior, "g", items, true)
	if got[0].Action != ActionAnalyze || got[0].Reason != ReasonForced {
		t.Fatalf("got %+v", got[0])
	}
}

func TestDetectChangesAnalyzerChanged(t *testing.T) {
	items := []Item{{Key: "a", Hash: "h"}, {Key: "b", Hash: "h"}}
	prior := map[string]Prior{"a": {Hash: "h"}, "b": {Hash: "h"}}
	for _, act := range DetectChanges("old", prior, "new", items, false) {
		if act.Action != ActionAnalyze || act.Reason != ReasonAnalyzerChanged {
			t.Fatalf("got %+v", act)
		}
	}
}

func TestDetectChangesPerItem(t *testing.T) {
	items := []Item{
		{Key: "new", Hash: "h"},
		{Key: "failed", Hash: "h"},
		{Key: "changed", Hash: "h2"},
		{Key: "same", Hash: "h"},
	}
	prior := map[string]Prior{
		"failed":  {Hash: "h", Failed: true},
		"changed": {Hash: "h1"},
		"same":    {Hash: "h"},
	}
	got := DetectChanges("g", prior, "g", items, false)

	want := []struct{ action, reason string }{
		{ActionAnalyze, ReasonNew},
		{ActionAnalyze, ReasonPriorFailure},
		{ActionAnalyze, ReasonInputChanged},
		{ActionSkip, ReasonUpToDate},
	}
	for i, w := range want {
		if got[i].Action != w.action || got[i].Reason != w.reason {
			t.Errorf("%s: got %s/%s want %s/%s", items[i].Key, got[i].Action, got[i].Reason, w.action, w.reason)
		}
	}
}

func TestStaleness(t *testing.T) {
	last := &BuildRecord{PolicyHash: "p", MarkersHash: "m", AnalysisHash: "a", RunID: "r"}

	tests := []struct {
		name    string
		last    *BuildRecord
		current BuildRecord
		exists  bool
		want    string
		reason  string
	}{
		{"never built", &BuildRecord{}, BuildRecord{}, false, BuildMissing, "no cut list has been built"},
		{"cut list deleted", last, *last, false, BuildMissing, "no cut list has been built"},
		{"policy", last, BuildRecord{PolicyHash: "x", MarkersHash: "m", AnalysisHash: "a"}, true, BuildStale, "config changed"},
		{"markers", last, BuildRecord{PolicyHash: "p", MarkersHash: "x", AnalysisHash: "a"}, true, BuildStale, "markers changed"},
		{"analysis", last, BuildRecord{PolicyHash: "p", MarkersHash: "m", AnalysisHash: "x"}, true, BuildStale, "analysis changed"},
		{"fresh", last, BuildRecord{PolicyHash: "p", MarkersHash: "m", AnalysisHash: "a"}, true, BuildUpToDate, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Staleness(tt.last, tt.current, tt.exists)
			if got != tt.want || reason != tt.reason {
				t.Fatalf("got %q/%q want %q/%q", got, reason, tt.want, tt.reason)
			}
		})
	}
}
