package segment

import "testing"

func TestParseRawsAliases(t *testing.T) {
	data := []byte(`{"segments":[
		{"start_time": "1.5", "end_time": 4, "quality": 0.9, "uniqueness_score": 0.3, "dedupe_group": 2, "description": "boat at dock", "tags": ["harbor","night"], "type": "wide"},
		{"start_sec": 7, "end_sec": 9, "confidence": 0.4},
		{"start": "abc", "end": null, "notes": "broken"},
		"not an object",
		{"start_seconds": 1, "end_seconds": 2, "quality_score": 7, "score": -1}
	]}`)

	raws := ParseRaws(data)
	if len(raws) != 4 {
		t.Fatalf("expected 4 raws, got %d", len(raws))
	}

	r := raws[0]
	if r.Start != 1.5 || r.End != 4 {
		t.Errorf("bounds: got [%g,%g]", r.Start, r.End)
	}
	if r.Quality != 0.9 || r.Uniqueness != 0.3 {
		t.Errorf("scores: got q=%g u=%g", r.Quality, r.Uniqueness)
	}
	if r.DedupeGroup == nil || *r.DedupeGroup != 2 {
		t.Errorf("dedupe group: got %v", r.DedupeGroup)
	}
	if r.Notes != "boat at dock harbor night" {
		t.Errorf("notes: got %q", r.Notes)
	}
	if r.Confidence != 0.9 {
		t.Errorf("confidence should follow quality, got %g", r.Confidence)
	}

	if raws[1].Quality != 0.4 || raws[1].Uniqueness != defaultScore {
		t.Errorf("confidence fallback: got q=%g u=%g", raws[1].Quality, raws[1].Uniqueness)
	}
	if raws[1].DedupeGroup != nil {
		t.Errorf("missing dedupe group should be nil")
	}

	if raws[2].Start != 0 || raws[2].End != 0 || raws[2].Valid() {
		t.Errorf("malformed numbers should read as zero: %+v", raws[2])
	}
	if raws[2].Quality != defaultScore {
		t.Errorf("missing quality should default, got %g", raws[2].Quality)
	}

	if raws[3].Quality != 1 || raws[3].Confidence != 0 {
		t.Errorf("scores should clamp to [0,1]: %+v", raws[3])
	}
}

func TestParseRawsBareArrayAndGarbage(t *testing.T) {
	if got := ParseRaws([]byte(`[{"start_sec":1,"end_sec":2}]`)); len(got) != 1 {
		t.Fatalf("bare array: got %d", len(got))
	}
	if got := ParseRaws([]byte(`not json`)); got != nil {
		t.Fatalf("garbage: got %v", got)
	}
	if got := ParseRaws([]byte(`{"segments": 3}`)); got != nil {
		t.Fatalf("non-array segments: got %v", got)
	}
}
