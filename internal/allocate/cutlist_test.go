package allocate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCutListSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cut_list.json")
	cl := CutList{
		RunID:          "run-1",
		FillPolicy:     "clips",
		ClipsPerMarker: 3,
		Cuts: []CutEntry{
			{Index: 1, Keyword: "Harbor", TimelineStart: 0, TimelineEnd: 5, TimelineDuration: 5, Clips: []Clip{
				{VideoPath: "/r/a.mp4", VideoName: "a.mp4", ClipStart: 1, ClipEnd: 4, Duration: 3, Source: SourceAIBest},
			}},
			{Index: 2, Keyword: "Ghost"},
		},
	}

	if err := Save(path, cl); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should be renamed away")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"clip_count": 1`, `"clip_count": 0`, `"total_clips": 1`, `"markers_with_clips": 1`, `"ai_clips": 1`, `"clips": []`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in document:\n%s", want, data)
		}
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.RunID != "run-1" || len(loaded.Cuts) != 2 || loaded.Cuts[0].Clips[0].Source != SourceAIBest {
		t.Errorf("unexpected round trip %+v", loaded)
	}
}

func TestLoadMissingCutList(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "cut_list.json"))
	if err == nil || !strings.Contains(err.Error(), "run build first") {
		t.Fatalf("unexpected error %v", err)
	}
}
