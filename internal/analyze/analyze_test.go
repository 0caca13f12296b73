package analyze

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sashabaranov/go-openai"

	"broll/internal/config"
	"broll/internal/segment"
	"broll/internal/state"
)

const segmentsDoc = `{
  "Harbor at night": {
    "resource/Harbor/a.mp4": [
      {"start_sec": 1, "end_sec": 4, "quality_score": 0.9, "notes": "cranes"}
    ],
    "b.mp4": {"segments": [{"start": 10, "end": 12, "score": 0.7}]}
  }
}`

func writeSegments(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw_segments.json")
	if err := os.WriteFile(path, []byte(segmentsDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileAnalyzerLookup(t *testing.T) {
	fa, err := NewFileAnalyzer(writeSegments(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	raws, err := fa.Analyze(ctx, Pair{Keyword: "Harbor at night", VideoPath: "resource/Harbor/a.mp4"})
	if err != nil || len(raws) != 1 || raws[0].Notes != "cranes" {
		t.Fatalf("exact path: %+v %v", raws, err)
	}

	raws, err = fa.Analyze(ctx, Pair{Keyword: "harbor AT night", VideoPath: "/abs/resource/Harbor/b.mp4"})
	if err != nil || len(raws) != 1 || raws[0].Start != 10 || raws[0].Quality != 0.7 {
		t.Fatalf("base name and folded keyword: %+v %v", raws, err)
	}

	raws, err = fa.Analyze(ctx, Pair{Keyword: "Lighthouse", VideoPath: "a.mp4"})
	if err != nil || raws != nil {
		t.Fatalf("unknown keyword: %+v %v", raws, err)
	}
}

func TestFileAnalyzerRejectsBadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.json")
	if err := os.WriteFile(path, []byte(`[1,2]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileAnalyzer(path); err == nil {
		t.Fatal("expected error for non-object document")
	}
	if _, err := NewFileAnalyzer(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		count   int
		ok      bool
	}{
		{"bare", `[{"start":1,"end":2}]`, 1, true},
		{"fenced", "```json\n[{\"start\":1,\"end\":2},{\"start\":3,\"end\":4}]\n```", 2, true},
		{"prose", `Here you go: {"segments":[{"start":1,"end":2}]} hope it helps`, 1, true},
		{"none", "no segments today", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := extractJSON(tt.content)
			if ok != tt.ok {
				t.Fatalf("ok: got %v want %v", ok, tt.ok)
			}
			if got := len(segment.FromResult(v)); got != tt.count {
				t.Fatalf("count: got %d want %d", got, tt.count)
			}
		})
	}
}

type fakeChat struct {
	reply string
	err   error
	req   openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}},
	}, nil
}

func TestOpenAIAnalyzer(t *testing.T) {
	cfg := config.Default().Analyzer
	cfg.MaxSegmentsPerVideo = 1
	chat := &fakeChat{reply: `[{"start_sec":1,"end_sec":3,"quality":0.8},{"start_sec":5,"end_sec":8}]`}
	oa := NewOpenAIAnalyzerWithClient(chat, cfg)

	raws, err := oa.Analyze(context.Background(), Pair{Keyword: "harbor", VideoPath: "/x/clip.mp4"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(raws) != 1 || raws[0].Quality != 0.8 {
		t.Fatalf("raws: %+v", raws)
	}
	if chat.req.Model != cfg.Model || len(chat.req.Messages) != 2 {
		t.Fatalf("request: %+v", chat.req)
	}
	if oa.Name() != "openai:"+cfg.Model {
		t.Fatalf("name: %s", oa.Name())
	}

	cfg.MaxSegmentsPerVideo = 12
	oa = NewOpenAIAnalyzerWithClient(chat, cfg)
	raws, err = oa.Analyze(context.Background(), Pair{Keyword: "harbor", VideoPath: "/x/clip.mp4", Limit: 1})
	if err != nil || len(raws) != 1 {
		t.Fatalf("pair quota should cap the reply: %+v %v", raws, err)
	}
	if !strings.Contains(chat.req.Messages[1].Content, "at most 1 segments") {
		t.Errorf("prompt should carry the pair quota: %q", chat.req.Messages[1].Content)
	}

	chat.reply = "sorry"
	if _, err := oa.Analyze(context.Background(), Pair{Keyword: "harbor", VideoPath: "clip.mp4"}); err == nil {
		t.Fatal("expected error for reply without JSON")
	}
}

func TestNewOpenAIAnalyzerNeedsKey(t *testing.T) {
	cfg := config.Default().Analyzer
	cfg.Provider = config.ProviderOpenAI
	cfg.APIKeyEnv = "BROLL_TEST_UNSET_KEY"
	t.Setenv(cfg.APIKeyEnv, "")
	if _, err := New(cfg, ""); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestPlanReanalyzesWhenQuotaRaised(t *testing.T) {
	store := newStore()
	store.AnalyzerHash = "sha256:x"
	cached := Pair{Keyword: "k", VideoPath: "a.mp4", Limit: 4}
	store.Set(Entry{Pair: cached, InputHash: state.PairInputHash("k", "a.mp4"), Raws: []segment.Raw{{Start: 0, End: 2}}})

	tests := []struct {
		limit      int
		wantAction string
		wantReason string
	}{
		{4, state.ActionSkip, state.ReasonUpToDate},
		{3, state.ActionSkip, state.ReasonUpToDate},
		{0, state.ActionSkip, state.ReasonUpToDate},
		{6, state.ActionAnalyze, state.ReasonQuotaRaised},
	}
	for _, tt := range tests {
		tasks := Plan(store, []Pair{{Keyword: "k", VideoPath: "a.mp4", Limit: tt.limit}}, "sha256:x", false)
		if tasks[0].Action != tt.wantAction || tasks[0].Reason != tt.wantReason {
			t.Errorf("limit %d: got %s (%s) want %s (%s)", tt.limit, tasks[0].Action, tasks[0].Reason, tt.wantAction, tt.wantReason)
		}
	}
}

type fakeAnalyzer struct {
	fail map[string]bool
}

func (f fakeAnalyzer) Name() string { return "fake" }

func (f fakeAnalyzer) Analyze(_ context.Context, p Pair) ([]segment.Raw, error) {
	if f.fail[p.VideoPath] {
		return nil, errors.New("boom")
	}
	return []segment.Raw{{Start: 0, End: 2, Quality: 0.9, Notes: p.VideoPath}}, nil
}

type recorder struct {
	mu       sync.Mutex
	started  int
	complete int
}

func (r *recorder) Start(Task) {
	r.mu.Lock()
	r.started++
	r.mu.Unlock()
}

func (r *recorder) Complete(Result) {
	r.mu.Lock()
	r.complete++
	r.mu.Unlock()
}

func TestRunIsolatesFailures(t *testing.T) {
	pairs := []Pair{
		{Keyword: "k", VideoPath: "a.mp4"},
		{Keyword: "k", VideoPath: "bad.mp4"},
		{Keyword: "k", VideoPath: "c.mp4"},
	}
	store := newStore()
	tasks := Plan(store, pairs, "sha256:x", false)
	rec := &recorder{}
	an := fakeAnalyzer{fail: map[string]bool{"bad.mp4": true}}

	results := Run(context.Background(), an, tasks, Options{Concurrency: 2, Reporter: rec})
	if len(results) != 3 {
		t.Fatalf("results: %d", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil || results[1].Err == nil {
		t.Fatalf("unexpected errors: %v %v %v", results[0].Err, results[1].Err, results[2].Err)
	}
	if results[2].Raws[0].Notes != "c.mp4" {
		t.Fatalf("results out of order: %+v", results[2])
	}
	if rec.started != 3 || rec.complete != 3 {
		t.Fatalf("reporter: started %d complete %d", rec.started, rec.complete)
	}

	Apply(store, an.Name(), "sha256:x", results)
	if e, ok := store.Get(pairs[1]); !ok || !e.Failed() {
		t.Fatalf("failed entry not recorded: %+v", e)
	}
	cands := store.Candidates("k", []string{"a.mp4", "bad.mp4", "c.mp4", "missing.mp4"})
	if len(cands) != 2 || cands[0].VideoID != "a.mp4" || cands[1].VideoID != "c.mp4" {
		t.Fatalf("candidates: %+v", cands)
	}

	// A second plan re-runs only the failed pair.
	again := Plan(store, pairs, "sha256:x", false)
	if again[0].Action != state.ActionSkip || again[1].Action != state.ActionAnalyze || again[2].Action != state.ActionSkip {
		t.Fatalf("replan: %+v", again)
	}
	if again[1].Reason != state.ReasonPriorFailure {
		t.Fatalf("reason: %s", again[1].Reason)
	}

	forced := Plan(store, pairs, "sha256:x", true)
	for _, task := range forced {
		if task.Action != state.ActionAnalyze {
			t.Fatalf("forced plan should analyze all: %+v", task)
		}
	}
}

func TestStoreRoundTripAndPrune(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".broll", "analysis.json")
	store, err := LoadStore(path)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	group := 2
	store.AnalyzerHash = "sha256:h"
	store.Set(Entry{Pair: Pair{Keyword: "k", VideoPath: "a.mp4"}, InputHash: "i1", Raws: []segment.Raw{{Start: 1, End: 2, DedupeGroup: &group}}})
	store.Set(Entry{Pair: Pair{Keyword: "gone", VideoPath: "b.mp4"}, InputHash: "i2"})
	before := store.Hash()

	if err := store.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadStore(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Hash() != before || loaded.AnalyzerHash != "sha256:h" {
		t.Fatal("round trip changed the store")
	}
	e, _ := loaded.Get(Pair{Keyword: "k", VideoPath: "a.mp4"})
	if e.Raws[0].DedupeGroup == nil || *e.Raws[0].DedupeGroup != 2 {
		t.Fatalf("dedupe group lost: %+v", e.Raws[0])
	}

	if n := loaded.Prune([]Pair{{Keyword: "k", VideoPath: "a.mp4"}}); n != 1 {
		t.Fatalf("pruned %d", n)
	}
	if loaded.Hash() == before {
		t.Fatal("hash should change after prune")
	}
}

func TestLoadStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStore(path); err == nil {
		t.Fatal("expected decode error")
	}
}
