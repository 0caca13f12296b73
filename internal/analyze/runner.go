package analyze

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"broll/internal/logx"
	"broll/internal/segment"
	"broll/internal/state"
)

// Task is a pair with its change-detection verdict.
type Task struct {
	Pair
	InputHash string
	Action    string
	Reason    string
}

// Result is the outcome of one task.
type Result struct {
	Task
	Raws     []segment.Raw
	Err      error
	Duration time.Duration
}

// Skipped reports whether the task was served from the cache.
func (r Result) Skipped() bool { return r.Action == state.ActionSkip }

// Reporter receives notifications as pairs move through analysis.
type Reporter interface {
	Start(task Task)
	Complete(result Result)
}

// Options tune Run.
type Options struct {
	Concurrency int
	Reporter    Reporter
	Logger      logx.Logger
}

// Plan decides which pairs need analysis against the store. A cached pair
// analysed under a smaller quota than it now has is analysed again.
func Plan(store *Store, pairs []Pair, analyzerHash string, force bool) []Task {
	items := make([]state.Item, len(pairs))
	for i, p := range pairs {
		items[i] = state.Item{Key: p.Key(), Hash: state.PairInputHash(p.Keyword, p.VideoPath)}
	}
	actions := state.DetectChanges(store.AnalyzerHash, store.Priors(), analyzerHash, items, force)

	tasks := make([]Task, len(pairs))
	for i, p := range pairs {
		tasks[i] = Task{Pair: p, InputHash: items[i].Hash, Action: actions[i].Action, Reason: actions[i].Reason}
		if tasks[i].Action == state.ActionSkip && quotaRaised(store, p) {
			tasks[i].Action, tasks[i].Reason = state.ActionAnalyze, state.ReasonQuotaRaised
		}
	}
	return tasks
}

func quotaRaised(store *Store, p Pair) bool {
	e, ok := store.Get(p)
	return ok && p.Limit > 0 && e.Limit > 0 && e.Limit < p.Limit
}

// Run analyses every task that needs it with bounded concurrency. A failing
// pair records its error in its result and never stops the others. Results
// keep task order.
func Run(ctx context.Context, a Analyzer, tasks []Task, opts Options) []Result {
	logger := logx.OrDiscard(opts.Logger)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	results := make([]Result, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, task := range tasks {
		i, task := i, task
		if task.Action == state.ActionSkip {
			results[i] = Result{Task: task}
			if opts.Reporter != nil {
				opts.Reporter.Complete(results[i])
			}
			continue
		}
		if opts.Reporter != nil {
			opts.Reporter.Start(task)
		}
		g.Go(func() error {
			started := time.Now()
			res := Result{Task: task}
			if err := gctx.Err(); err != nil {
				res.Err = err
			} else {
				res.Raws, res.Err = a.Analyze(gctx, task.Pair)
			}
			res.Duration = time.Since(started)
			if res.Err != nil {
				logger.Printf("analyze %s / %s failed: %v", task.Keyword, task.VideoName(), res.Err)
			} else {
				logger.Printf("analyze %s / %s: %d raw segments (%s)", task.Keyword, task.VideoName(), len(res.Raws), res.Duration.Round(time.Millisecond))
			}
			results[i] = res
			if opts.Reporter != nil {
				opts.Reporter.Complete(res)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Apply records analysed results in the store. Skipped results leave their
// cached entries untouched.
func Apply(store *Store, analyzerName, analyzerHash string, results []Result) {
	store.AnalyzerHash = analyzerHash
	now := time.Now().UTC()
	for _, res := range results {
		if res.Skipped() {
			continue
		}
		e := Entry{
			Pair:       res.Pair,
			InputHash:  res.InputHash,
			Analyzer:   analyzerName,
			AnalyzedAt: now,
			Raws:       res.Raws,
		}
		if res.Err != nil {
			e.Error = res.Err.Error()
			e.Raws = nil
		}
		store.Set(e)
	}
}
