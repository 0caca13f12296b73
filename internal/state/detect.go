package state

const (
	ActionAnalyze = "analyze"
	ActionSkip    = "skip"

	ReasonForced          = "forced"
	ReasonNew             = "new pair"
	ReasonAnalyzerChanged = "analyzer changed"
	ReasonInputChanged    = "video changed"
	ReasonPriorFailure    = "previous attempt failed"
	ReasonQuotaRaised     = "segment quota raised"
	ReasonUpToDate        = "up to date"
)

// Build staleness values reported by Staleness.
const (
	BuildMissing  = "missing"
	BuildStale    = "stale"
	BuildUpToDate = "up to date"
)

// Item is one unit of cached work, identified by Key with its current input
// hash.
type Item struct {
	Key  string
	Hash string
}

// Prior is what the cache remembers about an item.
type Prior struct {
	Hash   string
	Failed bool
}

// ItemAction describes what to do with a single item.
type ItemAction struct {
	Item
	Action string
	Reason string
}

// DetectChanges decides which items need re-analysis by comparing current
// hashes against the cached ones. A changed global hash invalidates all.
func DetectChanges(priorGlobal string, prior map[string]Prior, currentGlobal string, items []Item, force bool) []ItemAction {
	actions := make([]ItemAction, len(items))

	if force {
		for i, it := range items {
			actions[i] = ItemAction{Item: it, Action: ActionAnalyze, Reason: ReasonForced}
		}
		return actions
	}

	if priorGlobal != currentGlobal {
		for i, it := range items {
			actions[i] = ItemAction{Item: it, Action: ActionAnalyze, Reason: ReasonAnalyzerChanged}
		}
		return actions
	}

	for i, it := range items {
		p, ok := prior[it.Key]
		switch {
		case !ok:
			actions[i] = ItemAction{Item: it, Action: ActionAnalyze, Reason: ReasonNew}
		case p.Failed:
			actions[i] = ItemAction{Item: it, Action: ActionAnalyze, Reason: ReasonPriorFailure}
		case p.Hash != it.Hash:
			actions[i] = ItemAction{Item: it, Action: ActionAnalyze, Reason: ReasonInputChanged}
		default:
			actions[i] = ItemAction{Item: it, Action: ActionSkip, Reason: ReasonUpToDate}
		}
	}
	return actions
}

// Staleness compares the last build record against the current inputs.
func Staleness(last *BuildRecord, current BuildRecord, cutListExists bool) (string, string) {
	if !last.Built() || !cutListExists {
		return BuildMissing, "no cut list has been built"
	}
	switch {
	case last.PolicyHash != current.PolicyHash:
		return BuildStale, "config changed"
	case last.MarkersHash != current.MarkersHash:
		return BuildStale, "markers changed"
	case last.AnalysisHash != current.AnalysisHash:
		return BuildStale, "analysis changed"
	}
	return BuildUpToDate, ""
}
