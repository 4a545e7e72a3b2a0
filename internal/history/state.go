package history

import (
	"sort"
	"time"

	"github.com/jonathan/resume-screener/internal/types"
)

// State is a snapshot of what the user currently sees: whose history it is,
// the history itself (newest first) and the selected result, if any.
type State struct {
	Identity types.Identity         `json:"identity"`
	History  []types.StoredAnalysis `json:"history"`
	Current  *types.StoredAnalysis  `json:"current,omitempty"`
}

// Find returns the visible record with the given id.
func (s State) Find(id string) (types.StoredAnalysis, bool) {
	for _, h := range s.History {
		if h.ID == id {
			return h, true
		}
	}
	return types.StoredAnalysis{}, false
}

// clone returns a deep enough copy that callers cannot mutate coordinator state.
func (s State) clone() State {
	out := State{Identity: s.Identity, History: make([]types.StoredAnalysis, len(s.History))}
	copy(out.History, s.History)
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	return out
}

// sortNewestFirst orders records by timestamp descending. Records with equal or
// unparseable timestamps keep their relative order.
func sortNewestFirst(records []types.StoredAnalysis) {
	sort.SliceStable(records, func(i, j int) bool {
		return parseTimestamp(records[i].Timestamp).After(parseTimestamp(records[j].Timestamp))
	})
}

func parseTimestamp(ts string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}

// withRecord returns history with rec at the front and any older copy removed.
func withRecord(history []types.StoredAnalysis, rec types.StoredAnalysis) []types.StoredAnalysis {
	out := make([]types.StoredAnalysis, 0, len(history)+1)
	out = append(out, rec)
	for _, h := range history {
		if h.ID != rec.ID {
			out = append(out, h)
		}
	}
	sortNewestFirst(out)
	return out
}

// without returns history minus the record with the given id.
func without(history []types.StoredAnalysis, id string) []types.StoredAnalysis {
	out := make([]types.StoredAnalysis, 0, len(history))
	for _, h := range history {
		if h.ID != id {
			out = append(out, h)
		}
	}
	return out
}
