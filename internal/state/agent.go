package state

import (
	"time"

	"github.com/claudeck/claudeck/internal/hooks"
)

// AgentState is the coarse activity state derived from hook events.
type AgentState string

const (
	AgentIdle    AgentState = "idle"
	AgentRunning AgentState = "running"
)

// RecentToolsMax bounds the per-agent ring of recently used tools.
const RecentToolsMax = 10

// recentRawMax bounds the raw ring backing the display list. It is kept
// larger than the display cap so collapsing consecutive duplicates can
// still surface RecentToolsMax distinct runs.
const recentRawMax = RecentToolsMax * 2

// ToolUse is one entry in an agent's recent-tools ring.
type ToolUse struct {
	Name string
	At   time.Time

	stamp stamp
}

// Agent is the derived runtime state for one agent_id seen in events.
//
// Fields fall in two classes. Accumulating fields (EventCount,
// ToolCounts, the recent-tools ring, FirstSeen, LastSeen) fold in every
// event, so their final value does not depend on the order the event
// files are read. Overwrite fields (State, CurrentTaskID, CurrentTool,
// LastError, SessionID) only ever reflect the newest event by stamp;
// an older event arriving late cannot clobber them.
type Agent struct {
	ID            string
	State         AgentState
	CurrentTaskID string
	CurrentTool   string
	ToolCounts    map[string]int
	LastError     string
	SessionID     string
	FirstSeen     time.Time
	LastSeen      time.Time
	EventCount    int

	// recent is the raw tool ring, newest-first by stamp, no dedup.
	// recentTools derives the display list from it.
	recent []ToolUse

	lastApplied stamp
}

// stamp orders events per agent: timestamp first, then file offset.
// Events without a timestamp sort after timestamped ones at the same
// offset.
type stamp struct {
	ts     time.Time
	offset int64
	set    bool
}

// compare returns <0, 0 or >0. The zero ts (missing timestamp) ranks
// after any present timestamp when offsets tie, and falls back to
// offset order otherwise.
func (a stamp) compare(b stamp) int {
	if !a.ts.IsZero() && !b.ts.IsZero() && !a.ts.Equal(b.ts) {
		if a.ts.Before(b.ts) {
			return -1
		}
		return 1
	}
	if a.offset != b.offset {
		if a.offset < b.offset {
			return -1
		}
		return 1
	}
	switch {
	case a.ts.IsZero() == b.ts.IsZero():
		return 0
	case a.ts.IsZero():
		return 1
	default:
		return -1
	}
}

// apply folds one event into the agent. fresh is true when the event's
// stamp is not older than everything already applied; only then may the
// overwrite fields change. Accumulating fields always fold in, so the
// result is the same whichever file an event arrived from first.
func (a *Agent) apply(ev hooks.Event, ns stamp, fresh bool) {
	a.EventCount++
	if seen := ev.Timestamp; !seen.IsZero() {
		if a.FirstSeen.IsZero() || seen.Before(a.FirstSeen) {
			a.FirstSeen = seen
		}
		if seen.After(a.LastSeen) {
			a.LastSeen = seen
		}
	}
	if ev.Type == hooks.TypeToolStart {
		a.recordTool(ev, ns)
	}

	if !fresh {
		return
	}
	if ev.SessionID != "" {
		a.SessionID = ev.SessionID
	}

	switch ev.Type {
	case hooks.TypeAgentStart:
		a.State = AgentRunning
		a.CurrentTaskID = ev.TaskID
	case hooks.TypeAgentEnd:
		a.State = AgentIdle
		a.CurrentTool = ""
		a.CurrentTaskID = ""
	case hooks.TypeToolStart:
		a.State = AgentRunning
		a.CurrentTool = ev.ToolName
	case hooks.TypeToolEnd:
		a.CurrentTool = ""
	case hooks.TypeError:
		a.LastError = ev.ErrorMsg
	}
}

// recordTool counts the tool and inserts it into the raw ring at its
// stamp-ordered position, so entries from a late-read file land where
// they belong instead of at the front.
func (a *Agent) recordTool(ev hooks.Event, ns stamp) {
	if ev.ToolName == "" {
		return
	}
	if a.ToolCounts == nil {
		a.ToolCounts = make(map[string]int)
	}
	a.ToolCounts[ev.ToolName]++

	pos := len(a.recent)
	for i := range a.recent {
		if ns.compare(a.recent[i].stamp) >= 0 {
			pos = i
			break
		}
	}
	if pos >= recentRawMax {
		return // older than everything the bounded ring keeps
	}

	a.recent = append(a.recent, ToolUse{})
	copy(a.recent[pos+1:], a.recent[pos:])
	a.recent[pos] = ToolUse{Name: ev.ToolName, At: ev.Timestamp, stamp: ns}
	if len(a.recent) > recentRawMax {
		a.recent = a.recent[:recentRawMax]
	}
}

// recentTools derives the display ring from the raw one: newest first,
// identical consecutive entries collapsed into their newest occurrence,
// at most RecentToolsMax entries.
func (a *Agent) recentTools() []ToolUse {
	out := make([]ToolUse, 0, RecentToolsMax)
	for _, tu := range a.recent {
		if len(out) > 0 && out[len(out)-1].Name == tu.Name {
			continue
		}
		out = append(out, tu)
		if len(out) == RecentToolsMax {
			break
		}
	}
	return out
}
