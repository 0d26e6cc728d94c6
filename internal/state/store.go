// Package state holds the unified dashboard model: the parsed task plan
// merged with agent runtime derived from hook events.
//
// The Store is the single writer. Producers (plan parser, tail reader)
// hand it immutable values; the renderer only ever sees snapshots. All
// methods must be called from the core goroutine.
package state

import (
	"time"

	"github.com/claudeck/claudeck/internal/hooks"
	"github.com/claudeck/claudeck/internal/plan"
)

// Timing is per-task wall-clock derived from agent events.
type Timing struct {
	StartedAt   time.Time
	CompletedAt time.Time
}

// Store is the single-writer arbiter of the dashboard model.
type Store struct {
	plan   *plan.ParsedPlan
	agents map[string]*Agent

	// UI hints survive plan replacement.
	collapsed      map[string]bool
	selectedTaskID string

	// Event-derived per-task state. Keyed by task id so it survives
	// plan re-parses; ids the plan does not contain are retained but
	// not rendered as tasks.
	timings    map[string]Timing
	taskErrors map[string]string

	sessionID      string
	startedAt      time.Time
	malformedLines int
	otherEvents    int
	eventCount     int
}

// NewStore creates an empty store. startedAt anchors the uptime metric.
func NewStore(startedAt time.Time) *Store {
	return &Store{
		plan:       &plan.ParsedPlan{},
		agents:     make(map[string]*Agent),
		collapsed:  make(map[string]bool),
		timings:    make(map[string]Timing),
		taskErrors: make(map[string]string),
		startedAt:  startedAt,
	}
}

// ApplyPlan replaces the current plan with a fresh parse. Collapse and
// selection hints carry over by id; agents pointing at tasks the new
// plan no longer contains lose their current_task_id.
func (s *Store) ApplyPlan(p *plan.ParsedPlan) {
	if p == nil {
		return
	}
	s.plan = p

	known := make(map[string]bool, p.TotalTasks())
	for _, id := range p.TaskIDs() {
		known[id] = true
	}
	for _, a := range s.agents {
		if a.CurrentTaskID != "" && !known[a.CurrentTaskID] {
			a.CurrentTaskID = ""
		}
	}
	if s.selectedTaskID != "" && !known[s.selectedTaskID] {
		s.selectedTaskID = ""
	}

	phases := make(map[string]bool, len(p.Phases))
	for i := range p.Phases {
		phases[p.Phases[i].ID] = true
	}
	for id := range s.collapsed {
		if !phases[id] {
			delete(s.collapsed, id)
		}
	}
}

// ApplyEvent folds one hook event into the relevant agent runtime.
// offset is the event's byte offset within its source file; together
// with the timestamp it forms the monotonic stamp that guards against
// out-of-order application.
func (s *Store) ApplyEvent(ev hooks.Event, offset int64) {
	s.eventCount++
	if ev.Type == hooks.TypeOther {
		s.otherEvents++
		return
	}
	if ev.SessionID != "" && s.sessionID == "" {
		s.sessionID = ev.SessionID
	}

	id := ev.AgentID
	if id == "" {
		id = "unknown"
	}
	agent, ok := s.agents[id]
	if !ok {
		agent = &Agent{ID: id, State: AgentIdle}
		s.agents[id] = agent
	}

	// Stale events (stamp older than the newest applied) still feed the
	// accumulating fields; only overwriting state is gated on fresh.
	ns := stamp{ts: ev.Timestamp, offset: offset, set: true}
	fresh := !agent.lastApplied.set || ns.compare(agent.lastApplied) >= 0

	// Task timing and error excerpts are recorded before the agent
	// mutates, while current_task_id still names the running task.
	switch ev.Type {
	case hooks.TypeAgentStart:
		// Earliest observed start wins, whichever file it came from.
		if ev.TaskID != "" && !ev.Timestamp.IsZero() {
			tm := s.timings[ev.TaskID]
			if tm.StartedAt.IsZero() || ev.Timestamp.Before(tm.StartedAt) {
				tm.StartedAt = ev.Timestamp
				s.timings[ev.TaskID] = tm
			}
		}
	case hooks.TypeAgentEnd:
		if tid := agent.CurrentTaskID; fresh && tid != "" {
			tm := s.timings[tid]
			tm.CompletedAt = ev.Timestamp
			s.timings[tid] = tm
		}
	case hooks.TypeError:
		if fresh && ev.TaskID != "" {
			s.taskErrors[ev.TaskID] = ev.ErrorMsg
		}
	}

	agent.apply(ev, ns, fresh)
	if fresh {
		agent.lastApplied = ns
	}
}

// CountMalformed records dropped event lines for the warnings surface.
func (s *Store) CountMalformed(n int) {
	s.malformedLines += n
}

// SetSessionID records the session marker value for display.
func (s *Store) SetSessionID(id string) {
	if id != "" {
		s.sessionID = id
	}
}

// Select marks a task id as selected; the hint survives plan reloads as
// long as the id still exists.
func (s *Store) Select(taskID string) {
	s.selectedTaskID = taskID
}

// ToggleCollapse flips the collapsed hint for a phase id.
func (s *Store) ToggleCollapse(phaseID string) {
	if phaseID == "" {
		return
	}
	s.collapsed[phaseID] = !s.collapsed[phaseID]
}

// Plan exposes the current parsed plan for the write-back path.
func (s *Store) Plan() *plan.ParsedPlan {
	return s.plan
}
