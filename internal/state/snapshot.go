package state

import (
	"fmt"
	"sort"
	"time"

	"github.com/claudeck/claudeck/internal/plan"
)

// TaskView is one task as the renderer sees it: plan fields plus the
// event-derived overlay.
type TaskView struct {
	ID           string
	Name         string
	Status       plan.Status
	Agent        string
	BlockedBy    []string
	Body         string
	ErrorExcerpt string
	StartedAt    time.Time
	CompletedAt  time.Time
}

// PhaseView is one phase with computed aggregates and UI hints.
type PhaseView struct {
	ID        string
	Name      string
	Collapsed bool
	Progress  float64
	Status    plan.Status
	Tasks     []TaskView
}

// AgentView is a copy of one agent runtime, safe for the renderer to
// hold across updates.
type AgentView struct {
	ID            string
	State         AgentState
	CurrentTaskID string
	CurrentTool   string
	RecentTools   []ToolUse
	ToolCounts    map[string]int
	LastError     string
	SessionID     string
	FirstSeen     time.Time
	LastSeen      time.Time
	EventCount    int
}

// Metrics summarizes the session.
type Metrics struct {
	StartedAt       time.Time
	TotalTasks      int
	Completed       int
	InProgress      int
	Failed          int
	Blocked         int
	Pending         int
	OverallProgress float64
}

// Uptime is the elapsed session time at now.
func (m Metrics) Uptime(now time.Time) time.Duration {
	if m.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(m.StartedAt)
}

// Snapshot is the internally consistent, read-only view handed to the
// renderer. Plan is a shared immutable handle used by the write-back
// path; the store replaces it wholesale and never mutates it in place.
type Snapshot struct {
	Phases         []PhaseView
	Agents         []AgentView
	Metrics        Metrics
	Warnings       []string
	SelectedTaskID string
	SessionID      string
	MalformedLines int
	Plan           *plan.ParsedPlan
}

// Snapshot builds the renderer view. All slices and maps are copies;
// the only shared data is the immutable ParsedPlan.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		SelectedTaskID: s.selectedTaskID,
		SessionID:      s.sessionID,
		MalformedLines: s.malformedLines,
		Plan:           s.plan,
	}

	m := Metrics{StartedAt: s.startedAt}
	snap.Phases = make([]PhaseView, 0, len(s.plan.Phases))
	for i := range s.plan.Phases {
		ph := &s.plan.Phases[i]
		pv := PhaseView{
			ID:        ph.ID,
			Name:      ph.Name,
			Collapsed: s.collapsed[ph.ID],
			Progress:  ph.Progress(),
			Status:    ph.AggregateStatus(),
			Tasks:     make([]TaskView, 0, len(ph.Tasks)),
		}
		for j := range ph.Tasks {
			t := &ph.Tasks[j]
			tm := s.timings[t.ID]
			pv.Tasks = append(pv.Tasks, TaskView{
				ID:           t.ID,
				Name:         t.Name,
				Status:       t.Status,
				Agent:        t.Agent,
				BlockedBy:    append([]string(nil), t.BlockedBy...),
				Body:         t.Body,
				ErrorExcerpt: s.taskErrors[t.ID],
				StartedAt:    tm.StartedAt,
				CompletedAt:  tm.CompletedAt,
			})
			m.TotalTasks++
			switch t.Status {
			case plan.StatusCompleted:
				m.Completed++
			case plan.StatusInProgress:
				m.InProgress++
			case plan.StatusFailed:
				m.Failed++
			case plan.StatusBlocked:
				m.Blocked++
			default:
				m.Pending++
			}
		}
		snap.Phases = append(snap.Phases, pv)
	}
	if m.TotalTasks > 0 {
		m.OverallProgress = float64(m.Completed) / float64(m.TotalTasks)
	}
	snap.Metrics = m

	snap.Agents = make([]AgentView, 0, len(s.agents))
	for _, a := range s.agents {
		snap.Agents = append(snap.Agents, AgentView{
			ID:            a.ID,
			State:         a.State,
			CurrentTaskID: a.CurrentTaskID,
			CurrentTool:   a.CurrentTool,
			RecentTools:   a.recentTools(),
			ToolCounts:    copyCounts(a.ToolCounts),
			LastError:     a.LastError,
			SessionID:     a.SessionID,
			FirstSeen:     a.FirstSeen,
			LastSeen:      a.LastSeen,
			EventCount:    a.EventCount,
		})
	}
	sort.Slice(snap.Agents, func(i, j int) bool {
		ai, aj := snap.Agents[i], snap.Agents[j]
		if !ai.LastSeen.Equal(aj.LastSeen) {
			return ai.LastSeen.After(aj.LastSeen)
		}
		return ai.ID < aj.ID
	})

	for _, w := range s.plan.Warnings {
		snap.Warnings = append(snap.Warnings, w.String())
	}
	if s.malformedLines > 0 {
		snap.Warnings = append(snap.Warnings, warningCount(s.malformedLines, "malformed event line"))
	}

	return snap
}

// FindTask returns the task view for id, or nil.
func (sn *Snapshot) FindTask(id string) *TaskView {
	for i := range sn.Phases {
		for j := range sn.Phases[i].Tasks {
			if sn.Phases[i].Tasks[j].ID == id {
				return &sn.Phases[i].Tasks[j]
			}
		}
	}
	return nil
}

func copyCounts(in map[string]int) map[string]int {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func warningCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun + " dropped"
	}
	return fmt.Sprintf("%d %ss dropped", n, noun)
}
