// Package plan parses and rewrites the TASKS.md task plan.
//
// The parser keeps the original file bytes and records the byte range of
// every status tag so that a status change can be spliced back into the
// file without disturbing any other byte. It never fails wholesale:
// malformed constructs degrade to warnings and the parser resumes at the
// next recognizable heading.
package plan

import (
	"fmt"
	"strings"
)

// Status is a task's lifecycle state as encoded by the status tag in a
// task heading.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusBlocked    Status = "blocked"
)

// ShortTag returns the canonical short tag literal for the status.
// The writer always emits short tags regardless of the form it parsed.
func (s Status) ShortTag() string {
	switch s {
	case StatusCompleted:
		return "[x]"
	case StatusInProgress:
		return "[/]"
	case StatusFailed:
		return "[!]"
	case StatusBlocked:
		return "[B]"
	default:
		return "[ ]"
	}
}

// String implements fmt.Stringer for log output.
func (s Status) String() string { return string(s) }

// ParseTag interprets the content between the brackets of a status tag.
// It accepts the short forms (x, space, /, !, B) and the long forms
// (case-insensitive). ok is false for unrecognized content.
func ParseTag(inner string) (Status, bool) {
	switch inner {
	case "x", "X":
		return StatusCompleted, true
	case "/":
		return StatusInProgress, true
	case "!":
		return StatusFailed, true
	case "B":
		return StatusBlocked, true
	}
	if strings.TrimSpace(inner) == "" {
		return StatusPending, true
	}
	switch strings.ToLower(strings.TrimSpace(inner)) {
	case "inprogress":
		return StatusInProgress, true
	case "failed":
		return StatusFailed, true
	case "blocked":
		return StatusBlocked, true
	case "pending":
		return StatusPending, true
	case "completed":
		return StatusCompleted, true
	}
	return StatusPending, false
}

// Span is a half-open byte range [Start, End) into the plan file's raw
// bytes.
type Span struct {
	Start int
	End   int
}

// Task is a single task parsed from a `###` heading and its body.
type Task struct {
	ID        string
	Name      string
	Status    Status
	Agent     string
	BlockedBy []string
	Body      string

	// Tag is the byte range of the status tag literal, opening bracket
	// through closing bracket. Splicing another tag literal into this
	// range leaves every other byte of the file unchanged.
	Tag Span
}

// Phase is a `#`/`##` heading and the tasks that follow it.
type Phase struct {
	ID    string
	Name  string
	Tasks []Task
}

// Progress is the fraction of the phase's tasks that are completed,
// or 0 for an empty phase.
func (p *Phase) Progress() float64 {
	if len(p.Tasks) == 0 {
		return 0
	}
	completed := 0
	for i := range p.Tasks {
		if p.Tasks[i].Status == StatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(p.Tasks))
}

// AggregateStatus summarizes a phase: failed if any task failed, blocked
// if any blocked, completed when all tasks are, in progress when any
// task has started, pending otherwise.
func (p *Phase) AggregateStatus() Status {
	if len(p.Tasks) == 0 {
		return StatusPending
	}
	completed := 0
	inProgress, failed, blocked := false, false, false
	for i := range p.Tasks {
		switch p.Tasks[i].Status {
		case StatusFailed:
			failed = true
		case StatusBlocked:
			blocked = true
		case StatusInProgress:
			inProgress = true
		case StatusCompleted:
			completed++
		}
	}
	switch {
	case failed:
		return StatusFailed
	case blocked:
		return StatusBlocked
	case completed == len(p.Tasks):
		return StatusCompleted
	case inProgress || completed > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// Warning is a non-fatal parse diagnostic scoped to a line and byte span.
type Warning struct {
	Line    int
	Span    Span
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// ParsedPlan is the result of parsing one plan file. Raw holds the exact
// bytes the plan was parsed from; all spans index into it.
type ParsedPlan struct {
	Path     string
	Raw      []byte
	Phases   []Phase
	Warnings []Warning
}

// TotalTasks counts tasks across all phases.
func (p *ParsedPlan) TotalTasks() int {
	n := 0
	for i := range p.Phases {
		n += len(p.Phases[i].Tasks)
	}
	return n
}

// FindTask returns the task with the given id, or nil.
func (p *ParsedPlan) FindTask(id string) *Task {
	for i := range p.Phases {
		for j := range p.Phases[i].Tasks {
			if p.Phases[i].Tasks[j].ID == id {
				return &p.Phases[i].Tasks[j]
			}
		}
	}
	return nil
}

// TaskIDs returns all task ids in document order.
func (p *ParsedPlan) TaskIDs() []string {
	ids := make([]string, 0, p.TotalTasks())
	for i := range p.Phases {
		for j := range p.Phases[i].Tasks {
			ids = append(ids, p.Phases[i].Tasks[j].ID)
		}
	}
	return ids
}
