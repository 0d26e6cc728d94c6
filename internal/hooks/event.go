// Package hooks parses the append-only JSONL event stream written by the
// Claude Code hook each time an agent starts, stops, or invokes a tool.
//
// Parsing is line-at-a-time and soft-failing: a malformed line yields an
// error the ingester counts, never a halt. Unknown event types are kept
// as EventOther so they can be counted without being surfaced in
// aggregates.
package hooks

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type identifies the kind of hook event.
type Type string

const (
	TypeAgentStart Type = "agent_start"
	TypeAgentEnd   Type = "agent_end"
	TypeToolStart  Type = "tool_start"
	TypeToolEnd    Type = "tool_end"
	TypeError      Type = "error"
	// TypeOther marks event types this dashboard does not know about.
	// The original name is preserved in Event.RawType.
	TypeOther Type = "other"
)

// Event is one parsed line of the hook event stream.
//
// Timestamp is the zero time when the line carried none or an
// unparseable one; such events sort after timestamped events at the
// same file offset.
type Event struct {
	Type      Type
	RawType   string
	Timestamp time.Time
	AgentID   string
	TaskID    string
	ToolName  string
	ErrorMsg  string
	SessionID string
}

// wireEvent mirrors the JSONL schema. Unknown keys are ignored by
// encoding/json.
type wireEvent struct {
	EventType    string `json:"event_type"`
	Timestamp    string `json:"timestamp"`
	AgentID      string `json:"agent_id"`
	TaskID       string `json:"task_id"`
	ToolName     string `json:"tool_name"`
	ErrorMessage string `json:"error_message"`
	SessionID    string `json:"session_id"`
}

// ParseLine parses a single line of a hook event file. An error means
// the line is malformed and should be counted and dropped. A missing or
// invalid timestamp is not an error; it leaves Timestamp zero.
func ParseLine(line []byte) (Event, error) {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" {
		return Event{}, fmt.Errorf("empty line")
	}

	var w wireEvent
	if err := json.Unmarshal([]byte(trimmed), &w); err != nil {
		return Event{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if w.EventType == "" {
		return Event{}, fmt.Errorf("missing event_type")
	}

	ev := Event{
		RawType:   w.EventType,
		AgentID:   w.AgentID,
		TaskID:    w.TaskID,
		ToolName:  w.ToolName,
		ErrorMsg:  w.ErrorMessage,
		SessionID: w.SessionID,
	}

	switch w.EventType {
	case "agent_start":
		ev.Type = TypeAgentStart
	case "agent_end":
		ev.Type = TypeAgentEnd
	case "tool_start":
		ev.Type = TypeToolStart
	case "tool_end":
		ev.Type = TypeToolEnd
	case "error":
		ev.Type = TypeError
	default:
		ev.Type = TypeOther
	}

	if w.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, w.Timestamp); err == nil {
			ev.Timestamp = ts.UTC()
		}
	}

	return ev, nil
}
