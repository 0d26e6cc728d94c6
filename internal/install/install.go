// Package install sets up the hook producer: it writes the hook script
// into the hooks directory and registers it in the Claude settings file.
// Both steps are idempotent, so `claudeck init` can run repeatedly.
package install

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/claudeck/claudeck/internal/logging"
)

// ScriptName is the hook producer installed into the hooks directory.
const ScriptName = "claudeck-hook.sh"

// hookScript appends one JSONL event per hook invocation. The dashboard
// only ever reads these files.
const hookScript = `#!/bin/sh
# claudeck hook producer. Invoked by Claude Code hooks with the event
# type as the first argument; appends one JSON line per invocation.
EVENT="$1"
TOOL="$2"
DIR="${CLAUDECK_EVENTS_DIR:-$HOME/.claude/dashboard}"
mkdir -p "$DIR"

SESSION_FILE=/tmp/claude-dashboard-session-id
if [ ! -f "$SESSION_FILE" ]; then
    printf '%s' "sess-$$-$(date +%s)" > "$SESSION_FILE"
fi
SESSION=$(cat "$SESSION_FILE")

TS=$(date -u +%Y-%m-%dT%H:%M:%SZ)
printf '{"event_type":"%s","timestamp":"%s","agent_id":"%s","tool_name":"%s","session_id":"%s"}\n' \
    "$EVENT" "$TS" "${CLAUDE_AGENT_ID:-main}" "$TOOL" "$SESSION" >> "$DIR/$SESSION.jsonl"
`

// hookEvents maps Claude settings hook points to the event type the
// script should emit.
var hookEvents = []struct {
	point string
	event string
}{
	{"PreToolUse", "tool_start"},
	{"PostToolUse", "tool_end"},
	{"Stop", "agent_end"},
	{"SubagentStop", "agent_end"},
}

// Options locates the installation targets.
type Options struct {
	HooksDir     string
	SettingsPath string // defaults to .claude/settings.json
}

// Run installs the hook script and patches the settings file.
func Run(opts Options, log *logging.Logger) error {
	if log == nil {
		log = logging.NopLogger()
	}
	if opts.SettingsPath == "" {
		opts.SettingsPath = filepath.Join(".claude", "settings.json")
	}

	scriptPath, err := writeScript(opts.HooksDir)
	if err != nil {
		return err
	}
	log.Info("hook script installed", "path", scriptPath)

	if err := patchSettings(opts.SettingsPath, scriptPath); err != nil {
		return err
	}
	log.Info("settings patched", "path", opts.SettingsPath)
	return nil
}

func writeScript(hooksDir string) (string, error) {
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return "", fmt.Errorf("create hooks directory: %w", err)
	}
	path := filepath.Join(hooksDir, ScriptName)

	if existing, err := os.ReadFile(path); err == nil && string(existing) == hookScript {
		return path, nil
	}
	if err := os.WriteFile(path, []byte(hookScript), 0755); err != nil {
		return "", fmt.Errorf("write hook script: %w", err)
	}
	return path, nil
}

// patchSettings merges the hook registrations into the settings file,
// preserving everything else in it.
func patchSettings(path, scriptPath string) error {
	settings := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("settings file %s is not valid JSON: %w", path, err)
		}
	}

	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		hooks = map[string]any{}
	}

	for _, he := range hookEvents {
		command := fmt.Sprintf("%s %s \"$TOOL_NAME\"", scriptPath, he.event)
		entries, _ := hooks[he.point].([]any)
		if containsCommand(entries, scriptPath) {
			continue
		}
		entries = append(entries, map[string]any{
			"matcher": "*",
			"hooks": []any{
				map[string]any{"type": "command", "command": command},
			},
		})
		hooks[he.point] = entries
	}
	settings["hooks"] = hooks

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	out = append(out, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// containsCommand reports whether any registered hook command already
// references the script.
func containsCommand(entries []any, scriptPath string) bool {
	for _, e := range entries {
		entry, _ := e.(map[string]any)
		inner, _ := entry["hooks"].([]any)
		for _, h := range inner {
			hook, _ := h.(map[string]any)
			if cmd, _ := hook["command"].(string); strings.Contains(cmd, scriptPath) {
				return true
			}
		}
	}
	return false
}
