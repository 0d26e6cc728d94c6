package hooks

import (
	"os"
	"strings"
)

// SessionMarkerPath is where hook invocations drop the shared session
// id on POSIX systems.
const SessionMarkerPath = "/tmp/claude-dashboard-session-id"

// ReadSessionMarker returns the session id from the marker file, or ""
// when the file is absent or unreadable. The dashboard only displays
// the value; it never writes the marker.
func ReadSessionMarker(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
