package plan

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// phaseNumRe matches headings labeled "Phase N: Name" so the phase id
// can stay stable ("P<N>") when phases are reordered in the file.
var phaseNumRe = regexp.MustCompile(`(?i)^phase\s+([0-9][0-9.]*)\s*:\s*(.*)$`)

// ParseFile reads and parses the plan file at path. Only I/O failures
// return an error; malformed content degrades to warnings.
func ParseFile(path string) (*ParsedPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	p := Parse(data)
	p.Path = path
	return p, nil
}

// Parse parses the raw bytes of a plan file. It is a single forward pass
// and never fails: anything unrecognized is reported as a warning and
// skipped up to the next heading.
func Parse(data []byte) *ParsedPlan {
	s := &scanner{raw: data}
	if !utf8.Valid(data) {
		s.warnAt(1, Span{0, len(data)}, "plan file contains invalid UTF-8; bytes replaced with U+FFFD for display")
	}

	var (
		phases  []Phase
		current *Phase
		task    *Task
		body    bytes.Buffer
		seen    = map[string]int{}
		pending []Task // tasks seen before the first phase heading
	)

	flush := func() {
		if task == nil {
			return
		}
		task.Body = clean(body.String())
		task.Agent = extractAgent(task.Body)
		task.BlockedBy = extractBlockedBy(task.Body)
		body.Reset()
		if current != nil {
			current.Tasks = append(current.Tasks, *task)
		} else {
			pending = append(pending, *task)
		}
		task = nil
	}

	for s.next() {
		line := s.text()

		if level, rest := headingLevel(line); level > 0 {
			if level <= 2 {
				flush()
				if current != nil {
					phases = append(phases, *current)
				}
				ph := newPhase(rest, len(phases))
				current = &ph
				continue
			}
			if level == 3 {
				flush()
				t, ok := s.parseTaskHeading(line, seen)
				if ok {
					task = &t
				}
				continue
			}
			// #### and deeper are body content, fall through.
		}

		if task != nil {
			body.Write(s.rawLine())
		}
	}
	flush()
	if current != nil {
		phases = append(phases, *current)
	}

	if len(pending) > 0 {
		// Tasks that appear before any phase heading still need a home so
		// the view stays complete.
		implicit := Phase{ID: "P0", Name: "Tasks"}
		implicit.Tasks = pending
		phases = append([]Phase{implicit}, phases...)
		s.warnAt(1, Span{0, 0}, fmt.Sprintf("%d task(s) precede the first phase heading", len(pending)))
	}

	return &ParsedPlan{Raw: data, Phases: phases, Warnings: s.warnings}
}

// scanner walks the raw bytes line by line, tracking byte offsets so tag
// spans index into the original file, CRLF included.
type scanner struct {
	raw      []byte
	off      int // start of the current line
	end      int // end of the current line content (before \r?\n)
	nextOff  int // start of the next line
	line     int // 1-based
	warnings []Warning
}

func (s *scanner) next() bool {
	s.off = s.nextOff
	if s.off >= len(s.raw) {
		return false
	}
	s.line++
	i := bytes.IndexByte(s.raw[s.off:], '\n')
	if i < 0 {
		s.end = len(s.raw)
		s.nextOff = len(s.raw)
	} else {
		s.end = s.off + i
		s.nextOff = s.off + i + 1
	}
	if s.end > s.off && s.raw[s.end-1] == '\r' {
		s.end--
	}
	return true
}

// text returns the current line without its terminator. The bytes are
// kept as-is so offsets computed against it stay valid; display fields
// are sanitized with clean at assignment time.
func (s *scanner) text() string {
	return string(s.raw[s.off:s.end])
}

// clean replaces invalid UTF-8 for fields that reach the renderer.
func clean(v string) string {
	return strings.ToValidUTF8(v, "�")
}

// rawLine returns the current line bytes including the terminator.
func (s *scanner) rawLine() []byte {
	return s.raw[s.off:s.nextOff]
}

func (s *scanner) warn(msg string) {
	s.warnAt(s.line, Span{s.off, s.end}, msg)
}

func (s *scanner) warnAt(line int, span Span, msg string) {
	s.warnings = append(s.warnings, Warning{Line: line, Span: span, Message: msg})
}

// headingLevel returns the number of leading hashes (0 for non-headings)
// and the heading text after them.
func headingLevel(line string) (int, string) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "#") {
		return 0, ""
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "" // "#hashtag" is not a heading
	}
	return level, strings.TrimSpace(rest)
}

func newPhase(header string, ordinal int) Phase {
	if m := phaseNumRe.FindStringSubmatch(header); m != nil {
		name := strings.TrimSpace(m[2])
		if name == "" {
			name = header
		}
		return Phase{ID: "P" + m[1], Name: clean(name)}
	}
	if header == "" {
		header = fmt.Sprintf("Phase %d", ordinal+1)
	}
	return Phase{ID: fmt.Sprintf("PH%d", ordinal+1), Name: clean(header)}
}

// parseTaskHeading parses a `### [tag] ID: Name` line. The tag span is
// recorded in absolute byte offsets. Duplicate ids keep the first
// occurrence authoritative and give later ones a synthetic "#n" suffix.
func (s *scanner) parseTaskHeading(line string, seen map[string]int) (Task, bool) {
	open := strings.IndexByte(line, '[')
	if open < 0 {
		s.warn("task heading has no status tag")
		return Task{}, false
	}
	closeRel := strings.IndexByte(line[open:], ']')
	if closeRel < 0 {
		s.warn("task heading status tag is not closed")
		return Task{}, false
	}
	closing := open + closeRel

	inner := line[open+1 : closing]
	status, ok := ParseTag(inner)
	if !ok {
		s.warn(fmt.Sprintf("unknown status tag %q; treating as pending", "["+inner+"]"))
	}

	rest := strings.TrimSpace(line[closing+1:])
	colon := strings.IndexByte(rest, ':')
	if colon <= 0 {
		s.warn("task heading has no id field")
		return Task{}, false
	}
	id := strings.TrimSpace(rest[:colon])
	name := strings.TrimSpace(rest[colon+1:])
	if id == "" {
		s.warn("task heading has no id field")
		return Task{}, false
	}

	seen[id]++
	if n := seen[id]; n > 1 {
		s.warn(fmt.Sprintf("duplicate task id %q; first occurrence wins", id))
		id = fmt.Sprintf("%s#%d", id, n)
	}

	return Task{
		ID:     clean(id),
		Name:   clean(name),
		Status: status,
		Tag:    Span{Start: s.off + open, End: s.off + closing + 1},
	}, true
}

// extractAgent pulls the assigned agent out of a task body: either an
// explicit `- **agent**: name` metadata line or a bare @name token on
// any metadata line.
func extractAgent(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "-") {
			continue
		}
		stripped := strings.ReplaceAll(trimmed, "**", "")
		rest := strings.TrimSpace(strings.TrimPrefix(stripped, "-"))
		if v, ok := metadataValue(rest, "agent"); ok {
			return strings.TrimPrefix(v, "@")
		}
		if at := strings.IndexByte(rest, '@'); at >= 0 {
			token := rest[at+1:]
			end := strings.IndexFunc(token, func(r rune) bool {
				return r == ' ' || r == '\t' || r == ',' || r == ')'
			})
			if end >= 0 {
				token = token[:end]
			}
			if token != "" {
				return token
			}
		}
	}
	return ""
}

// extractBlockedBy pulls dependency ids from `- **blocked_by**: a, b`
// metadata lines. "(none)", "-" and empty values mean no dependencies.
func extractBlockedBy(body string) []string {
	var deps []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "-") {
			continue
		}
		stripped := strings.ReplaceAll(trimmed, "**", "")
		rest := strings.TrimSpace(strings.TrimPrefix(stripped, "-"))
		v, ok := metadataValue(rest, "blocked_by")
		if !ok {
			continue
		}
		if v == "" || v == "-" || strings.EqualFold(v, "(none)") || strings.EqualFold(v, "none") {
			continue
		}
		for _, part := range strings.Split(v, ",") {
			if dep := strings.TrimSpace(part); dep != "" {
				deps = append(deps, dep)
			}
		}
	}
	return deps
}

// metadataValue matches "key: value" case-insensitively on key.
func metadataValue(line, key string) (string, bool) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return "", false
	}
	if !strings.EqualFold(strings.TrimSpace(line[:colon]), key) {
		return "", false
	}
	return strings.TrimSpace(line[colon+1:]), true
}
