package plan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNotFound indicates the task id does not exist in the parsed plan.
	ErrNotFound = errors.New("task not found in plan")

	// ErrStale indicates the on-disk bytes at the captured tag range no
	// longer match the parsed snapshot. The caller must re-parse and
	// retry the write.
	ErrStale = errors.New("plan file changed since last parse")
)

// SetStatus rewrites exactly one status tag in the plan file on disk.
//
// It splices the canonical short tag for next into the byte range the
// parser captured for the task, leaving every byte outside that range
// untouched. The write is atomic: the new content goes to <path>.tmp in
// the same directory, is fsynced, then renamed over the original, so the
// watcher never observes a partial file.
func SetStatus(p *ParsedPlan, taskID string, next Status) error {
	task := p.FindTask(taskID)
	if task == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, taskID)
	}

	disk, err := os.ReadFile(p.Path)
	if err != nil {
		return fmt.Errorf("read plan file: %w", err)
	}

	tag := task.Tag
	if tag.End > len(disk) || tag.End > len(p.Raw) ||
		!bytes.Equal(disk[tag.Start:tag.End], p.Raw[tag.Start:tag.End]) {
		return fmt.Errorf("%w: task %q", ErrStale, taskID)
	}

	literal := []byte(next.ShortTag())
	out := make([]byte, 0, len(disk)-(tag.End-tag.Start)+len(literal))
	out = append(out, disk[:tag.Start]...)
	out = append(out, literal...)
	out = append(out, disk[tag.End:]...)

	return writeAtomic(p.Path, out)
}

// writeAtomic writes data to path via a same-directory temp file, fsync
// and rename.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace plan file: %w", err)
	}
	return nil
}
