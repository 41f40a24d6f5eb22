// internal/logbook/logbook.go
//
// The journey log: a plain text record of what happened to a shipment,
// kept across sessions. Workflow components append through a Logbook, the
// TUI tails it for the log panel, and invocation-scoped logbooks tag their
// entries so one creation run's lines can be told apart after the fact.

package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// journal is the file shared by every scope of one logbook. All writers
// serialize through its lock.
type journal struct {
	path string
	mu   sync.Mutex
}

// Logbook appends entries to a journey log. Scoped copies write to the
// same journal with a tag in front of the message.
type Logbook struct {
	journal *journal
	tag     string
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Logbook{journal: &journal{path: path}}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.journal.path
}

// Scoped returns a logbook whose entries carry the given tag, typically a
// workflow invocation ID. The journal file is shared with the parent.
func (l *Logbook) Scoped(tag string) *Logbook {
	if l == nil {
		return nil
	}
	return &Logbook{journal: l.journal, tag: tag}
}

// Append writes a single entry to the journal.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	entry := strings.TrimSpace(message)
	if l.tag != "" {
		entry = fmt.Sprintf("[%s] %s", l.tag, entry)
	}
	line := fmt.Sprintf("%s %-5s %s\n",
		time.Now().UTC().Format(time.RFC3339),
		string(level),
		entry,
	)

	l.journal.mu.Lock()
	defer l.journal.mu.Unlock()
	file, err := os.OpenFile(l.journal.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
}

// Tail returns up to maxLines of the newest entries together with the
// total number of entries in the journal, so the log panel can show how
// much history sits above the visible window.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.journal.mu.Lock()
	defer l.journal.mu.Unlock()
	file, err := os.Open(l.journal.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	window := make([]string, 0, maxLines)
	total := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		total++
		if len(window) == maxLines {
			copy(window, window[1:])
			window[maxLines-1] = scanner.Text()
		} else {
			window = append(window, scanner.Text())
		}
	}
	if total == 0 {
		return nil, 0
	}
	return window, total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
