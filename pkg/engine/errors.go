package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSnapshot is returned by a SnapshotStore that holds nothing yet.
	ErrNoSnapshot = errors.New("no archived snapshot")
	// ErrSnapshotExists is returned when a save would overwrite an archived snapshot.
	ErrSnapshotExists = errors.New("snapshot already archived")
	// ErrWrongTier is returned when an operation receives a snapshot of the wrong tier.
	ErrWrongTier = errors.New("unexpected snapshot tier")
)

// CycleError reports a dependency cycle among the tasks of one work stream.
type CycleError struct {
	Stream string
	Tasks  []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle in work stream %q: %s", e.Stream, strings.Join(e.Tasks, " -> "))
}

// DiagnosticLevel is the severity of a non-fatal issue found during a run.
type DiagnosticLevel string

const (
	LevelWarn DiagnosticLevel = "warn"
	LevelInfo DiagnosticLevel = "info"
)

// Diagnostic describes a non-fatal problem. Diagnostics never stop a run.
type Diagnostic struct {
	Level      DiagnosticLevel `json:"level"`
	QuestionID string          `json:"question_id,omitempty"`
	Message    string          `json:"message"`
}

func (d Diagnostic) String() string {
	if d.QuestionID == "" {
		return fmt.Sprintf("[%s] %s", d.Level, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Level, d.QuestionID, d.Message)
}
