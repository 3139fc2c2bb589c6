package render

import (
	"strings"

	"github.com/ethpandaops/reportoor/pkg/report"
)

// InProgressLabel is shown for results without a status.
const InProgressLabel = "IN PROGRESS"

// StatusClass maps a status to its text class. In progress results have no
// class.
func StatusClass(s report.Status) string {
	switch s {
	case report.StatusInProgress:
		return ""
	case report.StatusPassed:
		return "text-success"
	case report.StatusFailed:
		return "text-danger"
	case report.StatusDisabled:
		return "text-muted"
	default:
		return "text-warning"
	}
}

// StatusLabel returns the uppercased status, or InProgressLabel.
func StatusLabel(s report.Status) string {
	if s == report.StatusInProgress {
		return InProgressLabel
	}

	return strings.ToUpper(string(s))
}

// LogLevelClass maps a log level to its text class.
func LogLevelClass(level string) string {
	switch level {
	case report.LevelError:
		return "text-danger"
	case report.LevelWarn:
		return "text-warning"
	default:
		return "text-info"
	}
}

// StepFailed reports whether a step holds an error log or a failed check,
// whatever the status of its result.
func StepFailed(step *report.Step) bool {
	for _, entry := range step.Entries {
		switch e := entry.(type) {
		case *report.Log:
			if e.Level == report.LevelError {
				return true
			}
		case *report.Check:
			if !e.IsSuccessful {
				return true
			}
		}
	}

	return false
}
