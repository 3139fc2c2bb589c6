// Package filter decides which rows and step entries are displayed.
package filter

import (
	"strings"

	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

// Options is the display filter state owned by the view.
type Options struct {
	OnlyFailures  bool   `json:"only_failures"`
	ShowDebugLogs bool   `json:"show_debug_logs"`
	TestFilter    string `json:"test_filter"`
}

// IsZero reports whether no filter is active.
func (o Options) IsZero() bool {
	return o == Options{}
}

// Keywords splits a filter text into lowercase keywords. Empty tokens are
// dropped.
func Keywords(text string) []string {
	fields := strings.Fields(text)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}

	return fields
}

func containsAll(haystack string, keywords []string) bool {
	haystack = strings.ToLower(haystack)

	for _, kw := range keywords {
		if !strings.Contains(haystack, kw) {
			return false
		}
	}

	return true
}

// IsResultToBeDisplayed applies the only-failures gate then the text
// filter. A test matches the text filter when every keyword is found in its
// path, or every keyword is found in its description. Hooks never match a
// non-empty text filter.
func IsResultToBeDisplayed(ref tree.ResultRef, opts Options) bool {
	if opts.OnlyFailures && ref.Result.Status != report.StatusFailed {
		return false
	}

	keywords := Keywords(opts.TestFilter)
	if len(keywords) == 0 {
		return true
	}

	if ref.Test == nil {
		return false
	}

	return containsAll(ref.ID, keywords) ||
		containsAll(ref.Test.Description, keywords)
}

// IsStepEntryToBeDisplayed hides debug logs unless they are requested.
func IsStepEntryToBeDisplayed(entry report.StepEntry, opts Options) bool {
	switch e := entry.(type) {
	case *report.Log:
		return opts.ShowDebugLogs || e.Level != report.LevelDebug
	default:
		return true
	}
}

// VisibleEntries returns the entries of step that pass the filter, in order.
func VisibleEntries(step *report.Step, opts Options) []report.StepEntry {
	out := make([]report.StepEntry, 0, len(step.Entries))

	for _, entry := range step.Entries {
		if IsStepEntryToBeDisplayed(entry, opts) {
			out = append(out, entry)
		}
	}

	return out
}
