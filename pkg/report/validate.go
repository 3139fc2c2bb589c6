package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidReport matches every *ValidationError.
var ErrInvalidReport = errors.New("invalid report")

// Reserved row ids of the session hooks.
const (
	SessionSetupID    = "setup_test_session"
	SessionTeardownID = "teardown_test_session"
)

// Suffixes appended to a suite path to build its hook row ids.
const (
	SuiteSetupSuffix    = ".setup_suite"
	SuiteTeardownSuffix = ".teardown_suite"
)

// Problem is a single validation failure.
type Problem struct {
	Location string
	Message  string
}

func (p Problem) String() string {
	if p.Location == "" {
		return p.Message
	}

	return p.Location + ": " + p.Message
}

// ValidationError lists every problem found in a report payload.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.String())
	}

	return fmt.Sprintf("invalid report: %s", strings.Join(msgs, "; "))
}

// Is reports ErrInvalidReport as a match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidReport
}

type validator struct {
	problems []Problem
	ids      map[string]string
}

func (v *validator) addf(location, format string, args ...any) {
	v.problems = append(v.problems, Problem{
		Location: location,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (v *validator) claim(id, location string) {
	if prev, ok := v.ids[id]; ok {
		v.addf(location, "id %q already used by %s", id, prev)

		return
	}

	v.ids[id] = location
}

// Validate checks the structural invariants the viewer relies on: known
// entry kinds, named nodes, unique row ids and ordered time intervals.
func (r *Report) Validate() error {
	v := &validator{ids: make(map[string]string, 64)}

	if r.StartTime.IsZero() {
		v.addf("start_time", "is required")
	}

	if r.NbThreads < 0 {
		v.addf("nb_threads", "must not be negative, got %d", r.NbThreads)
	}

	v.checkInterval("", r.StartTime, r.EndTime)

	for i, row := range r.Info {
		if len(row) != 2 {
			v.addf(fmt.Sprintf("info[%d]", i),
				"expected [name, value], got %d items", len(row))
		}
	}

	if r.TestSessionSetup != nil {
		v.claim(SessionSetupID, "test_session_setup")
		v.checkResult("test_session_setup", r.TestSessionSetup)
	}

	if r.TestSessionTeardown != nil {
		v.claim(SessionTeardownID, "test_session_teardown")
		v.checkResult("test_session_teardown", r.TestSessionTeardown)
	}

	for i, suite := range r.Suites {
		v.checkSuite(fmt.Sprintf("suites[%d]", i), "", suite)
	}

	if len(v.problems) > 0 {
		return &ValidationError{Problems: v.problems}
	}

	return nil
}

func (v *validator) checkSuite(loc, parentPath string, s *Suite) {
	if s == nil {
		v.addf(loc, "suite is null")

		return
	}

	path := v.checkNode(loc, parentPath, &s.Node)
	if path == "" {
		return
	}

	v.claim(path, loc)

	if s.SuiteSetup != nil {
		v.claim(path+SuiteSetupSuffix, loc+".suite_setup")
		v.checkResult(loc+".suite_setup", s.SuiteSetup)
	}

	if s.SuiteTeardown != nil {
		v.claim(path+SuiteTeardownSuffix, loc+".suite_teardown")
		v.checkResult(loc+".suite_teardown", s.SuiteTeardown)
	}

	for i, t := range s.Tests {
		tloc := fmt.Sprintf("%s.tests[%d]", loc, i)
		if t == nil {
			v.addf(tloc, "test is null")

			continue
		}

		if tpath := v.checkNode(tloc, path, &t.Node); tpath != "" {
			v.claim(tpath, tloc)
		}

		v.checkResult(tloc, &t.Result)
	}

	for i, child := range s.Suites {
		v.checkSuite(fmt.Sprintf("%s.suites[%d]", loc, i), path, child)
	}
}

func (v *validator) checkNode(loc, parentPath string, n *Node) string {
	if n.Name == "" {
		v.addf(loc+".name", "is required")

		return ""
	}

	if strings.Contains(n.Name, ".") {
		v.addf(loc+".name", "must not contain '.', got %q", n.Name)
	}

	for i, link := range n.Links {
		if link.URL == "" {
			v.addf(fmt.Sprintf("%s.links[%d].url", loc, i), "is required")
		}
	}

	if parentPath == "" {
		return n.Name
	}

	return parentPath + "." + n.Name
}

func (v *validator) checkResult(loc string, r *Result) {
	v.checkInterval(loc, r.StartTime, r.EndTime)

	for i, step := range r.Steps {
		sloc := fmt.Sprintf("%s.steps[%d]", loc, i)
		if step == nil {
			v.addf(sloc, "step is null")

			continue
		}

		v.checkInterval(sloc, step.StartTime, step.EndTime)

		for j, entry := range step.Entries {
			eloc := fmt.Sprintf("%s.entries[%d]", sloc, j)

			switch e := entry.(type) {
			case *Log, *Check:
			case *Attachment:
				if e.Filename == "" {
					v.addf(eloc+".filename", "is required")
				}
			case *URL:
				if e.URL == "" {
					v.addf(eloc+".url", "is required")
				}
			default:
				v.addf(eloc, "unknown entry type %q", entry.Kind())
			}
		}
	}
}

func (v *validator) checkInterval(loc string, start time.Time, end *time.Time) {
	if end == nil || start.IsZero() {
		return
	}

	if end.Before(start) {
		field := "end_time"
		if loc != "" {
			field = loc + ".end_time"
		}

		v.addf(field, "is before start_time")
	}
}
