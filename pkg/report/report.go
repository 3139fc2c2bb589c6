package report

import (
	"encoding/json"
	"time"
)

// DefaultTitle is used when a report carries no title.
const DefaultTitle = "Test Report"

// Status is the outcome of a result. The empty status means the result is
// still in progress (serialized as JSON null).
type Status string

const (
	StatusInProgress Status = ""
	StatusPassed     Status = "passed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
	StatusDisabled   Status = "disabled"
)

// MarshalJSON writes the in-progress status as null.
func (s Status) MarshalJSON() ([]byte, error) {
	if s == StatusInProgress {
		return []byte("null"), nil
	}

	return json.Marshal(string(s))
}

// Report is a finished (or in-progress) test run.
type Report struct {
	Title               string     `json:"title"`
	StartTime           time.Time  `json:"start_time"`
	EndTime             *time.Time `json:"end_time"`
	GenerationTime      *time.Time `json:"generation_time"`
	NbThreads           int        `json:"nb_threads"`
	Info                [][]string `json:"info"`
	TestSessionSetup    *Result    `json:"test_session_setup,omitempty"`
	TestSessionTeardown *Result    `json:"test_session_teardown,omitempty"`
	Suites              []*Suite   `json:"suites"`

	raw []byte
}

// Node holds the metadata shared by suites and tests.
type Node struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Properties  Properties `json:"properties"`
	Links       []Link     `json:"links"`
}

// Link is a named url attached to a suite or a test.
type Link struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// Label returns the link name, falling back to its url.
func (l Link) Label() string {
	if l.Name != "" {
		return l.Name
	}

	return l.URL
}

// Suite is a named group of tests and sub suites.
type Suite struct {
	Node

	Tests         []*Test  `json:"tests"`
	Suites        []*Suite `json:"suites"`
	SuiteSetup    *Result  `json:"suite_setup,omitempty"`
	SuiteTeardown *Result  `json:"suite_teardown,omitempty"`
}

// Test is a single test with its result.
type Test struct {
	Node
	Result
}

// Result is the outcome of a test, a suite hook or a session hook.
type Result struct {
	Status        Status     `json:"status"`
	StatusDetails *string    `json:"status_details,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Steps         []*Step    `json:"steps"`
}

// Duration returns the result duration. The second value is false while
// the result has no end time.
func (r *Result) Duration() (time.Duration, bool) {
	return interval(r.StartTime, r.EndTime)
}

// Step is a titled phase of a result.
type Step struct {
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Entries     Entries    `json:"entries"`
}

// Duration returns the step duration, false while the step is open.
func (s *Step) Duration() (time.Duration, bool) {
	return interval(s.StartTime, s.EndTime)
}

// Duration returns the wall-clock duration of the whole run, false while
// the run has no end time.
func (r *Report) Duration() (time.Duration, bool) {
	return interval(r.StartTime, r.EndTime)
}

// DisplayTitle returns the title to show for the report.
func (r *Report) DisplayTitle() string {
	if r.Title == "" {
		return DefaultTitle
	}

	return r.Title
}

// Threads returns the number of threads used by the run (at least 1).
func (r *Report) Threads() int {
	if r.NbThreads < 1 {
		return 1
	}

	return r.NbThreads
}

// Raw returns the payload the report was parsed from, unmodified.
func (r *Report) Raw() []byte {
	return r.raw
}

func interval(start time.Time, end *time.Time) (time.Duration, bool) {
	if end == nil || start.IsZero() {
		return 0, false
	}

	return end.Sub(start), true
}
