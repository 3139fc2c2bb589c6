// Package tree provides a read-only indexed view over a report: lazy
// depth-first traversals, node paths and row id lookups. The report itself
// is never mutated.
package tree

import (
	"iter"
	"strings"

	"github.com/ethpandaops/reportoor/pkg/report"
)

// ResultKind tells where a result sits in the report.
type ResultKind int

const (
	KindSessionSetup ResultKind = iota
	KindSuiteSetup
	KindTest
	KindSuiteTeardown
	KindSessionTeardown
)

func (k ResultKind) String() string {
	switch k {
	case KindSessionSetup:
		return "session_setup"
	case KindSuiteSetup:
		return "suite_setup"
	case KindTest:
		return "test"
	case KindSuiteTeardown:
		return "suite_teardown"
	case KindSessionTeardown:
		return "session_teardown"
	default:
		return "unknown"
	}
}

// IsHook reports whether the kind is a setup or teardown.
func (k ResultKind) IsHook() bool {
	return k != KindTest
}

// TestRef is a test with its owning suite.
type TestRef struct {
	ID    string
	Suite *report.Suite
	Test  *report.Test
}

// ResultRef is a displayable row: a test or a hook result. Suite is nil
// for session hooks; Test is nil for every hook.
type ResultRef struct {
	ID     string
	Kind   ResultKind
	Suite  *report.Suite
	Test   *report.Test
	Result *report.Result
}

// StepRef is a step of a result.
type StepRef struct {
	Owner ResultRef
	Index int
	Step  *report.Step
}

// Index is built once per report. It records parent links and row ids;
// paths are computed on demand from the parent links.
type Index struct {
	report      *report.Report
	suiteParent map[*report.Suite]*report.Suite
	testSuite   map[*report.Test]*report.Suite
	hasTests    map[*report.Suite]bool
	rows        map[string]ResultRef
	nbTests     int
}

// New indexes r. The report must have passed validation so that ids are
// unique.
func New(r *report.Report) *Index {
	idx := &Index{
		report:      r,
		suiteParent: make(map[*report.Suite]*report.Suite, 16),
		testSuite:   make(map[*report.Test]*report.Suite, 64),
		hasTests:    make(map[*report.Suite]bool, 16),
		rows:        make(map[string]ResultRef, 64),
	}

	for _, s := range r.Suites {
		idx.link(nil, s)
	}

	for ref := range idx.Results() {
		idx.rows[ref.ID] = ref
	}

	return idx
}

func (idx *Index) link(parent, s *report.Suite) bool {
	idx.suiteParent[s] = parent

	for _, t := range s.Tests {
		idx.testSuite[t] = s
	}

	idx.nbTests += len(s.Tests)
	owns := len(s.Tests) > 0

	for _, child := range s.Suites {
		if idx.link(s, child) {
			owns = true
		}
	}

	idx.hasTests[s] = owns

	return owns
}

// Report returns the indexed report.
func (idx *Index) Report() *report.Report {
	return idx.report
}

// TestCount returns the number of tests in the whole report.
func (idx *Index) TestCount() int {
	return idx.nbTests
}

// Parent returns the parent suite, nil for a top-level suite.
func (idx *Index) Parent(s *report.Suite) *report.Suite {
	return idx.suiteParent[s]
}

// SuiteOf returns the suite owning t.
func (idx *Index) SuiteOf(t *report.Test) *report.Suite {
	return idx.testSuite[t]
}

// Hierarchy returns the chain of suites from the root down to s.
func (idx *Index) Hierarchy(s *report.Suite) []*report.Suite {
	var chain []*report.Suite

	for cur := s; cur != nil; cur = idx.suiteParent[cur] {
		chain = append(chain, cur)
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return chain
}

// SuitePath returns the dot-joined names from the root down to s.
func (idx *Index) SuitePath(s *report.Suite) string {
	chain := idx.Hierarchy(s)
	names := make([]string, 0, len(chain))

	for _, cur := range chain {
		names = append(names, cur.Name)
	}

	return strings.Join(names, ".")
}

// TestPath returns the path of t, which is also its row id.
func (idx *Index) TestPath(t *report.Test) string {
	s := idx.testSuite[t]
	if s == nil {
		return t.Name
	}

	return idx.SuitePath(s) + "." + t.Name
}

// HasTests reports whether s transitively owns at least one test.
func (idx *Index) HasTests(s *report.Suite) bool {
	return idx.hasTests[s]
}

// Lookup resolves a row id. Unknown ids return false.
func (idx *Index) Lookup(id string) (ResultRef, bool) {
	ref, ok := idx.rows[id]

	return ref, ok
}

// Suites yields every suite depth-first, parents before children.
func (idx *Index) Suites() iter.Seq[*report.Suite] {
	return func(yield func(*report.Suite) bool) {
		for _, s := range idx.report.Suites {
			if !walkSuites(s, yield) {
				return
			}
		}
	}
}

func walkSuites(s *report.Suite, yield func(*report.Suite) bool) bool {
	if !yield(s) {
		return false
	}

	for _, child := range s.Suites {
		if !walkSuites(child, yield) {
			return false
		}
	}

	return true
}

// Tests yields, for each suite depth-first, its own tests before those of
// its child suites.
func (idx *Index) Tests() iter.Seq[TestRef] {
	return func(yield func(TestRef) bool) {
		for s := range idx.Suites() {
			path := idx.SuitePath(s)

			for _, t := range s.Tests {
				if !yield(TestRef{ID: path + "." + t.Name, Suite: s, Test: t}) {
					return
				}
			}
		}
	}
}

// SuiteResults yields the rows owned directly by s: its setup, its tests
// and its teardown.
func (idx *Index) SuiteResults(s *report.Suite) iter.Seq[ResultRef] {
	return func(yield func(ResultRef) bool) {
		idx.suiteResults(s, idx.SuitePath(s), yield)
	}
}

func (idx *Index) suiteResults(
	s *report.Suite, path string, yield func(ResultRef) bool,
) bool {
	if s.SuiteSetup != nil && !yield(ResultRef{
		ID:     path + report.SuiteSetupSuffix,
		Kind:   KindSuiteSetup,
		Suite:  s,
		Result: s.SuiteSetup,
	}) {
		return false
	}

	for _, t := range s.Tests {
		if !yield(ResultRef{
			ID:     path + "." + t.Name,
			Kind:   KindTest,
			Suite:  s,
			Test:   t,
			Result: &t.Result,
		}) {
			return false
		}
	}

	if s.SuiteTeardown != nil && !yield(ResultRef{
		ID:     path + report.SuiteTeardownSuffix,
		Kind:   KindSuiteTeardown,
		Suite:  s,
		Result: s.SuiteTeardown,
	}) {
		return false
	}

	return true
}

// Results yields every row: the session setup, then for each suite
// depth-first its setup, tests and teardown, then the session teardown.
func (idx *Index) Results() iter.Seq[ResultRef] {
	return func(yield func(ResultRef) bool) {
		r := idx.report

		if r.TestSessionSetup != nil && !yield(ResultRef{
			ID:     report.SessionSetupID,
			Kind:   KindSessionSetup,
			Result: r.TestSessionSetup,
		}) {
			return
		}

		for s := range idx.Suites() {
			if !idx.suiteResults(s, idx.SuitePath(s), yield) {
				return
			}
		}

		if r.TestSessionTeardown != nil {
			yield(ResultRef{
				ID:     report.SessionTeardownID,
				Kind:   KindSessionTeardown,
				Result: r.TestSessionTeardown,
			})
		}
	}
}

// Steps yields every step of every row, in row order.
func (idx *Index) Steps() iter.Seq[StepRef] {
	return func(yield func(StepRef) bool) {
		for ref := range idx.Results() {
			for i, step := range ref.Result.Steps {
				if !yield(StepRef{Owner: ref, Index: i, Step: step}) {
					return
				}
			}
		}
	}
}
