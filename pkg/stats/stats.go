// Package stats derives summary figures from a report: status counts,
// durations, message templates and duration rankings.
package stats

import (
	"fmt"
	"time"

	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

// NotAvailable is displayed for values that are not known yet.
const NotAvailable = "n/a"

// Row is a labelled statistic.
type Row struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Counts partitions the tests by status. In progress tests only count
// toward Total.
type Counts struct {
	Total    int `json:"total" yaml:"total"`
	Passed   int `json:"passed" yaml:"passed"`
	Failed   int `json:"failed" yaml:"failed"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Disabled int `json:"disabled" yaml:"disabled"`
}

// Enabled returns the number of passed, failed and skipped tests.
func (c Counts) Enabled() int {
	return c.Passed + c.Failed + c.Skipped
}

// InProgress returns the number of tests without a final status.
func (c Counts) InProgress() int {
	return c.Total - c.Enabled() - c.Disabled
}

// SuccessfulPercent returns the passed share of enabled tests, truncated.
func (c Counts) SuccessfulPercent() string {
	return Percent(c.Passed, c.Enabled())
}

// Compute counts the tests of idx by status.
func Compute(idx *tree.Index) Counts {
	var c Counts

	for ref := range idx.Tests() {
		c.Total++

		switch ref.Test.Status {
		case report.StatusPassed:
			c.Passed++
		case report.StatusFailed:
			c.Failed++
		case report.StatusSkipped:
			c.Skipped++
		case report.StatusDisabled:
			c.Disabled++
		}
	}

	return c
}

// CumulativeDuration sums the durations of every row with a known end.
func CumulativeDuration(idx *tree.Index) time.Duration {
	var total time.Duration

	for ref := range idx.Results() {
		if d, ok := ref.Result.Duration(); ok {
			total += d
		}
	}

	return total
}

// IsSuccessful reports whether every row, hooks included, passed or was
// disabled.
func IsSuccessful(idx *tree.Index) bool {
	for ref := range idx.Results() {
		switch ref.Result.Status {
		case report.StatusPassed, report.StatusDisabled:
		default:
			return false
		}
	}

	return true
}

// SuiteDuration sums the durations of the tests and hooks owned directly
// by s. It is unknown while any of them is still running.
func SuiteDuration(idx *tree.Index, s *report.Suite) (time.Duration, bool) {
	var total time.Duration

	for ref := range idx.SuiteResults(s) {
		d, ok := ref.Result.Duration()
		if !ok {
			return 0, false
		}

		total += d
	}

	return total, true
}

type options struct {
	loc *time.Location
}

// Option configures Build and BuildMessage.
type Option func(*options)

// WithLocation sets the time zone of displayed timestamps. Local time is
// used by default.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func newOptions(opts []Option) options {
	o := options{loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Build returns the statistics table of the report.
func Build(idx *tree.Index, opts ...Option) []Row {
	o := newOptions(opts)
	r := idx.Report()

	rows := make([]Row, 0, 10)
	rows = append(rows, Row{"Start time", HumanizeDatetime(r.StartTime, o.loc)})

	duration, known := r.Duration()
	if known {
		rows = append(rows,
			Row{"End time", HumanizeDatetime(*r.EndTime, o.loc)},
			Row{"Duration", HumanizeDuration(duration, false)},
		)
	} else {
		rows = append(rows,
			Row{"End time", NotAvailable},
			Row{"Duration", NotAvailable},
		)
	}

	if r.NbThreads > 1 {
		cumulative := CumulativeDuration(idx)
		value := HumanizeDuration(cumulative, false)

		if known && duration > 0 {
			value += fmt.Sprintf(" (parallelization speedup factor is %.1f)",
				cumulative.Seconds()/duration.Seconds())
		}

		rows = append(rows, Row{"Cumulative duration", value})
	}

	c := Compute(idx)

	return append(rows,
		Row{"Tests", fmt.Sprintf("%d", c.Total)},
		Row{"Successful tests", fmt.Sprintf("%d", c.Passed)},
		Row{"Successful tests in %", c.SuccessfulPercent()},
		Row{"Failed tests", fmt.Sprintf("%d", c.Failed)},
		Row{"Skipped tests", fmt.Sprintf("%d", c.Skipped)},
		Row{"Disabled tests", fmt.Sprintf("%d", c.Disabled)},
	)
}
