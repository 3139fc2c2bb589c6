package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/reportoor/pkg/filter"
	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/report/reporttest"
	"github.com/ethpandaops/reportoor/pkg/stats"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

func TestHumanizeDuration(t *testing.T) {
	tests := []struct {
		d          time.Duration
		withMillis bool
		want       string
	}{
		{d: 3723 * time.Second, want: "1h02m03s"},
		{d: 125 * time.Second, want: "2m05s"},
		{d: 12 * time.Second, want: "12s"},
		{d: 7300 * time.Millisecond, want: "7s"},
		{d: 512 * time.Millisecond, want: "0.512s"},
		{d: 0, want: "0.000s"},
		{d: 0, withMillis: true, want: "0.000s"},
		{d: 1500 * time.Millisecond, withMillis: true, want: "1.500s"},
		{d: 65250 * time.Millisecond, withMillis: true, want: "1m05.250s"},
		{d: 3725 * time.Second, withMillis: true, want: "1h02m05.000s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, stats.HumanizeDuration(tt.d, tt.withMillis))
		})
	}
}

func TestHumanizeTimestamps(t *testing.T) {
	ts := time.Date(2019, time.May, 4, 22, 57, 8, 399_000_000, time.UTC)

	assert.Equal(t, "Sat May 4 22:57:08 2019", stats.HumanizeDatetime(ts, time.UTC))
	assert.Equal(t, "22:57:08.399", stats.HumanizeTime(ts, time.UTC))

	paris := time.FixedZone("CEST", 2*3600)
	assert.Equal(t, "00:57:08.399", stats.HumanizeTime(ts, paris))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "33%", stats.Percent(1, 3))
	assert.Equal(t, "66%", stats.Percent(2, 3))
	assert.Equal(t, "29%", stats.Percent(29, 100))
	assert.Equal(t, "0%", stats.Percent(5, 0))
}

func TestBuild_Sample(t *testing.T) {
	idx := tree.New(reporttest.Sample(t))

	rows := stats.Build(idx, stats.WithLocation(time.UTC))

	assert.Equal(t, []stats.Row{
		{Label: "Start time", Value: "Sat May 4 22:57:08 2019"},
		{Label: "End time", Value: "Sat May 4 22:57:20 2019"},
		{Label: "Duration", Value: "12s"},
		{Label: "Tests", Value: "5"},
		{Label: "Successful tests", Value: "1"},
		{Label: "Successful tests in %", Value: "33%"},
		{Label: "Failed tests", Value: "1"},
		{Label: "Skipped tests", Value: "1"},
		{Label: "Disabled tests", Value: "1"},
	}, rows)
}

func TestBuild_ThreeTests(t *testing.T) {
	r := reporttest.NewReport(reporttest.NewSuite("s",
		reporttest.NewTest("a", report.StatusPassed),
		reporttest.NewTest("b", report.StatusFailed),
		reporttest.NewTest("c", report.StatusSkipped),
	))
	idx := tree.New(r)

	c := stats.Compute(idx)
	assert.Equal(t, stats.Counts{Total: 3, Passed: 1, Failed: 1, Skipped: 1}, c)
	assert.Equal(t, 3, c.Enabled())
	assert.Equal(t, 0, c.InProgress())

	rows := stats.Build(idx, stats.WithLocation(time.UTC))
	values := make(map[string]string, len(rows))

	for _, row := range rows {
		values[row.Label] = row.Value
	}

	assert.Equal(t, "3", values["Tests"])
	assert.Equal(t, "1", values["Successful tests"])
	assert.Equal(t, "33%", values["Successful tests in %"])
	assert.Equal(t, "1", values["Failed tests"])
	assert.Equal(t, "1", values["Skipped tests"])
	assert.Equal(t, "0", values["Disabled tests"])
	assert.NotContains(t, values, "Cumulative duration")
}

func TestBuild_InProgressReport(t *testing.T) {
	r := reporttest.NewReport(reporttest.NewSuite("s",
		reporttest.NewTest("a", report.StatusPassed),
		reporttest.NewTest("b", report.StatusInProgress),
	))
	r.EndTime = nil
	r.NbThreads = 4

	idx := tree.New(r)
	rows := stats.Build(idx, stats.WithLocation(time.UTC))

	assert.Equal(t, stats.Row{Label: "End time", Value: "n/a"}, rows[1])
	assert.Equal(t, stats.Row{Label: "Duration", Value: "n/a"}, rows[2])
	assert.Equal(t, stats.Row{Label: "Cumulative duration", Value: "2s"}, rows[3],
		"no speed-up factor without a wall-clock duration")

	c := stats.Compute(idx)
	assert.Equal(t, 1, c.InProgress())
	assert.Equal(t, "100%", c.SuccessfulPercent())
}

func TestBuild_CumulativeDuration(t *testing.T) {
	r := reporttest.Sample(t)
	r.NbThreads = 3

	idx := tree.New(r)

	assert.Equal(t, 7300*time.Millisecond, stats.CumulativeDuration(idx))

	rows := stats.Build(idx, stats.WithLocation(time.UTC))
	require.Len(t, rows, 10)
	assert.Equal(t, stats.Row{
		Label: "Cumulative duration",
		Value: "7s (parallelization speedup factor is 0.6)",
	}, rows[3])
}

func TestIsSuccessful(t *testing.T) {
	tests := []struct {
		name     string
		statuses []report.Status
		want     bool
	}{
		{name: "passed and disabled", statuses: []report.Status{report.StatusPassed, report.StatusDisabled}, want: true},
		{name: "failed", statuses: []report.Status{report.StatusPassed, report.StatusFailed}, want: false},
		{name: "skipped", statuses: []report.Status{report.StatusSkipped}, want: false},
		{name: "in progress", statuses: []report.Status{report.StatusInProgress}, want: false},
		{name: "empty", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suite := reporttest.NewSuite("s")
			for i, status := range tt.statuses {
				suite.Tests = append(suite.Tests, reporttest.NewTest(string(rune('a'+i)), status))
			}

			assert.Equal(t, tt.want, stats.IsSuccessful(tree.New(reporttest.NewReport(suite))))
		})
	}

	t.Run("failed hook", func(t *testing.T) {
		r := reporttest.NewReport(reporttest.NewSuite("s", reporttest.NewTest("a", report.StatusPassed)))
		r.TestSessionTeardown = &report.Result{Status: report.StatusFailed}

		assert.False(t, stats.IsSuccessful(tree.New(r)))
	})
}

func TestSuiteDuration(t *testing.T) {
	r := reporttest.Sample(t)
	idx := tree.New(r)

	d, ok := stats.SuiteDuration(idx, r.Suites[0])
	require.True(t, ok)
	assert.Equal(t, 5200*time.Millisecond, d, "tests plus suite hooks")

	d, ok = stats.SuiteDuration(idx, r.Suites[2])
	require.True(t, ok)
	assert.Zero(t, d)

	_, ok = stats.SuiteDuration(idx, r.Suites[2].Suites[0])
	assert.False(t, ok, "running test makes the suite duration unknown")
}

func TestBuildMessage(t *testing.T) {
	idx := tree.New(reporttest.Sample(t))

	tests := []struct {
		template string
		want     string
	}{
		{template: "{passed}/{enabled} passed ({passed_pct})", want: "1/3 passed (33%)"},
		{template: "{disabled} of {total} disabled ({disabled_pct})", want: "1 of 5 disabled (20%)"},
		{template: "{failed_pct} {skipped_pct}", want: "33% 33%"},
		{template: "from {start_time} to {end_time} in {duration}", want: "from Sat May  4 22:57:08 2019 to Sat May  4 22:57:20 2019 in 12s"},
		{template: "{{literal}}", want: "{literal}"},
		{template: "no variables", want: "no variables"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			got, err := stats.BuildMessage(idx, tt.template, stats.WithLocation(time.UTC))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckMessageTemplate(t *testing.T) {
	for _, name := range stats.MessageVariables {
		assert.NoError(t, stats.CheckMessageTemplate("{"+name+"}"))
	}

	for _, template := range []string{"{foo}", "{passed", "passed}", "{}"} {
		err := stats.CheckMessageTemplate(template)
		require.Error(t, err, template)
		assert.ErrorIs(t, err, stats.ErrInvalidTemplate)
	}
}

func TestTopTests(t *testing.T) {
	idx := tree.New(reporttest.Sample(t))

	table := stats.TopTests(idx, filter.Options{})
	assert.Equal(t, []string{"Test", "Duration", "In %"}, table.Headers)
	assert.Equal(t, [][]string{
		{"auth.password_reset", "3.000s", "65%"},
		{"auth.login_flow", "1.500s", "32%"},
		{"auth.session.keepalive", "0.100s", "2%"},
		{"billing.invoices.create", "-", "-"},
	}, table.Rows)

	failures := stats.TopTests(idx, filter.Options{OnlyFailures: true})
	assert.Equal(t, [][]string{{"auth.password_reset", "3.000s", "100%"}}, failures.Rows)
}

func TestTopSuites(t *testing.T) {
	idx := tree.New(reporttest.Sample(t))

	table := stats.TopSuites(idx)
	assert.Equal(t, [][]string{
		{"auth", "2", "5.200s", "98%"},
		{"auth.session", "1", "0.100s", "1%"},
		{"billing", "1", "0.000s", "0%"},
		{"billing.invoices", "1", "-", "-"},
	}, table.Rows)
}

func TestTopSteps(t *testing.T) {
	idx := tree.New(reporttest.Sample(t))

	table := stats.TopSteps(idx)
	assert.Equal(t, []string{"Step", "Occ.", "Min.", "Max", "Avg.", "Total", "In %"}, table.Headers)
	assert.Equal(t, [][]string{
		{"Reset", "1", "3.000s", "3.000s", "3.000s", "3.000s", "54%"},
		{"Setup session", "1", "1.000s", "1.000s", "1.000s", "1.000s", "18%"},
		{"Submit", "1", "1.000s", "1.000s", "1.000s", "1.000s", "18%"},
		{"Open page", "1", "0.500s", "0.500s", "0.500s", "0.500s", "9%"},
	}, table.Rows)
}

func TestTopSteps_GroupsByDescription(t *testing.T) {
	test := reporttest.NewTest("t", report.StatusPassed)
	test.Steps = []*report.Step{
		{Description: "Same\nstep", StartTime: reporttest.At(0), EndTime: reporttest.AtPtr(time.Second)},
		{Description: "Same step", StartTime: reporttest.At(0), EndTime: reporttest.AtPtr(3 * time.Second)},
	}

	table := stats.TopSteps(tree.New(reporttest.NewReport(reporttest.NewSuite("s", test))))

	assert.Equal(t, [][]string{
		{"Same step", "2", "1.000s", "3.000s", "2.000s", "4.000s", "100%"},
	}, table.Rows)
}

func TestTable_Markdown(t *testing.T) {
	table := &stats.Table{
		Title:   "Tests, ordered by duration",
		Headers: []string{"Test", "Duration"},
		Rows:    [][]string{{"a.b", "1.000s"}},
	}

	assert.Equal(t,
		"## Tests, ordered by duration\n\n| Test | Duration |\n|---|---|\n| a.b | 1.000s |\n",
		table.Markdown())

	empty := &stats.Table{Title: "Empty"}
	assert.Equal(t, "## Empty\n\nNo data.\n", empty.Markdown())
}
