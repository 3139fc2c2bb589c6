package stats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethpandaops/reportoor/pkg/filter"
	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

// Unknown is displayed in rankings for durations that are not known.
const Unknown = "-"

// Table is a titled grid of formatted cells.
type Table struct {
	Title   string     `json:"title" yaml:"title"`
	Headers []string   `json:"headers" yaml:"headers"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Markdown renders the table as a markdown section.
func (t *Table) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## %s\n\n", t.Title)

	if len(t.Rows) == 0 {
		sb.WriteString("No data.\n")

		return sb.String()
	}

	fmt.Fprintf(&sb, "| %s |\n", strings.Join(t.Headers, " | "))

	seps := make([]string, len(t.Headers))
	for i := range seps {
		seps[i] = "---"
	}

	fmt.Fprintf(&sb, "|%s|\n", strings.Join(seps, "|"))

	for _, row := range t.Rows {
		fmt.Fprintf(&sb, "| %s |\n", strings.Join(row, " | "))
	}

	return sb.String()
}

type ranked struct {
	cells    []string
	duration time.Duration
	known    bool
}

// sortRanked orders by decreasing duration, unknown durations last. Ties
// keep report order.
func sortRanked(items []ranked) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].known != items[j].known {
			return items[i].known
		}

		return items[i].duration > items[j].duration
	})
}

// TopTests ranks the enabled tests passing opts by duration. Running tests
// are listed last.
func TopTests(idx *tree.Index, opts filter.Options) *Table {
	var (
		items []ranked
		total time.Duration
	)

	for ref := range idx.Results() {
		if ref.Kind != tree.KindTest || ref.Result.Status == report.StatusDisabled ||
			!filter.IsResultToBeDisplayed(ref, opts) {
			continue
		}

		d, ok := ref.Result.Duration()
		if ok {
			total += d
		}

		items = append(items, ranked{cells: []string{ref.ID}, duration: d, known: ok})
	}

	sortRanked(items)

	t := &Table{
		Title:   "Tests, ordered by duration",
		Headers: []string{"Test", "Duration", "In %"},
	}

	for _, it := range items {
		if !it.known {
			t.Rows = append(t.Rows, append(it.cells, Unknown, Unknown))

			continue
		}

		t.Rows = append(t.Rows, append(it.cells,
			HumanizeDuration(it.duration, true), durationPercent(it.duration, total)))
	}

	return t
}

// TopSuites ranks the suites owning tests by their duration.
func TopSuites(idx *tree.Index) *Table {
	var (
		items []ranked
		total time.Duration
	)

	for s := range idx.Suites() {
		if len(s.Tests) == 0 {
			continue
		}

		d, ok := SuiteDuration(idx, s)
		if ok {
			total += d
		}

		items = append(items, ranked{
			cells:    []string{idx.SuitePath(s), strconv.Itoa(len(s.Tests))},
			duration: d,
			known:    ok,
		})
	}

	sortRanked(items)

	t := &Table{
		Title:   "Suites, ordered by duration",
		Headers: []string{"Suite", "Tests Nb.", "Duration", "In %"},
	}

	for _, it := range items {
		if !it.known {
			t.Rows = append(t.Rows, append(it.cells, Unknown, Unknown))

			continue
		}

		t.Rows = append(t.Rows, append(it.cells,
			HumanizeDuration(it.duration, true), durationPercent(it.duration, total)))
	}

	return t
}

type stepGroup struct {
	description string
	count       int
	min, max    time.Duration
	total       time.Duration
}

// TopSteps groups the finished steps by description and ranks the groups
// by cumulated duration.
func TopSteps(idx *tree.Index) *Table {
	var (
		groups []*stepGroup
		total  time.Duration
	)

	byDescription := make(map[string]*stepGroup)

	for ref := range idx.Steps() {
		d, ok := ref.Step.Duration()
		if !ok {
			continue
		}

		desc := singleLine(ref.Step.Description)

		g, found := byDescription[desc]
		if !found {
			g = &stepGroup{description: desc, min: d, max: d}
			byDescription[desc] = g
			groups = append(groups, g)
		}

		g.count++
		g.total += d
		g.min = min(g.min, d)
		g.max = max(g.max, d)
		total += d
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].total > groups[j].total
	})

	t := &Table{
		Title:   "Steps, aggregated and ordered by duration",
		Headers: []string{"Step", "Occ.", "Min.", "Max", "Avg.", "Total", "In %"},
	}

	for _, g := range groups {
		t.Rows = append(t.Rows, []string{
			g.description,
			strconv.Itoa(g.count),
			HumanizeDuration(g.min, true),
			HumanizeDuration(g.max, true),
			HumanizeDuration(g.total/time.Duration(g.count), true),
			HumanizeDuration(g.total, true),
			durationPercent(g.total, total),
		})
	}

	return t
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
