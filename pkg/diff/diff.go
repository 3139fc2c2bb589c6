// Package diff compares the tests of two reports by path.
package diff

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

// Diff lists the changes from a base report to a target report. Paths are
// sorted.
type Diff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	// StatusChanged maps the base status to the target status to the paths
	// of the tests that moved between them.
	StatusChanged map[report.Status]map[report.Status][]string `json:"status_changed"`
}

// Compute returns the changes from a to b.
func Compute(a, b *tree.Index) *Diff {
	before := statuses(a)
	after := statuses(b)

	d := &Diff{StatusChanged: make(map[report.Status]map[report.Status][]string)}

	for path, from := range before {
		to, ok := after[path]
		if !ok {
			d.Removed = append(d.Removed, path)

			continue
		}

		if from == to {
			continue
		}

		if d.StatusChanged[from] == nil {
			d.StatusChanged[from] = make(map[report.Status][]string)
		}

		d.StatusChanged[from][to] = append(d.StatusChanged[from][to], path)
	}

	for path := range after {
		if _, ok := before[path]; !ok {
			d.Added = append(d.Added, path)
		}
	}

	slices.Sort(d.Added)
	slices.Sort(d.Removed)

	for _, tos := range d.StatusChanged {
		for _, paths := range tos {
			slices.Sort(paths)
		}
	}

	return d
}

// IsEmpty reports whether both reports hold the same tests with the same
// statuses.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.StatusChanged) == 0
}

// Change is one status transition.
type Change struct {
	From  report.Status
	To    report.Status
	Paths []string
}

// Changes returns the status transitions sorted by from then to status.
func (d *Diff) Changes() []Change {
	out := make([]Change, 0, len(d.StatusChanged))

	for from, tos := range d.StatusChanged {
		for to, paths := range tos {
			out = append(out, Change{From: from, To: to, Paths: paths})
		}
	}

	slices.SortFunc(out, func(x, y Change) int {
		if c := strings.Compare(string(x.From), string(y.From)); c != 0 {
			return c
		}

		return strings.Compare(string(x.To), string(y.To))
	})

	return out
}

// Markdown renders the diff as markdown sections.
func (d *Diff) Markdown() string {
	if d.IsEmpty() {
		return "No changes.\n"
	}

	var sb strings.Builder

	writeList(&sb, "Added tests", d.Added)
	writeList(&sb, "Removed tests", d.Removed)

	for _, c := range d.Changes() {
		writeList(&sb, fmt.Sprintf("%s → %s", statusName(c.From), statusName(c.To)), c.Paths)
	}

	return sb.String()
}

func writeList(sb *strings.Builder, title string, paths []string) {
	if len(paths) == 0 {
		return
	}

	fmt.Fprintf(sb, "## %s (%d)\n\n", title, len(paths))

	for _, p := range paths {
		fmt.Fprintf(sb, "- %s\n", p)
	}

	sb.WriteString("\n")
}

func statusName(s report.Status) string {
	if s == report.StatusInProgress {
		return "in progress"
	}

	return string(s)
}

func statuses(idx *tree.Index) map[string]report.Status {
	out := make(map[string]report.Status, idx.TestCount())

	for ref := range idx.Tests() {
		out[ref.ID] = ref.Test.Status
	}

	return out
}
