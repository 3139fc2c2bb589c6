// Package render maps an indexed report and the view state (filter, focus,
// step expansion) to row descriptors, and writes them as an HTML page.
// Building descriptors has no side effects.
package render

import (
	"iter"
	"strings"
	"time"

	"github.com/ethpandaops/reportoor/pkg/filter"
	"github.com/ethpandaops/reportoor/pkg/focus"
	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/stats"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

// Row descriptions of hook rows.
const (
	SessionSetupLabel    = "- Setup test session -"
	SessionTeardownLabel = "- Teardown test session -"
	SuiteSetupLabel      = "- Setup suite -"
	SuiteTeardownLabel   = "- Teardown suite -"
)

// Config holds the presentation settings of a page.
type Config struct {
	// Location is the time zone of displayed times. Defaults to local time.
	Location *time.Location
	// RawDataURL is the href of the raw report download link.
	RawDataURL string
	// AttachmentBaseURL prefixes attachment filenames.
	AttachmentBaseURL string
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}

	return c.Location
}

// Page is the whole rendered report.
type Page struct {
	Title      string
	Info       []stats.Row
	Stats      []stats.Row
	RawDataURL string
	Options    filter.Options
	Focus      focus.Focus
	Panels     []*Panel
}

// Panel is a card holding a table of rows: one per suite owning tests,
// plus one per session hook.
type Panel struct {
	ID         string
	Heading    string
	Subheading string
	Special    bool
	Metadata   []string
	Links      []report.Link
	// Duration is the humanized suite duration, empty for session panels.
	Duration string
	Time     *TimeInfo
	Rows     []*Row
	Visible  bool
}

// DisplayedRows yields the rows passing the filter.
func (p *Panel) DisplayedRows() iter.Seq[*Row] {
	return func(yield func(*Row) bool) {
		for _, row := range p.Rows {
			if row.Visible && !yield(row) {
				return
			}
		}
	}
}

// TimeInfo is the start time and, once ended, the duration of an interval.
type TimeInfo struct {
	Start    string
	Duration string
	Ended    bool
}

// Row is a test or hook result.
type Row struct {
	ID            string
	Kind          tree.ResultKind
	Description   string
	Path          string
	Status        report.Status
	StatusClass   string
	StatusLabel   string
	StatusDetails string
	Expandable    bool
	Focused       bool
	ScrollTo      bool
	Visible       bool
	Tags          []string
	Properties    []string
	Links         []report.Link
	Time          TimeInfo
	Steps         []*StepRow
}

// Hook reports whether the row is a setup or teardown.
func (r *Row) Hook() bool {
	return r.Kind.IsHook()
}

// DisplayedSteps yields the steps shown when the row is focused.
func (r *Row) DisplayedSteps() iter.Seq[*StepRow] {
	return func(yield func(*StepRow) bool) {
		if !r.Focused {
			return
		}

		for _, step := range r.Steps {
			if step.Visible && !yield(step) {
				return
			}
		}
	}
}

// StepRow is a step header and its entries.
type StepRow struct {
	Index       int
	Description string
	Failed      bool
	Opened      bool
	Visible     bool
	Time        TimeInfo
	Entries     []*EntryRow
}

// DisplayedEntries yields the entries passing the filter.
func (s *StepRow) DisplayedEntries() iter.Seq[*EntryRow] {
	return func(yield func(*EntryRow) bool) {
		for _, entry := range s.Entries {
			if entry.Visible && !yield(entry) {
				return
			}
		}
	}
}

// EntryRow is a step entry.
type EntryRow struct {
	Kind    report.EntryKind
	Label   string
	Class   string
	Message string
	Details string
	Time    string
	Href    string
	Image   bool
	Debug   bool
	Visible bool
}

type builder struct {
	idx  *tree.Index
	opts filter.Options
	f    focus.Focus
	exp  *focus.StepExpander
	cfg  Config
	loc  *time.Location
}

// Build produces the page descriptors. Every row is described; rows,
// steps and entries rejected by opts are marked invisible so the page can
// switch them on without a round trip. exp holds the step states of the
// focused row and may be nil.
func Build(
	idx *tree.Index,
	opts filter.Options,
	f focus.Focus,
	exp *focus.StepExpander,
	cfg Config,
) *Page {
	b := &builder{idx: idx, opts: opts, f: f, exp: exp, cfg: cfg, loc: cfg.location()}
	r := idx.Report()

	page := &Page{
		Title:      r.DisplayTitle(),
		Stats:      stats.Build(idx, stats.WithLocation(b.loc)),
		RawDataURL: cfg.RawDataURL,
		Options:    opts,
		Focus:      f,
	}

	if page.RawDataURL == "" {
		page.RawDataURL = report.JSFilename
	}

	for _, info := range r.Info {
		if len(info) == 2 {
			page.Info = append(page.Info, stats.Row{Label: info[0], Value: info[1]})
		}
	}

	if r.TestSessionSetup != nil {
		page.Panels = append(page.Panels, b.sessionPanel(report.SessionSetupID))
	}

	for s := range idx.Suites() {
		if !idx.HasTests(s) {
			continue
		}

		if panel := b.suitePanel(s); panel != nil {
			page.Panels = append(page.Panels, panel)
		}
	}

	if r.TestSessionTeardown != nil {
		page.Panels = append(page.Panels, b.sessionPanel(report.SessionTeardownID))
	}

	return page
}

func (b *builder) sessionPanel(id string) *Panel {
	ref, _ := b.idx.Lookup(id)
	row := b.row(ref)

	t := row.Time

	return &Panel{
		ID:      id,
		Heading: row.Description,
		Special: true,
		Time:    &t,
		Rows:    []*Row{row},
		Visible: row.Visible,
	}
}

func (b *builder) suitePanel(s *report.Suite) *Panel {
	chain := b.idx.Hierarchy(s)
	descriptions := make([]string, 0, len(chain))

	for _, cur := range chain {
		descriptions = append(descriptions, cur.Description)
	}

	panel := &Panel{
		ID:         b.idx.SuitePath(s),
		Heading:    strings.Join(descriptions, " > "),
		Subheading: b.idx.SuitePath(s),
		Metadata:   append(append([]string{}, s.Tags...), propertyLines(s.Properties)...),
		Links:      s.Links,
	}

	if d, ok := stats.SuiteDuration(b.idx, s); ok {
		panel.Duration = stats.HumanizeDuration(d, true)
	} else {
		panel.Duration = strings.ToLower(InProgressLabel)
	}

	for ref := range b.idx.SuiteResults(s) {
		row := b.row(ref)
		panel.Rows = append(panel.Rows, row)
		panel.Visible = panel.Visible || row.Visible
	}

	if len(panel.Rows) == 0 {
		return nil
	}

	return panel
}

func propertyLines(props report.Properties) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, p.Name+": "+p.Value)
	}

	return out
}

func hookLabel(kind tree.ResultKind) string {
	switch kind {
	case tree.KindSessionSetup:
		return SessionSetupLabel
	case tree.KindSessionTeardown:
		return SessionTeardownLabel
	case tree.KindSuiteSetup:
		return SuiteSetupLabel
	case tree.KindSuiteTeardown:
		return SuiteTeardownLabel
	default:
		return ""
	}
}

func (b *builder) row(ref tree.ResultRef) *Row {
	res := ref.Result

	row := &Row{
		ID:          ref.ID,
		Kind:        ref.Kind,
		Status:      res.Status,
		StatusClass: StatusClass(res.Status),
		StatusLabel: StatusLabel(res.Status),
		Expandable:  len(res.Steps) > 0,
		Visible:     filter.IsResultToBeDisplayed(ref, b.opts),
		Time:        b.timeInfo(res.StartTime, res.EndTime),
	}

	if res.StatusDetails != nil {
		row.StatusDetails = *res.StatusDetails
	}

	if ref.Test != nil {
		row.Description = ref.Test.Description
		row.Path = ref.ID
		row.Tags = ref.Test.Tags
		row.Properties = propertyLines(ref.Test.Properties)
		row.Links = ref.Test.Links
	} else {
		row.Description = hookLabel(ref.Kind)
	}

	// Only an expandable row can hold the focus.
	row.Focused = row.Expandable && b.f.IsFocused(ref.ID)
	row.ScrollTo = row.Focused && b.f.ScrollTo

	for i, step := range res.Steps {
		row.Steps = append(row.Steps, b.step(row.Focused, i, step))
	}

	return row
}

func (b *builder) step(focused bool, i int, step *report.Step) *StepRow {
	sr := &StepRow{
		Index:       i,
		Description: step.Description,
		Failed:      StepFailed(step),
		Opened:      true,
		Time:        b.timeInfo(step.StartTime, step.EndTime),
	}

	if focused && b.exp != nil {
		sr.Opened = b.exp.Opened(i)
	}

	for _, entry := range step.Entries {
		er, ok := NewEntryRow(entry, b.cfg)
		if !ok {
			continue
		}

		er.Visible = filter.IsStepEntryToBeDisplayed(entry, b.opts)
		sr.Visible = sr.Visible || er.Visible
		sr.Entries = append(sr.Entries, er)
	}

	return sr
}

func (b *builder) timeInfo(start time.Time, end *time.Time) TimeInfo {
	ti := TimeInfo{Start: stats.HumanizeTime(start, b.loc)}

	if end != nil {
		ti.Ended = true
		ti.Duration = stats.HumanizeDuration(end.Sub(start), true)
	}

	return ti
}

// NewEntryRow describes a step entry. It returns false for entry kinds the
// page cannot display. Visibility is left to the caller.
func NewEntryRow(entry report.StepEntry, cfg Config) (*EntryRow, bool) {
	switch e := entry.(type) {
	case *report.Log:
		return &EntryRow{
			Kind:    report.KindLog,
			Label:   strings.ToUpper(e.Level),
			Class:   LogLevelClass(e.Level),
			Message: e.Message,
			Time:    stats.HumanizeTime(e.Time, cfg.location()),
			Debug:   e.Level == report.LevelDebug,
		}, true
	case *report.Check:
		er := &EntryRow{
			Kind:    report.KindCheck,
			Label:   "CHECK",
			Class:   "text-success",
			Message: e.Description,
		}

		if !e.IsSuccessful {
			er.Class = "text-danger"
		}

		if e.Details != nil {
			er.Details = *e.Details
		}

		return er, true
	case *report.Attachment:
		return &EntryRow{
			Kind:    report.KindAttachment,
			Label:   "ATTACHMENT",
			Class:   "text-info",
			Message: e.Description,
			Href:    cfg.AttachmentBaseURL + e.Filename,
			Image:   e.AsImage,
		}, true
	case *report.URL:
		return &EntryRow{
			Kind:    report.KindURL,
			Label:   "URL",
			Class:   "text-info",
			Message: e.Description,
			Href:    e.URL,
		}, true
	default:
		return nil, false
	}
}
