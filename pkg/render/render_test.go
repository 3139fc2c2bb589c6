package render_test

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/reportoor/pkg/filter"
	"github.com/ethpandaops/reportoor/pkg/focus"
	"github.com/ethpandaops/reportoor/pkg/render"
	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/report/reporttest"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

var utc = render.Config{Location: time.UTC}

func buildSample(t *testing.T, opts filter.Options, f focus.Focus, exp *focus.StepExpander) *render.Page {
	t.Helper()

	return render.Build(tree.New(reporttest.Sample(t)), opts, f, exp, utc)
}

func findRow(t *testing.T, page *render.Page, id string) *render.Row {
	t.Helper()

	for _, panel := range page.Panels {
		for _, row := range panel.Rows {
			if row.ID == id {
				return row
			}
		}
	}

	t.Fatalf("row %s not found", id)

	return nil
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status report.Status
		class  string
		label  string
	}{
		{status: report.StatusPassed, class: "text-success", label: "PASSED"},
		{status: report.StatusFailed, class: "text-danger", label: "FAILED"},
		{status: report.StatusDisabled, class: "text-muted", label: "DISABLED"},
		{status: report.StatusSkipped, class: "text-warning", label: "SKIPPED"},
		{status: report.Status("interrupted"), class: "text-warning", label: "INTERRUPTED"},
		{status: report.StatusInProgress, class: "", label: "IN PROGRESS"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.class, render.StatusClass(tt.status))
			assert.Equal(t, tt.label, render.StatusLabel(tt.status))
		})
	}
}

func TestLogLevelClass(t *testing.T) {
	assert.Equal(t, "text-danger", render.LogLevelClass(report.LevelError))
	assert.Equal(t, "text-warning", render.LogLevelClass(report.LevelWarn))
	assert.Equal(t, "text-info", render.LogLevelClass(report.LevelInfo))
	assert.Equal(t, "text-info", render.LogLevelClass(report.LevelDebug))
	assert.Equal(t, "text-info", render.LogLevelClass("custom"))
}

func TestStepFailed(t *testing.T) {
	tests := []struct {
		name    string
		entries report.Entries
		want    bool
	}{
		{name: "empty", want: false},
		{name: "info log and passed check", entries: report.Entries{
			&report.Log{Level: report.LevelInfo}, &report.Check{IsSuccessful: true},
		}, want: false},
		{name: "error log", entries: report.Entries{&report.Log{Level: report.LevelError}}, want: true},
		{name: "warn log", entries: report.Entries{&report.Log{Level: report.LevelWarn}}, want: false},
		{name: "failed check", entries: report.Entries{&report.Check{IsSuccessful: false}}, want: true},
		{name: "attachment and url", entries: report.Entries{&report.Attachment{}, &report.URL{}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render.StepFailed(&report.Step{Entries: tt.entries}))
		})
	}
}

func TestNewEntryRow_HandlesEveryKind(t *testing.T) {
	details := "got 2"
	fixtures := map[report.EntryKind]report.StepEntry{
		report.KindLog:        &report.Log{Level: report.LevelWarn, Message: "careful", Time: reporttest.At(500 * time.Millisecond)},
		report.KindCheck:      &report.Check{Description: "value", Details: &details},
		report.KindAttachment: &report.Attachment{Filename: "a.png", Description: "shot", AsImage: true},
		report.KindURL:        &report.URL{URL: "http://x", Description: "x"},
	}

	cfg := render.Config{Location: time.UTC, AttachmentBaseURL: "files/"}

	for _, kind := range report.EntryKinds() {
		entry, ok := fixtures[kind]
		require.True(t, ok, "no fixture for entry kind %s", kind)

		row, ok := render.NewEntryRow(entry, cfg)
		require.True(t, ok, "kind %s is not rendered", kind)
		assert.Equal(t, kind, row.Kind)
	}

	log, _ := render.NewEntryRow(fixtures[report.KindLog], cfg)
	assert.Equal(t, "WARN", log.Label)
	assert.Equal(t, "text-warning", log.Class)
	assert.Equal(t, "22:57:08.500", log.Time)

	check, _ := render.NewEntryRow(fixtures[report.KindCheck], cfg)
	assert.Equal(t, "CHECK", check.Label)
	assert.Equal(t, "text-danger", check.Class)
	assert.Equal(t, "got 2", check.Details)

	attachment, _ := render.NewEntryRow(fixtures[report.KindAttachment], cfg)
	assert.Equal(t, "files/a.png", attachment.Href)
	assert.True(t, attachment.Image)

	url, _ := render.NewEntryRow(fixtures[report.KindURL], cfg)
	assert.Equal(t, "http://x", url.Href)
}

func TestBuild_Panels(t *testing.T) {
	page := buildSample(t, filter.Options{}, focus.Focus{}, nil)

	assert.Equal(t, "Sample", page.Title)
	assert.Equal(t, "report.js", page.RawDataURL)
	assert.Len(t, page.Info, 2)
	assert.NotEmpty(t, page.Stats)

	ids := make([]string, 0, len(page.Panels))
	for _, panel := range page.Panels {
		ids = append(ids, panel.ID)
	}

	// The empty suite owns no test and gets no panel.
	assert.Equal(t, []string{
		"setup_test_session", "auth", "auth.session", "billing", "billing.invoices", "teardown_test_session",
	}, ids)

	setup := page.Panels[0]
	assert.True(t, setup.Special)
	assert.Equal(t, render.SessionSetupLabel, setup.Heading)
	require.NotNil(t, setup.Time)
	assert.Equal(t, "22:57:08.000", setup.Time.Start)
	assert.Equal(t, "1.000s", setup.Time.Duration)

	auth := page.Panels[1]
	assert.Equal(t, "Authentication", auth.Heading)
	assert.Equal(t, "auth", auth.Subheading)
	assert.Equal(t, []string{"smoke", "priority: high", "owner: team-a"}, auth.Metadata)
	assert.Len(t, auth.Links, 2)
	assert.Equal(t, "5.200s", auth.Duration)
	assert.Nil(t, auth.Time)

	rowIDs := make([]string, 0, len(auth.Rows))
	for _, row := range auth.Rows {
		rowIDs = append(rowIDs, row.ID)
	}

	assert.Equal(t, []string{
		"auth.setup_suite", "auth.login_flow", "auth.password_reset", "auth.teardown_suite",
	}, rowIDs)
	assert.Equal(t, render.SuiteSetupLabel, auth.Rows[0].Description)
	assert.Equal(t, render.SuiteTeardownLabel, auth.Rows[3].Description)

	nested := page.Panels[2]
	assert.Equal(t, "Authentication > Session", nested.Heading)
	assert.Equal(t, "auth.session", nested.Subheading)

	assert.Equal(t, "in progress", page.Panels[4].Duration, "open test makes the suite duration unknown")
}

func TestBuild_Rows(t *testing.T) {
	page := buildSample(t, filter.Options{}, focus.Focus{}, nil)

	login := findRow(t, page, "auth.login_flow")
	assert.Equal(t, "User login flow", login.Description)
	assert.Equal(t, "auth.login_flow", login.Path)
	assert.Equal(t, "text-success", login.StatusClass)
	assert.Equal(t, "PASSED", login.StatusLabel)
	assert.True(t, login.Expandable)
	assert.False(t, login.Focused)
	assert.Equal(t, []string{"ui"}, login.Tags)
	assert.Equal(t, render.TimeInfo{Start: "22:57:09.500", Duration: "1.500s", Ended: true}, login.Time)
	require.Len(t, login.Steps, 2)
	assert.False(t, login.Steps[0].Failed)

	reset := findRow(t, page, "auth.password_reset")
	assert.Equal(t, "boom", reset.StatusDetails)
	assert.True(t, reset.Steps[0].Failed)

	keepalive := findRow(t, page, "auth.session.keepalive")
	assert.False(t, keepalive.Expandable, "a row without steps has no expand affordance")
	assert.Equal(t, "text-warning", keepalive.StatusClass)

	create := findRow(t, page, "billing.invoices.create")
	assert.Equal(t, "IN PROGRESS", create.StatusLabel)
	assert.Equal(t, "", create.StatusClass)
	assert.False(t, create.Time.Ended)
	assert.Empty(t, create.Time.Duration)
}

func TestBuild_Focus(t *testing.T) {
	t.Run("focused row shows its steps", func(t *testing.T) {
		page := buildSample(t, filter.Options{}, focus.Focus{ID: "auth.login_flow", ScrollTo: true}, nil)

		login := findRow(t, page, "auth.login_flow")
		assert.True(t, login.Focused)
		assert.True(t, login.ScrollTo)
		assert.Len(t, slices.Collect(login.DisplayedSteps()), 2)

		other := findRow(t, page, "auth.password_reset")
		assert.False(t, other.Focused)
		assert.Empty(t, slices.Collect(other.DisplayedSteps()))
	})

	t.Run("exactly one focused row", func(t *testing.T) {
		f := focus.Focus{}.Toggle("auth.login_flow").Toggle("auth.password_reset")
		page := buildSample(t, filter.Options{}, f, nil)

		var focused []string

		for _, panel := range page.Panels {
			for _, row := range panel.Rows {
				if row.Focused {
					focused = append(focused, row.ID)
				}
			}
		}

		assert.Equal(t, []string{"auth.password_reset"}, focused)
	})

	t.Run("row without steps cannot hold the focus", func(t *testing.T) {
		page := buildSample(t, filter.Options{}, focus.Focus{ID: "auth.session.keepalive"}, nil)

		assert.False(t, findRow(t, page, "auth.session.keepalive").Focused)
	})

	t.Run("expander applies to the focused row", func(t *testing.T) {
		exp := focus.NewStepExpander(2, 1)
		page := buildSample(t, filter.Options{}, focus.Focus{ID: "auth.login_flow"}, exp)

		login := findRow(t, page, "auth.login_flow")
		assert.True(t, login.Steps[0].Opened)
		assert.False(t, login.Steps[1].Opened)

		reset := findRow(t, page, "auth.password_reset")
		assert.True(t, reset.Steps[0].Opened)
	})
}

func TestBuild_Filter(t *testing.T) {
	t.Run("only failures", func(t *testing.T) {
		page := buildSample(t, filter.Options{OnlyFailures: true}, focus.Focus{}, nil)

		var visible []string

		for _, panel := range page.Panels {
			for row := range panel.DisplayedRows() {
				visible = append(visible, row.ID)
			}
		}

		assert.Equal(t, []string{"auth.password_reset"}, visible)

		var visiblePanels []string

		for _, panel := range page.Panels {
			if panel.Visible {
				visiblePanels = append(visiblePanels, panel.ID)
			}
		}

		assert.Equal(t, []string{"auth"}, visiblePanels)
	})

	t.Run("text filter hides hooks", func(t *testing.T) {
		page := buildSample(t, filter.Options{TestFilter: "login"}, focus.Focus{}, nil)

		assert.False(t, page.Panels[0].Visible)
		assert.False(t, findRow(t, page, "auth.setup_suite").Visible)
		assert.True(t, findRow(t, page, "auth.login_flow").Visible)
		assert.False(t, findRow(t, page, "auth.password_reset").Visible)
	})

	t.Run("debug only step is suppressed", func(t *testing.T) {
		f := focus.Focus{ID: "billing.invoices.create"}

		hidden := findRow(t, buildSample(t, filter.Options{}, f, nil), "billing.invoices.create")
		require.Len(t, hidden.Steps, 1)
		assert.False(t, hidden.Steps[0].Visible)
		assert.Empty(t, slices.Collect(hidden.DisplayedSteps()))
		assert.Empty(t, slices.Collect(hidden.Steps[0].DisplayedEntries()))

		shown := findRow(t, buildSample(t, filter.Options{ShowDebugLogs: true}, f, nil), "billing.invoices.create")
		assert.Len(t, slices.Collect(shown.DisplayedSteps()), 1)
	})

	t.Run("debug entries hidden inside a visible step", func(t *testing.T) {
		page := buildSample(t, filter.Options{}, focus.Focus{ID: "auth.login_flow"}, nil)

		open := findRow(t, page, "auth.login_flow").Steps[0]
		assert.True(t, open.Visible)

		entries := slices.Collect(open.DisplayedEntries())
		require.Len(t, entries, 1)
		assert.Equal(t, report.KindCheck, entries[0].Kind)
	})
}

func TestWrite(t *testing.T) {
	page := buildSample(t,
		filter.Options{OnlyFailures: true, TestFilter: "reset"},
		focus.Focus{ID: "auth.password_reset", ScrollTo: true},
		nil,
	)
	page.Title = `Sample <script>alert(1)</script>`

	html, err := render.HTML(page)
	require.NoError(t, err)

	out := string(html)

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `id="auth.password_reset"`)
	assert.Contains(t, out, `data-panel="auth"`)
	assert.Contains(t, out, `href="report.js" download="report.js"`)
	assert.Contains(t, out, "Download raw report data")
	assert.Contains(t, out, `id="only-failures" checked`)
	assert.Contains(t, out, `value="reset"`)
	assert.Contains(t, out, "var DEBOUNCE_MS =  500 ;")
	assert.Contains(t, out, "var DOUBLE_CLICK_MS =  300 ;")
	assert.Contains(t, out, "var SCROLL_DURATION_MS =  1500 ;")
	assert.Contains(t, out, "var SCROLL_DELAY_MS =  100 ;")
	assert.Contains(t, out, `focus: "auth.password_reset"`)
	assert.Contains(t, out, "unexpected error")
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.NotContains(t, out, `data-panel="empty"`)
}
