package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/ethpandaops/reportoor/pkg/filter"
	"github.com/ethpandaops/reportoor/pkg/focus"
)

// Scroll animation of a focused row.
const (
	ScrollDuration = 1500 * time.Millisecond
	ScrollDelay    = 100 * time.Millisecond
)

//go:embed templates/report.html.tmpl
var pageTemplate string

var pageTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"join":  strings.Join,
}).Parse(pageTemplate))

// htmlData is the template input: the page plus the timings shared with
// the page script.
type htmlData struct {
	*Page

	DebounceMs       int64
	DoubleClickMs    int64
	ScrollDurationMs int64
	ScrollDelayMs    int64
}

// Write renders page as a standalone HTML document.
func Write(w io.Writer, page *Page) error {
	data := htmlData{
		Page:             page,
		DebounceMs:       filter.DebounceDelay.Milliseconds(),
		DoubleClickMs:    focus.DoubleClickWindow.Milliseconds(),
		ScrollDurationMs: ScrollDuration.Milliseconds(),
		ScrollDelayMs:    ScrollDelay.Milliseconds(),
	}

	if err := pageTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("executing report template: %w", err)
	}

	return nil
}

// HTML renders page to a byte slice.
func HTML(page *Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, page); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
