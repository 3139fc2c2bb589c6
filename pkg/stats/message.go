package stats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethpandaops/reportoor/pkg/tree"
)

// ErrInvalidTemplate is returned for malformed message templates.
var ErrInvalidTemplate = errors.New("invalid report message template")

// MessageVariables lists the placeholders available in message templates.
var MessageVariables = []string{
	"start_time", "end_time", "duration",
	"total", "enabled",
	"passed", "passed_pct",
	"failed", "failed_pct",
	"skipped", "skipped_pct",
	"disabled", "disabled_pct",
}

// CheckMessageTemplate validates a template such as
// "{passed}/{enabled} passed ({passed_pct})" without a report.
func CheckMessageTemplate(template string) error {
	vars := make(map[string]string, len(MessageVariables))
	for _, name := range MessageVariables {
		vars[name] = ""
	}

	_, err := expand(template, vars)

	return err
}

// BuildMessage expands the {variable} placeholders of template. Braces are
// escaped by doubling them.
func BuildMessage(idx *tree.Index, template string, opts ...Option) (string, error) {
	return expand(template, messageVariables(idx, newOptions(opts)))
}

func messageVariables(idx *tree.Index, o options) map[string]string {
	r := idx.Report()
	c := Compute(idx)

	vars := map[string]string{
		"start_time":   r.StartTime.In(o.loc).Format(time.ANSIC),
		"end_time":     NotAvailable,
		"duration":     NotAvailable,
		"total":        strconv.Itoa(c.Total),
		"enabled":      strconv.Itoa(c.Enabled()),
		"passed":       strconv.Itoa(c.Passed),
		"passed_pct":   Percent(c.Passed, c.Enabled()),
		"failed":       strconv.Itoa(c.Failed),
		"failed_pct":   Percent(c.Failed, c.Enabled()),
		"skipped":      strconv.Itoa(c.Skipped),
		"skipped_pct":  Percent(c.Skipped, c.Enabled()),
		"disabled":     strconv.Itoa(c.Disabled),
		"disabled_pct": Percent(c.Disabled, c.Total),
	}

	if d, ok := r.Duration(); ok {
		vars["end_time"] = r.EndTime.In(o.loc).Format(time.ANSIC)
		vars["duration"] = HumanizeDuration(d, false)
	}

	return vars
}

func expand(template string, vars map[string]string) (string, error) {
	var sb strings.Builder

	sb.Grow(len(template))

	for i := 0; i < len(template); i++ {
		ch := template[i]

		switch {
		case ch == '{' && i+1 < len(template) && template[i+1] == '{':
			sb.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(template) && template[i+1] == '}':
			sb.WriteByte('}')
			i++
		case ch == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' at offset %d", ErrInvalidTemplate, i)
			}

			name := template[i+1 : i+1+end]

			value, ok := vars[name]
			if !ok {
				return "", fmt.Errorf("%w: unknown variable %q", ErrInvalidTemplate, name)
			}

			sb.WriteString(value)
			i += end + 1
		case ch == '}':
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrInvalidTemplate, i)
		default:
			sb.WriteByte(ch)
		}
	}

	return sb.String(), nil
}
