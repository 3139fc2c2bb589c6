package viewer

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethpandaops/reportoor/pkg/focus"
)

// Query parameters carrying the view state across requests.
const (
	ParamOnlyFailures = "only_failures"
	ParamDebugLogs    = "debug_logs"
	ParamFilter       = "filter"
	ParamFocus        = "focus"
	ParamScroll       = "scroll"
	ParamCollapsed    = "collapsed"
)

// ErrInvalidQuery is returned for malformed state parameters.
var ErrInvalidQuery = errors.New("invalid view query")

// FromQuery applies the state carried by q. Absent parameters keep the
// current state; an empty focus parameter unfocuses. The filter text is
// applied at once, without debounce.
func (v *Viewer) FromQuery(q url.Values) error {
	v.debouncer.Stop()

	v.mu.Lock()
	defer v.mu.Unlock()

	opts := v.opts

	if err := parseBool(q, ParamOnlyFailures, &opts.OnlyFailures); err != nil {
		return err
	}

	if err := parseBool(q, ParamDebugLogs, &opts.ShowDebugLogs); err != nil {
		return err
	}

	if q.Has(ParamFilter) {
		opts.TestFilter = q.Get(ParamFilter)
	}

	f := v.focus

	if q.Has(ParamFocus) {
		f = focus.Focus{}

		if id := q.Get(ParamFocus); id != "" {
			if ref, ok := v.idx.Lookup(id); ok && len(ref.Result.Steps) > 0 {
				f = focus.Focus{ID: id, ScrollTo: true}
			}
		}
	}

	if err := parseBool(q, ParamScroll, &f.ScrollTo); err != nil {
		return err
	}

	collapsed, err := parseIndexes(q.Get(ParamCollapsed))
	if err != nil {
		return err
	}

	v.opts = opts
	v.input = opts.TestFilter
	v.setFocusLocked(f)

	if q.Has(ParamCollapsed) && f.Active() {
		v.exp = focus.NewStepExpander(v.stepCount(f.ID), collapsed...)
	}

	return nil
}

// ToQuery encodes the current state. Default values are left out.
func (v *Viewer) ToQuery() url.Values {
	v.mu.Lock()
	defer v.mu.Unlock()

	q := url.Values{}

	if v.opts.OnlyFailures {
		q.Set(ParamOnlyFailures, "true")
	}

	if v.opts.ShowDebugLogs {
		q.Set(ParamDebugLogs, "true")
	}

	if v.opts.TestFilter != "" {
		q.Set(ParamFilter, v.opts.TestFilter)
	}

	if v.focus.Active() {
		q.Set(ParamFocus, v.focus.ID)
		q.Set(ParamScroll, strconv.FormatBool(v.focus.ScrollTo))

		if collapsed := v.exp.Collapsed(); len(collapsed) > 0 {
			parts := make([]string, 0, len(collapsed))
			for _, i := range collapsed {
				parts = append(parts, strconv.Itoa(i))
			}

			q.Set(ParamCollapsed, strings.Join(parts, ","))
		}
	}

	return q
}

func parseBool(q url.Values, name string, dst *bool) error {
	if !q.Has(name) {
		return nil
	}

	raw := q.Get(name)
	if raw == "" {
		*dst = true

		return nil
	}

	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidQuery, name, raw)
	}

	*dst = b

	return nil
}

func parseIndexes(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))

	for _, part := range parts {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || i < 0 {
			return nil, fmt.Errorf("%w: %s=%q is not a list of step indexes",
				ErrInvalidQuery, ParamCollapsed, raw)
		}

		out = append(out, i)
	}

	return out, nil
}
