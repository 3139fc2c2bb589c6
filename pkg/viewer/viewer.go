// Package viewer owns the interactive state of one rendered report: the
// display options, the focused row and the step expansion of that row.
// Every interaction updates the state and Page renders a snapshot of it.
package viewer

import (
	"sync"
	"time"

	"github.com/ethpandaops/reportoor/pkg/filter"
	"github.com/ethpandaops/reportoor/pkg/focus"
	"github.com/ethpandaops/reportoor/pkg/render"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

// Config holds the viewer settings.
type Config struct {
	Render render.Config
	// ScrollOnSingleTest scrolls to the test of a single-test report when
	// it is focused on mount.
	ScrollOnSingleTest bool
	// DebounceOptions configure the filter text debouncer.
	DebounceOptions []filter.DebouncerOption
}

// Viewer is safe for concurrent use: the debounced filter commit runs on
// a timer goroutine.
type Viewer struct {
	idx       *tree.Index
	cfg       Config
	debouncer *filter.Debouncer

	mu    sync.Mutex
	opts  filter.Options
	focus focus.Focus
	exp   *focus.StepExpander
	input string
}

// New returns an unmounted viewer: no filter and no focus.
func New(idx *tree.Index, cfg Config) *Viewer {
	v := &Viewer{
		idx: idx,
		cfg: cfg,
		exp: focus.NewStepExpander(0),
	}

	v.debouncer = filter.NewDebouncer(v.commitFilter, cfg.DebounceOptions...)

	return v
}

// Mount applies the initial focus derived from the url fragment.
func (v *Viewer) Mount(fragment string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.setFocusLocked(focus.Initial(v.idx, fragment, v.cfg.ScrollOnSingleTest))
}

// ClickStatus toggles the focus of row id. Rows without steps and unknown
// ids are ignored.
func (v *Viewer) ClickStatus(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ref, ok := v.idx.Lookup(id)
	if !ok || len(ref.Result.Steps) == 0 {
		return
	}

	v.setFocusLocked(v.focus.Toggle(id))
}

// ClickStep handles a click on step i of the focused row.
func (v *Viewer) ClickStep(i int, now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.focus.Active() {
		return
	}

	v.exp.Click(i, now)
}

// SetOnlyFailures sets the only-failures option.
func (v *Viewer) SetOnlyFailures(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.opts.OnlyFailures = on
	v.focus = v.focus.WithoutScroll()
}

// SetShowDebugLogs sets the debug logs option.
func (v *Viewer) SetShowDebugLogs(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.opts.ShowDebugLogs = on
	v.focus = v.focus.WithoutScroll()
}

// TypeFilter records the filter input text. The text filter is applied
// once typing pauses.
func (v *Viewer) TypeFilter(text string) {
	v.mu.Lock()
	v.input = text
	v.mu.Unlock()

	v.debouncer.Input(text)
}

// PressEnter applies the filter input text now.
func (v *Viewer) PressEnter() {
	v.debouncer.Enter(v.Input())
}

// Input returns the filter input text, applied or not.
func (v *Viewer) Input() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.input
}

// Reset drops every option, the focus and any pending filter commit.
func (v *Viewer) Reset() {
	v.debouncer.Stop()

	v.mu.Lock()
	defer v.mu.Unlock()

	v.opts = filter.Options{}
	v.input = ""
	v.setFocusLocked(focus.Focus{})
}

// Close stops the pending filter commit.
func (v *Viewer) Close() {
	v.debouncer.Stop()
}

// Options returns the applied display options.
func (v *Viewer) Options() filter.Options {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.opts
}

// Focus returns the focused row.
func (v *Viewer) Focus() focus.Focus {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.focus
}

// Page renders the current state.
func (v *Viewer) Page() *render.Page {
	v.mu.Lock()
	opts, f, exp := v.opts, v.focus, v.exp.Clone()
	v.mu.Unlock()

	return render.Build(v.idx, opts, f, exp, v.cfg.Render)
}

func (v *Viewer) commitFilter(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.opts.TestFilter = text
	v.input = text
	v.focus = v.focus.WithoutScroll()
}

// setFocusLocked moves the focus and reopens every step of the newly
// focused row.
func (v *Viewer) setFocusLocked(f focus.Focus) {
	if f.ID != v.focus.ID || v.exp.Len() == 0 {
		v.exp.Reset(v.stepCount(f.ID))
	}

	v.focus = f
}

func (v *Viewer) stepCount(id string) int {
	if id == "" {
		return 0
	}

	ref, ok := v.idx.Lookup(id)
	if !ok {
		return 0
	}

	return len(ref.Result.Steps)
}
