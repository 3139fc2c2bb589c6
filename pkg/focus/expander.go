package focus

import (
	"slices"
	"time"
)

// DoubleClickWindow is the delay within which a second click on the same
// step counts as a double click.
const DoubleClickWindow = 300 * time.Millisecond

// StepExpander tracks the opened state of the steps of the focused row.
// Every step starts opened.
type StepExpander struct {
	opened    []bool
	lastIndex int
	lastClick time.Time
}

// NewStepExpander returns an expander for n steps with the given step
// indexes collapsed.
func NewStepExpander(n int, collapsed ...int) *StepExpander {
	e := &StepExpander{opened: make([]bool, n), lastIndex: -1}
	for i := range e.opened {
		e.opened[i] = true
	}

	for _, i := range collapsed {
		if i >= 0 && i < n {
			e.opened[i] = false
		}
	}

	return e
}

// Len returns the number of tracked steps.
func (e *StepExpander) Len() int {
	return len(e.opened)
}

// Opened reports whether step i is opened. Untracked steps are opened.
func (e *StepExpander) Opened(i int) bool {
	if i < 0 || i >= len(e.opened) {
		return true
	}

	return e.opened[i]
}

// Collapsed returns the indexes of the closed steps.
func (e *StepExpander) Collapsed() []int {
	var out []int

	for i, opened := range e.opened {
		if !opened {
			out = append(out, i)
		}
	}

	return out
}

// Click handles a click on the header of step i at now. A single click
// toggles the step. A second click on the same step within
// DoubleClickWindow sets every step to the state the step is in when the
// second click lands. Every click restarts the window.
func (e *StepExpander) Click(i int, now time.Time) {
	if i < 0 || i >= len(e.opened) {
		return
	}

	if i == e.lastIndex && !e.lastClick.IsZero() && now.Sub(e.lastClick) <= DoubleClickWindow {
		state := e.opened[i]
		for j := range e.opened {
			e.opened[j] = state
		}
	} else {
		e.opened[i] = !e.opened[i]
	}

	e.lastIndex = i
	e.lastClick = now
}

// Reset reopens every step for a row of n steps.
func (e *StepExpander) Reset(n int) {
	*e = *NewStepExpander(n)
}

// Clone returns an independent copy.
func (e *StepExpander) Clone() *StepExpander {
	c := *e
	c.opened = slices.Clone(e.opened)

	return &c
}
