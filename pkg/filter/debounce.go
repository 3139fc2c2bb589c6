package filter

import (
	"sync"
	"time"
)

// DebounceDelay is the inactivity delay after which typed filter text is
// applied.
const DebounceDelay = 500 * time.Millisecond

// Timer is a pending commit.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer commits the last typed text once typing pauses for the delay,
// or immediately on Enter. A keystroke supersedes the pending commit.
type Debouncer struct {
	mu        sync.Mutex
	delay     time.Duration
	afterFunc AfterFunc
	commit    func(text string)
	pending   Timer
	text      string
	seq       uint64
}

// DebouncerOption configures a Debouncer.
type DebouncerOption func(*Debouncer)

// WithDelay overrides DebounceDelay.
func WithDelay(d time.Duration) DebouncerOption {
	return func(db *Debouncer) {
		db.delay = d
	}
}

// WithAfterFunc replaces the timer source, for tests.
func WithAfterFunc(fn AfterFunc) DebouncerOption {
	return func(db *Debouncer) {
		db.afterFunc = fn
	}
}

// NewDebouncer returns a debouncer calling commit with the settled text.
func NewDebouncer(commit func(text string), opts ...DebouncerOption) *Debouncer {
	db := &Debouncer{
		delay:     DebounceDelay,
		afterFunc: stdAfterFunc,
		commit:    commit,
	}

	for _, opt := range opts {
		opt(db)
	}

	return db
}

// Input records a keystroke and restarts the pending commit.
func (db *Debouncer) Input(text string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.cancelLocked()
	db.text = text

	seq := db.seq
	db.pending = db.afterFunc(db.delay, func() {
		db.fire(seq)
	})
}

// Enter commits text now, dropping the pending commit. text is the
// content of the input box, which may have changed without a keystroke.
func (db *Debouncer) Enter(text string) {
	db.mu.Lock()
	db.cancelLocked()
	db.text = text
	db.mu.Unlock()

	db.commit(text)
}

// Stop drops the pending commit, if any.
func (db *Debouncer) Stop() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.cancelLocked()
}

// Pending reports whether a commit is scheduled.
func (db *Debouncer) Pending() bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.pending != nil
}

func (db *Debouncer) cancelLocked() {
	if db.pending != nil {
		db.pending.Stop()
		db.pending = nil
	}

	// A timer that already fired but has not taken the lock yet sees a
	// stale sequence and does nothing.
	db.seq++
}

func (db *Debouncer) fire(seq uint64) {
	db.mu.Lock()
	if seq != db.seq {
		db.mu.Unlock()

		return
	}

	db.pending = nil
	db.seq++
	text := db.text
	db.mu.Unlock()

	db.commit(text)
}
