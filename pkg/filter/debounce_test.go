package filter_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/reportoor/pkg/filter"
)

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	wasActive := !f.stopped
	f.stopped = true

	return wasActive
}

type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) filter.Timer {
	timer := &fakeTimer{delay: d, fn: fn}
	c.timers = append(c.timers, timer)

	return timer
}

// fireAll runs every timer, stopped or not, as a late timer would.
func (c *fakeClock) fireAll() {
	for _, timer := range c.timers {
		timer.fn()
	}
}

func newTestDebouncer(t *testing.T) (*filter.Debouncer, *fakeClock, *[]string) {
	t.Helper()

	clock := &fakeClock{}
	commits := &[]string{}

	db := filter.NewDebouncer(func(text string) {
		*commits = append(*commits, text)
	}, filter.WithAfterFunc(clock.AfterFunc))

	return db, clock, commits
}

func TestDebouncer_LastKeystrokeWins(t *testing.T) {
	db, clock, commits := newTestDebouncer(t)

	db.Input("l")
	db.Input("lo")
	db.Input("log")

	require.Len(t, clock.timers, 3)
	assert.Equal(t, filter.DebounceDelay, clock.timers[2].delay)
	assert.True(t, clock.timers[0].stopped)
	assert.True(t, clock.timers[1].stopped)
	assert.True(t, db.Pending())

	clock.fireAll()

	assert.Equal(t, []string{"log"}, *commits)
	assert.False(t, db.Pending())
}

func TestDebouncer_EnterCommitsImmediately(t *testing.T) {
	db, clock, commits := newTestDebouncer(t)

	db.Input("auth")
	db.Enter("auth")

	assert.Equal(t, []string{"auth"}, *commits)
	assert.True(t, clock.timers[0].stopped)

	// The superseded timer must not commit a second time.
	clock.fireAll()
	assert.Equal(t, []string{"auth"}, *commits)
}

func TestDebouncer_EnterCommitsGivenText(t *testing.T) {
	db, clock, commits := newTestDebouncer(t)

	db.Input("auth")
	db.Enter("")
	clock.fireAll()

	assert.Equal(t, []string{""}, *commits)
	assert.False(t, db.Pending())
}

func TestDebouncer_Stop(t *testing.T) {
	db, clock, commits := newTestDebouncer(t)

	db.Input("x")
	db.Stop()
	clock.fireAll()

	assert.Empty(t, *commits)
	assert.False(t, db.Pending())
}

func TestDebouncer_RealTimer(t *testing.T) {
	var (
		mu   sync.Mutex
		once sync.Once
		got  []string
		done = make(chan struct{})
	)

	db := filter.NewDebouncer(func(text string) {
		mu.Lock()
		got = append(got, text)
		mu.Unlock()
		once.Do(func() { close(done) })
	}, filter.WithDelay(50*time.Millisecond))

	db.Input("a")
	db.Input("ab")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced commit never fired")
	}

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []string{"ab"}, got)
}
