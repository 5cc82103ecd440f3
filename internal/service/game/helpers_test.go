package game_test

import (
	"sync"
	"time"

	"memory-service/internal/service/game"
)

// manualClock is a Scheduler driven by Advance. Timers due at the same
// instant fire in the order they were scheduled.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	fired   bool
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	pending := !t.fired && !t.stopped
	t.stopped = true
	return pending
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) game.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d, running every callback that comes due,
// including the ones scheduled along the way.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *manualTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.fn()
	}
}

// inOrder leaves the deck as generated: slots 2k and 2k+1 hold pair k.
type inOrder struct{}

func (inOrder) Shuffle(n int, swap func(i, j int)) {}

// reversing reverses whatever it is given.
type reversing struct{}

func (reversing) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []game.Event
}

func (l *eventLog) record(ev game.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) count(t game.EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (l *eventLog) last() game.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

type sessionFixture struct {
	clock   *manualClock
	tasks   *game.TaskRegistry
	events  *eventLog
	session *game.Session
}

func newFixture(pairs int, difficulty game.Difficulty, shuffler game.Shuffler, mutate func(*game.Options)) (*sessionFixture, error) {
	clock := &manualClock{}
	tasks := game.NewTaskRegistry(clock)
	events := &eventLog{}
	opts := game.Options{
		ID:           "session-1",
		Pairs:        pairs,
		Difficulty:   difficulty,
		Timings:      game.DefaultTimings(),
		InitialClues: 1,
		Tasks:        tasks,
		Shuffler:     shuffler,
		OnEvent:      events.record,
	}
	if mutate != nil {
		mutate(&opts)
	}
	session, err := game.NewSession(opts)
	if err != nil {
		return nil, err
	}
	return &sessionFixture{clock: clock, tasks: tasks, events: events, session: session}, nil
}
