package game

import (
	"sync"
	"time"
)

// Timer is the handle of a scheduled callback. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// WallClock schedules on real time.
func WallClock() Scheduler {
	return wallClock{}
}

// TaskRegistry owns every pending callback of every session, keyed by
// session id. Once CancelAll runs for a session none of its tasks fire.
type TaskRegistry struct {
	mu    sync.Mutex
	sched Scheduler
	seq   uint64
	tasks map[string]map[uint64]Timer
}

func NewTaskRegistry(sched Scheduler) *TaskRegistry {
	if sched == nil {
		sched = WallClock()
	}
	return &TaskRegistry{
		sched: sched,
		tasks: make(map[string]map[uint64]Timer),
	}
}

func (r *TaskRegistry) Schedule(sessionID string, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	taskID := r.seq
	timer := r.sched.AfterFunc(d, func() {
		if !r.take(sessionID, taskID) {
			return
		}
		fn()
	})

	bucket, ok := r.tasks[sessionID]
	if !ok {
		bucket = make(map[uint64]Timer)
		r.tasks[sessionID] = bucket
	}
	bucket[taskID] = timer
}

// take removes the task and reports whether it was still pending.
func (r *TaskRegistry) take(sessionID string, taskID uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.tasks[sessionID]
	if !ok {
		return false
	}
	if _, ok := bucket[taskID]; !ok {
		return false
	}
	delete(bucket, taskID)
	if len(bucket) == 0 {
		delete(r.tasks, sessionID)
	}
	return true
}

func (r *TaskRegistry) CancelAll(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.tasks[sessionID]
	for _, timer := range bucket {
		timer.Stop()
	}
	delete(r.tasks, sessionID)
	return len(bucket)
}

func (r *TaskRegistry) Pending(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks[sessionID])
}
