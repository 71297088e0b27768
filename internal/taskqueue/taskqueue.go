// Package taskqueue implements an in-process task queue with priorities
// and worker goroutines.
//
// Tasks are executed at least once and may be submitted again by themselves,
// e.g. to defer work. All task operations therefore need to be idempotent.
package taskqueue

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Priority of a task. A lower value is drained first.
type Priority int

const (
	PriorityHigh    Priority = 5
	PriorityDefault Priority = 6
)

// A Task is one unit of work.
type Task struct {
	Name     string
	Priority Priority
	Run      func(ctx context.Context) error
}

// A Queue holds submitted tasks until a worker picks them up.
// Within the same priority tasks run in submission order.
type Queue struct {
	cond    *sync.Cond
	mu      sync.Mutex
	tasks   []Task // sorted by priority, FIFO within priority
	pending sync.WaitGroup
}

// New returns a new Queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Submit adds a task to the queue.
func (q *Queue) Submit(t Task) {
	q.pending.Add(1)
	q.put(t)
}

// SubmitAfter adds a task to the queue after a delay.
// The task counts as pending from the moment of submission.
func (q *Queue) SubmitAfter(d time.Duration, t Task) {
	q.pending.Add(1)
	time.AfterFunc(d, func() {
		q.put(t)
	})
}

func (q *Queue) put(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i, _ := slices.BinarySearchFunc(q.tasks, t, func(a, b Task) int {
		if a.Priority <= b.Priority {
			return -1
		}
		return 1
	})
	q.tasks = slices.Insert(q.tasks, i, t)
	q.cond.Signal()
}

func (q *Queue) get(ctx context.Context) (Task, bool) {
	stop := context.AfterFunc(ctx, func() {
		q.cond.L.Lock()
		defer q.cond.L.Unlock()
		q.cond.Broadcast()
	})
	defer stop()
	q.cond.L.Lock()
	defer q.cond.L.Unlock()
	for {
		if len(q.tasks) > 0 {
			t := q.tasks[0]
			q.tasks = q.tasks[1:]
			return t, true
		}
		if ctx.Err() != nil {
			return Task{}, false
		}
		q.cond.Wait()
	}
}

// Size returns the number of queued tasks.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Start runs workers until the context is canceled.
func (q *Queue) Start(ctx context.Context, workers int) {
	for range workers {
		go func() {
			for {
				t, ok := q.get(ctx)
				if !ok {
					return
				}
				q.run(ctx, t)
			}
		}()
	}
}

// Wait blocks until every submitted task has been executed.
// This includes tasks submitted with a delay and tasks submitted by
// running tasks.
func (q *Queue) Wait() {
	q.pending.Wait()
}

func (q *Queue) run(ctx context.Context, t Task) {
	defer q.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Task panicked", "task", t.Name, "panic", r)
		}
	}()
	if err := t.Run(ctx); err != nil {
		slog.Error("Task failed", "task", t.Name, "error", err)
	}
}
