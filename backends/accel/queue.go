package accel

import (
	"sync"

	"github.com/gomlx/opparity/pkg/support/xsync"
)

// queue is the accelerator command queue: tasks are executed in submission order by a single worker goroutine.
type queue struct {
	tasks   chan func() error
	pending *xsync.DynamicWaitGroup
	done    chan struct{}

	muErr sync.Mutex
	err   error // First error since last synchronize.
}

// queueDepth is the number of tasks that can be submitted before submit blocks.
const queueDepth = 1024

func newQueue() *queue {
	q := &queue{
		tasks:   make(chan func() error, queueDepth),
		pending: xsync.NewDynamicWaitGroup(),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *queue) run() {
	defer close(q.done)
	for task := range q.tasks {
		if err := task(); err != nil {
			q.muErr.Lock()
			if q.err == nil {
				q.err = err
			}
			q.muErr.Unlock()
		}
		q.pending.Done()
	}
}

// submit a task for execution. Tasks must not panic, errors are returned by synchronize.
func (q *queue) submit(task func() error) {
	q.pending.Add(1)
	q.tasks <- task
}

// synchronize waits for all pending tasks, and returns (and clears) the first error since the last call.
func (q *queue) synchronize() error {
	q.pending.Wait()
	q.muErr.Lock()
	defer q.muErr.Unlock()
	err := q.err
	q.err = nil
	return err
}

// close waits for the pending tasks and stops the worker.
func (q *queue) close() {
	close(q.tasks)
	<-q.done
}
