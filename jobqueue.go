package woincui

import (
	"container/list"
	"sync"

	"gitlab.com/NebulousLabs/woincui/rpc"
)

// jobQueue is a mutex+condvar blocking deque of jobs, one per host, fed by
// the Controller (authorization/async jobs, front or back) and the
// scheduler (periodic jobs, back), drained by a single worker goroutine.
// Grounded on original_source/libui/src/job_queue.h/.cc.
//
// Unlike the original, shutdown does not silently drop queued jobs: spec.md
// §4.3 resolves that Open Question by requiring every pending async job's
// one-shot sink be resolved with ErrDisconnected so callers never block
// forever on a future that will never complete.
type jobQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	jobs     *list.List
	shutdown bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{jobs: list.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// pushBack enqueues j at the tail. Used for periodic jobs.
func (q *jobQueue) pushBack(j *job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.shutdown {
		resolveDisconnected(j)
		return
	}
	q.jobs.PushBack(j)
	q.cond.Signal()
}

// pushFront enqueues j at the head, jumping the line ahead of any queued
// work. Used for authorization jobs and async command jobs.
func (q *jobQueue) pushFront(j *job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.shutdown {
		resolveDisconnected(j)
		return
	}
	q.jobs.PushFront(j)
	q.cond.Signal()
}

// pop blocks until a job is available or the queue has shut down. ok is
// false once shutdown and drained, signaling the worker loop to exit.
func (q *jobQueue) pop() (j *job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.jobs.Len() == 0 && !q.shutdown {
		q.cond.Wait()
	}
	if q.jobs.Len() == 0 {
		return nil, false
	}
	front := q.jobs.Front()
	q.jobs.Remove(front)
	return front.Value.(*job), true
}

// shutdownQueue marks the queue closed and resolves every still-queued job's
// one-shot sink with ErrDisconnected. Idempotent.
func (q *jobQueue) shutdownQueue() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.shutdown {
		return
	}
	q.shutdown = true
	for e := q.jobs.Front(); e != nil; e = e.Next() {
		resolveDisconnected(e.Value.(*job))
	}
	q.jobs.Init()
	q.cond.Broadcast()
}

// resolveDisconnected resolves a dropped async job's sink with
// ErrDisconnected. Periodic and authorization jobs have no caller-visible
// sink, so there is nothing to resolve for them.
func resolveDisconnected(j *job) {
	if j.kind == jobAsync && j.run != nil {
		j.run(rpc.StatusDisconnected)
	}
}
