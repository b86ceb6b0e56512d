package woincui

import (
	"sync"
	"time"

	"gitlab.com/NebulousLabs/log"
	"gitlab.com/NebulousLabs/threadgroup"
)

// maxWakeUpInterval bounds how stale the scheduler's sleep can ever be,
// regardless of configured intervals (spec.md §4.2, original_source/
// libui/src/periodic_tasks_scheduler.h's hard-coded 200ms bound).
const maxWakeUpInterval = 200 * time.Millisecond

// schedulerTaskState tracks one (host, task) pair's scheduling bookkeeping.
type schedulerTaskState struct {
	lastExecution time.Time
	pending       bool
}

// schedulerHostState is one host's full row of per-task state, plus the
// Messages/Notices seqno cursors. The active-only flag for GetTasks is read
// from the configuration at submission time.
// Grounded on original_source/libui/src/periodic_tasks_scheduler.h's
// PeriodicTasksSchedulerContext::HostEntry.
type schedulerHostState struct {
	tasks [numPeriodicTasks]schedulerTaskState

	messagesSeqno int
	noticesSeqno  int
}

// periodicTasksSchedulerContext is the lock+condvar protected shared state
// of the scheduler: one goroutine per Controller, many hosts. Its mutex may
// be held while acquiring a jobQueue's mutex (submitDueTasks does exactly
// that) or a configuration's mutex, but never the reverse — nothing in this
// package acquires ctx.mu while already holding either of those.
type periodicTasksSchedulerContext struct {
	mu       sync.Mutex
	cond     *sync.Cond
	shutdown bool

	hosts map[string]*schedulerHostState
}

func newPeriodicTasksSchedulerContext() *periodicTasksSchedulerContext {
	c := &periodicTasksSchedulerContext{hosts: make(map[string]*schedulerHostState)}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *periodicTasksSchedulerContext) addHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosts[host] = &schedulerHostState{}
	c.cond.Signal()
}

func (c *periodicTasksSchedulerContext) removeHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.hosts, host)
}

// rescheduleNow forces every task of host to appear due on the scheduler's
// next wake-up, by resetting its last-execution time to the zero value.
func (c *periodicTasksSchedulerContext) rescheduleNow(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hs, ok := c.hosts[host]
	if !ok {
		return
	}
	for i := range hs.tasks {
		hs.tasks[i].lastExecution = time.Time{}
	}
	c.cond.Signal()
}

// rescheduleTaskNow forces a single task of host to appear due immediately,
// used by active_only_tasks to re-trigger GetTasks with the new flag value.
func (c *periodicTasksSchedulerContext) rescheduleTaskNow(host string, task PeriodicTask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hs, ok := c.hosts[host]
	if !ok {
		return
	}
	hs.tasks[task].lastExecution = time.Time{}
	c.cond.Signal()
}

// handlePostExecution records a job's completion: clears pending, bumps
// last-execution to now, and (for Messages/Notices) advances the seqno
// cursor the job's payload tracked during execute. No-ops if the host row
// is gone, handling the remove-host-while-in-flight race (original_source/
// libui/src/periodic_tasks_scheduler.cc's handle_post_execution).
func (c *periodicTasksSchedulerContext) handlePostExecution(host string, j *job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hs, ok := c.hosts[host]
	if !ok {
		return
	}
	hs.tasks[j.task].pending = false
	hs.tasks[j.task].lastExecution = time.Now()
	switch j.task {
	case TaskGetMessages:
		hs.messagesSeqno = j.payload.seqno
	case TaskGetNotices:
		hs.noticesSeqno = j.payload.seqno
	}
}

func (c *periodicTasksSchedulerContext) triggerShutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = true
	c.cond.Broadcast()
}

// periodicTasksScheduler is the single goroutine that decides, for every
// configured host, which periodic tasks are due and submits them to that
// host's jobQueue. One instance is shared across all hosts of a Controller
// (spec.md §4.2). Its goroutine is tracked by a threadgroup.ThreadGroup, the
// same lifecycle backbone hostController uses for its worker goroutine, so
// stop() can wait for a clean exit instead of racing a doneCh.
type periodicTasksScheduler struct {
	ctx         *periodicTasksSchedulerContext
	config      *configuration
	controllers func() map[string]*hostController
	log         *log.Logger

	tg threadgroup.ThreadGroup
}

func newPeriodicTasksScheduler(ctx *periodicTasksSchedulerContext, config *configuration, controllers func() map[string]*hostController, logger *log.Logger) *periodicTasksScheduler {
	if logger == nil {
		logger = log.DiscardLogger.Logger
	}
	return &periodicTasksScheduler{
		ctx:         ctx,
		config:      config,
		controllers: controllers,
		log:         logger,
	}
}

// run is the scheduler's main loop, launched on its own goroutine by New().
// It recomputes the wake-up interval from the configuration at most once per
// second, as the original scheduler does, so an interval change affects the
// sleep length only after that refresh; on every wake-up it walks all hosts'
// task tables under ctx's lock, submitting due, non-pending tasks.
func (s *periodicTasksScheduler) run() {
	if err := s.tg.Add(); err != nil {
		return
	}
	defer s.tg.Done()
	defer s.log.Println("periodic tasks scheduler stopped")

	wakeUpInterval := s.computeWakeUpInterval()
	lastIntervalRefresh := time.Now()

	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()

	for {
		if s.ctx.shutdown {
			return
		}

		if time.Since(lastIntervalRefresh) >= time.Second {
			wakeUpInterval = s.computeWakeUpInterval()
			lastIntervalRefresh = time.Now()
		}

		s.submitDueTasks()

		waitDeadline := time.Now().Add(wakeUpInterval)
		for !s.ctx.shutdown && time.Now().Before(waitDeadline) {
			s.waitUntil(waitDeadline)
		}
	}
}

// waitUntil blocks on ctx.cond until either signaled or deadline passes.
// sync.Cond has no timed wait, so a helper goroutine translates the
// deadline into a Broadcast.
func (s *periodicTasksScheduler) waitUntil(deadline time.Time) {
	timer := time.AfterFunc(time.Until(deadline), func() {
		s.ctx.mu.Lock()
		s.ctx.cond.Broadcast()
		s.ctx.mu.Unlock()
	})
	defer timer.Stop()
	s.ctx.cond.Wait()
}

// computeWakeUpInterval returns min(min(configured intervals), 200ms).
func (s *periodicTasksScheduler) computeWakeUpInterval() time.Duration {
	intervals := s.config.intervalsSnapshot()
	min := maxWakeUpInterval
	for _, d := range intervals {
		if d < min {
			min = d
		}
	}
	return min
}

// submitDueTasks must be called with ctx.mu held. It iterates every host
// with periodic scheduling enabled and submits any task whose interval has
// elapsed and which isn't already pending.
func (s *periodicTasksScheduler) submitDueTasks() {
	controllers := s.controllers()
	now := time.Now()

	for host, hs := range s.ctx.hosts {
		if !s.config.schedulePeriodicTasks(host) {
			continue
		}
		hc, ok := controllers[host]
		if !ok {
			continue
		}
		for task := PeriodicTask(0); int(task) < numPeriodicTasks; task++ {
			ts := &hs.tasks[task]
			if ts.pending {
				continue
			}
			interval := s.config.interval(task)
			if !ts.lastExecution.IsZero() && now.Sub(ts.lastExecution) < interval {
				continue
			}

			ts.pending = true
			payload := periodicPayload{}
			switch task {
			case TaskGetMessages:
				payload.seqno = hs.messagesSeqno
			case TaskGetNotices:
				payload.seqno = hs.noticesSeqno
			case TaskGetTasks:
				payload.activeOnly = s.config.activeOnlyTasks(host)
			}

			hc.submitPeriodic(task, payload, s.ctx.handlePostExecution)
		}
	}
}

// stop requests the scheduler loop to exit and blocks until it has.
// triggerShutdown wakes run() out of its cond.Wait; tg.Stop() then blocks
// until run()'s deferred tg.Done() fires, mirroring hostController.shutdown's
// queue-signal-then-tg.Stop() sequencing.
func (s *periodicTasksScheduler) stop() {
	s.ctx.triggerShutdown()
	s.tg.Stop()
}
