package woincui

import (
	"sync/atomic"
	"testing"
	"time"

	"gitlab.com/NebulousLabs/woincui/rpc"
)

type countingPeriodicHandler struct {
	NoopPeriodicTaskHandler
	ccStatusCount int32
}

func (h *countingPeriodicHandler) OnCCStatus(host string, status rpc.CCStatus) {
	atomic.AddInt32(&h.ccStatusCount, 1)
}

// schedulerHarness wires a scheduler against one connected, authorized-free
// host without going through a full Controller, for focused timing tests.
type schedulerHarness struct {
	config    *configuration
	schedCtx  *periodicTasksSchedulerContext
	registry  *handlerRegistry
	scheduler *periodicTasksScheduler
	hc        *hostController
	client    *fakeClient
}

func newSchedulerHarness(t *testing.T, host string) *schedulerHarness {
	t.Helper()

	registry := newHandlerRegistry()
	config := newConfiguration()
	schedCtx := newPeriodicTasksSchedulerContext()

	client := newFakeClient(host)
	hc := newHostController(host, client, registry, nil)
	if err := hc.connect("127.0.0.1", 31416); err != nil {
		t.Fatalf("connect: %v", err)
	}

	config.addHost(host)
	schedCtx.addHost(host)

	controllers := map[string]*hostController{host: hc}
	scheduler := newPeriodicTasksScheduler(schedCtx, config, func() map[string]*hostController { return controllers }, nil)
	go scheduler.run()

	return &schedulerHarness{
		config:    config,
		schedCtx:  schedCtx,
		registry:  registry,
		scheduler: scheduler,
		hc:        hc,
		client:    client,
	}
}

func (h *schedulerHarness) close() {
	h.scheduler.stop()
	h.hc.shutdown()
}

// TestSchedulerDeliversWithinWakeUpBound checks spec.md §8 scenario 2: with
// CCStatus's interval set to 100ms and scheduling enabled, at least 3
// deliveries arrive within 400ms.
func TestSchedulerDeliversWithinWakeUpBound(t *testing.T) {
	t.Parallel()

	h := newSchedulerHarness(t, "h")
	defer h.close()

	counter := &countingPeriodicHandler{}
	h.registry.registerPeriodicTaskHandler(counter)

	h.config.setInterval(TaskGetCCStatus, 100*time.Millisecond)
	h.config.setSchedulePeriodicTasks("h", true)
	h.schedCtx.rescheduleNow("h")

	deadline := time.After(400 * time.Millisecond)
	for atomic.LoadInt32(&counter.ccStatusCount) < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected >=3 CCStatus deliveries within 400ms, got %d", counter.ccStatusCount)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// TestSchedulerNoUpdatesUntilEnabled checks spec.md §8 scenario 1: no
// periodic update is delivered until schedule_periodic_tasks is enabled.
func TestSchedulerNoUpdatesUntilEnabled(t *testing.T) {
	t.Parallel()

	h := newSchedulerHarness(t, "h")
	defer h.close()

	counter := &countingPeriodicHandler{}
	h.registry.registerPeriodicTaskHandler(counter)
	h.config.setInterval(TaskGetCCStatus, 10*time.Millisecond)

	time.Sleep(150 * time.Millisecond)

	if atomic.LoadInt32(&counter.ccStatusCount) != 0 {
		t.Fatalf("expected no deliveries before scheduling is enabled, got %d", counter.ccStatusCount)
	}
}

// TestSchedulerRescheduleNow checks spec.md §8: reschedule_now(host, task)
// submits a new job for that task within the wake-up bound, provided none
// is currently pending.
func TestSchedulerRescheduleNow(t *testing.T) {
	t.Parallel()

	h := newSchedulerHarness(t, "h")
	defer h.close()

	counter := &countingPeriodicHandler{}
	h.registry.registerPeriodicTaskHandler(counter)

	// A long interval means the task would not naturally come due again
	// within the test's timeout; rescheduleTaskNow must force it anyway.
	h.config.setInterval(TaskGetCCStatus, time.Hour)
	h.config.setSchedulePeriodicTasks("h", true)

	// Let the first delivery, due at the scheduler's next wake-up (at most
	// maxWakeUpInterval away), happen and settle.
	time.Sleep(300 * time.Millisecond)
	before := atomic.LoadInt32(&counter.ccStatusCount)
	if before == 0 {
		t.Fatal("expected at least one initial delivery")
	}

	h.schedCtx.rescheduleTaskNow("h", TaskGetCCStatus)

	deadline := time.After(300 * time.Millisecond)
	for atomic.LoadInt32(&counter.ccStatusCount) <= before {
		select {
		case <-deadline:
			t.Fatalf("reschedule_now did not trigger a new delivery within the wake-up bound")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
