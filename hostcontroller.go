package woincui

import (
	"gitlab.com/NebulousLabs/log"
	"gitlab.com/NebulousLabs/threadgroup"

	"gitlab.com/NebulousLabs/woincui/rpc"
)

// hostController binds one host's Client, jobQueue, and worker goroutine.
// Grounded on original_source/libui/src/host_controller.h/.cc, rendered in
// the idiom of Fluffy9-skyd's modules/renter/workerpool.go: a threadgroup.
// ThreadGroup tracks the worker goroutine so Shutdown can wait for it to
// exit instead of leaking it.
type hostController struct {
	host     string
	client   Client
	queue    *jobQueue
	registry *handlerRegistry
	tg       threadgroup.ThreadGroup
	log      *log.Logger
}

func newHostController(host string, client Client, registry *handlerRegistry, logger *log.Logger) *hostController {
	if logger == nil {
		logger = log.DiscardLogger.Logger
	}
	return &hostController{
		host:     host,
		client:   client,
		queue:    newJobQueue(),
		registry: registry,
		log:      logger,
	}
}

// connect dials addr:port on a freshly spawned goroutine, reports the
// outcome to registered HostHandlers, and, on success, starts the worker
// loop that drains this host's jobQueue. Mirrors the original's detached
// connect thread in Controller::Impl::add_host.
func (hc *hostController) connect(addr string, port uint16) error {
	if err := hc.tg.Add(); err != nil {
		return ErrShutdown
	}
	go func() {
		defer hc.tg.Done()

		if err := hc.client.Connect(addr, port, hc.tg.StopChan()); err != nil {
			hc.log.Debugf("host %s: connect to %s:%d failed: %v", hc.host, addr, port, err)
			hc.registry.forHostHandler(func(h HostHandler) { h.OnHostError(hc.host, err) })
			return
		}
		hc.registry.forHostHandler(func(h HostHandler) { h.OnHostConnected(hc.host) })
		hc.runWorker()
	}()
	return nil
}

// runWorker drains jobs one at a time until the queue shuts down, then
// disconnects the client. This is the single goroutine allowed to touch
// hc.client, satisfying Client's not-safe-for-concurrent-use contract.
func (hc *hostController) runWorker() {
	for {
		j, ok := hc.queue.pop()
		if !ok {
			hc.client.Disconnect()
			return
		}
		j.execute(hc.client)
	}
}

// authorize enqueues an authorization job at the front of the queue, ahead
// of any already-queued periodic or async work (spec.md §4.1).
func (hc *hostController) authorize(password string) {
	hc.queue.pushFront(&job{
		kind:     jobAuthorization,
		password: password,
		registry: hc.registry,
	})
}

// submitPeriodic enqueues a periodic refresh job at the back of the queue.
func (hc *hostController) submitPeriodic(task PeriodicTask, payload periodicPayload, postExec func(host string, j *job)) {
	hc.queue.pushBack(&job{
		kind:     jobPeriodic,
		task:     task,
		payload:  payload,
		registry: hc.registry,
		postExec: postExec,
	})
}

// submitAsync enqueues an async command job at the front of the queue,
// ahead of any queued periodic refresh (spec.md §4.8). run is invoked with
// the command's outcome once executed, or with rpc.StatusDisconnected if
// the queue shuts down first.
func (hc *hostController) submitAsync(cmd rpc.Command, run func(status rpc.Status)) {
	hc.queue.pushFront(&job{
		kind:     jobAsync,
		cmd:      cmd,
		run:      run,
		registry: hc.registry,
	})
}

// bandwidthCounts reports cumulative bytes read/written on this host's
// connection.
func (hc *hostController) bandwidthCounts() (read, written uint64) {
	return hc.client.BandwidthCounts()
}

// shutdown drains the job queue (resolving any outstanding async sinks with
// ErrDisconnected), waits for the worker goroutine to exit, and disconnects
// the client. Idempotent.
func (hc *hostController) shutdown() {
	hc.queue.shutdownQueue()
	hc.tg.Stop()
	hc.client.Disconnect()
}
