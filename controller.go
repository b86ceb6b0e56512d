package woincui

import (
	"sync"
	"time"

	"gitlab.com/NebulousLabs/log"
	"gitlab.com/NebulousLabs/threadgroup"

	"gitlab.com/NebulousLabs/woincui/rpc"
)

// Controller is the library's public entry point: it owns one HostController
// per added host, a single shared periodic-tasks scheduler goroutine, and
// the registries observers attach to. Grounded on original_source/libui/src/
// controller.h/.cc's Controller::Impl, adapted to Go's error-return and
// channel-future idioms instead of exceptions and std::future.
//
// Lock nesting: the scheduler goroutine holds the scheduler context mutex
// while it takes the configuration mutex, Controller's own mutex (to
// snapshot the host controllers) and a hostController's jobQueue mutex. The
// handler registry mutex is held while observer callbacks run. Controller
// never holds its own mutex while taking any of the others.
type Controller struct {
	mu              sync.Mutex
	shutdownFlag    bool
	hostControllers map[string]*hostController

	handlers  *handlerRegistry
	config    *configuration
	schedCtx  *periodicTasksSchedulerContext
	scheduler *periodicTasksScheduler

	// newClient constructs the Client for a newly added host. Overridden in
	// tests to substitute a fakeClient for the real TCP transport.
	newClient func(host string) Client

	log *log.Logger

	// tg tracks the detached async_remove_host goroutines Controller spawns,
	// so Shutdown can wait for them instead of leaking them
	// (original_source/libui/src/controller.cc's async_remove_host exists for
	// the same callback-reentrancy reason). Each host's connect-then-worker
	// goroutine is tracked by its hostController's own thread group.
	tg threadgroup.ThreadGroup
}

// New creates a Controller with no hosts and starts its scheduler goroutine.
// Logging is discarded by default, matching node/api's
// "Logger: log.DiscardLogger.Logger // discard third party logging" idiom;
// pass an Option to capture it.
func New(opts ...Option) *Controller {
	c := &Controller{
		hostControllers: make(map[string]*hostController),
		handlers:        newHandlerRegistry(),
		config:          newConfiguration(),
		schedCtx:        newPeriodicTasksSchedulerContext(),
		newClient:       func(host string) Client { return newTCPClient(host) },
		log:             log.DiscardLogger.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.scheduler = newPeriodicTasksScheduler(c.schedCtx, c.config, c.snapshotHostControllers, c.log)
	go c.scheduler.run()
	return c
}

// Option configures a Controller at construction time.
type Option func(*Controller)

// WithLogger directs a Controller's (and its hostControllers') diagnostic
// output at l instead of discarding it.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// Shutdown stops the scheduler, shuts down every host controller (resolving
// any outstanding Futures with ErrDisconnected), and makes every subsequent
// Controller method return ErrShutdown. Idempotent.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	if c.shutdownFlag {
		c.mu.Unlock()
		return
	}
	c.shutdownFlag = true
	controllers := c.hostControllers
	c.hostControllers = make(map[string]*hostController)
	c.mu.Unlock()

	c.tg.Stop()
	c.scheduler.stop()
	for _, hc := range controllers {
		hc.shutdown()
	}
}

func (c *Controller) snapshotHostControllers() map[string]*hostController {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*hostController, len(c.hostControllers))
	for k, v := range c.hostControllers {
		out[k] = v
	}
	return out
}

// getHostController returns host's controller, or ErrInvalidArgument (empty
// host, a precondition distinct from the host simply being unrecognized) /
// ErrShutdown / UnknownHostError. Grounded on original_source/libui/src/
// controller.cc's check_not_empty_host_name__ always running before
// verify_known_host_.
func (c *Controller) getHostController(host string) (*hostController, error) {
	if err := nonEmpty(host); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdownFlag {
		return nil, ErrShutdown
	}
	hc, ok := c.hostControllers[host]
	if !ok {
		return nil, UnknownHostError{Host: host}
	}
	return hc, nil
}

// --- handler registration (spec.md §4.5) ---

func (c *Controller) RegisterHostHandler(h HostHandler) {
	c.handlers.registerHostHandler(h)
}

func (c *Controller) DeregisterHostHandler(h HostHandler) {
	c.handlers.deregisterHostHandler(h)
}

func (c *Controller) RegisterPeriodicTaskHandler(h PeriodicTaskHandler) {
	c.handlers.registerPeriodicTaskHandler(h)
}

func (c *Controller) DeregisterPeriodicTaskHandler(h PeriodicTaskHandler) {
	c.handlers.deregisterPeriodicTaskHandler(h)
}

// --- host lifecycle (spec.md §4.1) ---

// AddHost registers host and starts connecting to addr:port on a background
// goroutine. OnHostAdded fires synchronously before AddHost returns;
// OnHostConnected/OnHostError fire later, once the dial resolves.
func (c *Controller) AddHost(host, addr string, port uint16) error {
	if host == "" || addr == "" {
		return ErrInvalidArgument
	}

	c.mu.Lock()
	if c.shutdownFlag {
		c.mu.Unlock()
		return ErrShutdown
	}
	if _, exists := c.hostControllers[host]; exists {
		c.mu.Unlock()
		return ErrHostAlreadyAdded
	}
	hc := newHostController(host, c.newClient(host), c.handlers, c.log)
	c.hostControllers[host] = hc
	c.mu.Unlock()

	c.config.addHost(host)
	c.schedCtx.addHost(host)

	c.log.Debugf("host %s added, dialing %s:%d", host, addr, port)
	c.handlers.forHostHandler(func(h HostHandler) { h.OnHostAdded(host) })

	return hc.connect(addr, port)
}

// AuthorizeHost queues an authorization job ahead of any other queued work
// for host. OnHostAuthorized/OnHostAuthorizationFailed/OnHostError report
// the outcome asynchronously.
func (c *Controller) AuthorizeHost(host, password string) error {
	hc, err := c.getHostController(host)
	if err != nil {
		return err
	}
	if err := nonEmpty(password); err != nil {
		return err
	}
	hc.authorize(password)
	return nil
}

// RemoveHost synchronously shuts down host's controller — draining its job
// queue (resolving outstanding Futures with ErrDisconnected), waiting for
// its worker goroutine to exit, and disconnecting its client — before
// returning. Must not be called from a HostHandler callback invoked on
// host's own worker goroutine; use AsyncRemoveHost there instead.
func (c *Controller) RemoveHost(host string) error {
	if err := nonEmpty(host); err != nil {
		return err
	}

	c.mu.Lock()
	if c.shutdownFlag {
		c.mu.Unlock()
		return ErrShutdown
	}
	hc, ok := c.hostControllers[host]
	if !ok {
		c.mu.Unlock()
		return UnknownHostError{Host: host}
	}
	delete(c.hostControllers, host)
	c.mu.Unlock()

	c.schedCtx.removeHost(host)
	c.config.removeHost(host)
	hc.shutdown()

	c.log.Debugf("host %s removed", host)
	c.handlers.forHostHandler(func(h HostHandler) { h.OnHostRemoved(host) })
	return nil
}

// AsyncRemoveHost requests host's removal on a new goroutine and returns
// immediately. This is the safe way for a HostHandler callback to remove
// its own host: RemoveHost would deadlock waiting for the worker goroutine
// that is, in that case, the caller itself (original_source/libui/src/
// controller.cc's async_remove_host exists for the same reason). The
// goroutine is tracked by Controller's thread group so Shutdown waits for
// it instead of leaking it.
func (c *Controller) AsyncRemoveHost(host string) {
	if err := c.tg.Add(); err != nil {
		return
	}
	go func() {
		defer c.tg.Done()
		_ = c.RemoveHost(host)
	}()
}

// --- scheduling configuration (spec.md §4.2/§4.6) ---

func (c *Controller) PeriodicTaskInterval(task PeriodicTask) time.Duration {
	return c.config.interval(task)
}

func (c *Controller) SetPeriodicTaskInterval(task PeriodicTask, d time.Duration) {
	c.config.setInterval(task, d)
}

// SchedulePeriodicTasks enables or disables the shared scheduler's periodic
// refreshes for host. Enabling it also reschedules host's tasks to run
// immediately rather than waiting out their first interval.
func (c *Controller) SchedulePeriodicTasks(host string, enabled bool) error {
	if _, err := c.getHostController(host); err != nil {
		return err
	}
	c.config.setSchedulePeriodicTasks(host, enabled)
	if enabled {
		c.schedCtx.rescheduleNow(host)
	}
	return nil
}

// ActiveOnlyTasks sets whether host's GetTasks refreshes are restricted to
// active tasks, and immediately reschedules GetTasks so the new value takes
// effect without waiting for the current interval to elapse.
func (c *Controller) ActiveOnlyTasks(host string, activeOnly bool) error {
	if _, err := c.getHostController(host); err != nil {
		return err
	}
	c.config.setActiveOnlyTasks(host, activeOnly)
	c.schedCtx.rescheduleTaskNow(host, TaskGetTasks)
	return nil
}

// RescheduleNow forces every one of host's periodic tasks to run on the
// scheduler's next wake-up.
func (c *Controller) RescheduleNow(host string) error {
	if _, err := c.getHostController(host); err != nil {
		return err
	}
	c.schedCtx.rescheduleNow(host)
	return nil
}

// BandwidthStats reports host's cumulative bytes read/written, as tracked by
// the connmonitor.MonitoredConn wrapping its connection.
func (c *Controller) BandwidthStats(host string) (read, written uint64, err error) {
	hc, err := c.getHostController(host)
	if err != nil {
		return 0, 0, err
	}
	read, written = hc.bandwidthCounts()
	return read, written, nil
}

// --- async commands (spec.md §4.8) ---

// submitAsync enqueues cmd on host's worker queue and returns a Future that
// resolves with project()'s result once cmd completes successfully, or with
// the mapped error otherwise. It is a package-level function rather than a
// Controller method because Go forbids a method from introducing its own
// type parameter.
func submitAsync[T any](c *Controller, host string, cmd rpc.Command, project func() T) (Future[T], error) {
	hc, err := c.getHostController(host)
	if err != nil {
		return Future[T]{}, err
	}
	ch := make(chan asyncResult[T], 1)
	hc.submitAsync(cmd, func(status rpc.Status) {
		if status != rpc.StatusOK {
			ch <- asyncResult[T]{err: statusToErr(status)}
			return
		}
		ch <- asyncResult[T]{value: project()}
	})
	return Future[T]{ch: ch}, nil
}

func nonEmpty(args ...string) error {
	for _, a := range args {
		if a == "" {
			return ErrInvalidArgument
		}
	}
	return nil
}

// FileTransferOp aborts or retries a file transfer, then reschedules host's
// GetFileTransfers refresh to pick up the change promptly.
func (c *Controller) FileTransferOp(host string, op rpc.FileTransferOp, masterURL, filename string) (Future[bool], error) {
	if err := nonEmpty(masterURL, filename); err != nil {
		return Future[bool]{}, err
	}
	cmd := &rpc.FileTransferOpCommand{}
	cmd.Request.Op = op
	cmd.Request.MasterURL = masterURL
	cmd.Request.Filename = filename
	f, err := submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
	if err == nil {
		c.schedCtx.rescheduleTaskNow(host, TaskGetFileTransfers)
	}
	return f, err
}

// ProjectOp performs op on the attached project at masterURL, then
// reschedules host's GetProjectStatus refresh.
func (c *Controller) ProjectOp(host string, op rpc.ProjectOp, masterURL string) (Future[bool], error) {
	if err := nonEmpty(masterURL); err != nil {
		return Future[bool]{}, err
	}
	cmd := &rpc.ProjectOpCommand{}
	cmd.Request.Op = op
	cmd.Request.MasterURL = masterURL
	f, err := submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
	if err == nil {
		c.schedCtx.rescheduleTaskNow(host, TaskGetProjectStatus)
	}
	return f, err
}

// TaskOp performs op on taskName of masterURL, then reschedules host's
// GetTasks refresh.
func (c *Controller) TaskOp(host string, op rpc.TaskOp, masterURL, taskName string) (Future[bool], error) {
	if err := nonEmpty(masterURL, taskName); err != nil {
		return Future[bool]{}, err
	}
	cmd := &rpc.TaskOpCommand{}
	cmd.Request.Op = op
	cmd.Request.MasterURL = masterURL
	cmd.Request.TaskName = taskName
	f, err := submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
	if err == nil {
		c.schedCtx.rescheduleTaskNow(host, TaskGetTasks)
	}
	return f, err
}

// LoadGlobalPreferences fetches global preferences in the given mode.
func (c *Controller) LoadGlobalPreferences(host string, mode rpc.GetGlobalPrefsMode) (Future[rpc.GlobalPreferences], error) {
	cmd := &rpc.GetGlobalPreferencesCommand{}
	cmd.Request.Mode = mode
	return submitAsync(c, host, cmd, func() rpc.GlobalPreferences { return cmd.Response.Preferences })
}

// SaveGlobalPreferences writes prefs, applying only the fields selected by
// mask.
func (c *Controller) SaveGlobalPreferences(host string, prefs rpc.GlobalPreferences, mask rpc.GlobalPreferencesMask) (Future[bool], error) {
	cmd := &rpc.SetGlobalPreferencesCommand{}
	cmd.Request.Preferences = prefs
	cmd.Request.Mask = mask
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// ReadGlobalPreferencesOverride asks host to reload global_prefs_override.xml.
func (c *Controller) ReadGlobalPreferencesOverride(host string) (Future[bool], error) {
	cmd := &rpc.ReadGlobalPreferencesOverrideCommand{}
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// GetCCConfig fetches host's current cc_config.
func (c *Controller) GetCCConfig(host string) (Future[rpc.CCConfig], error) {
	cmd := &rpc.GetCCConfigCommand{}
	return submitAsync(c, host, cmd, func() rpc.CCConfig { return cmd.Response.CCConfig })
}

// SetCCConfig writes a new cc_config to host.
func (c *Controller) SetCCConfig(host string, cfg rpc.CCConfig) (Future[bool], error) {
	cmd := &rpc.SetCCConfigCommand{}
	cmd.Request.CCConfig = cfg
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// ReadConfigFiles asks host to reload cc_config.xml from disk.
func (c *Controller) ReadConfigFiles(host string) (Future[bool], error) {
	cmd := &rpc.ReadCCConfigCommand{}
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// SetRunMode sets host's overall run mode.
func (c *Controller) SetRunMode(host string, mode rpc.RunMode) (Future[bool], error) {
	cmd := &rpc.SetRunModeCommand{}
	cmd.Request.Mode = mode
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// SetGpuMode sets host's GPU run mode.
func (c *Controller) SetGpuMode(host string, mode rpc.RunMode) (Future[bool], error) {
	cmd := &rpc.SetGpuModeCommand{}
	cmd.Request.Mode = mode
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// SetNetworkMode sets host's network run mode.
func (c *Controller) SetNetworkMode(host string, mode rpc.RunMode) (Future[bool], error) {
	cmd := &rpc.SetNetworkModeCommand{}
	cmd.Request.Mode = mode
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// AllProjectsList fetches host's catalog of known projects.
func (c *Controller) AllProjectsList(host string) (Future[rpc.AllProjectsList], error) {
	cmd := &rpc.GetAllProjectsListCommand{}
	return submitAsync(c, host, cmd, func() rpc.AllProjectsList { return cmd.Response.Projects })
}

// StartLoadingProjectConfig begins fetching masterURL's project config;
// the result is retrieved with PollProjectConfig.
func (c *Controller) StartLoadingProjectConfig(host, masterURL string) (Future[bool], error) {
	if err := nonEmpty(masterURL); err != nil {
		return Future[bool]{}, err
	}
	cmd := &rpc.GetProjectConfigCommand{}
	cmd.Request.MasterURL = masterURL
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// PollProjectConfig retrieves the result of a StartLoadingProjectConfig
// call; callers poll until the daemon reports the lookup has finished.
func (c *Controller) PollProjectConfig(host string) (Future[rpc.ProjectConfig], error) {
	cmd := &rpc.GetProjectConfigPollCommand{}
	return submitAsync(c, host, cmd, func() rpc.ProjectConfig { return cmd.Response.ProjectConfig })
}

// StartAccountLookup begins an account lookup; the result is retrieved with
// PollAccountLookup.
func (c *Controller) StartAccountLookup(host, masterURL, email, password string) (Future[bool], error) {
	if err := nonEmpty(masterURL, email, password); err != nil {
		return Future[bool]{}, err
	}
	cmd := &rpc.LookupAccountCommand{}
	cmd.Request.MasterURL = masterURL
	cmd.Request.Email = email
	cmd.Request.Password = password
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// PollAccountLookup retrieves the result of a StartAccountLookup call.
func (c *Controller) PollAccountLookup(host string) (Future[rpc.AccountOut], error) {
	cmd := &rpc.LookupAccountPollCommand{}
	return submitAsync(c, host, cmd, func() rpc.AccountOut { return cmd.Response.AccountOut })
}

// AttachProject attaches masterURL using an authenticator already obtained
// out of band (e.g. via StartAccountLookup/PollAccountLookup).
func (c *Controller) AttachProject(host, masterURL, authenticator string) (Future[bool], error) {
	if err := nonEmpty(masterURL, authenticator); err != nil {
		return Future[bool]{}, err
	}
	cmd := &rpc.ProjectAttachCommand{}
	cmd.Request.MasterURL = masterURL
	cmd.Request.Authenticator = authenticator
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// NetworkAvailable tells host to retry any deferred network communication.
func (c *Controller) NetworkAvailable(host string) (Future[bool], error) {
	cmd := &rpc.NetworkAvailableCommand{}
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// RunBenchmarks triggers a CPU benchmark run on host.
func (c *Controller) RunBenchmarks(host string) (Future[bool], error) {
	cmd := &rpc.RunBenchmarksCommand{}
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}

// Quit asks host's daemon to exit.
func (c *Controller) Quit(host string) (Future[bool], error) {
	cmd := &rpc.QuitCommand{}
	return submitAsync(c, host, cmd, func() bool { return cmd.Response.Success })
}
