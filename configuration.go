package woincui

import (
	"sync"
	"time"
)

// Default per-task refresh intervals (spec.md §3), matching
// original_source/libui/src/configuration.h's default array exactly.
const (
	DefaultCCStatusInterval      = 1 * time.Second
	DefaultClientStateInterval   = 3600 * time.Second
	DefaultDiskUsageInterval     = 60 * time.Second
	DefaultFileTransfersInterval = 1 * time.Second
	DefaultMessagesInterval      = 1 * time.Second
	DefaultNoticesInterval       = 60 * time.Second
	DefaultProjectStatusInterval = 1 * time.Second
	DefaultStatisticsInterval    = 60 * time.Second
	DefaultTasksInterval         = 1 * time.Second
)

func defaultIntervals() [numPeriodicTasks]time.Duration {
	return [numPeriodicTasks]time.Duration{
		TaskGetCCStatus:      DefaultCCStatusInterval,
		TaskGetClientState:   DefaultClientStateInterval,
		TaskGetDiskUsage:     DefaultDiskUsageInterval,
		TaskGetFileTransfers: DefaultFileTransfersInterval,
		TaskGetMessages:      DefaultMessagesInterval,
		TaskGetNotices:       DefaultNoticesInterval,
		TaskGetProjectStatus: DefaultProjectStatusInterval,
		TaskGetStatistics:    DefaultStatisticsInterval,
		TaskGetTasks:         DefaultTasksInterval,
	}
}

// hostConfiguration is the per-host flag set controlled by
// schedule_periodic_tasks and active_only_tasks.
type hostConfiguration struct {
	schedulePeriodicTasks bool
	activeOnlyTasks       bool
}

// configuration is the thread-safe holder of per-task refresh intervals and
// per-host scheduling flags described in spec.md §3/§4.6. All operations are
// serialized under one mutex; intervals() returns a value-copy snapshot so
// callers (the scheduler) never hold this lock while making decisions.
type configuration struct {
	mu sync.Mutex

	intervals [numPeriodicTasks]time.Duration
	hosts     map[string]*hostConfiguration
}

func newConfiguration() *configuration {
	return &configuration{
		intervals: defaultIntervals(),
		hosts:     make(map[string]*hostConfiguration),
	}
}

// setInterval changes the refresh interval for task.
func (c *configuration) setInterval(task PeriodicTask, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intervals[task] = d
}

// interval returns the current refresh interval for task.
func (c *configuration) interval(task PeriodicTask) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intervals[task]
}

// intervalsSnapshot returns a value-copy of the full interval table.
func (c *configuration) intervalsSnapshot() [numPeriodicTasks]time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intervals
}

// addHost registers a new host with periodic tasks disabled and
// active-only tasks disabled, the defaults spec.md §3 requires.
func (c *configuration) addHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosts[host] = &hostConfiguration{}
}

// removeHost erases host's configuration row. Absence is a programming
// error per spec.md §4.6 and is not guarded against here.
func (c *configuration) removeHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.hosts, host)
}

// setSchedulePeriodicTasks enables or disables periodic refreshes for host.
func (c *configuration) setSchedulePeriodicTasks(host string, value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosts[host].schedulePeriodicTasks = value
}

// schedulePeriodicTasks reports whether periodic refreshes are enabled for
// host.
func (c *configuration) schedulePeriodicTasks(host string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	hc, ok := c.hosts[host]
	return ok && hc.schedulePeriodicTasks
}

// setActiveOnlyTasks sets whether GetTasks refreshes restrict to active
// tasks for host.
func (c *configuration) setActiveOnlyTasks(host string, value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosts[host].activeOnlyTasks = value
}

// activeOnlyTasks reports the current active-only flag for host.
func (c *configuration) activeOnlyTasks(host string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	hc, ok := c.hosts[host]
	return ok && hc.activeOnlyTasks
}
