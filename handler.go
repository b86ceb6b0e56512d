package woincui

import "gitlab.com/NebulousLabs/woincui/rpc"

// HostHandler observes host lifecycle events: addition, connection,
// authorization, and removal, plus asynchronous errors surfaced while
// executing periodic or authorization jobs. Async command failures are
// delivered to the caller's future instead (spec.md §7) and do not reach
// HostHandler.
type HostHandler interface {
	OnHostAdded(host string)
	OnHostConnected(host string)
	OnHostAuthorized(host string)
	OnHostAuthorizationFailed(host string)
	OnHostError(host string, err error)
	OnHostRemoved(host string)
}

// PeriodicTaskHandler observes the results of periodic refresh RPCs, one
// method per PeriodicTask. OnNotices additionally carries the daemon's
// "refreshed" flag, passed through from the response (spec.md §6).
type PeriodicTaskHandler interface {
	OnCCStatus(host string, status rpc.CCStatus)
	OnClientState(host string, state rpc.ClientState)
	OnDiskUsage(host string, usage rpc.DiskUsage)
	OnFileTransfers(host string, transfers []rpc.FileTransfer)
	OnMessages(host string, messages []rpc.Message)
	OnNotices(host string, notices []rpc.Notice, refreshed bool)
	OnProjectStatus(host string, projects []rpc.Project)
	OnStatistics(host string, stats []rpc.Statistics)
	OnTasks(host string, tasks []rpc.Task)
}

// NoopHostHandler is an embeddable zero-cost default for applications that
// only care about a subset of HostHandler's events. Go interfaces have no
// default-method mechanism, so the common workaround is embedding a no-op
// base and overriding what's needed.
type NoopHostHandler struct{}

func (NoopHostHandler) OnHostAdded(string)              {}
func (NoopHostHandler) OnHostConnected(string)           {}
func (NoopHostHandler) OnHostAuthorized(string)          {}
func (NoopHostHandler) OnHostAuthorizationFailed(string) {}
func (NoopHostHandler) OnHostError(string, error)        {}
func (NoopHostHandler) OnHostRemoved(string)             {}

// NoopPeriodicTaskHandler is the PeriodicTaskHandler analogue of
// NoopHostHandler.
type NoopPeriodicTaskHandler struct{}

func (NoopPeriodicTaskHandler) OnCCStatus(string, rpc.CCStatus)            {}
func (NoopPeriodicTaskHandler) OnClientState(string, rpc.ClientState)      {}
func (NoopPeriodicTaskHandler) OnDiskUsage(string, rpc.DiskUsage)          {}
func (NoopPeriodicTaskHandler) OnFileTransfers(string, []rpc.FileTransfer) {}
func (NoopPeriodicTaskHandler) OnMessages(string, []rpc.Message)           {}
func (NoopPeriodicTaskHandler) OnNotices(string, []rpc.Notice, bool)       {}
func (NoopPeriodicTaskHandler) OnProjectStatus(string, []rpc.Project)      {}
func (NoopPeriodicTaskHandler) OnStatistics(string, []rpc.Statistics)      {}
func (NoopPeriodicTaskHandler) OnTasks(string, []rpc.Task)                 {}
