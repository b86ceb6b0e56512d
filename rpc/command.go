package rpc

// Command is a single RPC exchange: build a request, round-trip it over a
// Connection, and stash the decoded response for the caller to read back.
// Concrete commands own their own Request/Response pair the way
// original_source/lib/include/woinc/rpc_command.h's templates did; Go
// renders that as one small struct per command rather than a template.
type Command interface {
	Execute(conn *Connection) Status
}

// AuthorizeCommand performs the daemon's password challenge.
type AuthorizeCommand struct {
	Request  struct{ Password string }
	Response struct{}
}

// Execute implements Command.
func (c *AuthorizeCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("authorize", &c.Request, &c.Response)
}

// --- periodic-task commands ---

// GetCCStatusCommand fetches the daemon's current run/network/gpu mode.
type GetCCStatusCommand struct {
	Request  struct{}
	Response struct{ CCStatus CCStatus }
}

func (c *GetCCStatusCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_cc_status", &c.Request, &c.Response)
}

// GetClientStateCommand fetches the full project/task graph.
type GetClientStateCommand struct {
	Request  struct{}
	Response struct{ ClientState ClientState }
}

func (c *GetClientStateCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_client_state", &c.Request, &c.Response)
}

// GetDiskUsageCommand fetches per-project disk usage.
type GetDiskUsageCommand struct {
	Request  struct{}
	Response struct{ DiskUsage DiskUsage }
}

func (c *GetDiskUsageCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_disk_usage", &c.Request, &c.Response)
}

// GetFileTransfersCommand fetches in-flight file transfers.
type GetFileTransfersCommand struct {
	Request  struct{}
	Response struct{ FileTransfers []FileTransfer }
}

func (c *GetFileTransfersCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_file_transfers", &c.Request, &c.Response)
}

// GetMessagesCommand fetches daemon log messages with seqno greater than
// Request.Seqno.
type GetMessagesCommand struct {
	Request  struct{ Seqno int }
	Response struct{ Messages []Message }
}

func (c *GetMessagesCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_messages", &c.Request, &c.Response)
}

// GetNoticesCommand fetches notices with seqno greater than Request.Seqno.
type GetNoticesCommand struct {
	Request  struct{ Seqno int }
	Response struct {
		Notices   []Notice
		Refreshed bool
	}
}

func (c *GetNoticesCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_notices", &c.Request, &c.Response)
}

// GetProjectStatusCommand fetches the status of attached projects.
type GetProjectStatusCommand struct {
	Request  struct{}
	Response struct{ Projects []Project }
}

func (c *GetProjectStatusCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_project_status", &c.Request, &c.Response)
}

// GetStatisticsCommand fetches per-project credit history.
type GetStatisticsCommand struct {
	Request  struct{}
	Response struct{ Statistics []Statistics }
}

func (c *GetStatisticsCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_statistics", &c.Request, &c.Response)
}

// GetResultsCommand fetches tasks, optionally limited to active ones.
type GetResultsCommand struct {
	Request  struct{ ActiveOnly bool }
	Response struct{ Tasks []Task }
}

func (c *GetResultsCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_results", &c.Request, &c.Response)
}

// --- async command requests ---

// FileTransferOp is one of the operations applicable to a file transfer.
type FileTransferOp int

const (
	FileTransferOpAbort FileTransferOp = iota
	FileTransferOpRetry
)

// FileTransferOpCommand aborts or retries a file transfer.
type FileTransferOpCommand struct {
	Request struct {
		Op        FileTransferOp
		MasterURL string
		Filename  string
	}
	Response struct{ Success bool }
}

func (c *FileTransferOpCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("file_transfer_op", &c.Request, &c.Response)
}

// ProjectOp is one of the operations applicable to an attached project.
type ProjectOp int

const (
	ProjectOpAllowMoreWork ProjectOp = iota
	ProjectOpDetach
	ProjectOpDetachWhenDone
	ProjectOpDontDetachWhenDone
	ProjectOpNoMoreWork
	ProjectOpReset
	ProjectOpResume
	ProjectOpSuspend
	ProjectOpUpdate
)

// ProjectOpCommand performs an operation on an attached project.
type ProjectOpCommand struct {
	Request struct {
		Op        ProjectOp
		MasterURL string
	}
	Response struct{ Success bool }
}

func (c *ProjectOpCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("project_op", &c.Request, &c.Response)
}

// TaskOp is one of the operations applicable to a task.
type TaskOp int

const (
	TaskOpAbort TaskOp = iota
	TaskOpResume
	TaskOpSuspend
)

// TaskOpCommand performs an operation on a task.
type TaskOpCommand struct {
	Request struct {
		Op        TaskOp
		MasterURL string
		TaskName  string
	}
	Response struct{ Success bool }
}

func (c *TaskOpCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("task_op", &c.Request, &c.Response)
}

// GetGlobalPrefsMode selects which variant of global preferences to load.
type GetGlobalPrefsMode int

const (
	GetGlobalPrefsModeFile GetGlobalPrefsMode = iota
	GetGlobalPrefsModeOverride
	GetGlobalPrefsModeWorking
)

// GetGlobalPreferencesCommand loads global preferences.
type GetGlobalPreferencesCommand struct {
	Request  struct{ Mode GetGlobalPrefsMode }
	Response struct{ Preferences GlobalPreferences }
}

func (c *GetGlobalPreferencesCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_global_prefs", &c.Request, &c.Response)
}

// SetGlobalPreferencesCommand saves global preferences, applying only the
// fields selected by the mask.
type SetGlobalPreferencesCommand struct {
	Request struct {
		Preferences GlobalPreferences
		Mask        GlobalPreferencesMask
	}
	Response struct{ Success bool }
}

func (c *SetGlobalPreferencesCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("set_global_prefs", &c.Request, &c.Response)
}

// ReadGlobalPreferencesOverrideCommand asks the daemon to reload its
// global_prefs_override.xml from disk.
type ReadGlobalPreferencesOverrideCommand struct {
	Request  struct{}
	Response struct{ Success bool }
}

func (c *ReadGlobalPreferencesOverrideCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("read_global_prefs_override", &c.Request, &c.Response)
}

// GetCCConfigCommand reads the daemon's current cc_config.
type GetCCConfigCommand struct {
	Request  struct{}
	Response struct{ CCConfig CCConfig }
}

func (c *GetCCConfigCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_cc_config", &c.Request, &c.Response)
}

// SetCCConfigCommand writes a new cc_config to the daemon.
type SetCCConfigCommand struct {
	Request  struct{ CCConfig CCConfig }
	Response struct{ Success bool }
}

func (c *SetCCConfigCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("set_cc_config", &c.Request, &c.Response)
}

// ReadCCConfigCommand asks the daemon to reload cc_config.xml from disk.
type ReadCCConfigCommand struct {
	Request  struct{}
	Response struct{ Success bool }
}

func (c *ReadCCConfigCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("read_cc_config", &c.Request, &c.Response)
}

// SetRunModeCommand sets the daemon's overall run mode.
type SetRunModeCommand struct {
	Request  struct{ Mode RunMode }
	Response struct{ Success bool }
}

func (c *SetRunModeCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("set_run_mode", &c.Request, &c.Response)
}

// SetGpuModeCommand sets the daemon's GPU run mode.
type SetGpuModeCommand struct {
	Request  struct{ Mode RunMode }
	Response struct{ Success bool }
}

func (c *SetGpuModeCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("set_gpu_mode", &c.Request, &c.Response)
}

// SetNetworkModeCommand sets the daemon's network run mode.
type SetNetworkModeCommand struct {
	Request  struct{ Mode RunMode }
	Response struct{ Success bool }
}

func (c *SetNetworkModeCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("set_network_mode", &c.Request, &c.Response)
}

// GetAllProjectsListCommand fetches the catalog of known projects.
type GetAllProjectsListCommand struct {
	Request  struct{}
	Response struct{ Projects AllProjectsList }
}

func (c *GetAllProjectsListCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_all_projects_list", &c.Request, &c.Response)
}

// GetProjectConfigCommand starts loading a project's configuration.
type GetProjectConfigCommand struct {
	Request  struct{ MasterURL string }
	Response struct{ Success bool }
}

func (c *GetProjectConfigCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_project_config", &c.Request, &c.Response)
}

// GetProjectConfigPollCommand polls for the result of a previously started
// GetProjectConfigCommand.
type GetProjectConfigPollCommand struct {
	Request  struct{}
	Response struct{ ProjectConfig ProjectConfig }
}

func (c *GetProjectConfigPollCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("get_project_config_poll", &c.Request, &c.Response)
}

// LookupAccountCommand starts an account lookup.
type LookupAccountCommand struct {
	Request struct {
		MasterURL string
		Email     string
		Password  string
	}
	Response struct{ Success bool }
}

func (c *LookupAccountCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("lookup_account", &c.Request, &c.Response)
}

// LookupAccountPollCommand polls for the result of a previously started
// LookupAccountCommand.
type LookupAccountPollCommand struct {
	Request  struct{}
	Response struct{ AccountOut AccountOut }
}

func (c *LookupAccountPollCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("lookup_account_poll", &c.Request, &c.Response)
}

// ProjectAttachCommand attaches a project using an authenticator already
// obtained out of band (e.g. via LookupAccountCommand).
type ProjectAttachCommand struct {
	Request struct {
		MasterURL     string
		Authenticator string
	}
	Response struct{ Success bool }
}

func (c *ProjectAttachCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("project_attach", &c.Request, &c.Response)
}

// NetworkAvailableCommand retries deferred network communication.
type NetworkAvailableCommand struct {
	Request  struct{}
	Response struct{ Success bool }
}

func (c *NetworkAvailableCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("network_available", &c.Request, &c.Response)
}

// RunBenchmarksCommand triggers a CPU benchmark run.
type RunBenchmarksCommand struct {
	Request  struct{}
	Response struct{ Success bool }
}

func (c *RunBenchmarksCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("run_benchmarks", &c.Request, &c.Response)
}

// QuitCommand asks the daemon to exit.
type QuitCommand struct {
	Request  struct{}
	Response struct{ Success bool }
}

func (c *QuitCommand) Execute(conn *Connection) Status {
	return conn.RoundTrip("quit", &c.Request, &c.Response)
}

// RunMode is the run/gpu/network mode applied via SetRunModeCommand,
// SetGpuModeCommand, and SetNetworkModeCommand.
type RunMode int

const (
	RunModeAlways RunMode = iota
	RunModeAuto
	RunModeNever
	RunModeRestore
)
