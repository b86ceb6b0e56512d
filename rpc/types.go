package rpc

// The data-model types below carry the payload of daemon responses. Their
// full shape is out of scope for this library (see spec.md §1); only enough
// fields are modeled to let the controller round-trip values to observers
// and callers without inspecting them further.

// CCStatus reports the daemon's overall run/network/gpu suspend state.
type CCStatus struct {
	TaskMode        string
	GPUMode         string
	NetworkMode     string
	TaskSuspendReason string
}

// ClientState is the full project/app/task graph known to the daemon.
type ClientState struct {
	Projects []Project
	Tasks    []Task
}

// DiskUsage reports per-project disk consumption.
type DiskUsage struct {
	TotalBytes     float64
	FreeBytes      float64
	ProjectUsage   map[string]float64
}

// FileTransfer describes one in-flight upload/download.
type FileTransfer struct {
	ProjectURL string
	Name       string
	BytesDone  float64
	Status     string
}

// Message is one daemon log line.
type Message struct {
	Seqno     int
	ProjectName string
	Body      string
}

// Notice is one daemon/project notice.
type Notice struct {
	Seqno int
	Title string
	Body  string
}

// Project is a single attached project's status.
type Project struct {
	MasterURL   string
	ProjectName string
	Suspended   bool
	DontRequestMoreWork bool
}

// Statistics is a project's historical credit record.
type Statistics struct {
	ProjectURL string
	DailyStatistics []DailyStatistic
}

// DailyStatistic is one day's credit entry.
type DailyStatistic struct {
	Day         float64
	UserTotalCredit float64
}

// Task is a single workunit/result known to the daemon.
type Task struct {
	Name       string
	ProjectURL string
	State      string
	Active     bool
}

// GlobalPreferences mirrors the daemon's global_prefs.xml content.
type GlobalPreferences struct {
	RunOnBatteries        bool
	MaxNCPUsPct           float64
	DiskMaxUsedGB         float64
}

// GlobalPreferencesMask selects which GlobalPreferences fields a save
// operation should actually write.
type GlobalPreferencesMask struct {
	RunOnBatteries bool
	MaxNCPUsPct    bool
	DiskMaxUsedGB  bool
}

// CCConfig mirrors the daemon's cc_config.xml content.
type CCConfig struct {
	LogLevel        int
	NetworkTestCase bool
}

// AllProjectsList is the catalog of known (not necessarily attached)
// projects, as returned by get_all_projects_list.
type AllProjectsList struct {
	Projects []ProjectListEntry
}

// ProjectListEntry is one entry of AllProjectsList.
type ProjectListEntry struct {
	Name string
	URL  string
}

// ProjectConfig is the result of polling a project's configuration.
type ProjectConfig struct {
	Name          string
	MasterURL     string
	ErrorNum      int
	AccountManagerURL string
}

// AccountOut is the result of polling an account lookup.
type AccountOut struct {
	Authenticator string
	ErrorNum      int
	ErrorMsg      string
}
