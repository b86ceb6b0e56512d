// Package woincui drives multiple remote BOINC-style daemons from a single
// application process: one persistent TCP connection and worker goroutine
// per host, fed by a shared periodic-refresh scheduler, with results fanned
// out to application-supplied observers and one-shot results delivered to
// callers of the async command methods.
package woincui

// PeriodicTask identifies one kind of recurring refresh RPC.
type PeriodicTask int

// The full set of periodic refresh tasks, in the same order the original
// library lays out its per-task interval array.
const (
	TaskGetCCStatus PeriodicTask = iota
	TaskGetClientState
	TaskGetDiskUsage
	TaskGetFileTransfers
	TaskGetMessages
	TaskGetNotices
	TaskGetProjectStatus
	TaskGetStatistics
	TaskGetTasks

	numPeriodicTasks = int(TaskGetTasks) + 1
)

// String implements fmt.Stringer for log messages.
func (t PeriodicTask) String() string {
	switch t {
	case TaskGetCCStatus:
		return "GetCCStatus"
	case TaskGetClientState:
		return "GetClientState"
	case TaskGetDiskUsage:
		return "GetDiskUsage"
	case TaskGetFileTransfers:
		return "GetFileTransfers"
	case TaskGetMessages:
		return "GetMessages"
	case TaskGetNotices:
		return "GetNotices"
	case TaskGetProjectStatus:
		return "GetProjectStatus"
	case TaskGetStatistics:
		return "GetStatistics"
	case TaskGetTasks:
		return "GetTasks"
	default:
		return "UnknownTask"
	}
}
