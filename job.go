package woincui

import "gitlab.com/NebulousLabs/woincui/rpc"

// periodicPayload carries the request parameter for the two periodic tasks
// that need one (GetMessages/GetNotices need a seqno, GetTasks needs
// active-only). original_source/libui/src/jobs.h models this as a C union;
// Go has no safe union, so both fields are carried and the job's task kind
// says which one is meaningful.
type periodicPayload struct {
	seqno      int
	activeOnly bool
}

// jobKind tags which of the three Job variants a job is.
type jobKind int

const (
	jobAuthorization jobKind = iota
	jobPeriodic
	jobAsync
)

// job is a single unit of work executed by exactly one HostController's
// worker goroutine. It renders original_source/libui/src/jobs.h's
// Job/PeriodicJob/AuthorizationJob/AsyncJob class hierarchy as one tagged
// struct (Design Note 1 of spec.md), since the async variant's
// "result type + projector function" genericity (Design Note 2) is a
// closure in Go rather than a template instantiation.
type job struct {
	kind jobKind

	// set for jobAuthorization
	password string

	// set for jobPeriodic
	task    PeriodicTask
	payload periodicPayload

	// set for jobAsync: cmd is executed, then run is called with the
	// resulting status so it can populate the caller's one-shot result
	// and close it.
	cmd rpc.Command
	run func(status rpc.Status)

	registry *handlerRegistry

	// postExec, if set, is invoked on the worker goroutine immediately
	// after execute returns. Used by the scheduler to record completion
	// bookkeeping (spec.md §4.2).
	postExec func(host string, j *job)
}

// execute runs the job against client, then invokes the registered
// post-execution hook, if any. This is the worker loop's per-job call
// (mirrors Job::operator() in original_source/libui/src/jobs.cc).
func (j *job) execute(client Client) {
	switch j.kind {
	case jobAuthorization:
		j.executeAuthorization(client)
	case jobPeriodic:
		j.executePeriodic(client)
	case jobAsync:
		status := client.Execute(j.cmd)
		j.run(status)
	}

	if j.postExec != nil {
		j.postExec(client.Host(), j)
	}
}

func (j *job) executeAuthorization(client Client) {
	cmd := &rpc.AuthorizeCommand{}
	cmd.Request.Password = j.password
	status := client.Execute(cmd)

	j.registry.forHostHandler(func(h HostHandler) {
		switch status {
		case rpc.StatusOK:
			h.OnHostAuthorized(client.Host())
		case rpc.StatusUnauthorized:
			h.OnHostAuthorizationFailed(client.Host())
		default:
			h.OnHostError(client.Host(), statusToErr(status))
		}
	})
}

func (j *job) executePeriodic(client Client) {
	host := client.Host()

	reportErr := func(status rpc.Status) {
		j.registry.forHostHandler(func(h HostHandler) {
			h.OnHostError(host, statusToErr(status))
		})
	}

	switch j.task {
	case TaskGetCCStatus:
		cmd := &rpc.GetCCStatusCommand{}
		if status := client.Execute(cmd); status == rpc.StatusOK {
			j.registry.forPeriodicTaskHandler(func(h PeriodicTaskHandler) { h.OnCCStatus(host, cmd.Response.CCStatus) })
		} else {
			reportErr(status)
		}
	case TaskGetClientState:
		cmd := &rpc.GetClientStateCommand{}
		if status := client.Execute(cmd); status == rpc.StatusOK {
			j.registry.forPeriodicTaskHandler(func(h PeriodicTaskHandler) { h.OnClientState(host, cmd.Response.ClientState) })
		} else {
			reportErr(status)
		}
	case TaskGetDiskUsage:
		cmd := &rpc.GetDiskUsageCommand{}
		if status := client.Execute(cmd); status == rpc.StatusOK {
			j.registry.forPeriodicTaskHandler(func(h PeriodicTaskHandler) { h.OnDiskUsage(host, cmd.Response.DiskUsage) })
		} else {
			reportErr(status)
		}
	case TaskGetFileTransfers:
		cmd := &rpc.GetFileTransfersCommand{}
		if status := client.Execute(cmd); status == rpc.StatusOK {
			j.registry.forPeriodicTaskHandler(func(h PeriodicTaskHandler) { h.OnFileTransfers(host, cmd.Response.FileTransfers) })
		} else {
			reportErr(status)
		}
	case TaskGetMessages:
		cmd := &rpc.GetMessagesCommand{}
		cmd.Request.Seqno = j.payload.seqno
		status := client.Execute(cmd)
		if status != rpc.StatusOK {
			reportErr(status)
			return
		}
		if len(cmd.Response.Messages) > 0 {
			j.payload.seqno = cmd.Response.Messages[len(cmd.Response.Messages)-1].Seqno
			messages := cmd.Response.Messages
			j.registry.forPeriodicTaskHandler(func(h PeriodicTaskHandler) { h.OnMessages(host, messages) })
		}
	case TaskGetNotices:
		cmd := &rpc.GetNoticesCommand{}
		cmd.Request.Seqno = j.payload.seqno
		status := client.Execute(cmd)
		if status != rpc.StatusOK {
			reportErr(status)
			return
		}
		if len(cmd.Response.Notices) > 0 {
			j.payload.seqno = cmd.Response.Notices[len(cmd.Response.Notices)-1].Seqno
			notices := cmd.Response.Notices
			refreshed := cmd.Response.Refreshed
			j.registry.forPeriodicTaskHandler(func(h PeriodicTaskHandler) { h.OnNotices(host, notices, refreshed) })
		}
	case TaskGetProjectStatus:
		cmd := &rpc.GetProjectStatusCommand{}
		if status := client.Execute(cmd); status == rpc.StatusOK {
			j.registry.forPeriodicTaskHandler(func(h PeriodicTaskHandler) { h.OnProjectStatus(host, cmd.Response.Projects) })
		} else {
			reportErr(status)
		}
	case TaskGetStatistics:
		cmd := &rpc.GetStatisticsCommand{}
		if status := client.Execute(cmd); status == rpc.StatusOK {
			j.registry.forPeriodicTaskHandler(func(h PeriodicTaskHandler) { h.OnStatistics(host, cmd.Response.Statistics) })
		} else {
			reportErr(status)
		}
	case TaskGetTasks:
		cmd := &rpc.GetResultsCommand{}
		cmd.Request.ActiveOnly = j.payload.activeOnly
		if status := client.Execute(cmd); status == rpc.StatusOK {
			j.registry.forPeriodicTaskHandler(func(h PeriodicTaskHandler) { h.OnTasks(host, cmd.Response.Tasks) })
		} else {
			reportErr(status)
		}
	}
}
