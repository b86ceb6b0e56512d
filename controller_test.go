package woincui

import (
	"testing"
	"time"

	"gitlab.com/NebulousLabs/woincui/rpc"
)

// newTestController returns a Controller wired to fakeClients instead of
// real TCP connections, plus a lookup from host name to its fakeClient for
// tests that need to script command outcomes.
func newTestController(t *testing.T) (*Controller, map[string]*fakeClient) {
	t.Helper()
	clients := make(map[string]*fakeClient)
	c := New()
	c.newClient = func(host string) Client {
		fc := newFakeClient(host)
		clients[host] = fc
		return fc
	}
	return c, clients
}

// TestControllerAddHostLifecycle checks the host events of spec.md §8
// scenario 1: add_host delivers on_host_added then on_host_connected. The
// scenario's "no periodic update until scheduling is enabled" part is
// checked by TestSchedulerNoUpdatesUntilEnabled.
func TestControllerAddHostLifecycle(t *testing.T) {
	t.Parallel()

	ctl, _ := newTestController(t)
	defer ctl.Shutdown()

	addedCh := make(chan string, 1)
	connectedCh := make(chan string, 1)
	observer := &lifecycleHandler{added: addedCh, connected: connectedCh}
	ctl.RegisterHostHandler(observer)

	if err := ctl.AddHost("h", "127.0.0.1", 31416); err != nil {
		t.Fatalf("AddHost: %v", err)
	}

	select {
	case got := <-addedCh:
		if got != "h" {
			t.Fatalf("expected on_host_added(h), got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("on_host_added never fired")
	}

	select {
	case got := <-connectedCh:
		if got != "h" {
			t.Fatalf("expected on_host_connected(h), got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("on_host_connected never fired")
	}
}

type lifecycleHandler struct {
	NoopHostHandler
	added     chan string
	connected chan string
}

func (h *lifecycleHandler) OnHostAdded(host string)     { h.added <- host }
func (h *lifecycleHandler) OnHostConnected(host string) { h.connected <- host }

// TestControllerAsyncCommandResolves checks that an async command's Future
// resolves with the typed value once the underlying RPC succeeds.
func TestControllerAsyncCommandResolves(t *testing.T) {
	t.Parallel()

	ctl, clients := newTestController(t)
	defer ctl.Shutdown()

	if err := ctl.AddHost("h", "127.0.0.1", 31416); err != nil {
		t.Fatalf("AddHost: %v", err)
	}
	waitConnected(t, clients, "h")
	clients["h"].executeFunc = func(cmd rpc.Command) rpc.Status {
		if bench, ok := cmd.(*rpc.RunBenchmarksCommand); ok {
			bench.Response.Success = true
		}
		return rpc.StatusOK
	}

	future, err := ctl.RunBenchmarks("h")
	if err != nil {
		t.Fatalf("RunBenchmarks: %v", err)
	}
	value, err := future.Wait()
	if err != nil {
		t.Fatalf("future resolved with error: %v", err)
	}
	if !value {
		t.Fatal("expected success=true")
	}
}

// TestControllerAsyncCommandArgumentError checks spec.md §7: an empty
// required argument fails synchronously with ErrInvalidArgument, without
// ever touching the host's queue.
func TestControllerAsyncCommandArgumentError(t *testing.T) {
	t.Parallel()

	ctl, clients := newTestController(t)
	defer ctl.Shutdown()

	if err := ctl.AddHost("h", "127.0.0.1", 31416); err != nil {
		t.Fatalf("AddHost: %v", err)
	}
	waitConnected(t, clients, "h")

	_, err := ctl.FileTransferOp("h", rpc.FileTransferOpAbort, "", "f")
	if err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if n := clients["h"].executions(); n != 0 {
		t.Fatalf("expected no RPC executions, got %d", n)
	}
}

// TestControllerEmptyHostIsArgumentError checks spec.md §7: an empty host id
// fails with ErrInvalidArgument, distinct from UnknownHostError, for both a
// getHostController-routed method and RemoveHost's separate check.
func TestControllerEmptyHostIsArgumentError(t *testing.T) {
	t.Parallel()

	ctl, _ := newTestController(t)
	defer ctl.Shutdown()

	if _, err := ctl.RunBenchmarks(""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if err := ctl.RemoveHost(""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

// TestControllerAuthorizeHostEmptyPassword checks spec.md §7: AuthorizeHost
// rejects an empty password synchronously instead of queuing a real
// authorization job.
func TestControllerAuthorizeHostEmptyPassword(t *testing.T) {
	t.Parallel()

	ctl, clients := newTestController(t)
	defer ctl.Shutdown()

	if err := ctl.AddHost("h", "127.0.0.1", 31416); err != nil {
		t.Fatalf("AddHost: %v", err)
	}
	waitConnected(t, clients, "h")

	if err := ctl.AuthorizeHost("h", ""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if n := clients["h"].executions(); n != 0 {
		t.Fatalf("expected no RPC executions, got %d", n)
	}
}

// TestControllerStartAccountLookupEmptyPassword checks spec.md §7: an empty
// password fails synchronously alongside masterURL/email.
func TestControllerStartAccountLookupEmptyPassword(t *testing.T) {
	t.Parallel()

	ctl, clients := newTestController(t)
	defer ctl.Shutdown()

	if err := ctl.AddHost("h", "127.0.0.1", 31416); err != nil {
		t.Fatalf("AddHost: %v", err)
	}
	waitConnected(t, clients, "h")

	if _, err := ctl.StartAccountLookup("h", "https://example.org", "user@example.org", ""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if n := clients["h"].executions(); n != 0 {
		t.Fatalf("expected no RPC executions, got %d", n)
	}
}

// TestControllerShutdownJoinsAsyncRemoveHost checks that Shutdown waits for
// an in-flight AsyncRemoveHost goroutine instead of racing it.
func TestControllerShutdownJoinsAsyncRemoveHost(t *testing.T) {
	t.Parallel()

	ctl, clients := newTestController(t)

	if err := ctl.AddHost("h", "127.0.0.1", 31416); err != nil {
		t.Fatalf("AddHost: %v", err)
	}
	waitConnected(t, clients, "h")

	ctl.AsyncRemoveHost("h")
	ctl.Shutdown() // must not return before the AsyncRemoveHost goroutine does

	if err := ctl.AddHost("h2", "127.0.0.1", 31416); err != ErrShutdown {
		t.Fatalf("expected ErrShutdown, got %v", err)
	}
}

// TestControllerUnknownHost checks that every host-scoped method rejects an
// id that was never added.
func TestControllerUnknownHost(t *testing.T) {
	t.Parallel()

	ctl, _ := newTestController(t)
	defer ctl.Shutdown()

	if err := ctl.AuthorizeHost("ghost", "pw"); err == nil {
		t.Fatal("expected an error authorizing an unknown host")
	} else if _, ok := err.(UnknownHostError); !ok {
		t.Fatalf("expected UnknownHostError, got %T: %v", err, err)
	}

	if _, err := ctl.RunBenchmarks("ghost"); err == nil {
		t.Fatal("expected an error for an unknown host")
	} else if _, ok := err.(UnknownHostError); !ok {
		t.Fatalf("expected UnknownHostError, got %T: %v", err, err)
	}
}

// TestControllerShutdownIdempotent checks spec.md §8: two shutdown() calls
// are indistinguishable from one.
func TestControllerShutdownIdempotent(t *testing.T) {
	t.Parallel()

	ctl, _ := newTestController(t)
	ctl.Shutdown()
	ctl.Shutdown()

	if err := ctl.AddHost("h", "127.0.0.1", 31416); err != ErrShutdown {
		t.Fatalf("expected ErrShutdown after double Shutdown, got %v", err)
	}
}

// TestControllerAddRemoveAddFreshState checks spec.md §8:
// add_host(H) ; remove_host(H) ; add_host(H) is well-formed and the second
// add sees fresh state (no "already added" error, new client instance).
func TestControllerAddRemoveAddFreshState(t *testing.T) {
	t.Parallel()

	ctl, clients := newTestController(t)
	defer ctl.Shutdown()

	if err := ctl.AddHost("h", "127.0.0.1", 31416); err != nil {
		t.Fatalf("first AddHost: %v", err)
	}
	waitConnected(t, clients, "h")
	first := clients["h"]

	if err := ctl.RemoveHost("h"); err != nil {
		t.Fatalf("RemoveHost: %v", err)
	}

	if err := ctl.AddHost("h", "127.0.0.1", 31416); err != nil {
		t.Fatalf("second AddHost: %v", err)
	}
	waitConnected(t, clients, "h")
	second := clients["h"]

	if first == second {
		t.Fatal("expected the second add_host to construct a fresh client")
	}
}

// TestControllerRegisterDeregisterIdempotent checks spec.md §8:
// register_handler(X) ; deregister_handler(X) ; deregister_handler(X) is
// well-formed, with the second deregister a no-op.
func TestControllerRegisterDeregisterIdempotent(t *testing.T) {
	t.Parallel()

	ctl, _ := newTestController(t)
	defer ctl.Shutdown()

	h := NoopHostHandler{}
	ctl.RegisterHostHandler(h)
	ctl.DeregisterHostHandler(h)
	ctl.DeregisterHostHandler(h) // must not panic
}

// TestControllerShutdownDrainsOutstandingFutures checks spec.md §8: after
// shutdown, every previously returned unresolved future resolves with
// Disconnected within bounded time.
func TestControllerShutdownDrainsOutstandingFutures(t *testing.T) {
	t.Parallel()

	ctl, clients := newTestController(t)

	if err := ctl.AddHost("h", "127.0.0.1", 31416); err != nil {
		t.Fatalf("AddHost: %v", err)
	}
	waitConnected(t, clients, "h")
	client := clients["h"]

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	client.executeFunc = func(cmd rpc.Command) rpc.Status {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return rpc.StatusOK
	}

	firstFuture, err := ctl.RunBenchmarks("h")
	if err != nil {
		t.Fatalf("RunBenchmarks: %v", err)
	}
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first job never started executing")
	}

	secondFuture, err := ctl.Quit("h")
	if err != nil {
		t.Fatalf("Quit: %v", err)
	}

	shutdownDone := make(chan struct{})
	go func() {
		ctl.Shutdown()
		close(shutdownDone)
	}()

	// secondFuture was still queued (the worker is stuck on the first job),
	// so shutdownQueue must resolve it immediately, before the worker join.
	_, err = secondFuture.Wait()
	if err != ErrDisconnected {
		t.Fatalf("expected ErrDisconnected for the queued future, got %v", err)
	}

	close(block)

	select {
	case <-shutdownDone:
	case <-time.After(time.Second):
		t.Fatal("Shutdown never returned")
	}

	_, _ = firstFuture.Wait()
}

// TestControllerBandwidthStats checks that BandwidthStats surfaces the
// underlying Client's counters and rejects an unknown host.
func TestControllerBandwidthStats(t *testing.T) {
	t.Parallel()

	ctl, clients := newTestController(t)
	defer ctl.Shutdown()

	if err := ctl.AddHost("h", "127.0.0.1", 31416); err != nil {
		t.Fatalf("AddHost: %v", err)
	}
	waitConnected(t, clients, "h")

	wantRead, wantWritten := clients["h"].BandwidthCounts()
	read, written, err := ctl.BandwidthStats("h")
	if err != nil {
		t.Fatalf("BandwidthStats: %v", err)
	}
	if read != wantRead || written != wantWritten {
		t.Fatalf("expected (%d,%d), got (%d,%d)", wantRead, wantWritten, read, written)
	}

	if _, _, err := ctl.BandwidthStats("ghost"); err == nil {
		t.Fatal("expected an error for an unknown host")
	} else if _, ok := err.(UnknownHostError); !ok {
		t.Fatalf("expected UnknownHostError, got %T: %v", err, err)
	}
}

func waitConnected(t *testing.T, clients map[string]*fakeClient, host string) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if c, ok := clients[host]; ok {
			c.mu.Lock()
			connected := c.connected
			c.mu.Unlock()
			if connected {
				return
			}
		}
		select {
		case <-deadline:
			t.Fatalf("host %q never connected", host)
		case <-time.After(time.Millisecond):
		}
	}
}
